package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	// Advisory lock keeps concurrently starting binaries from racing on DDL.
	const lockID = 734512901

	var acquired bool
	if err := s.db.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, lockID).Scan(&acquired); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !acquired {
		time.Sleep(2 * time.Second)
		return nil
	}
	defer func() {
		_, _ = s.db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
	}()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id UUID PRIMARY KEY,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			attachments TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			session_id UUID REFERENCES sessions(id) ON DELETE CASCADE,
			seq INT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			cached BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (session_id, seq)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, provider, model string, attachments []string) (Session, error) {
	sess := Session{ID: uuid.New(), Provider: provider, Model: model, Attachments: attachments}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO sessions(id, provider, model, attachments) VALUES($1,$2,$3,$4) RETURNING created_at`,
		sess.ID, provider, model, pq.Array(nonNil(attachments))).Scan(&sess.CreatedAt)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *PostgresStore) GetSession(ctx context.Context, id uuid.UUID) (Session, error) {
	sess := Session{ID: id}
	row := s.db.QueryRowContext(ctx, `SELECT provider, model, attachments, created_at FROM sessions WHERE id=$1`, id)
	if err := row.Scan(&sess.Provider, &sess.Model, pq.Array(&sess.Attachments), &sess.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	return sess, nil
}

func (s *PostgresStore) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, provider, model, attachments, created_at FROM sessions ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Provider, &sess.Model, pq.Array(&sess.Attachments), &sess.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AppendMessage(ctx context.Context, msg Message) (Message, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO messages(session_id, seq, role, content, cached)
		VALUES($1, (SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE session_id=$1), $2, $3, $4)
		RETURNING seq, created_at`,
		msg.SessionID, msg.Role, msg.Content, msg.Cached).Scan(&msg.Seq, &msg.CreatedAt)
	if err != nil {
		return Message{}, fmt.Errorf("append message: %w", err)
	}
	return msg, nil
}

func (s *PostgresStore) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, role, content, cached, created_at FROM messages WHERE session_id=$1 ORDER BY seq`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Message
	for rows.Next() {
		m := Message{SessionID: sessionID}
		if err := rows.Scan(&m.Seq, &m.Role, &m.Content, &m.Cached, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
