package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
    id               TEXT PRIMARY KEY,
    provider         TEXT NOT NULL,
    model            TEXT NOT NULL,
    attachments_json TEXT NOT NULL DEFAULT '[]',
    created_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    seq        INTEGER NOT NULL,
    role       TEXT NOT NULL,
    content    TEXT NOT NULL,
    cached     INTEGER NOT NULL DEFAULT 0 CHECK(cached IN (0,1)),
    created_at TEXT NOT NULL,
    PRIMARY KEY (session_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at);
`

// SQLiteStore keeps transcripts in a local database file, for single-user
// setups without a Postgres server.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path. ":memory:" is accepted.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateSession(ctx context.Context, provider, model string, attachments []string) (Session, error) {
	sess := Session{
		ID:          uuid.New(),
		Provider:    provider,
		Model:       model,
		Attachments: attachments,
		CreatedAt:   time.Now().UTC(),
	}
	atts, err := json.Marshal(nonNil(attachments))
	if err != nil {
		return Session{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions(id, provider, model, attachments_json, created_at) VALUES(?,?,?,?,?)`,
		sess.ID.String(), provider, model, string(atts), formatTime(sess.CreatedAt))
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id uuid.UUID) (Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, provider, model, attachments_json, created_at FROM sessions WHERE id = ?`, id.String())
	sess, err := scanSQLiteSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	return sess, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, provider, model, attachments_json, created_at FROM sessions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Session
	for rows.Next() {
		sess, err := scanSQLiteSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AppendMessage(ctx context.Context, msg Message) (Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Message{}, err
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE session_id = ?`, msg.SessionID.String()).Scan(&msg.Seq); err != nil {
		return Message{}, fmt.Errorf("next seq: %w", err)
	}
	msg.CreatedAt = time.Now().UTC()
	cached := 0
	if msg.Cached {
		cached = 1
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages(session_id, seq, role, content, cached, created_at) VALUES(?,?,?,?,?,?)`,
		msg.SessionID.String(), msg.Seq, msg.Role, msg.Content, cached, formatTime(msg.CreatedAt)); err != nil {
		return Message{}, fmt.Errorf("append message: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Message{}, err
	}
	return msg, nil
}

func (s *SQLiteStore) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, role, content, cached, created_at FROM messages WHERE session_id = ? ORDER BY seq`, sessionID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Message
	for rows.Next() {
		var (
			m       = Message{SessionID: sessionID}
			cached  int
			created string
		)
		if err := rows.Scan(&m.Seq, &m.Role, &m.Content, &cached, &created); err != nil {
			return nil, err
		}
		m.Cached = cached == 1
		if m.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteSession(row rowScanner) (Session, error) {
	var (
		sess    Session
		id      string
		atts    string
		created string
	)
	if err := row.Scan(&id, &sess.Provider, &sess.Model, &atts, &created); err != nil {
		return Session{}, err
	}
	var err error
	if sess.ID, err = uuid.Parse(id); err != nil {
		return Session{}, fmt.Errorf("parse session id: %w", err)
	}
	if err := json.Unmarshal([]byte(atts), &sess.Attachments); err != nil {
		return Session{}, fmt.Errorf("decode attachments: %w", err)
	}
	if sess.CreatedAt, err = parseTime(created); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
