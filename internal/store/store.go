package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

// Session is one conversation bound to a provider and model.
type Session struct {
	ID          uuid.UUID
	Provider    string
	Model       string
	Attachments []string
	CreatedAt   time.Time
}

// Message is one stored turn of a session.
type Message struct {
	SessionID uuid.UUID
	Seq       int
	Role      string
	Content   string
	Cached    bool
	CreatedAt time.Time
}

// Store persists conversation transcripts.
type Store interface {
	CreateSession(ctx context.Context, provider, model string, attachments []string) (Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (Session, error)
	ListSessions(ctx context.Context, limit int) ([]Session, error)
	AppendMessage(ctx context.Context, msg Message) (Message, error)
	ListMessages(ctx context.Context, sessionID uuid.UUID) ([]Message, error)
	Close() error
}
