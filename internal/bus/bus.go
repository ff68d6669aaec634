package bus

import (
	"context"

	"github.com/google/uuid"
)

// Snapshot is the cumulative text of one stream at a point in time.
type Snapshot struct {
	StreamID uuid.UUID `json:"stream_id"`
	Seq      int       `json:"seq"`
	Text     string    `json:"text"`
	Done     bool      `json:"done,omitempty"`
}

type Handler func(context.Context, Snapshot) error

// Bus fans snapshots of a stream out to followers on other processes.
type Bus interface {
	Publish(ctx context.Context, snap Snapshot) error
	// Follow delivers snapshots of streamID to handler until ctx is done.
	Follow(ctx context.Context, streamID uuid.UUID, handler Handler) error
}

// Subject returns the subject snapshots of streamID are published on.
func Subject(streamID uuid.UUID) string {
	return "streams." + streamID.String()
}

// Noop drops every snapshot. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Snapshot) error { return nil }

func (Noop) Follow(ctx context.Context, _ uuid.UUID, _ Handler) error {
	<-ctx.Done()
	return nil
}
