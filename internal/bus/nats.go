package bus

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// NewNATS constructs a thin NATS-based bus.
func NewNATS(log *slog.Logger, nc *nats.Conn) Bus {
	return &natsBus{log: log, nc: nc}
}

type natsBus struct {
	log *slog.Logger
	nc  *nats.Conn
}

func (b *natsBus) Publish(_ context.Context, snap Snapshot) error {
	if snap.StreamID == uuid.Nil {
		return errors.New("stream id required")
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return b.nc.Publish(Subject(snap.StreamID), body)
}

func (b *natsBus) Follow(ctx context.Context, streamID uuid.UUID, handler Handler) error {
	f := &follower{log: b.log.With("stream_id", streamID), handler: handler, last: -1}
	sub, err := b.nc.Subscribe(Subject(streamID), func(msg *nats.Msg) {
		f.handleMessage(ctx, msg.Data)
	})
	if err != nil {
		return err
	}
	<-ctx.Done()
	return sub.Unsubscribe()
}

// follower drops snapshots that are not newer than the last one handled.
// NATS runs one subscription callback at a time, so no locking is needed.
type follower struct {
	log     *slog.Logger
	handler Handler
	last    int
}

func (f *follower) handleMessage(ctx context.Context, data []byte) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		f.log.Error("failed to decode snapshot", "err", err)
		return
	}
	if snap.Seq <= f.last {
		f.log.Debug("dropping stale snapshot", "seq", snap.Seq, "last", f.last)
		return
	}
	f.last = snap.Seq
	if err := f.handler(ctx, snap); err != nil {
		f.log.Error("snapshot handler failed", "seq", snap.Seq, "err", err)
	}
}
