package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"inline-llm/internal/app"
	"inline-llm/internal/bus"
	"inline-llm/internal/streamsync"
	"inline-llm/internal/surface"
)

var errNoBus = errors.New("following needs a broker (set BUS_PROVIDER=nats)")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var clearSeq string
	var noFollow bool
	cmd := &cobra.Command{
		Use:           "follow <stream-id>",
		Short:         "Render a stream produced by another process",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			streamID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid stream id: %w", err)
			}
			deps, err := app.BuildWithLogOutput(os.Stderr)
			if err != nil {
				return err
			}
			defer deps.Close()

			sf := surface.NewWriter(cmd.OutOrStdout(), surface.WithClearSequence(clearSeq))
			syncer := streamsync.NewSyncer(sf, deps.Config.Follow && !noFollow)
			return follow(cmd.Context(), deps, streamID, syncer, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&clearSeq, "clear-sequence", surface.ClearScreen, "sequence written when the answer is redrawn")
	cmd.Flags().BoolVar(&noFollow, "no-follow", false, "do not move the cursor with the answer")

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "follow:", err)
		os.Exit(1)
	}
}

// follow renders every snapshot of streamID until the producer marks the
// stream done or ctx ends.
func follow(ctx context.Context, deps app.Deps, streamID uuid.UUID, syncer *streamsync.Syncer, out io.Writer) error {
	if _, ok := deps.Bus.(bus.Noop); ok || deps.Bus == nil {
		return errNoBus
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := deps.Log.With("stream_id", streamID)
	log.Info("following stream")
	// The handler runs on the subscription goroutine, which may still be
	// finishing when Follow returns after an outside cancel.
	var done atomic.Bool
	err := deps.Bus.Follow(ctx, streamID, func(_ context.Context, snap bus.Snapshot) error {
		if _, err := syncer.Push(snap.Text); err != nil {
			return err
		}
		if snap.Done {
			done.Store(true)
			cancel()
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	if !done.Load() {
		return ctx.Err()
	}
	stats := syncer.Stats()
	log.Info("stream finished", "appends", stats.Appends, "resets", stats.Resets)
	return nil
}
