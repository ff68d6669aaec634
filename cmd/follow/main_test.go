package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"inline-llm/internal/app"
	"inline-llm/internal/bus"
	"inline-llm/internal/streamsync"
	"inline-llm/internal/surface"
)

func TestFollow(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name      string
		snapshots []bus.Snapshot
		want      string
		wantErr   error
	}{
		{
			name: "appends until done",
			snapshots: []bus.Snapshot{
				{Seq: 0, Text: "Hel"},
				{Seq: 1, Text: "Hello"},
				{Seq: 2, Text: "Hello", Done: true},
			},
			want: "<c>Hello\n",
		},
		{
			name: "divergence redraws",
			snapshots: []bus.Snapshot{
				{Seq: 0, Text: "Hello"},
				{Seq: 1, Text: "Help", Done: true},
			},
			want: "<c>Hello<c>Help\n",
		},
		{
			name: "joining mid-stream",
			snapshots: []bus.Snapshot{
				{Seq: 7, Text: "already long"},
				{Seq: 8, Text: "already long text", Done: true},
			},
			want: "<c>already long text\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := new(bus.MockBus)
			b.On("Follow", mock.Anything, id, mock.Anything).Run(func(args mock.Arguments) {
				ctx := args.Get(0).(context.Context)
				handler := args.Get(2).(bus.Handler)
				for _, s := range tt.snapshots {
					if err := handler(ctx, s); err != nil {
						t.Errorf("handler: %v", err)
					}
				}
				<-ctx.Done()
			}).Return(nil).Once()

			var out bytes.Buffer
			syncer := streamsync.NewSyncer(surface.NewWriter(&out, surface.WithClearSequence("<c>")), true)
			// the surface was already cleared by whoever owns the terminal
			_ = syncer.Reset()
			deps := app.Deps{Log: slog.New(slog.NewTextHandler(io.Discard, nil)), Bus: b}

			if err := follow(context.Background(), deps, id, syncer, &out); err != nil {
				t.Fatal(err)
			}
			if out.String() != tt.want {
				t.Errorf("output %q, want %q", out.String(), tt.want)
			}
			b.AssertExpectations(t)
		})
	}
}

func TestFollowNeedsBroker(t *testing.T) {
	deps := app.Deps{Log: slog.New(slog.NewTextHandler(io.Discard, nil)), Bus: bus.Noop{}}
	syncer := streamsync.NewSyncer(surface.NewBuffer(), true)
	if err := follow(context.Background(), deps, uuid.New(), syncer, io.Discard); !errors.Is(err, errNoBus) {
		t.Errorf("err = %v", err)
	}
}

func TestFollowCanceled(t *testing.T) {
	b := new(bus.MockBus)
	b.On("Follow", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}).Return(nil).Once()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	deps := app.Deps{Log: slog.New(slog.NewTextHandler(io.Discard, nil)), Bus: b}
	syncer := streamsync.NewSyncer(surface.NewBuffer(), true)
	if err := follow(ctx, deps, uuid.New(), syncer, io.Discard); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

func TestFollowHandlerStillRunningAfterCancel(t *testing.T) {
	var wg sync.WaitGroup
	b := new(bus.MockBus)
	b.On("Follow", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		handler := args.Get(2).(bus.Handler)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = handler(ctx, bus.Snapshot{Seq: 0, Text: "late", Done: true})
		}()
		<-ctx.Done()
	}).Return(nil).Once()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf := surface.NewBuffer()
	deps := app.Deps{Log: slog.New(slog.NewTextHandler(io.Discard, nil)), Bus: b}
	err := follow(ctx, deps, uuid.New(), streamsync.NewSyncer(buf, false), io.Discard)
	wg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}
