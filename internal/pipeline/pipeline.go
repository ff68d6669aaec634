// Package pipeline turns a prompt into a stream of snapshots rendered on a
// surface. It owns the network side: cache lookup, provider streaming,
// fan-out to followers and transcript persistence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"inline-llm/internal/attach"
	"inline-llm/internal/bus"
	"inline-llm/internal/cache"
	"inline-llm/internal/chunker"
	"inline-llm/internal/llm"
	"inline-llm/internal/store"
	"inline-llm/internal/streamsync"
)

var ErrEmptyPrompt = errors.New("prompt is empty")

// Options are the per-deployment knobs of a Pipeline.
type Options struct {
	System       string
	Temperature  float64
	CacheTTL     time.Duration
	ReplayTokens int
}

// Request is one prompt to answer.
type Request struct {
	Provider string
	// Model defaults to the provider's default model.
	Model  string
	Prompt string
	// SessionID continues an existing conversation. Zero starts a new one.
	SessionID   uuid.UUID
	Attachments []attach.Attachment
	// StreamID identifies the stream on the bus. Zero picks a fresh id.
	StreamID uuid.UUID
	NoCache  bool
}

// Result describes a finished run.
type Result struct {
	StreamID  uuid.UUID
	SessionID uuid.UUID
	Provider  string
	Model     string
	Text      string
	Cached    bool
	Stats     streamsync.Stats
}

// Pipeline answers prompts. Store may be nil, in which case conversations
// are not persisted.
type Pipeline struct {
	log   *slog.Logger
	llms  *llm.Registry
	cache cache.Cache
	store store.Store
	bus   bus.Bus
	opts  Options
}

// New returns a Pipeline. A nil cache or bus disables caching or fan-out.
func New(log *slog.Logger, llms *llm.Registry, c cache.Cache, st store.Store, b bus.Bus, opts Options) *Pipeline {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	if b == nil {
		b = bus.Noop{}
	}
	return &Pipeline{log: log, llms: llms, cache: c, store: st, bus: b, opts: opts}
}

// Run answers req, pushing every snapshot of the answer through sync. The
// syncer is reset first, since each run is a new logical stream. Canceling
// ctx stops snapshot delivery; the surface keeps what it rendered so far.
func (p *Pipeline) Run(ctx context.Context, req Request, sync *streamsync.Syncer) (Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Result{}, ErrEmptyPrompt
	}
	client, err := p.llms.Get(req.Provider)
	if err != nil {
		return Result{}, err
	}
	model := req.Model
	if model == "" {
		model = p.llms.DefaultModel(req.Provider)
	}
	streamID := req.StreamID
	if streamID == uuid.Nil {
		streamID = uuid.New()
	}
	log := p.log.With("stream_id", streamID, "provider", req.Provider, "model", model)

	if err := sync.Reset(); err != nil {
		return Result{}, err
	}
	before := sync.Stats()

	sessionID, history, err := p.openSession(ctx, req, model)
	if err != nil {
		return Result{}, err
	}
	userContent := attach.Render(req.Attachments) + req.Prompt
	llmReq := llm.Request{
		Model:       model,
		System:      p.opts.System,
		Messages:    append(history, llm.Message{Role: llm.RoleUser, Content: userContent}),
		Temperature: p.opts.Temperature,
	}

	res := Result{StreamID: streamID, SessionID: sessionID, Provider: req.Provider, Model: model}
	seq := 0
	push := func(snapshot string) error {
		if _, err := sync.Push(snapshot); err != nil {
			return err
		}
		p.publish(ctx, log, bus.Snapshot{StreamID: streamID, Seq: seq, Text: snapshot})
		seq++
		return nil
	}

	key := cache.Key(req.Provider, llmReq)
	var hit *cache.Entry
	if !req.NoCache {
		if hit, err = p.cache.Get(ctx, key); err != nil {
			log.Warn("cache lookup failed", "err", err)
			hit = nil
		}
	}

	if hit != nil {
		log.Info("replaying cached answer")
		res.Cached = true
		res.Text = hit.Text
		for _, snapshot := range chunker.Snapshots(hit.Text, chunker.Options{MaxTokens: p.opts.ReplayTokens}) {
			if err := ctx.Err(); err != nil {
				return p.partial(res, sync, before), err
			}
			if err := push(snapshot); err != nil {
				return p.partial(res, sync, before), err
			}
		}
	} else {
		resp, err := client.Stream(ctx, llmReq, push)
		if err != nil {
			return p.partial(res, sync, before), fmt.Errorf("stream from %s: %w", req.Provider, err)
		}
		res.Text = resp.Text
		// Some providers finish with text the deltas never carried.
		if sync.Rendered() != res.Text {
			if err := push(res.Text); err != nil {
				return p.partial(res, sync, before), err
			}
		}
		entry := &cache.Entry{Provider: req.Provider, Model: model, Text: res.Text, CreatedAt: time.Now().UTC()}
		if err := p.cache.Set(ctx, key, entry, p.opts.CacheTTL); err != nil {
			log.Warn("cache store failed", "err", err)
		}
	}

	p.publish(ctx, log, bus.Snapshot{StreamID: streamID, Seq: seq, Text: res.Text, Done: true})
	p.record(ctx, log, sessionID, userContent, res)

	res.Stats = diffStats(sync.Stats(), before)
	log.Info("stream finished", "cached", res.Cached, "appends", res.Stats.Appends, "resets", res.Stats.Resets)
	return res, nil
}

func (p *Pipeline) partial(res Result, sync *streamsync.Syncer, before streamsync.Stats) Result {
	res.Text = sync.Rendered()
	res.Stats = diffStats(sync.Stats(), before)
	return res
}

// openSession resumes or starts the conversation req belongs to and returns
// its prior turns.
func (p *Pipeline) openSession(ctx context.Context, req Request, model string) (uuid.UUID, []llm.Message, error) {
	if p.store == nil {
		return uuid.Nil, nil, nil
	}
	if req.SessionID != uuid.Nil {
		if _, err := p.store.GetSession(ctx, req.SessionID); err != nil {
			return uuid.Nil, nil, fmt.Errorf("load session %s: %w", req.SessionID, err)
		}
		msgs, err := p.store.ListMessages(ctx, req.SessionID)
		if err != nil {
			return uuid.Nil, nil, fmt.Errorf("load history: %w", err)
		}
		history := make([]llm.Message, 0, len(msgs))
		for _, m := range msgs {
			history = append(history, llm.Message{Role: llm.Role(m.Role), Content: m.Content})
		}
		return req.SessionID, history, nil
	}

	names := make([]string, len(req.Attachments))
	for i, a := range req.Attachments {
		names[i] = a.Name
	}
	session, err := p.store.CreateSession(ctx, req.Provider, model, names)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("create session: %w", err)
	}
	return session.ID, nil, nil
}

func (p *Pipeline) record(ctx context.Context, log *slog.Logger, sessionID uuid.UUID, userContent string, res Result) {
	if p.store == nil {
		return
	}
	turns := []store.Message{
		{SessionID: sessionID, Role: string(llm.RoleUser), Content: userContent},
		{SessionID: sessionID, Role: string(llm.RoleAssistant), Content: res.Text, Cached: res.Cached},
	}
	for _, m := range turns {
		if _, err := p.store.AppendMessage(ctx, m); err != nil {
			log.Error("failed to record message", "session_id", sessionID, "role", m.Role, "err", err)
			return
		}
	}
}

func (p *Pipeline) publish(ctx context.Context, log *slog.Logger, snap bus.Snapshot) {
	if err := p.bus.Publish(ctx, snap); err != nil {
		log.Warn("publish snapshot failed", "seq", snap.Seq, "err", err)
	}
}

func diffStats(after, before streamsync.Stats) streamsync.Stats {
	return streamsync.Stats{
		Appends: after.Appends - before.Appends,
		Resets:  after.Resets - before.Resets,
		Noops:   after.Noops - before.Noops,
	}
}
