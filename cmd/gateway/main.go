package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"inline-llm/internal/app"
	"inline-llm/internal/httputil"
	"inline-llm/internal/lineparse"
	"inline-llm/internal/pipeline"
	"inline-llm/internal/store"
	"inline-llm/internal/streamsync"
	"inline-llm/internal/surface"
)

type chatRequest struct {
	Provider  string `json:"provider" validate:"omitempty,max=64"`
	Model     string `json:"model" validate:"omitempty,max=256"`
	Prompt    string `json:"prompt" validate:"required,max=32000"`
	SessionID string `json:"session_id" validate:"omitempty,uuid"`
	NoCache   bool   `json:"no_cache"`
	NoFollow  bool   `json:"no_follow"`
}

type fieldsRequest struct {
	Lines     []string `json:"lines" validate:"required,min=1,max=1000"`
	Delimiter string   `json:"delimiter" validate:"omitempty,len=1,ascii,ne=\""`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			deps.Log.Warn("close dependencies", "err", err)
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Log.Info("gateway listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		deps.Log.Error("server failed", "err", err)
	}
}

func newRouter(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log)
	r.Post("/api/chat", chatHandler(deps))
	r.Get("/api/models", modelsHandler(deps))
	r.Post("/api/fields", fieldsHandler(deps))
	r.Get("/api/sessions/{id}/messages", messagesHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps))
	return r
}

// chatHandler streams the answer as surface events: clear, append and
// cursor, framed by start and done (or error) events.
func chatHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if !httputil.DecodeJSON(deps.Log, w, r, &req) {
			return
		}
		provider := req.Provider
		if provider == "" {
			provider = deps.Config.LLMProvider
		}
		if _, err := deps.LLMs.Get(provider); err != nil {
			httputil.Fail(deps.Log, w, "unknown provider", err, http.StatusBadRequest)
			return
		}
		var sessionID uuid.UUID
		if req.SessionID != "" {
			sessionID = uuid.MustParse(req.SessionID)
		}

		sse, err := surface.NewSSE(w)
		if err != nil {
			httputil.Fail(deps.Log, w, "streaming unsupported", err, http.StatusInternalServerError)
			return
		}
		streamID := uuid.New()
		if err := sse.Event("start", map[string]any{"stream_id": streamID}); err != nil {
			deps.Log.Warn("client went away", "err", err)
			return
		}

		syncer := streamsync.NewSyncer(sse, deps.Config.Follow && !req.NoFollow)
		res, err := deps.Pipeline.Run(r.Context(), pipeline.Request{
			Provider:  provider,
			Model:     req.Model,
			Prompt:    req.Prompt,
			SessionID: sessionID,
			StreamID:  streamID,
			NoCache:   req.NoCache,
		}, syncer)
		if err != nil {
			deps.Log.Error("chat failed", "stream_id", streamID, "err", err)
			_ = sse.Event("error", map[string]any{"error": err.Error()})
			return
		}
		_ = sse.Event("done", map[string]any{
			"stream_id":  res.StreamID,
			"session_id": res.SessionID,
			"model":      res.Model,
			"cached":     res.Cached,
			"appends":    res.Stats.Appends,
			"resets":     res.Stats.Resets,
		})
	}
}

func modelsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if provider := r.URL.Query().Get("provider"); provider != "" {
			client, err := deps.LLMs.Get(provider)
			if err != nil {
				httputil.Fail(deps.Log, w, "unknown provider", err, http.StatusNotFound)
				return
			}
			models, err := client.Models(ctx)
			if err != nil {
				httputil.Fail(deps.Log, w, "failed to list models", err, http.StatusBadGateway)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, map[string]any{
				"provider": provider,
				"models":   models,
			})
			return
		}

		listings, err := deps.LLMs.AllModels(ctx)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to list models", err, http.StatusInternalServerError)
			return
		}
		out := make([]map[string]any, 0, len(listings))
		for _, l := range listings {
			entry := map[string]any{"provider": l.Provider, "models": l.Models}
			if l.Err != nil {
				entry["error"] = l.Err.Error()
			}
			out = append(out, entry)
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"providers": out})
	}
}

func fieldsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req fieldsRequest
		if !httputil.DecodeJSON(deps.Log, w, r, &req) {
			return
		}
		delim := byte(lineparse.Comma)
		if req.Delimiter != "" {
			delim = req.Delimiter[0]
		}
		records := make([][]string, len(req.Lines))
		for i, line := range req.Lines {
			records[i] = lineparse.ParseDelimited(strings.TrimRight(line, "\r\n"), delim)
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"records": records})
	}
}

func messagesHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Store == nil {
			httputil.Fail(deps.Log, w, "transcripts are disabled", nil, http.StatusNotImplemented)
			return
		}
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid session id", err, http.StatusBadRequest)
			return
		}
		ctx := r.Context()
		session, err := deps.Store.GetSession(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			httputil.Fail(deps.Log, w, "session not found", err, http.StatusNotFound)
			return
		}
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to load session", err, http.StatusInternalServerError)
			return
		}
		msgs, err := deps.Store.ListMessages(ctx, id)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to load messages", err, http.StatusInternalServerError)
			return
		}
		out := make([]map[string]any, 0, len(msgs))
		for _, m := range msgs {
			out = append(out, map[string]any{
				"seq":        m.Seq,
				"role":       m.Role,
				"content":    m.Content,
				"cached":     m.Cached,
				"created_at": m.CreatedAt,
			})
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"session_id":  session.ID,
			"provider":    session.Provider,
			"model":       session.Model,
			"attachments": session.Attachments,
			"messages":    out,
		})
	}
}
