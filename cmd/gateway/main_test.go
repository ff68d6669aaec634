package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"inline-llm/internal/app"
	"inline-llm/internal/bus"
	"inline-llm/internal/cache"
	"inline-llm/internal/config"
	"inline-llm/internal/llm"
	"inline-llm/internal/pipeline"
	"inline-llm/internal/store"
)

type testEnv struct {
	client *llm.MockClient
	other  *llm.MockClient
	cache  *cache.MockCache
	store  *store.MockStore
	deps   app.Deps
}

func newTestEnv(withStore bool) *testEnv {
	e := &testEnv{
		client: new(llm.MockClient),
		other:  new(llm.MockClient),
		cache:  new(cache.MockCache),
		store:  new(store.MockStore),
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := llm.NewRegistry()
	reg.Register("openai", "gpt-4o-mini", e.client)
	reg.Register("groq", "llama", e.other)

	var st store.Store
	if withStore {
		st = e.store
	}
	e.deps = app.Deps{
		Config:   config.Config{LLMProvider: "openai", Follow: true},
		Log:      log,
		LLMs:     reg,
		Cache:    e.cache,
		Store:    st,
		Bus:      bus.Noop{},
		Pipeline: pipeline.New(log, reg, e.cache, st, bus.Noop{}, pipeline.Options{CacheTTL: time.Minute, ReplayTokens: 4}),
	}
	return e
}

type sseEvent struct {
	name string
	data string
}

func parseEvents(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	for _, block := range strings.Split(strings.TrimSpace(body), "\n\n") {
		var ev sseEvent
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "event: "):
				ev.name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				ev.data = strings.TrimPrefix(line, "data: ")
			}
		}
		events = append(events, ev)
	}
	return events
}

func eventNames(events []sseEvent) string {
	names := make([]string, len(events))
	for i, ev := range events {
		names[i] = ev.name
	}
	return strings.Join(names, ",")
}

func TestChatHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(*testEnv)
		wantStatus int
		wantEvents string
	}{
		{
			name: "streams appends",
			body: `{"prompt":"hi"}`,
			setup: func(e *testEnv) {
				e.cache.On("Get", mock.Anything, mock.Anything).Return(nil, nil).Once()
				e.client.On("Stream", mock.Anything, mock.Anything).
					Return(llm.Response{Text: "Hello there"}, []string{"Hello", "Hello there"}, nil).Once()
				e.cache.On("Set", mock.Anything, mock.Anything, mock.Anything, time.Minute).Return(nil).Once()
			},
			wantStatus: http.StatusOK,
			wantEvents: "start,clear,append,cursor,append,cursor,done",
		},
		{
			name: "no follow omits cursor moves",
			body: `{"prompt":"hi","no_follow":true}`,
			setup: func(e *testEnv) {
				e.cache.On("Get", mock.Anything, mock.Anything).Return(nil, nil).Once()
				e.client.On("Stream", mock.Anything, mock.Anything).
					Return(llm.Response{Text: "ab"}, []string{"a", "ab"}, nil).Once()
				e.cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
			},
			wantStatus: http.StatusOK,
			wantEvents: "start,clear,append,append,done",
		},
		{
			name: "divergent snapshot clears",
			body: `{"prompt":"hi","provider":"groq","no_follow":true}`,
			setup: func(e *testEnv) {
				e.cache.On("Get", mock.Anything, mock.Anything).Return(nil, nil).Once()
				e.other.On("Stream", mock.Anything, mock.Anything).
					Return(llm.Response{Text: "Help"}, []string{"Hello", "Help"}, nil).Once()
				e.cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
			},
			wantStatus: http.StatusOK,
			wantEvents: "start,clear,append,clear,append,done",
		},
		{
			name: "stream failure reports error event",
			body: `{"prompt":"hi","no_follow":true}`,
			setup: func(e *testEnv) {
				e.cache.On("Get", mock.Anything, mock.Anything).Return(nil, nil).Once()
				e.client.On("Stream", mock.Anything, mock.Anything).
					Return(llm.Response{}, []string{"par"}, errors.New("boom")).Once()
			},
			wantStatus: http.StatusOK,
			wantEvents: "start,clear,append,error",
		},
		{
			name:       "missing prompt",
			body:       `{"provider":"openai"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad session id",
			body:       `{"prompt":"hi","session_id":"nope"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown provider",
			body:       `{"prompt":"hi","provider":"acme"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(false)
			if tt.setup != nil {
				tt.setup(e)
			}
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(tt.body))
			newRouter(e.deps).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantEvents == "" {
				return
			}
			if got := eventNames(parseEvents(t, rec.Body.String())); got != tt.wantEvents {
				t.Errorf("events %s, want %s", got, tt.wantEvents)
			}
			e.client.AssertExpectations(t)
			e.other.AssertExpectations(t)
			e.cache.AssertExpectations(t)
		})
	}
}

func TestChatHandlerAppendsAreDeltas(t *testing.T) {
	e := newTestEnv(false)
	e.cache.On("Get", mock.Anything, mock.Anything).Return(nil, nil).Once()
	e.client.On("Stream", mock.Anything, mock.Anything).
		Return(llm.Response{Text: "Hello, world"}, []string{"Hello", "Hello, world"}, nil).Once()
	e.cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	rec := httptest.NewRecorder()
	newRouter(e.deps).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"prompt":"hi"}`)))

	var rendered strings.Builder
	for _, ev := range parseEvents(t, rec.Body.String()) {
		if ev.name != "append" {
			continue
		}
		var data struct{ Text string }
		if err := json.Unmarshal([]byte(ev.data), &data); err != nil {
			t.Fatal(err)
		}
		rendered.WriteString(data.Text)
	}
	if rendered.String() != "Hello, world" {
		t.Errorf("rendered %q", rendered.String())
	}
}

func TestModelsHandler(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		setup      func(*testEnv)
		wantStatus int
		wantBody   string
	}{
		{
			name:  "single provider",
			query: "?provider=openai",
			setup: func(e *testEnv) {
				e.client.On("Models", mock.Anything).Return([]string{"gpt-4o", "gpt-4o-mini"}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   "gpt-4o-mini",
		},
		{
			name:       "unknown provider",
			query:      "?provider=acme",
			wantStatus: http.StatusNotFound,
		},
		{
			name:  "provider failure",
			query: "?provider=openai",
			setup: func(e *testEnv) {
				e.client.On("Models", mock.Anything).Return(nil, errors.New("401")).Once()
			},
			wantStatus: http.StatusBadGateway,
		},
		{
			name: "all providers keep partial failures",
			setup: func(e *testEnv) {
				e.client.On("Models", mock.Anything).Return([]string{"gpt-4o"}, nil).Once()
				e.other.On("Models", mock.Anything).Return(nil, errors.New("unreachable")).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   "unreachable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(false)
			if tt.setup != nil {
				tt.setup(e)
			}
			rec := httptest.NewRecorder()
			newRouter(e.deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/models"+tt.query, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body %s missing %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestFieldsHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		wantStatus int
		want       [][]string
	}{
		{
			name:       "comma lines",
			body:       map[string]any{"lines": []string{`a, "b,c" ,d`, `"say ""hi"""`, ""}},
			wantStatus: http.StatusOK,
			want:       [][]string{{"a", "b,c", "d"}, {`say "hi"`}, {""}},
		},
		{
			name:       "tab delimiter",
			body:       map[string]any{"lines": []string{"x\ty, z"}, "delimiter": "\t"},
			wantStatus: http.StatusOK,
			want:       [][]string{{"x", "y, z"}},
		},
		{
			name:       "unterminated quote",
			body:       map[string]any{"lines": []string{`"open, field`}},
			wantStatus: http.StatusOK,
			want:       [][]string{{"open, field"}},
		},
		{
			name:       "no lines",
			body:       map[string]any{"lines": []string{}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "multibyte delimiter",
			body:       map[string]any{"lines": []string{"café,naïve"}, "delimiter": "é"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "quote delimiter",
			body:       map[string]any{"lines": []string{"a"}, "delimiter": `"`},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(false)
			body, _ := json.Marshal(tt.body)
			rec := httptest.NewRecorder()
			newRouter(e.deps).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/fields", bytes.NewReader(body)))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.want == nil {
				return
			}
			var resp struct {
				Records [][]string `json:"records"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if len(resp.Records) != len(tt.want) {
				t.Fatalf("records %q, want %q", resp.Records, tt.want)
			}
			for i := range tt.want {
				if strings.Join(resp.Records[i], "|") != strings.Join(tt.want[i], "|") {
					t.Errorf("record %d = %q, want %q", i, resp.Records[i], tt.want[i])
				}
			}
		})
	}
}

func TestMessagesHandler(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name       string
		withStore  bool
		path       string
		setup      func(*store.MockStore)
		wantStatus int
	}{
		{
			name:      "found",
			withStore: true,
			path:      "/api/sessions/" + id.String() + "/messages",
			setup: func(s *store.MockStore) {
				s.On("GetSession", mock.Anything, id).Return(store.Session{ID: id, Provider: "openai"}, nil).Once()
				s.On("ListMessages", mock.Anything, id).Return([]store.Message{{Seq: 1, Role: "user", Content: "hi"}}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:      "not found",
			withStore: true,
			path:      "/api/sessions/" + id.String() + "/messages",
			setup: func(s *store.MockStore) {
				s.On("GetSession", mock.Anything, id).Return(store.Session{}, store.ErrNotFound).Once()
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalid id",
			withStore:  true,
			path:       "/api/sessions/xyz/messages",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "store disabled",
			path:       "/api/sessions/" + id.String() + "/messages",
			wantStatus: http.StatusNotImplemented,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(tt.withStore)
			if tt.setup != nil {
				tt.setup(e.store)
			}
			rec := httptest.NewRecorder()
			newRouter(e.deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status %d, want %d", rec.Code, tt.wantStatus)
			}
			e.store.AssertExpectations(t)
		})
	}
}
