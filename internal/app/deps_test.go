package app

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"inline-llm/internal/bus"
	"inline-llm/internal/cache"
	"inline-llm/internal/config"
	"inline-llm/internal/llm"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestBuildLLMs(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.Config
		wantErr   error
		wantModel string
	}{
		{name: "default model", cfg: config.Config{LLMProvider: "groq"}, wantModel: "llama-3.1-8b-instant"},
		{name: "model override", cfg: config.Config{LLMProvider: "groq", LLMModel: "llama-3.3-70b"}, wantModel: "llama-3.3-70b"},
		{name: "unknown provider", cfg: config.Config{LLMProvider: "nope"}, wantErr: llm.ErrUnknownProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := buildLLMs(tt.cfg, discard)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := reg.DefaultModel(tt.cfg.LLMProvider); got != tt.wantModel {
				t.Errorf("model %q, want %q", got, tt.wantModel)
			}
			if reg.DefaultModel("openai") != "gpt-4o-mini" {
				t.Error("override leaked into other providers")
			}
		})
	}
}

func TestBuildStore(t *testing.T) {
	st, err := buildStore(config.Config{StoreProvider: "none"}, discard)
	if err != nil || st != nil {
		t.Errorf("none: store %v, err %v", st, err)
	}

	if _, err := buildStore(config.Config{StoreProvider: "postgres"}, discard); err == nil {
		t.Error("postgres without DB_URL should fail")
	}
	if _, err := buildStore(config.Config{StoreProvider: "mongo"}, discard); err == nil {
		t.Error("unknown provider should fail")
	}

	st, err = buildStore(config.Config{StoreProvider: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "t.db")}, discard)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Close(); err != nil {
		t.Error(err)
	}
}

func TestBuildCacheFallsBackToNoOp(t *testing.T) {
	for _, provider := range []string{"none", "", "memcached"} {
		if _, ok := buildCache(config.Config{CacheProvider: provider}, discard).(*cache.NoOpCache); !ok {
			t.Errorf("%q: expected no-op cache", provider)
		}
	}
}

func TestBuildBus(t *testing.T) {
	b, nc, err := buildBus(config.Config{BusProvider: "none"}, discard)
	if err != nil || nc != nil {
		t.Fatalf("none: %v", err)
	}
	if _, ok := b.(bus.Noop); !ok {
		t.Errorf("expected Noop bus, got %T", b)
	}
	if _, _, err := buildBus(config.Config{BusProvider: "kafka"}, discard); err == nil {
		t.Error("unknown provider should fail")
	}
	if _, _, err := buildBus(config.Config{BusProvider: "nats"}, discard); err == nil {
		t.Error("nats without url should fail")
	}
}
