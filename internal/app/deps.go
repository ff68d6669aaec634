package app

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"inline-llm/internal/bus"
	"inline-llm/internal/cache"
	"inline-llm/internal/config"
	"inline-llm/internal/llm"
	"inline-llm/internal/logger"
	"inline-llm/internal/pipeline"
	"inline-llm/internal/store"
)

// Deps bundles common runtime dependencies for the binaries.
type Deps struct {
	Config config.Config
	Log    *slog.Logger
	LLMs   *llm.Registry
	Cache  cache.Cache
	// Store is nil when STORE_PROVIDER=none.
	Store    store.Store
	Bus      bus.Bus
	Pipeline *pipeline.Pipeline

	closers []io.Closer
}

// Close releases connections opened by Build.
func (d Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i].Close())
	}
	return errors.Join(errs...)
}

// Build loads env, config, and shared components. Logs go to stdout.
func Build() (Deps, error) {
	return BuildWithLogOutput(os.Stdout)
}

// BuildWithLogOutput is Build with logs sent to w. Terminal clients pass
// stderr so logs never mix with the rendered answer.
func BuildWithLogOutput(w io.Writer) (Deps, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Deps{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := config.Load()
	log := logger.NewWithWriter(cfg.LogLevel, w)

	deps := Deps{Config: cfg, Log: log}

	llms, err := buildLLMs(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize LLM providers: %w", err)
	}
	deps.LLMs = llms

	deps.Cache = buildCache(cfg, log)
	deps.closers = append(deps.closers, deps.Cache)

	st, err := buildStore(cfg, log)
	if err != nil {
		_ = deps.Close()
		return Deps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	if st != nil {
		deps.Store = st
		deps.closers = append(deps.closers, st)
	}

	b, nc, err := buildBus(cfg, log)
	if err != nil {
		_ = deps.Close()
		return Deps{}, fmt.Errorf("failed to initialize bus: %w", err)
	}
	deps.Bus = b
	if nc != nil {
		deps.closers = append(deps.closers, drainer{nc})
	}

	deps.Pipeline = pipeline.New(log, llms, deps.Cache, deps.Store, deps.Bus, pipeline.Options{
		System:       cfg.SystemPrompt,
		Temperature:  cfg.Temperature,
		CacheTTL:     time.Duration(cfg.CacheTTL) * time.Second,
		ReplayTokens: cfg.ReplayTokens,
	})
	return deps, nil
}

func buildLLMs(cfg config.Config, log *slog.Logger) (*llm.Registry, error) {
	providers, err := config.LoadProviders(cfg.ProvidersFile)
	if err != nil {
		return nil, err
	}
	reg := llm.NewRegistry()
	for _, p := range providers {
		model := p.DefaultModel
		if p.Name == cfg.LLMProvider && cfg.LLMModel != "" {
			model = cfg.LLMModel
		}
		client, err := llm.NewOpenAIClient(p.BaseURL, p.APIKey(), model)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", p.Name, err)
		}
		reg.Register(p.Name, model, client)
	}
	if _, err := reg.Get(cfg.LLMProvider); err != nil {
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %w", err)
	}
	log.Info("LLM providers registered", "default", cfg.LLMProvider, "count", len(providers))
	return reg, nil
}

func buildCache(cfg config.Config, log *slog.Logger) cache.Cache {
	switch cfg.CacheProvider {
	case "redis":
		c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", "err", err)
			return cache.NewNoOpCache()
		}
		log.Info("using Redis cache", "addr", cfg.RedisAddr)
		return c
	case "", "none":
		return cache.NewNoOpCache()
	default:
		log.Warn("unknown CACHE_PROVIDER, caching disabled", "provider", cfg.CacheProvider)
		return cache.NewNoOpCache()
	}
}

func buildStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreProvider {
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when STORE_PROVIDER=postgres")
		}
		db, err := store.NewPostgres(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("using Postgres store")
		return db, nil
	case "sqlite":
		db, err := store.NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite: %w", err)
		}
		log.Info("using SQLite store", "path", cfg.SQLitePath)
		return db, nil
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid STORE_PROVIDER: %s (valid options: none, postgres, sqlite)", cfg.StoreProvider)
	}
}

func buildBus(cfg config.Config, log *slog.Logger) (bus.Bus, *nats.Conn, error) {
	switch cfg.BusProvider {
	case "nats":
		if cfg.NATSURL == "" {
			return nil, nil, fmt.Errorf("NATS_URL is required when BUS_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("inline-llm"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS bus", "url", cfg.NATSURL)
		return bus.NewNATS(log, nc), nc, nil
	case "", "none":
		return bus.Noop{}, nil, nil
	default:
		return nil, nil, fmt.Errorf("invalid BUS_PROVIDER: %s (valid options: none, nats)", cfg.BusProvider)
	}
}

type drainer struct{ nc *nats.Conn }

func (d drainer) Close() error { return d.nc.Drain() }
