package cache

import (
	"context"
	"time"
)

// NoOpCache is a cache implementation that does nothing.
// Used when no cache is configured or Redis is unavailable: every lookup misses.
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache instance
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(ctx context.Context, key string) (*Entry, error) {
	return nil, nil
}

func (c *NoOpCache) Set(ctx context.Context, key string, entry *Entry, ttl time.Duration) error {
	return nil
}

func (c *NoOpCache) Purge(ctx context.Context) (int, error) {
	return 0, nil
}

func (c *NoOpCache) Close() error {
	return nil
}
