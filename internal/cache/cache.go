package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"inline-llm/internal/llm"
)

// Cache stores finished answers so repeated prompts replay without a network call.
type Cache interface {
	// Get returns the entry stored under key, or nil on a miss.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set stores an entry with TTL.
	Set(ctx context.Context, key string, entry *Entry, ttl time.Duration) error

	// Purge removes every cached answer and reports how many were dropped.
	Purge(ctx context.Context) (int, error)

	// Close closes the cache connection
	Close() error
}

// Entry is a cached answer.
type Entry struct {
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Key derives a stable cache key from everything that shapes an answer.
func Key(provider string, req llm.Request) string {
	h := sha256.New()
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	write(provider)
	write(req.Model)
	write(req.System)
	for _, m := range req.Messages {
		write(string(m.Role))
		write(m.Content)
	}
	return hex.EncodeToString(h.Sum(nil))
}
