package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

const maxConcurrentListings = 4

// Registry maps provider names to clients.
type Registry struct {
	clients  map[string]Client
	defaults map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: map[string]Client{}, defaults: map[string]string{}}
}

// Register adds or replaces a provider and its default model.
func (r *Registry) Register(name, defaultModel string, c Client) {
	r.clients[name] = c
	r.defaults[name] = defaultModel
}

// Get returns the client registered under name.
func (r *Registry) Get(name string) (Client, error) {
	c, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return c, nil
}

// DefaultModel returns the model used when a request leaves it empty.
func (r *Registry) DefaultModel(name string) string {
	return r.defaults[name]
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.clients))
	for n := range r.clients {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ProviderModels is the model listing of one provider. Err is set when the
// provider could not be listed.
type ProviderModels struct {
	Provider string
	Models   []string
	Err      error
}

// AllModels lists the models of every provider concurrently. A failing
// provider is reported in its entry and does not abort the others.
func (r *Registry) AllModels(ctx context.Context) ([]ProviderModels, error) {
	names := r.Names()
	out := make([]ProviderModels, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentListings)
	var mu sync.Mutex
	for i, name := range names {
		client := r.clients[name]
		g.Go(func() error {
			models, err := client.Models(gctx)
			mu.Lock()
			out[i] = ProviderModels{Provider: name, Models: models, Err: err}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, ctx.Err()
}
