// Package provider defines the interface and implementations for AI guidance generators.
package provider

import (
	"context"
	"sync"
)

// Result is the raw outcome of a single generation call.
type Result struct {
	Text         string
	Model        string
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
}

// Generator defines the interface a generation backend must implement.
type Generator interface {
	// ID returns the provider identifier (matches the chain config).
	ID() string
	// Generate produces raw guidance text for the given prompts.
	Generate(ctx context.Context, system, user string, maxTokens int64, temperature float64) (*Result, error)
}

// Registry manages available generators.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
}

// NewRegistry creates an empty generator registry.
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]Generator),
	}
}

// Register adds a generator to the registry.
func (r *Registry) Register(g Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[g.ID()] = g
}

// Get returns a generator by ID, or nil if not found.
func (r *Registry) Get(id string) Generator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generators[id]
}

// List returns all registered generator IDs.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.generators))
	for id := range r.generators {
		ids = append(ids, id)
	}
	return ids
}
