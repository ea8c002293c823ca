// Package provider defines the contract between the streaming engine and
// upstream LLM backends, plus a registry keyed by provider name.
package provider

import (
	"context"
	"sync"
)

// Known provider names.
const (
	NameOpenAI    = "openai"
	NameAzure     = "azure"
	NameGoogle    = "google"
	NameBedrock   = "amazon-bedrock"
	NameAnthropic = "anthropic"
	NameLorem     = "lorem"
)

// Message is one turn in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes one streaming completion call.
type Request struct {
	// Model is the provider-native model identifier (e.g. "gpt-4o").
	Model    string
	Messages []Message
	// MaxTokens caps the response length. Zero means provider default.
	MaxTokens int
	// Temperature is optional; nil means provider default.
	Temperature *float64
}

// Event is one raw payload from an upstream provider stream, decoded but not
// yet normalized. Data carries the provider-shaped object; the engine's schema
// layer decides what is usable. A non-nil Err is terminal: the channel closes
// after it and Data is empty.
type Event struct {
	Data map[string]any
	Err  error
}

// TextDelta builds the common incremental-text event shape.
func TextDelta(text string) Event {
	return Event{Data: map[string]any{"type": "text-delta", "delta": text}}
}

// Provider is a single upstream LLM backend.
//
// Stream returns an error only for failures before the upstream call is
// issued (bad configuration, unsupported model). Once the channel is handed
// out, all failures arrive in-band as a final Event with Err set, and the
// channel is closed either way. Implementations must stop promptly when ctx
// is cancelled.
type Provider interface {
	Name() string
	Stream(ctx context.Context, req Request) (<-chan Event, error)
}

// Registry holds the configured providers for one server instance.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds or replaces a provider under its own name.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the registered provider names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
