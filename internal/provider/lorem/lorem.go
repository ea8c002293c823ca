// Package lorem is a mock provider that streams lorem ipsum text.
// Used for local development and demos without requiring real API keys.
package lorem

import (
	"context"
	"errors"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"

	"aistudio/internal/provider"
)

// Provider streams generated lorem ipsum one word at a time.
type Provider struct {
	generator *loremgen.Lorem
	// delay paces word emission; zero means no pacing (tests).
	delay time.Duration
	// words is the response length per request.
	words int
}

// New creates a lorem provider with demo pacing.
func New() *Provider {
	return &Provider{generator: loremgen.New(), delay: 50 * time.Millisecond, words: 40}
}

// NewUnpaced creates a lorem provider that emits as fast as possible.
func NewUnpaced(words int) *Provider {
	if words <= 0 {
		words = 40
	}
	return &Provider{generator: loremgen.New(), words: words}
}

func (p *Provider) Name() string {
	return provider.NameLorem
}

// Stream emits one text-delta per generated word. Models named lorem-error
// fail mid-stream to exercise per-stream error handling end to end.
func (p *Provider) Stream(ctx context.Context, req provider.Request) (<-chan provider.Event, error) {
	out := make(chan provider.Event, 8)

	go func() {
		defer close(out)

		var text strings.Builder
		for text.Len() < p.words*6 {
			text.WriteString(p.generator.Sentence(5, 12))
			text.WriteString(" ")
		}
		words := strings.Fields(text.String())
		if len(words) > p.words {
			words = words[:p.words]
		}

		failAt := -1
		if strings.Contains(req.Model, "error") {
			failAt = len(words) / 2
		}

		for i, word := range words {
			if p.delay > 0 {
				select {
				case <-time.After(p.delay):
				case <-ctx.Done():
					return
				}
			}
			if i == failAt {
				select {
				case out <- provider.Event{Err: errors.New("simulated upstream failure")}:
				case <-ctx.Done():
				}
				return
			}
			chunk := word
			if i < len(words)-1 {
				chunk += " "
			}
			select {
			case out <- provider.TextDelta(chunk):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
