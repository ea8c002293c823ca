// Package google streams chat completions from Google Gemini models.
package google

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"aistudio/internal/provider"
)

// Provider wraps a langchaingo Gemini client.
type Provider struct {
	llm *googleai.GoogleAI
}

// New creates a Google provider with the given API key.
func New(ctx context.Context, apiKey string) (*Provider, error) {
	llm, err := googleai.New(ctx, googleai.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("googleai client: %w", err)
	}
	return &Provider{llm: llm}, nil
}

func (p *Provider) Name() string {
	return provider.NameGoogle
}

// Stream issues one streaming completion; each SDK chunk becomes a raw
// text-delta event.
func (p *Provider) Stream(ctx context.Context, req provider.Request) (<-chan provider.Event, error) {
	messages, err := toMessageContent(req.Messages)
	if err != nil {
		return nil, err
	}

	out := make(chan provider.Event, 8)
	go func() {
		defer close(out)

		opts := []llms.CallOption{
			llms.WithModel(req.Model),
			llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				if len(chunk) == 0 {
					return nil
				}
				select {
				case out <- provider.TextDelta(string(chunk)):
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			}),
		}
		if req.MaxTokens > 0 {
			opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
		}
		if req.Temperature != nil {
			opts = append(opts, llms.WithTemperature(*req.Temperature))
		}

		if _, err := p.llm.GenerateContent(ctx, messages, opts...); err != nil && ctx.Err() == nil {
			out <- provider.Event{Err: fmt.Errorf("google stream: %w", err)}
		}
	}()
	return out, nil
}

func toMessageContent(messages []provider.Message) ([]llms.MessageContent, error) {
	converted := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		var role llms.ChatMessageType
		switch m.Role {
		case "system":
			role = llms.ChatMessageTypeSystem
		case "user":
			role = llms.ChatMessageTypeHuman
		case "assistant":
			role = llms.ChatMessageTypeAI
		default:
			return nil, fmt.Errorf("unsupported message role %q", m.Role)
		}
		converted = append(converted, llms.TextParts(role, m.Content))
	}
	return converted, nil
}
