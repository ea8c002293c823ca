// Package openai streams chat completions from OpenAI and Azure OpenAI
// deployments.
package openai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"aistudio/internal/provider"
)

// Provider wraps a langchaingo OpenAI-compatible client. The same
// implementation serves both the public OpenAI API and Azure deployments;
// only the client options differ.
type Provider struct {
	name string
	llm  *lcopenai.LLM
}

// New creates an OpenAI provider.
func New(apiKey string) (*Provider, error) {
	llm, err := lcopenai.New(lcopenai.WithToken(apiKey))
	if err != nil {
		return nil, fmt.Errorf("openai client: %w", err)
	}
	return &Provider{name: provider.NameOpenAI, llm: llm}, nil
}

// NewAzure creates a provider for an Azure OpenAI endpoint.
func NewAzure(apiKey, baseURL, apiVersion string) (*Provider, error) {
	opts := []lcopenai.Option{
		lcopenai.WithToken(apiKey),
		lcopenai.WithAPIType(lcopenai.APITypeAzure),
		lcopenai.WithBaseURL(baseURL),
	}
	if apiVersion != "" {
		opts = append(opts, lcopenai.WithAPIVersion(apiVersion))
	}
	llm, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("azure openai client: %w", err)
	}
	return &Provider{name: provider.NameAzure, llm: llm}, nil
}

func (p *Provider) Name() string {
	return p.name
}

// Stream issues one streaming completion. Each SDK chunk becomes a raw
// text-delta event; SDK-side failures surface as a final in-band error.
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
			out <- provider.Event{Err: fmt.Errorf("%s stream: %w", p.name, err)}
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
