// Package anthropic streams chat completions from Anthropic Claude models.
package anthropic

import (
	"context"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"aistudio/internal/provider"
)

const defaultMaxTokens = 4096

// Provider wraps an Anthropic SDK client.
type Provider struct {
	client sdk.Client
}

// New creates an Anthropic provider with the given API key.
func New(apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	return &Provider{client: sdk.NewClient(option.WithAPIKey(apiKey))}, nil
}

func (p *Provider) Name() string {
	return provider.NameAnthropic
}

// Stream issues one streaming Messages call. Text deltas become raw
// text-delta events; SDK stream failures surface as a final in-band error.
func (p *Provider) Stream(ctx context.Context, req provider.Request) (<-chan provider.Event, error) {
	params, err := toMessageParams(req)
	if err != nil {
		return nil, err
	}

	out := make(chan provider.Event, 8)
	go func() {
		defer close(out)

		stream := p.client.Messages.NewStreaming(ctx, params)
		for stream.Next() {
			event := stream.Current()
			switch e := event.AsAny().(type) {
			case sdk.ContentBlockDeltaEvent:
				if e.Delta.Type != "text_delta" || e.Delta.Text == "" {
					continue
				}
				select {
				case out <- provider.TextDelta(e.Delta.Text):
				case <-ctx.Done():
					return
				}
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			select {
			case out <- provider.Event{Err: fmt.Errorf("anthropic stream: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

func toMessageParams(req provider.Request) (sdk.MessageNewParams, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: int64(maxTokens),
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}

	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			params.System = append(params.System, sdk.TextBlockParam{Text: m.Content})
		case "user":
			params.Messages = append(params.Messages, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		case "assistant":
			params.Messages = append(params.Messages, sdk.NewAssistantMessage(sdk.NewTextBlock(m.Content)))
		default:
			return sdk.MessageNewParams{}, fmt.Errorf("unsupported message role %q", m.Role)
		}
	}
	return params, nil
}
