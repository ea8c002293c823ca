// Package bedrock streams chat completions from Amazon Bedrock models via
// the Converse streaming API.
package bedrock

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"aistudio/internal/provider"
)

// Provider wraps a Bedrock runtime client.
type Provider struct {
	client *bedrockruntime.Client
}

// New creates a Bedrock provider using the default AWS credential chain.
func New(ctx context.Context, region string) (*Provider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	return &Provider{client: bedrockruntime.NewFromConfig(cfg)}, nil
}

// NewFromClient creates a provider around an existing client. Used by tests.
func NewFromClient(client *bedrockruntime.Client) *Provider {
	return &Provider{client: client}
}

func (p *Provider) Name() string {
	return provider.NameBedrock
}

// Stream issues one ConverseStream call. Content block text deltas become
// raw text-delta events; stream-level failures surface as a final in-band
// error.
func (p *Provider) Stream(ctx context.Context, req provider.Request) (<-chan provider.Event, error) {
	input, err := toConverseInput(req)
	if err != nil {
		return nil, err
	}

	out := make(chan provider.Event, 8)
	go func() {
		defer close(out)

		output, err := p.client.ConverseStream(ctx, input)
		if err != nil {
			p.send(ctx, out, provider.Event{Err: fmt.Errorf("bedrock converse: %w", err)})
			return
		}
		stream := output.GetStream()
		defer stream.Close()

		for event := range stream.Events() {
			switch v := event.(type) {
			case *types.ConverseStreamOutputMemberContentBlockDelta:
				delta, ok := v.Value.Delta.(*types.ContentBlockDeltaMemberText)
				if !ok || delta.Value == "" {
					continue
				}
				if !p.send(ctx, out, provider.TextDelta(delta.Value)) {
					return
				}
			case *types.ConverseStreamOutputMemberMessageStop,
				*types.ConverseStreamOutputMemberMetadata:
				// End-of-message markers and usage accounting carry no text.
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			p.send(ctx, out, provider.Event{Err: fmt.Errorf("bedrock stream: %w", err)})
		}
	}()
	return out, nil
}

func (p *Provider) send(ctx context.Context, out chan<- provider.Event, ev provider.Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func toConverseInput(req provider.Request) (*bedrockruntime.ConverseStreamInput, error) {
	input := &bedrockruntime.ConverseStreamInput{
		ModelId: aws.String(req.Model),
	}
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			input.System = append(input.System, &types.SystemContentBlockMemberText{Value: m.Content})
		case "user", "assistant":
			role := types.ConversationRoleUser
			if m.Role == "assistant" {
				role = types.ConversationRoleAssistant
			}
			input.Messages = append(input.Messages, types.Message{
				Role:    role,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: m.Content}},
			})
		default:
			return nil, fmt.Errorf("unsupported message role %q", m.Role)
		}
	}

	if req.MaxTokens > 0 || req.Temperature != nil {
		cfg := &types.InferenceConfiguration{}
		if req.MaxTokens > 0 {
			cfg.MaxTokens = aws.Int32(int32(req.MaxTokens))
		}
		if req.Temperature != nil {
			cfg.Temperature = aws.Float32(float32(*req.Temperature))
		}
		input.InferenceConfig = cfg
	}
	return input, nil
}
