package stream

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"aistudio/internal/provider"
)

// ChainPrompt is one step of a chained multi-prompt execution.
type ChainPrompt struct {
	PromptID  int64
	Content   string
	Provider  provider.Provider
	ModelName string
	Model     string
	MaxTokens int
}

var placeholderPattern = regexp.MustCompile(`\{\{result_(\d+)\}\}`)

// substitutePlaceholders replaces {{result_k}} tokens in a prompt template
// with the literal completed text of prompt k (1-based). Substitution is a
// single pass over the template only: placeholder-shaped text inside a
// provider's own output is never re-substituted.
func substitutePlaceholders(template string, results map[int]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		groups := placeholderPattern.FindStringSubmatch(match)
		k, err := strconv.Atoi(groups[1])
		if err != nil {
			return match
		}
		if text, ok := results[k]; ok {
			return text
		}
		return match
	})
}

// RunChain executes prompts strictly sequentially: prompt N+1's input depends
// on the literal text output of prompt N, so no concurrency is permitted.
// Frames carry promptIndex for attribution. A prompt failure emits
// prompt_error for that step and ends the chain, since later templates may
// reference the missing result; the session still terminates cleanly with a
// complete frame and {"done": true}.
func (m *Multiplexer) RunChain(ctx context.Context, prompts []ChainPrompt, w FrameWriter) *Session {
	identities := make([]string, len(prompts))
	for i := range prompts {
		identities[i] = fmt.Sprintf("prompt%d", i)
	}
	session := NewSession(identities...)

	results := make(map[int]string, len(prompts))
	aborted := false

	for i, prompt := range prompts {
		if ctx.Err() != nil {
			aborted = true
			break
		}
		id := identities[i]

		content := substitutePlaceholders(prompt.Content, results)
		if m.write(w, Event{Type: EventPromptStart, PromptIndex: i, PromptID: prompt.PromptID, ModelName: prompt.ModelName}) {
			aborted = true
			break
		}

		req := provider.Request{
			Model:     prompt.Model,
			MaxTokens: prompt.MaxTokens,
			Messages:  []provider.Message{{Role: "user", Content: content}},
		}
		adapter := NewAdapter(prompt.Provider, req, m.Timeout)
		events, err := adapter.Run(ctx)
		if err != nil {
			session.Fail(id, err.Error())
			m.write(w, Event{Type: EventPromptError, PromptIndex: i, Error: err.Error()})
			break
		}

		failed := false
		for ev := range events {
			ev.PromptIndex = i
			switch ev.Type {
			case EventStatus:
				session.MarkStreaming(id)
			case EventToken:
				session.Append(id, ev.Token)
			case EventPromptComplete:
				session.Finish(id)
				results[i+1] = ev.Result
			case EventPromptError:
				session.Fail(id, ev.Error)
				failed = true
			}
			if !aborted && m.write(w, ev) {
				aborted = true
			}
		}
		if ctx.Err() != nil {
			aborted = true
			break
		}
		if failed || aborted {
			break
		}
	}

	if !aborted && ctx.Err() == nil {
		m.write(w, map[string]any{"type": EventComplete})
		m.write(w, map[string]any{"done": true})
	}
	return session
}
