package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"aistudio/internal/provider"
)

// DefaultStreamTimeout bounds how long a single constituent stream may run
// before it is treated as errored.
const DefaultStreamTimeout = 30 * time.Second

const statusStreaming = "AI is responding..."

// ErrInvalidRequest wraps request-shape violations detected before any
// upstream call is made.
var ErrInvalidRequest = errors.New("invalid stream request")

// Adapter wraps one upstream provider connection and converts its native
// stream into the canonical event sequence: a single status event before the
// first token, one token per upstream chunk, and exactly one terminal event
// (prompt_complete or prompt_error) unless the context is cancelled.
//
// An adapter is single-use. Create a new one to retry.
type Adapter struct {
	provider provider.Provider
	req      provider.Request
	timeout  time.Duration
	ran      bool
}

// NewAdapter builds an adapter for one provider call. timeout <= 0 selects
// DefaultStreamTimeout.
func NewAdapter(p provider.Provider, req provider.Request, timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = DefaultStreamTimeout
	}
	return &Adapter{provider: p, req: req, timeout: timeout}
}

// validateRequest fails fast on constraint violations before any network
// call: messages must be non-empty and end with a user or assistant turn.
func validateRequest(req provider.Request) error {
	if len(req.Messages) == 0 {
		return fmt.Errorf("%w: messages must not be empty", ErrInvalidRequest)
	}
	for i, m := range req.Messages {
		switch m.Role {
		case "user", "assistant", "system":
		default:
			return fmt.Errorf("%w: message %d has unknown role %q", ErrInvalidRequest, i, m.Role)
		}
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != "user" && last.Role != "assistant" {
		return fmt.Errorf("%w: last message must be a user or assistant turn, got %q", ErrInvalidRequest, last.Role)
	}
	return nil
}

// Run starts the upstream call and returns the adapter's event sequence.
// The returned error covers request validation only; every later failure is
// signaled in-band as a prompt_error event. The channel closes once the
// stream reaches a terminal state or ctx is cancelled.
func (a *Adapter) Run(ctx context.Context) (<-chan Event, error) {
	if a.ran {
		return nil, fmt.Errorf("%w: adapter is single-use", ErrInvalidRequest)
	}
	a.ran = true

	if err := validateRequest(a.req); err != nil {
		return nil, err
	}

	events := make(chan Event, 16)
	go a.stream(ctx, events)
	return events, nil
}

func (a *Adapter) stream(ctx context.Context, events chan<- Event) {
	defer close(events)

	runCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	upstream, err := a.provider.Stream(runCtx, a.req)
	if err != nil {
		a.emit(ctx, events, Event{Type: EventPromptError, Error: err.Error()})
		return
	}

	var accumulated strings.Builder
	started := false

	for {
		select {
		case <-runCtx.Done():
			if ctx.Err() != nil {
				// Caller cancellation: stop without a synthetic error so the
				// session reads as aborted, not failed.
				return
			}
			a.emit(ctx, events, Event{
				Type:  EventPromptError,
				Error: fmt.Sprintf("stream timed out after %s", a.timeout),
			})
			return

		case raw, ok := <-upstream:
			if !ok {
				a.emit(ctx, events, Event{Type: EventPromptComplete, Result: accumulated.String()})
				return
			}
			if raw.Err != nil {
				a.emit(ctx, events, Event{Type: EventPromptError, Error: raw.Err.Error()})
				return
			}

			text, fatal := a.normalize(raw.Data)
			if fatal != "" {
				a.emit(ctx, events, Event{Type: EventPromptError, Error: fatal})
				return
			}
			if text == "" {
				continue
			}
			if !started {
				started = true
				if !a.emit(ctx, events, Event{Type: EventStatus, Message: statusStreaming}) {
					return
				}
			}
			accumulated.WriteString(text)
			if !a.emit(ctx, events, Event{Type: EventToken, Token: text}) {
				return
			}
		}
	}
}

// normalize classifies one raw upstream event. It returns the text to forward
// (empty for non-text events) and, for in-band error events, the fatal error
// message. Events that are neither strictly valid nor text-extractable are
// logged and skipped.
func (a *Adapter) normalize(raw map[string]any) (text, fatal string) {
	typed, err := ValidateEvent(raw)
	if err == nil {
		switch typed.Type {
		case EventTextDelta:
			return typed.Delta, ""
		case EventError:
			return "", typed.ErrorMessage
		default:
			// text-start/text-end/tool-call/message/finish carry no
			// incremental text for this pipeline.
			return "", ""
		}
	}

	if errors.Is(err, ErrUnknownEventType) {
		result := ExtractTextFromUnknownEvent(raw)
		if result.Success {
			return result.Text, ""
		}
		log.Printf("stream: dropping unextractable event from %s: %s", a.provider.Name(), result.Hint)
		return "", ""
	}

	log.Printf("stream: dropping invalid event from %s: %v (fields: %s)", a.provider.Name(), err, describeFields(raw))
	return "", ""
}

// emit sends an event unless the caller has gone away. Returns false once
// ctx is cancelled.
func (a *Adapter) emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
