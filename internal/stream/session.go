package stream

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// StreamState is the lifecycle state of one constituent stream.
type StreamState string

const (
	StatePending   StreamState = "pending"
	StateStreaming StreamState = "streaming"
	StateFinished  StreamState = "finished"
	StateErrored   StreamState = "errored"
)

// Session tracks one multiplexed request: per-stream state, accumulated text,
// and the all-streams-terminal condition that gates the session's single done
// event.
//
// A session is owned by the multiplexer's consumer goroutine for the lifetime
// of one request; all mutation happens from that single writer, so no locking
// is needed. Transitions after a stream is terminal are ignored.
type Session struct {
	RequestID string
	StartedAt time.Time

	order    []string
	states   map[string]StreamState
	text     map[string]*strings.Builder
	errs     map[string]string
	started  map[string]time.Time
	duration map[string]time.Duration
}

// NewSession creates a session over the given constituent stream identities.
func NewSession(identities ...string) *Session {
	s := &Session{
		RequestID: uuid.NewString(),
		StartedAt: time.Now(),
		order:     append([]string(nil), identities...),
		states:    make(map[string]StreamState, len(identities)),
		text:      make(map[string]*strings.Builder, len(identities)),
		errs:      make(map[string]string, len(identities)),
		started:   make(map[string]time.Time, len(identities)),
		duration:  make(map[string]time.Duration, len(identities)),
	}
	for _, id := range identities {
		s.states[id] = StatePending
		s.text[id] = &strings.Builder{}
		s.started[id] = s.StartedAt
	}
	return s
}

// Identities returns the constituent stream identities in declaration order.
func (s *Session) Identities() []string {
	return s.order
}

// State returns the current state of one stream.
func (s *Session) State(id string) StreamState {
	return s.states[id]
}

// MarkStreaming transitions a pending stream to streaming.
func (s *Session) MarkStreaming(id string) {
	if s.states[id] == StatePending {
		s.states[id] = StateStreaming
	}
}

// Append accumulates token text for one stream.
func (s *Session) Append(id, text string) {
	if s.terminalState(id) {
		return
	}
	s.states[id] = StateStreaming
	s.text[id].WriteString(text)
}

// Finish transitions a stream to finished and records its wall-clock
// duration. No-op if the stream is already terminal.
func (s *Session) Finish(id string) {
	if s.terminalState(id) {
		return
	}
	s.states[id] = StateFinished
	s.duration[id] = time.Since(s.started[id])
}

// Fail transitions a stream to errored with the given message. No-op if the
// stream is already terminal.
func (s *Session) Fail(id, message string) {
	if s.terminalState(id) {
		return
	}
	s.states[id] = StateErrored
	s.errs[id] = message
	s.duration[id] = time.Since(s.started[id])
}

// Terminal reports whether every constituent stream has finished or errored.
func (s *Session) Terminal() bool {
	for _, id := range s.order {
		if !s.terminalState(id) {
			return false
		}
	}
	return true
}

// Text returns the accumulated text for one stream.
func (s *Session) Text(id string) string {
	return s.text[id].String()
}

// Err returns the error message recorded for one stream, if any.
func (s *Session) Err(id string) string {
	return s.errs[id]
}

// Duration returns the recorded wall-clock duration for one stream. Zero
// until the stream is terminal.
func (s *Session) Duration(id string) time.Duration {
	return s.duration[id]
}

func (s *Session) terminalState(id string) bool {
	state := s.states[id]
	return state == StateFinished || state == StateErrored
}
