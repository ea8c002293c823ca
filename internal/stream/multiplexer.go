package stream

import (
	"context"
	"log"
	"sync"
	"time"

	"aistudio/internal/provider"
)

// StreamSpec describes one constituent stream of a comparison session.
type StreamSpec struct {
	// Identity tags every outbound frame, e.g. "model1".
	Identity  string
	Provider  provider.Provider
	ModelName string
	Request   provider.Request
}

// ComparisonRecord is the row persisted after a successful comparison.
type ComparisonRecord struct {
	Prompt     string
	Model1Name string
	Model2Name string
	Response1  string
	Response2  string
	Duration1  time.Duration
	Duration2  time.Duration
}

// Recorder persists comparison records. Implemented by store.Store.
type Recorder interface {
	SaveComparison(rec ComparisonRecord) error
}

// Multiplexer runs constituent provider streams for one client request and
// merges their events onto a single outbound frame channel.
type Multiplexer struct {
	// Timeout bounds each constituent stream. Zero selects
	// DefaultStreamTimeout.
	Timeout time.Duration
	// Recorder, when set, receives a comparison record after a session that
	// completed without abort and produced at least one non-empty response.
	// Persistence is fire-and-forget: failures are logged, never surfaced.
	Recorder Recorder
}

type taggedEvent struct {
	identity string
	event    Event
}

// RunComparison starts every spec's adapter concurrently and interleaves
// their events onto w in wall-clock arrival order, tagged by stream identity:
// {"<id>": "chunk"}, {"<id>Finished": true}, {"<id>Error": "msg"}, and a
// single {"done": true} strictly after every constituent reached a terminal
// state. It returns the session for inspection once the outbound stream is
// finished.
func (m *Multiplexer) RunComparison(ctx context.Context, prompt string, specs []StreamSpec, w FrameWriter) *Session {
	identities := make([]string, len(specs))
	for i, spec := range specs {
		identities[i] = spec.Identity
	}
	session := NewSession(identities...)

	merged := make(chan taggedEvent, 32)
	var wg sync.WaitGroup

	for _, spec := range specs {
		adapter := NewAdapter(spec.Provider, spec.Request, m.Timeout)
		events, err := adapter.Run(ctx)
		if err != nil {
			// Request-shape failure before any upstream call: the stream is
			// born errored.
			wg.Add(1)
			go func(id string, err error) {
				defer wg.Done()
				merged <- taggedEvent{id, Event{Type: EventPromptError, Error: err.Error()}}
			}(spec.Identity, err)
			continue
		}
		wg.Add(1)
		go func(id string, events <-chan Event) {
			defer wg.Done()
			for ev := range events {
				merged <- taggedEvent{id, ev}
			}
		}(spec.Identity, events)
	}

	go func() {
		wg.Wait()
		close(merged)
	}()

	// Single-writer consumption: this loop alone mutates the session, so the
	// all-done transition fires exactly once even when both arms finish in
	// the same instant.
	aborted := false
	doneSent := false
	for tagged := range merged {
		if ctx.Err() != nil {
			aborted = true
		}
		id, ev := tagged.identity, tagged.event

		switch ev.Type {
		case EventStatus:
			session.MarkStreaming(id)
		case EventToken:
			session.Append(id, ev.Token)
			if !aborted {
				aborted = m.write(w, map[string]any{id: ev.Token})
			}
		case EventPromptComplete:
			session.Finish(id)
			if !aborted {
				aborted = m.write(w, map[string]any{id + "Finished": true})
			}
		case EventPromptError:
			session.Fail(id, ev.Error)
			if !aborted {
				aborted = m.write(w, map[string]any{id + "Error": ev.Error})
			}
		}

		if session.Terminal() && !doneSent && !aborted {
			doneSent = true
			m.write(w, map[string]any{"done": true})
		}
	}

	// A cancelled session is aborted, not failed; the client never saw their
	// answer, so nothing is persisted.
	if aborted || ctx.Err() != nil {
		return session
	}
	if m.Recorder != nil && len(specs) >= 2 {
		m.persist(prompt, specs, session)
	}
	return session
}

// persist saves the comparison record on a detached goroutine with its own
// error boundary. The client already has their answer; a failed insert is
// logged and swallowed.
func (m *Multiplexer) persist(prompt string, specs []StreamSpec, session *Session) {
	id1, id2 := specs[0].Identity, specs[1].Identity
	rec := ComparisonRecord{
		Prompt:     prompt,
		Model1Name: specs[0].ModelName,
		Model2Name: specs[1].ModelName,
		Response1:  session.Text(id1),
		Response2:  session.Text(id2),
		Duration1:  session.Duration(id1),
		Duration2:  session.Duration(id2),
	}
	if rec.Response1 == "" && rec.Response2 == "" {
		return
	}
	recorder := m.Recorder
	go func() {
		if err := recorder.SaveComparison(rec); err != nil {
			log.Printf("stream: failed to save comparison record: %v", err)
		}
	}()
}

// write sends one frame; a transport error flags the session aborted.
func (m *Multiplexer) write(w FrameWriter, frame any) (abortedNow bool) {
	if err := w.WriteFrame(frame); err != nil {
		log.Printf("stream: client transport closed: %v", err)
		return true
	}
	return false
}
