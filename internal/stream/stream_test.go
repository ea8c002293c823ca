package stream

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"aistudio/internal/provider"
)

// fakeProvider replays a scripted sequence of raw events, optionally pacing
// them and blocking until release fires.
type fakeProvider struct {
	name     string
	events   []provider.Event
	delay    time.Duration
	startErr error
	// hold, when non-nil, blocks before the first event until closed. Used to
	// exercise timeouts and cancellation.
	hold chan struct{}
}

func (f *fakeProvider) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeProvider) Stream(ctx context.Context, req provider.Request) (<-chan provider.Event, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	out := make(chan provider.Event, len(f.events))
	go func() {
		defer close(out)
		if f.hold != nil {
			select {
			case <-f.hold:
			case <-ctx.Done():
				return
			}
		}
		for _, ev := range f.events {
			if f.delay > 0 {
				select {
				case <-time.After(f.delay):
				case <-ctx.Done():
					return
				}
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func textEvents(chunks ...string) []provider.Event {
	events := make([]provider.Event, 0, len(chunks))
	for _, c := range chunks {
		events = append(events, provider.TextDelta(c))
	}
	return events
}

// frameCollector records outbound frames as their JSON encodings, so tests
// assert against the exact wire shapes.
type frameCollector struct {
	mu     sync.Mutex
	frames []string
	failAt int // 1-based frame index at which writes start failing; 0 = never
	err    error
}

func (c *frameCollector) WriteFrame(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failAt > 0 && len(c.frames)+1 >= c.failAt {
		return c.err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.frames = append(c.frames, string(data))
	return nil
}

func (c *frameCollector) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.frames...)
}

// fakeRecorder captures SaveComparison calls and signals each one.
type fakeRecorder struct {
	mu      sync.Mutex
	records []ComparisonRecord
	err     error
	saved   chan struct{}
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{saved: make(chan struct{}, 4)}
}

func (r *fakeRecorder) SaveComparison(rec ComparisonRecord) error {
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
	r.saved <- struct{}{}
	return r.err
}

func (r *fakeRecorder) all() []ComparisonRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ComparisonRecord(nil), r.records...)
}
