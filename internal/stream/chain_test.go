package stream

import (
	"context"
	"strings"
	"sync"
	"testing"

	"aistudio/internal/provider"
)

// capturingProvider records every request it receives and the order in which
// chain steps hit the upstream, then replays scripted chunks.
type capturingProvider struct {
	label    string
	chunks   []string
	startLog *[]string
	logMu    *sync.Mutex

	mu       sync.Mutex
	requests []provider.Request
}

func (p *capturingProvider) Name() string { return "capture" }

func (p *capturingProvider) Stream(ctx context.Context, req provider.Request) (<-chan provider.Event, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()
	p.logMu.Lock()
	*p.startLog = append(*p.startLog, p.label)
	p.logMu.Unlock()

	out := make(chan provider.Event, len(p.chunks))
	for _, c := range p.chunks {
		out <- provider.TextDelta(c)
	}
	close(out)
	return out, nil
}

func TestSubstitutePlaceholders(t *testing.T) {
	results := map[int]string{1: "FIRST", 2: "SECOND"}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"single placeholder", "Summarize: {{result_1}}", "Summarize: FIRST"},
		{"multiple placeholders", "{{result_1}} vs {{result_2}}", "FIRST vs SECOND"},
		{"unknown index left intact", "keep {{result_9}}", "keep {{result_9}}"},
		{"no placeholders", "plain prompt", "plain prompt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := substitutePlaceholders(tt.template, results); got != tt.want {
				t.Errorf("substitutePlaceholders() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Placeholder-shaped text inside a provider's own output must not be
// re-substituted: replacement is a single pass over the template.
func TestSubstitutePlaceholders_NoDoubleSubstitution(t *testing.T) {
	results := map[int]string{1: "see {{result_2}}", 2: "SECOND"}
	got := substitutePlaceholders("{{result_1}}", results)
	if got != "see {{result_2}}" {
		t.Errorf("substitutePlaceholders() = %q, want the inner placeholder preserved", got)
	}
}

func TestRunChain_SequentialWithSubstitution(t *testing.T) {
	var startLog []string
	var logMu sync.Mutex
	step := func(label string, chunks ...string) *capturingProvider {
		return &capturingProvider{label: label, chunks: chunks, startLog: &startLog, logMu: &logMu}
	}
	p1 := step("p1", "alpha")
	p2 := step("p2", "beta")
	p3 := step("p3", "gamma")

	mux := &Multiplexer{}
	w := &frameCollector{}
	session := mux.RunChain(context.Background(), []ChainPrompt{
		{PromptID: 10, Content: "first prompt", Provider: p1, ModelName: "m-a", Model: "a"},
		{PromptID: 11, Content: "expand on {{result_1}}", Provider: p2, ModelName: "m-b", Model: "b"},
		{PromptID: 12, Content: "combine {{result_1}} and {{result_2}}", Provider: p3, ModelName: "m-c", Model: "c"},
	}, w)

	logMu.Lock()
	order := strings.Join(startLog, ",")
	logMu.Unlock()
	if order != "p1,p2,p3" {
		t.Fatalf("execution order = %s, want strictly sequential p1,p2,p3", order)
	}

	// Prompt 2's effective input carries prompt 1's literal completed text.
	if got := p2.requests[0].Messages[0].Content; got != "expand on alpha" {
		t.Errorf("prompt 2 input = %q, want %q", got, "expand on alpha")
	}
	if got := p3.requests[0].Messages[0].Content; got != "combine alpha and beta" {
		t.Errorf("prompt 3 input = %q, want %q", got, "combine alpha and beta")
	}

	frames := w.all()
	for _, want := range []string{
		`{"type":"prompt_start","promptIndex":0,"promptId":10,"modelName":"m-a"}`,
		`{"type":"token","promptIndex":0,"token":"alpha"}`,
		`{"type":"prompt_complete","promptIndex":0,"result":"alpha"}`,
		`{"type":"prompt_complete","promptIndex":2,"result":"gamma"}`,
		`{"type":"complete"}`,
		`{"done":true}`,
	} {
		if indexOf(frames, want) < 0 {
			t.Errorf("frames missing %s; got %v", want, frames)
		}
	}
	if frames[len(frames)-1] != `{"done":true}` {
		t.Errorf("last frame = %s", frames[len(frames)-1])
	}
	if !session.Terminal() {
		t.Error("session not terminal")
	}
}

// A failed step ends the chain: later prompts may reference the missing
// result, so they never start. The session still closes with done.
func TestRunChain_StopsAfterError(t *testing.T) {
	var startLog []string
	var logMu sync.Mutex
	p1 := &capturingProvider{label: "p1", chunks: []string{"ok"}, startLog: &startLog, logMu: &logMu}
	p2 := &fakeProvider{name: "p2", events: []provider.Event{
		{Data: map[string]any{"type": "error", "error": "quota exhausted"}},
	}}
	p3 := &capturingProvider{label: "p3", chunks: []string{"never"}, startLog: &startLog, logMu: &logMu}

	mux := &Multiplexer{}
	w := &frameCollector{}
	mux.RunChain(context.Background(), []ChainPrompt{
		{Content: "one", Provider: p1, Model: "a"},
		{Content: "two", Provider: p2, Model: "b"},
		{Content: "three uses {{result_2}}", Provider: p3, Model: "c"},
	}, w)

	logMu.Lock()
	defer logMu.Unlock()
	for _, label := range startLog {
		if label == "p3" {
			t.Fatal("prompt 3 started after prompt 2 failed")
		}
	}
	frames := w.all()
	if indexOf(frames, `{"type":"prompt_error","promptIndex":1,"error":"quota exhausted"}`) < 0 {
		t.Errorf("missing prompt_error frame; got %v", frames)
	}
	if frames[len(frames)-1] != `{"done":true}` {
		t.Errorf("last frame = %s, want done", frames[len(frames)-1])
	}
}
