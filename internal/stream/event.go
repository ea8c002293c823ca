// Package stream implements the multiplexing and normalization engine that
// turns heterogeneous provider streams into one stable client-facing event
// stream.
package stream

// Canonical event type names. The first group is emitted by this engine on
// the wire; the second group is the inbound vocabulary accepted from provider
// SDKs by the schema layer.
const (
	EventPromptStart    = "prompt_start"
	EventStatus         = "status"
	EventToken          = "token"
	EventPromptComplete = "prompt_complete"
	EventPromptError    = "prompt_error"
	EventComplete       = "complete"
	EventDone           = "done"

	EventTextDelta = "text-delta"
	EventTextStart = "text-start"
	EventTextEnd   = "text-end"
	EventToolCall  = "tool-call"
	EventMessage   = "message"
	EventFinish    = "finish"
	EventError     = "error"
	EventMetadata  = "metadata"
)

// Event is the canonical wire event produced by adapters and the chained
// prompt executor. Comparison mode uses compact keyed frames instead (see
// multiplexer.go); both travel as one JSON object per SSE frame.
type Event struct {
	Type        string `json:"type"`
	PromptIndex int    `json:"promptIndex"`
	PromptID    int64  `json:"promptId,omitempty"`
	ModelName   string `json:"modelName,omitempty"`
	Message     string `json:"message,omitempty"`
	Token       string `json:"token,omitempty"`
	Result      string `json:"result,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Terminal reports whether the event ends its stream.
func (e Event) Terminal() bool {
	return e.Type == EventPromptComplete || e.Type == EventPromptError
}

// FrameWriter is the outbound transport for one session. The SSE response
// writer implements it; tests substitute an in-memory collector. WriteFrame
// returning an error means the client is gone and the session should be
// treated as aborted.
type FrameWriter interface {
	WriteFrame(v any) error
}
