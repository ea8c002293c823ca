package stream

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownEventType marks an event whose type is outside the strict schema
// set. Callers route such events to ExtractTextFromUnknownEvent instead of
// treating them as failures.
var ErrUnknownEventType = errors.New("unknown event type")

// ValidationError describes why an event with a known type failed strict
// validation. Hint distinguishes field-name drift (an SDK renaming a field we
// depend on) from a field being absent altogether.
type ValidationError struct {
	EventType string
	Field     string
	Hint      string
}

func (e *ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid %q event: %s", e.EventType, e.Hint)
	}
	return fmt.Sprintf("invalid %q event: missing field %q", e.EventType, e.Field)
}

// TypedEvent is a strictly validated provider event. Only the fields relevant
// to Type are populated; Raw keeps the original object for diagnostics.
type TypedEvent struct {
	Type string

	// text-delta
	Delta string

	// text-start / text-end
	ID string

	// tool-call
	ToolCallID string
	ToolName   string
	Args       map[string]any

	// error
	ErrorMessage string
	Code         string
	Stack        string

	// message / finish
	Role  string
	Parts []MessagePart
	Usage *Usage

	Raw map[string]any
}

// MessagePart is one element of a message's parts array.
type MessagePart struct {
	Type string
	Text string
}

// Usage carries token accounting attached to finish events.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// driftAliases maps a required field name to field names SDKs have shipped in
// its place. A present alias turns a missing-field failure into a diagnosable
// field-name mismatch.
var driftAliases = map[string][]string{
	"delta":      {"textDelta", "text_delta"},
	"toolCallId": {"tool_call_id"},
	"toolName":   {"tool_name"},
	"error":      {"message", "errorMessage"},
}

// ValidateEvent checks raw against the fixed schema set, dispatching on the
// "type" discriminant. Types outside the set return ErrUnknownEventType so
// the caller can fall back to best-effort extraction. Extraneous fields are
// permitted on valid events.
func ValidateEvent(raw map[string]any) (*TypedEvent, error) {
	eventType, _ := raw["type"].(string)
	if eventType == "" {
		return nil, &ValidationError{EventType: "", Field: "type", Hint: "missing or non-string \"type\" discriminant"}
	}

	ev := &TypedEvent{Type: eventType, Raw: raw}

	switch eventType {
	case EventTextDelta:
		delta, err := requireString(raw, eventType, "delta")
		if err != nil {
			return nil, err
		}
		ev.Delta = delta

	case EventTextStart, EventTextEnd:
		id, err := requireString(raw, eventType, "id")
		if err != nil {
			return nil, err
		}
		ev.ID = id

	case EventToolCall:
		id, err := requireString(raw, eventType, "toolCallId")
		if err != nil {
			return nil, err
		}
		name, err := requireString(raw, eventType, "toolName")
		if err != nil {
			return nil, err
		}
		ev.ToolCallID = id
		ev.ToolName = name
		if args, ok := raw["args"].(map[string]any); ok {
			ev.Args = args
		}

	case EventError:
		msg, err := requireString(raw, eventType, "error")
		if err != nil {
			return nil, err
		}
		ev.ErrorMessage = msg
		ev.Code, _ = raw["code"].(string)
		ev.Stack, _ = raw["stack"].(string)

	case EventMessage:
		role, parts, _, err := parseMessageBody(raw, eventType)
		if err != nil {
			return nil, err
		}
		ev.Role = role
		ev.Parts = parts

	case EventFinish:
		msg, ok := raw["message"].(map[string]any)
		if !ok {
			return nil, &ValidationError{EventType: eventType, Field: "message"}
		}
		role, parts, usage, err := parseMessageBody(msg, eventType)
		if err != nil {
			return nil, err
		}
		ev.Role = role
		ev.Parts = parts
		ev.Usage = usage

	default:
		return nil, ErrUnknownEventType
	}

	return ev, nil
}

func parseMessageBody(body map[string]any, eventType string) (string, []MessagePart, *Usage, error) {
	role, ok := body["role"].(string)
	if !ok || role == "" {
		return "", nil, nil, &ValidationError{EventType: eventType, Field: "role"}
	}
	rawParts, ok := body["parts"].([]any)
	if !ok {
		return "", nil, nil, &ValidationError{EventType: eventType, Field: "parts"}
	}

	parts := make([]MessagePart, 0, len(rawParts))
	for _, rp := range rawParts {
		pm, ok := rp.(map[string]any)
		if !ok {
			continue
		}
		part := MessagePart{}
		part.Type, _ = pm["type"].(string)
		part.Text, _ = pm["text"].(string)
		parts = append(parts, part)
	}

	var usage *Usage
	if um, ok := body["usage"].(map[string]any); ok {
		usage = &Usage{
			PromptTokens:     intField(um, "promptTokens"),
			CompletionTokens: intField(um, "completionTokens"),
			TotalTokens:      intField(um, "totalTokens"),
		}
	}
	return role, parts, usage, nil
}

// requireString fetches a required string field, diagnosing known field-name
// drift when the field is absent but a legacy alias is present.
func requireString(raw map[string]any, eventType, field string) (string, *ValidationError) {
	if v, ok := raw[field].(string); ok {
		return v, nil
	}
	if _, present := raw[field]; present {
		return "", &ValidationError{
			EventType: eventType,
			Field:     field,
			Hint:      fmt.Sprintf("field %q is present but not a string", field),
		}
	}
	for _, alias := range driftAliases[field] {
		if _, ok := raw[alias]; ok {
			return "", &ValidationError{
				EventType: eventType,
				Field:     field,
				Hint:      fmt.Sprintf("Field name mismatch: expected %q, found %q", field, alias),
			}
		}
	}
	return "", &ValidationError{EventType: eventType, Field: field}
}

func intField(raw map[string]any, key string) int {
	switch n := raw[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}

// describeFields lists an event's field names for skip-event diagnostics.
func describeFields(raw map[string]any) string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
