package stream

import (
	"fmt"
	"sort"
)

// ExtractionResult is the outcome of best-effort text extraction from an
// event the strict schema does not recognize.
type ExtractionResult struct {
	Success bool
	Text    string
	// ExtractedFrom is the field path the text came from, e.g. "delta",
	// "content.text", "parts[].text".
	ExtractedFrom string
	// Hint explains an unsuccessful extraction for operator diagnostics.
	Hint string
}

// extractPriority is the fixed order of well-known field checks. The
// last-resort scan over remaining fields happens after these.
var extractPriority = []string{"delta", "text", "content"}

// ExtractTextFromUnknownEvent pulls incremental text out of an event shape
// the schema layer does not know. It exists so a new SDK event type carrying
// text under an unexpected field degrades to continued output instead of
// silent truncation.
//
// Fields are checked in fixed priority order: delta, text, content (string),
// content.text, parts[].text, and finally any other non-empty string field.
// Empty and non-string values are skipped at every step. The final scan
// iterates keys in sorted order: JSON decoding into a Go map loses the
// original insertion order, so sorting is the closest deterministic stand-in.
func ExtractTextFromUnknownEvent(raw map[string]any) ExtractionResult {
	for _, field := range extractPriority {
		value, ok := raw[field]
		if !ok {
			continue
		}
		if s, ok := value.(string); ok && s != "" {
			return ExtractionResult{Success: true, Text: s, ExtractedFrom: field}
		}
		if field == "content" {
			if nested, ok := value.(map[string]any); ok {
				if s, ok := nested["text"].(string); ok && s != "" {
					return ExtractionResult{Success: true, Text: s, ExtractedFrom: "content.text"}
				}
			}
		}
	}

	if parts, ok := raw["parts"].([]any); ok {
		for _, p := range parts {
			pm, ok := p.(map[string]any)
			if !ok {
				continue
			}
			if s, ok := pm["text"].(string); ok && s != "" {
				return ExtractionResult{Success: true, Text: s, ExtractedFrom: "parts[].text"}
			}
		}
	}

	// Last resort: any remaining string-valued field. "type" and "id" never
	// carry content text.
	keys := make([]string, 0, len(raw))
	for k := range raw {
		if k == "type" || k == "id" || k == "delta" || k == "text" || k == "content" || k == "parts" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s, ok := raw[k].(string); ok && s != "" {
			return ExtractionResult{Success: true, Text: s, ExtractedFrom: k}
		}
	}

	return ExtractionResult{
		Hint: fmt.Sprintf("no string-valued field found; event fields: %s", describeFields(raw)),
	}
}
