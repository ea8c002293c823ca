package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// sseWriter frames JSON payloads as Server-Sent Events and flushes each one
// immediately. It implements stream.FrameWriter.
type sseWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

// newSSEWriter sets the SSE response headers and returns the writer, or
// false if the underlying transport cannot stream.
func newSSEWriter(w http.ResponseWriter) (*sseWriter, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return &sseWriter{w: w, f: flusher}, true
}

func (s *sseWriter) WriteFrame(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}
