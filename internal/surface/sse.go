package surface

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// SSE streams surface primitives to an HTTP client as server-sent events.
// Event names are "clear", "append" and "cursor"; append carries
// {"text": "..."} as data.
type SSE struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSE prepares w for an event stream. It fails when the writer cannot flush.
func NewSSE(w http.ResponseWriter) (*SSE, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support flushing")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	return &SSE{w: w, flusher: flusher}, nil
}

type appendData struct {
	Text string `json:"text"`
}

func (s *SSE) Clear() error {
	return s.Event("clear", struct{}{})
}

func (s *SSE) Append(text string) error {
	return s.Event("append", appendData{Text: text})
}

func (s *SSE) MoveCursorToEnd() error {
	return s.Event("cursor", struct{}{})
}

// Event writes one named event with a JSON payload and flushes it.
func (s *SSE) Event(name string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", name, err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, body); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
