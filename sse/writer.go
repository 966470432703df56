// ABOUTME: Server-Sent Events writer used by the stub analysis backend.
// ABOUTME: Formats events into wire framing and flushes them through an http.ResponseWriter.

package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Format renders the event in SSE wire framing. Multi-line data is split
// across several "data:" lines so the reader rejoins it unchanged.
func (e Event) Format() string {
	var b strings.Builder
	if e.Type != "" && e.Type != DefaultEventType {
		fmt.Fprintf(&b, "event: %s\n", e.Type)
	}
	if e.ID != "" {
		fmt.Fprintf(&b, "id: %s\n", e.ID)
	}
	if e.Retry > 0 {
		fmt.Fprintf(&b, "retry: %d\n", e.Retry)
	}
	for _, line := range strings.Split(e.Data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	return b.String()
}

// Writer streams events to an HTTP client.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewWriter sets the event-stream headers, writes the status line and
// returns a Writer. Flushing is skipped when w does not support it.
func NewWriter(w http.ResponseWriter) *Writer {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	sw := &Writer{w: w, flusher: flusher}
	sw.flush()
	return sw
}

// Send writes one event and flushes it.
func (sw *Writer) Send(evt Event) error {
	if _, err := fmt.Fprint(sw.w, evt.Format()); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	sw.flush()
	return nil
}

// SendJSON marshals v as the data of a default-typed event.
func (sw *Writer) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return sw.Send(Event{Data: string(data)})
}

// Comment writes a comment line, which readers ignore. Useful as a keepalive.
func (sw *Writer) Comment(text string) error {
	if _, err := fmt.Fprintf(sw.w, ": %s\n\n", text); err != nil {
		return fmt.Errorf("write comment: %w", err)
	}
	sw.flush()
	return nil
}

func (sw *Writer) flush() {
	if sw.flusher != nil {
		sw.flusher.Flush()
	}
}
