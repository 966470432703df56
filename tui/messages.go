// ABOUTME: Bubble Tea message types used in the TUI message loop.
// ABOUTME: Each type wraps a session event or the result of a background command for the tea.Msg interface.
package tui

import (
	"time"

	"github.com/2389-research/accessdoc/analysis"
	"github.com/2389-research/accessdoc/controller"
)

// StreamEventMsg carries one event read from a session. Session is the
// session it was read from, so the reader can keep draining it.
type StreamEventMsg struct {
	Event   analysis.Event
	Session controller.Session
}

// StreamClosedMsg signals that a session's event channel has closed.
type StreamClosedMsg struct {
	SessionID string
}

// SubmitMsg asks the app to start an analysis of URL, as if typed.
type SubmitMsg struct {
	URL string
}

// TickMsg is sent periodically to refresh the elapsed timer.
type TickMsg struct {
	Time time.Time
}

// CopyResultMsg reports the outcome of copying the report to the clipboard.
type CopyResultMsg struct {
	Err error
}

// ExportResultMsg reports the outcome of writing the report to disk.
type ExportResultMsg struct {
	Path string
	Err  error
}

// SaveResultMsg reports the outcome of recording the report in history.
type SaveResultMsg struct {
	ID  string
	Err error
}

// ClearNoticeMsg removes a transient notice if it is still the one shown.
type ClearNoticeMsg struct {
	Seq int
}
