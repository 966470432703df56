// ABOUTME: Bridge connecting analysis sessions and background work to the Bubble Tea message loop.
// ABOUTME: Provides tea.Cmd factories for draining session events, ticks, clipboard copy, export and history saves.
package tui

import (
	"time"

	"github.com/2389-research/accessdoc/analysis"
	"github.com/2389-research/accessdoc/controller"
	"github.com/2389-research/accessdoc/history"
	"github.com/2389-research/accessdoc/report"
	tea "github.com/charmbracelet/bubbletea"
)

// Saver records finished reports. *history.Store implements it.
type Saver interface {
	Save(target string, r *analysis.Report, at time.Time) (*history.Entry, error)
}

// WaitForEventCmd returns a tea.Cmd that blocks on the session's event
// channel and delivers the next event as a StreamEventMsg. When the channel
// closes it returns StreamClosedMsg. The caller re-issues the command after
// every event until the channel closes, so the session goroutine never
// blocks on an abandoned reader.
func WaitForEventCmd(sess controller.Session) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-sess.Events()
		if !ok {
			return StreamClosedMsg{SessionID: sess.ID()}
		}
		return StreamEventMsg{Event: evt, Session: sess}
	}
}

// SubmitCmd returns a tea.Cmd that asks the app to analyse url.
func SubmitCmd(url string) tea.Cmd {
	return func() tea.Msg { return SubmitMsg{URL: url} }
}

// TickCmd returns a tea.Cmd that sends a TickMsg after the given interval.
// Used to refresh the elapsed timer while an analysis runs.
func TickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// CopyReportCmd copies the report's clipboard text off the UI goroutine.
func CopyReportCmd(r *analysis.Report) tea.Cmd {
	return func() tea.Msg {
		return CopyResultMsg{Err: report.Copy(r)}
	}
}

// ExportReportCmd writes the report into dir in the given format.
func ExportReportCmd(dir string, r *analysis.Report, target string, format report.Format, now time.Time) tea.Cmd {
	return func() tea.Msg {
		path, err := report.Export(dir, r, target, format, now)
		return ExportResultMsg{Path: path, Err: err}
	}
}

// SaveReportCmd records the report in history.
func SaveReportCmd(s Saver, target string, r *analysis.Report, now time.Time) tea.Cmd {
	return func() tea.Msg {
		entry, err := s.Save(target, r, now)
		if err != nil {
			return SaveResultMsg{Err: err}
		}
		return SaveResultMsg{ID: entry.ID.String()}
	}
}

// ClearNoticeCmd clears the notice with the given sequence number after d.
func ClearNoticeCmd(seq int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return ClearNoticeMsg{Seq: seq} })
}
