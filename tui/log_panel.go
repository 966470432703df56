// ABOUTME: Implements a scrollable session log panel using the bubbles viewport component.
// ABOUTME: Displays stream events with color-coded formatting based on event kind.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/2389-research/accessdoc/analysis"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// LogLevel classifies a log entry for colouring.
type LogLevel int

const (
	LevelInfo LogLevel = iota
	LevelSuccess
	LevelWarn
	LevelError
)

// LogEntry is one line of the session log.
type LogEntry struct {
	Time  time.Time
	Level LogLevel
	Label string
	Text  string
}

// EntryForEvent describes a session event as a log entry.
func EntryForEvent(evt analysis.Event) LogEntry {
	e := LogEntry{Time: evt.Time, Label: evt.Kind.String()}
	switch evt.Kind {
	case analysis.EventOpen:
		e.Text = "connected"
	case analysis.EventProgress:
		rec := evt.Record
		var parts []string
		if step, ok := rec.Step(); ok {
			parts = append(parts, fmt.Sprintf("[%s]", step))
		}
		if pct, ok := rec.Percent(); ok {
			parts = append(parts, fmt.Sprintf("%d%%", pct))
		}
		parts = append(parts, rec.Message)
		e.Text = strings.Join(parts, " ")
		if rec.Flagged() {
			e.Level = LevelWarn
		}
	case analysis.EventReport:
		e.Level = LevelSuccess
		if evt.Report != nil {
			e.Text = fmt.Sprintf("%d categories scored", len(evt.Report.Scores))
		}
	case analysis.EventError:
		e.Level = LevelError
		e.Text = analysis.UserMessage(evt.Err)
	case analysis.EventClose:
		e.Text = "stream closed"
	}
	return e
}

// LogPanelModel is a scrollable log of session events.
type LogPanelModel struct {
	entries  []LogEntry
	max      int
	viewport viewport.Model
	focused  bool
	width    int
	height   int
}

// NewLogPanelModel creates a new log panel with a maximum number of entries.
// If maxEntries is <= 0, it defaults to 200.
func NewLogPanelModel(maxEntries int) LogPanelModel {
	if maxEntries <= 0 {
		maxEntries = 200
	}
	vp := viewport.New(80, 4)
	return LogPanelModel{
		entries:  make([]LogEntry, 0, maxEntries),
		max:      maxEntries,
		viewport: vp,
	}
}

// Append adds an entry to the log, evicting the oldest entry if at capacity.
func (m *LogPanelModel) Append(e LogEntry) {
	if len(m.entries) >= m.max {
		m.entries = m.entries[1:]
	}
	m.entries = append(m.entries, e)
	m.syncViewport()
}

// Len returns the number of entries in the log.
func (m LogPanelModel) Len() int {
	return len(m.entries)
}

// SetFocused sets whether this panel accepts keyboard input.
func (m *LogPanelModel) SetFocused(focused bool) {
	m.focused = focused
}

// IsFocused returns whether the panel is focused.
func (m LogPanelModel) IsFocused() bool {
	return m.focused
}

// SetSize sets the available dimensions and updates the viewport.
func (m *LogPanelModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	// Reserve space for the border (2 lines top/bottom) and title (1 line)
	m.viewport.Width = max(w-2, 1)
	m.viewport.Height = max(h-3, 1)
	m.syncViewport()
}

// Update forwards scroll keys to the viewport when focused.
func (m LogPanelModel) Update(msg tea.Msg) (LogPanelModel, tea.Cmd) {
	if !m.focused {
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the log panel.
func (m LogPanelModel) View() string {
	title := "SESSION LOG"
	border := BorderStyle
	if m.focused {
		title = "SESSION LOG (focused)"
		border = FocusedBorderStyle
	}

	content := "No events yet"
	if len(m.entries) > 0 {
		content = m.viewport.View()
	}

	if m.width > 2 {
		border = border.Width(m.width - 2)
	}
	if m.height > 2 {
		border = border.Height(m.height - 2)
	}
	return border.Render(TitleStyle.Render(title) + "\n" + content)
}

// syncViewport rebuilds the viewport content from entries and scrolls to the bottom.
func (m *LogPanelModel) syncViewport() {
	lines := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		lines = append(lines, formatEntry(e))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

// formatEntry formats a single entry as a log line.
func formatEntry(e LogEntry) string {
	parts := []string{
		LogTimestampStyle.Render(e.Time.Format("15:04:05")),
		levelStyle(e.Level).Render(e.Label),
	}
	if e.Text != "" {
		parts = append(parts, e.Text)
	}
	return strings.Join(parts, " ")
}

// levelStyle returns the lipgloss style for a log level.
func levelStyle(l LogLevel) lipgloss.Style {
	switch l {
	case LevelSuccess:
		return LogSuccessStyle
	case LevelWarn:
		return LogWarnStyle
	case LevelError:
		return LogErrorStyle
	default:
		return LogEventStyle
	}
}
