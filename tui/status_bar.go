// ABOUTME: Implements a single-line status bar for the bottom of the TUI showing analysis progress.
// ABOUTME: Displays the service address, phase, elapsed time, current step and key hints.
package tui

import (
	"fmt"
	"time"

	"github.com/2389-research/accessdoc/controller"
	"github.com/charmbracelet/lipgloss"
)

// StatusBarModel displays analysis status in a single line.
type StatusBarModel struct {
	server  string
	phase   controller.Phase
	step    string
	elapsed time.Duration
	hints   string
	width   int
}

// NewStatusBarModel creates a StatusBarModel for the given service address.
func NewStatusBarModel(server string) StatusBarModel {
	return StatusBarModel{server: server}
}

// Sync copies the fields shown in the bar from the controller state.
func (m *StatusBarModel) Sync(st controller.State, now time.Time) {
	m.phase = st.Phase
	m.step = st.Step
	m.elapsed = st.Elapsed(now)
}

// SetHints sets the key hints shown at the end of the bar.
func (m *StatusBarModel) SetHints(h string) {
	m.hints = h
}

// SetWidth sets the bar width for rendering.
func (m *StatusBarModel) SetWidth(w int) {
	m.width = w
}

// formatElapsed formats a duration as a human-readable string.
// Durations under a minute show as seconds (e.g. "12s").
// Durations of a minute or more show as minutes and seconds (e.g. "2m30s").
func formatElapsed(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) - minutes*60
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}

// View renders the status bar as a single styled line.
func (m StatusBarModel) View() string {
	content := fmt.Sprintf("Server: %s | %s", m.server, m.phase)
	if m.phase != controller.PhaseIdle {
		content += " | Elapsed: " + formatElapsed(m.elapsed)
	}
	if m.phase == controller.PhaseLoading && m.step != "" {
		content += " | Step: " + m.step
	}
	if m.hints != "" {
		content += " | " + m.hints
	}

	style := StatusBarStyle.Width(m.width)

	return lipgloss.PlaceHorizontal(m.width, lipgloss.Left, style.Render(content))
}
