// ABOUTME: URLInputModel wraps a bubbles textinput for entering the URL to analyse.
// ABOUTME: Shows an inline validation error beneath the field until the input changes.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// URLInputModel is the always-visible URL form.
type URLInputModel struct {
	textInput textinput.Model
	err       string
	width     int
}

// NewURLInputModel creates a focused URL input.
func NewURLInputModel() URLInputModel {
	ti := textinput.New()
	ti.Prompt = "URL > "
	ti.Placeholder = "https://example.com"
	ti.CharLimit = 2048
	ti.Focus()

	return URLInputModel{textInput: ti}
}

// Value returns the current text, trimmed.
func (m URLInputModel) Value() string {
	return strings.TrimSpace(m.textInput.Value())
}

// SetValue replaces the current text.
func (m *URLInputModel) SetValue(s string) {
	m.textInput.SetValue(s)
	m.textInput.CursorEnd()
}

// SetError shows msg beneath the field. An empty msg clears it.
func (m *URLInputModel) SetError(msg string) {
	m.err = msg
}

// Error returns the inline error currently shown.
func (m URLInputModel) Error() string {
	return m.err
}

// Focus gives the field keyboard focus.
func (m *URLInputModel) Focus() tea.Cmd {
	return m.textInput.Focus()
}

// Blur removes keyboard focus.
func (m *URLInputModel) Blur() {
	m.textInput.Blur()
}

// Focused reports whether the field has focus.
func (m URLInputModel) Focused() bool {
	return m.textInput.Focused()
}

// SetWidth sets the rendering width.
func (m *URLInputModel) SetWidth(w int) {
	m.width = w
	m.textInput.Width = max(w-len(m.textInput.Prompt)-4, 10)
}

// Update forwards key events to the textinput. Editing clears a stale
// validation error.
func (m URLInputModel) Update(msg tea.Msg) (URLInputModel, tea.Cmd) {
	before := m.textInput.Value()
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	if m.textInput.Value() != before {
		m.err = ""
	}
	return m, cmd
}

// View renders the field and any inline error.
func (m URLInputModel) View() string {
	border := BorderStyle
	if m.textInput.Focused() {
		border = FocusedBorderStyle
	}
	out := border.Width(max(m.width-2, 1)).Render(m.textInput.View())
	if m.err != "" {
		out += "\n" + InputErrorStyle.Render("  "+m.err)
	}
	return out
}
