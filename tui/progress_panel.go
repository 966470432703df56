// ABOUTME: Loading indicator: spinner, current step and message, and a progress bar.
// ABOUTME: Rendered only while the controller is in the Loading phase.
package tui

import (
	"fmt"
	"strings"

	"github.com/2389-research/accessdoc/controller"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// ProgressPanelModel shows the state of a running analysis.
type ProgressPanelModel struct {
	spinner spinner.Model
	bar     progress.Model
	width   int
}

// NewProgressPanelModel creates the loading indicator.
func NewProgressPanelModel() ProgressPanelModel {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = StepStyle

	return ProgressPanelModel{
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient()),
	}
}

// SetWidth sets the rendering width.
func (m *ProgressPanelModel) SetWidth(w int) {
	m.width = w
	m.bar.Width = max(w-8, 10)
}

// Tick starts the spinner animation.
func (m ProgressPanelModel) Tick() tea.Cmd {
	return m.spinner.Tick
}

// Update advances the spinner.
func (m ProgressPanelModel) Update(msg tea.Msg) (ProgressPanelModel, tea.Cmd) {
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// View renders the panel for st.
func (m ProgressPanelModel) View(st controller.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), StepStyle.Render(st.Step))

	msgStyle := MessageStyle
	if st.SoftError {
		msgStyle = SoftErrorStyle
	}
	b.WriteString("  " + msgStyle.Render(st.Message) + "\n\n")
	b.WriteString("  " + m.bar.ViewAs(float64(st.Percent)/100))
	if st.Target != "" {
		b.WriteString("\n\n  " + HintStyle.Render("Analyzing "+st.Target))
	}

	return BorderStyle.Width(max(m.width-2, 1)).Render(b.String())
}
