// ABOUTME: Report view: average score, colour-coded score cards and a scrollable implementation plan.
// ABOUTME: The plan is rendered with glamour into a bubbles viewport and re-rendered when the width changes.
package tui

import (
	"fmt"
	"strings"

	"github.com/2389-research/accessdoc/analysis"
	"github.com/2389-research/accessdoc/report"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// ReportPanelModel shows a finished report.
type ReportPanelModel struct {
	report   *analysis.Report
	style    string
	viewport viewport.Model
	focused  bool
	width    int
	height   int
	// rendered caches the plan for renderedW.
	renderedW int
}

// NewReportPanelModel creates an empty report panel. style is a glamour
// style name; "auto" picks one from the terminal background.
func NewReportPanelModel(style string) ReportPanelModel {
	return ReportPanelModel{
		style:    style,
		viewport: viewport.New(80, 10),
	}
}

// SetReport shows r and scrolls the plan to the top.
func (m *ReportPanelModel) SetReport(r *analysis.Report) {
	m.report = r
	m.renderedW = 0
	m.renderPlan()
	m.viewport.GotoTop()
}

// Report returns the report being shown.
func (m ReportPanelModel) Report() *analysis.Report {
	return m.report
}

// SetFocused sets whether scroll keys go to the plan viewport.
func (m *ReportPanelModel) SetFocused(focused bool) {
	m.focused = focused
}

// SetSize sets the panel dimensions. The score list takes what it needs and
// the plan viewport gets the rest.
func (m *ReportPanelModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = max(w-4, 10)
	m.viewport.Height = max(h-m.scoresHeight()-4, 3)
	m.renderPlan()
}

func (m ReportPanelModel) scoresHeight() int {
	if m.report == nil {
		return 0
	}
	// average line, blank line, one line per score, blank line, plan title
	return len(m.report.Scores) + 4
}

func (m *ReportPanelModel) renderPlan() {
	if m.report == nil {
		m.viewport.SetContent("")
		return
	}
	w := m.viewport.Width
	if w == m.renderedW {
		return
	}
	out, err := report.RenderPlan(m.report.ImplementationPlan, w, m.style)
	if err != nil {
		out = m.report.ImplementationPlan
	}
	m.viewport.SetContent(strings.TrimRight(out, "\n"))
	m.renderedW = w
}

// Update forwards scroll keys to the plan viewport when focused.
func (m ReportPanelModel) Update(msg tea.Msg) (ReportPanelModel, tea.Cmd) {
	if !m.focused {
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the panel.
func (m ReportPanelModel) View() string {
	if m.report == nil {
		return ""
	}

	var b strings.Builder
	avg := report.Average(m.report.Scores)
	b.WriteString(TitleStyle.Render("ACCESSIBILITY REPORT"))
	b.WriteString("  ")
	b.WriteString(StyleForRating(report.Class(avg)).Render(fmt.Sprintf("Average Score: %d/100 %s", avg, report.Emoji(avg))))
	b.WriteString("\n\n")

	if len(m.report.Scores) == 0 {
		b.WriteString(HintStyle.Render("No scores returned."))
		b.WriteString("\n")
	}
	catWidth := 0
	for _, s := range m.report.Scores {
		catWidth = max(catWidth, len(s.Category))
	}
	for _, s := range m.report.Scores {
		score := StyleForRating(report.Class(s.Score)).Render(fmt.Sprintf("%3d", s.Score))
		fmt.Fprintf(&b, "%-*s %s %s  %s\n", catWidth, s.Category, score, report.Emoji(s.Score), s.Feedback)
	}

	b.WriteString("\n")
	title := "IMPLEMENTATION PLAN"
	if m.focused {
		title += fmt.Sprintf(" (%d%%)", int(m.viewport.ScrollPercent()*100))
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())

	border := BorderStyle
	if m.focused {
		border = FocusedBorderStyle
	}
	return border.Width(max(m.width-2, 1)).Render(b.String())
}
