// ABOUTME: Terminal rendering of a report: score lines and the implementation plan rendered with glamour.
package report

import (
	"fmt"
	"strings"

	"github.com/2389-research/accessdoc/analysis"
	"github.com/charmbracelet/glamour"
)

// Glamour style names accepted by Terminal.
const (
	StyleAuto  = "auto"
	StyleDark  = "dark"
	StyleLight = "light"
	StyleNoTTY = "notty"
)

// RenderPlan renders markdown for a terminal of the given width.
func RenderPlan(markdown string, width int, style string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" || style == StyleAuto {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

// ScoreLines formats one line per score plus the average header.
func ScoreLines(r *analysis.Report) []string {
	avg := Average(r.Scores)
	lines := []string{fmt.Sprintf("Average Score: %d/100 %s", avg, Emoji(avg))}

	width := 0
	for _, s := range r.Scores {
		width = max(width, len(s.Category))
	}
	for _, s := range r.Scores {
		lines = append(lines, fmt.Sprintf("  %-*s %3d %s  %s", width, s.Category, s.Score, Emoji(s.Score), s.Feedback))
	}
	return lines
}

// Terminal renders the whole report for plain terminal output.
func Terminal(r *analysis.Report, width int, style string) (string, error) {
	plan, err := RenderPlan(r.ImplementationPlan, width, style)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(strings.Join(ScoreLines(r), "\n"))
	b.WriteString("\n\nImplementation Plan\n")
	b.WriteString(plan)
	return b.String(), nil
}
