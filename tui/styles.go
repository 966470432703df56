// ABOUTME: Defines lipgloss styles for the TUI panels, score ratings, error banner and log formatting.
// ABOUTME: Provides StyleForRating to map report score classes to their display styles.
package tui

import (
	"github.com/2389-research/accessdoc/report"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Panel borders
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62"))
	FocusedBorderStyle = BorderStyle.
				BorderForeground(lipgloss.Color("170"))

	// Title styling
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	// Score ratings
	ExcellentStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	GoodStyle             = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	NeedsImprovementStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	PoorStyle             = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	// Progress and errors
	StepStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	MessageStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	SoftErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	InputErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	ErrorBannerStyle = lipgloss.NewStyle().
				Border(lipgloss.DoubleBorder()).
				BorderForeground(lipgloss.Color("196")).
				Foreground(lipgloss.Color("196")).
				Padding(0, 2)

	// Log event colors
	LogTimestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	LogEventStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	LogErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	LogSuccessStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	LogWarnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)

	// Labels and hints
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(10)
	HintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	NoticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// StyleForRating returns the style used to draw a score of the given class.
func StyleForRating(r report.Rating) lipgloss.Style {
	switch r {
	case report.Excellent:
		return ExcellentStyle
	case report.Good:
		return GoodStyle
	case report.NeedsImprovement:
		return NeedsImprovementStyle
	default:
		return PoorStyle
	}
}
