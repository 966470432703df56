// ABOUTME: Scripted progress steps and deterministic canned reports for the stub backend.
package mockserver

import (
	"fmt"
	"hash/fnv"
	"net/url"

	"github.com/2389-research/accessdoc/analysis"
)

type step struct {
	name     string
	message  string
	progress float64
}

func (s step) record() analysis.Record {
	name, pct := s.name, s.progress
	return analysis.Record{
		Type:     analysis.RecordProgress,
		Message:  s.message,
		StepName: &name,
		Progress: &pct,
	}
}

var steps = []step{
	{"Initialization", "Starting analysis", 5},
	{"Capture", "Capturing screenshot", 25},
	{"Extract", "Extracting HTML content", 45},
	{"Analysis", "Evaluating accessibility guidelines", 70},
	{"Report", "Generating report", 90},
}

var categories = []struct {
	name string
	good string
	bad  string
}{
	{"Color Contrast", "Text and background colours meet WCAG AA contrast ratios.", "Several text elements fall below the 4.5:1 contrast ratio."},
	{"Keyboard Navigation", "All interactive elements are reachable and operable by keyboard.", "Focus is lost inside the navigation menu and dialogs."},
	{"Alt Text", "Images carry descriptive alternative text.", "Many images are missing alt attributes or use file names."},
	{"Semantic Structure", "Headings and landmarks describe the page outline.", "Heading levels skip and landmarks are missing."},
	{"Form Labels", "Form controls have associated labels.", "Inputs rely on placeholder text instead of labels."},
}

// CannedReport returns a report whose scores are derived from target, so
// the same URL always gets the same report and different URLs differ.
func CannedReport(target string) *analysis.Report {
	h := fnv.New32a()
	_, _ = h.Write([]byte(target))
	seed := h.Sum32()

	host := target
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		host = u.Host
	}

	report := &analysis.Report{}
	var weakest []string
	for i, c := range categories {
		score := 35 + int((seed>>(i*5))%65)
		feedback := c.good
		if score < 70 {
			feedback = c.bad
			weakest = append(weakest, c.name)
		}
		report.Scores = append(report.Scores, analysis.ScoreEntry{Category: c.name, Score: score, Feedback: feedback})
	}

	plan := fmt.Sprintf("# Accessibility plan for %s\n\n", host)
	if len(weakest) == 0 {
		plan += "No category scored below 70. Keep running automated checks on every release.\n"
	} else {
		plan += "## Priorities\n\n"
		for i, name := range weakest {
			plan += fmt.Sprintf("%d. Improve **%s**.\n", i+1, name)
		}
		plan += "\n## Verification\n\n- Re-run this analysis after each fix.\n- Test with a screen reader and keyboard only.\n"
	}
	report.ImplementationPlan = plan
	return report
}
