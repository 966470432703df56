// ABOUTME: Observable UI state for an analysis: the phase plus the fields each phase renders.
// ABOUTME: Presentation layers read State and use the Show* helpers to decide what is visible.
package controller

import (
	"time"

	"github.com/2389-research/accessdoc/analysis"
)

// Phase is the state-machine position of the controller.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReport
	PhaseFailed
)

// String returns a lowercase label for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReport:
		return "report"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const (
	initialStep    = "Initialization"
	initialMessage = "Initializing analysis..."
	// CompleteMessage is shown once a report has arrived.
	CompleteMessage = "Analysis complete!"
	// fallbackFailure is used when a fatal record carries no message.
	fallbackFailure = "Analysis failed"
)

// State is a snapshot of what the presentation layer should render.
//
// Step, Message and Percent describe the loading indicator and keep their
// last values after the report arrives. Report is set only in PhaseReport;
// Err only in PhaseFailed, where Message holds the user-facing text.
type State struct {
	Phase     Phase
	Target    string
	Step      string
	Message   string
	Percent   int
	SoftError bool // the latest progress record carried an error flag
	Report    *analysis.Report
	Err       error
	Started   time.Time
	Finished  time.Time
}

// ShowLoading reports whether the loading indicator is visible.
func (s State) ShowLoading() bool { return s.Phase == PhaseLoading }

// ShowError reports whether the error banner is visible.
func (s State) ShowError() bool { return s.Phase == PhaseFailed }

// ShowReport reports whether the report is visible.
func (s State) ShowReport() bool { return s.Phase == PhaseReport && s.Report != nil }

// Elapsed returns how long the current or last analysis ran.
func (s State) Elapsed(now time.Time) time.Duration {
	if s.Started.IsZero() {
		return 0
	}
	if !s.Finished.IsZero() {
		return s.Finished.Sub(s.Started)
	}
	return now.Sub(s.Started)
}

func loadingState(target string, now time.Time) State {
	return State{
		Phase:   PhaseLoading,
		Target:  target,
		Step:    initialStep,
		Message: initialMessage,
		Percent: 0,
		Started: now,
	}
}
