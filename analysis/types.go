// ABOUTME: Data model shared by the stream client, controller and presentation layers.
// ABOUTME: Defines the wire records of the analysis service and the in-process tagged Event union.
package analysis

import (
	"math"
	"time"
)

// RecordType is the "type" tag of a record on the analysis stream.
type RecordType string

const (
	RecordProgress RecordType = "progress"
	RecordReport   RecordType = "report"
	RecordError    RecordType = "error"
)

// Request is the body of POST /analyze.
type Request struct {
	URL string `json:"url"`
}

// ScoreEntry is one scored accessibility category.
type ScoreEntry struct {
	Category string `json:"category"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// Report is the final analysis result: ordered scores plus a markdown
// implementation plan.
type Report struct {
	Scores             []ScoreEntry `json:"scores"`
	ImplementationPlan string       `json:"implementation_plan"`
}

// Record is one JSON message received on the analysis stream. Optional
// fields are pointers so that "absent" can be told apart from zero.
type Record struct {
	Type     RecordType `json:"type"`
	Message  string     `json:"message"`
	StepName *string    `json:"step_name,omitempty"`
	Progress *float64   `json:"progress,omitempty"`
	Error    *bool      `json:"error,omitempty"`
	Data     *Report    `json:"data,omitempty"`
}

// Step returns the step name and whether one was sent.
func (r Record) Step() (string, bool) {
	if r.StepName == nil {
		return "", false
	}
	return *r.StepName, true
}

// Percent returns the progress value rounded and clamped to 0..100, and
// whether one was sent.
func (r Record) Percent() (int, bool) {
	if r.Progress == nil {
		return 0, false
	}
	return ClampPercent(int(math.Round(*r.Progress))), true
}

// Flagged reports whether the record carries an error, either through the
// error flag or the "error" type tag.
func (r Record) Flagged() bool {
	return r.Type == RecordError || (r.Error != nil && *r.Error)
}

// ClampPercent limits p to the 0..100 range.
func ClampPercent(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// EventKind tags an Event delivered on a session channel.
type EventKind int

const (
	EventOpen     EventKind = iota // connection established
	EventProgress                  // progress or error-typed record
	EventReport                    // final report, success terminal
	EventError                     // fatal session error
	EventClose                     // session finished, no more events follow
)

// String returns the lowercase name of the kind.
func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventProgress:
		return "progress"
	case EventReport:
		return "report"
	case EventError:
		return "error"
	case EventClose:
		return "close"
	default:
		return "unknown"
	}
}

// Event is the tagged union emitted by a Session. Exactly one of Record,
// Report or Err is meaningful, depending on Kind.
type Event struct {
	Kind      EventKind
	SessionID string
	Time      time.Time
	Record    Record  // EventProgress
	Report    *Report // EventReport
	Err       error   // EventError
}
