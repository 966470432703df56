// ABOUTME: Compares two reports: per-category score deltas and a line diff of implementation plans.
package report

import (
	"strings"

	"github.com/2389-research/accessdoc/analysis"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// ScoreChange is the movement of one category between two reports. A
// category missing from one side has the matching Had/Has flag cleared.
type ScoreChange struct {
	Category string
	Before   int
	After    int
	HadOld   bool
	HasNew   bool
}

// Delta returns After-Before, or 0 when either side is missing.
func (c ScoreChange) Delta() int {
	if !c.HadOld || !c.HasNew {
		return 0
	}
	return c.After - c.Before
}

// CompareScores pairs categories by name, in the order they appear in
// newer followed by categories only in older.
func CompareScores(older, newer *analysis.Report) []ScoreChange {
	before := make(map[string]int, len(older.Scores))
	for _, s := range older.Scores {
		before[s.Category] = s.Score
	}

	seen := make(map[string]bool, len(newer.Scores))
	var out []ScoreChange
	for _, s := range newer.Scores {
		old, ok := before[s.Category]
		out = append(out, ScoreChange{Category: s.Category, Before: old, After: s.Score, HadOld: ok, HasNew: true})
		seen[s.Category] = true
	}
	for _, s := range older.Scores {
		if !seen[s.Category] {
			out = append(out, ScoreChange{Category: s.Category, Before: s.Score, HadOld: true})
		}
	}
	return out
}

// DiffOp tags a line in a plan diff.
type DiffOp int

const (
	OpEqual DiffOp = iota
	OpInsert
	OpDelete
)

// DiffLine is one line of a plan diff.
type DiffLine struct {
	Op   DiffOp
	Text string
}

// DiffPlans computes a line-level diff between two implementation plans.
func DiffPlans(older, newer string) []DiffLine {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(older, newer)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	var out []DiffLine
	for _, d := range diffs {
		op := OpEqual
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = OpInsert
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out = append(out, DiffLine{Op: op, Text: strings.TrimSuffix(line, "\n")})
		}
	}
	return out
}

// UnifiedPlanDiff renders DiffPlans as +/- prefixed text. Equal lines are
// kept only when context is true.
func UnifiedPlanDiff(older, newer string, context bool) string {
	var b strings.Builder
	for _, l := range DiffPlans(older, newer) {
		switch l.Op {
		case OpInsert:
			b.WriteString("+ ")
		case OpDelete:
			b.WriteString("- ")
		default:
			if !context {
				continue
			}
			b.WriteString("  ")
		}
		b.WriteString(l.Text)
		b.WriteString("\n")
	}
	return b.String()
}
