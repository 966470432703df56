// ABOUTME: Score presentation helpers: average, rating class and emoji badge for report scores.
package report

import (
	"math"

	"github.com/2389-research/accessdoc/analysis"
)

// Rating buckets a 0-100 score.
type Rating string

const (
	Excellent        Rating = "excellent"
	Good             Rating = "good"
	NeedsImprovement Rating = "needs-improvement"
	Poor             Rating = "poor"
)

// Class returns the rating bucket for score.
func Class(score int) Rating {
	switch {
	case score >= 90:
		return Excellent
	case score >= 70:
		return Good
	case score >= 50:
		return NeedsImprovement
	default:
		return Poor
	}
}

// Emoji returns the badge shown next to score.
func Emoji(score int) string {
	switch Class(score) {
	case Excellent:
		return "✅"
	case Good:
		return "👍"
	case NeedsImprovement:
		return "⚠️"
	default:
		return "❌"
	}
}

// Average returns the mean score rounded half up. An empty list averages 0.
func Average(scores []analysis.ScoreEntry) int {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s.Score
	}
	return int(math.Floor(float64(sum)/float64(len(scores)) + 0.5))
}
