// Package scoring derives the overall interview score from its breakdown.
package scoring

import (
	"math"

	"github.com/feichai0017/interview-practice/internal/models"
)

// OverallScore returns existing unchanged when it is already set or when the
// breakdown carries no score. Otherwise it is the rounded mean of
// communication, technical, confidence, pace and the inverted filler-word score.
func OverallScore(b models.ScoreBreakdown, existing int) int {
	if existing != 0 || !b.AnyPositive() {
		return existing
	}

	dims := []float64{
		b.Communication,
		b.Technical,
		b.Confidence,
		math.Max(0, 100-b.FillerWords),
		b.Pace,
	}

	var sum float64
	for _, v := range dims {
		sum += v
	}

	// half rounds up
	overall := int(math.Floor(sum/float64(len(dims)) + 0.5))
	switch {
	case overall < 0:
		return 0
	case overall > 100:
		return 100
	}
	return overall
}

// Resolve fills card.Overall from the breakdown. Once Overall is nonzero it
// is never recomputed.
func Resolve(card *models.Scorecard) int {
	card.Overall = OverallScore(card.Breakdown, card.Overall)
	return card.Overall
}
