package grading

import (
	"math"

	"github.com/noah-isme/sma-exams-api/internal/models"
)

// roundingTolerance absorbs binary representation error so that values such as
// 79.995 round up at the second decimal.
const roundingTolerance = 1e-9

// Round2 rounds v half-up to two decimal places.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5+roundingTolerance) / 100
}

// PercentageOf converts raw marks to a percentage rounded to two decimals.
// A zero maxMarks yields 0.
func PercentageOf(marks, maxMarks float64) float64 {
	if maxMarks == 0 {
		return 0
	}
	return Round2(marks / maxMarks * 100)
}

// SubjectResultFor derives the per-subject view of a raw mark.
func SubjectResultFor(marks, maxMarks float64, system models.GradingSystem) models.SubjectResult {
	percentage := PercentageOf(marks, maxMarks)
	return models.SubjectResult{
		Marks:      marks,
		MaxMarks:   maxMarks,
		Percentage: percentage,
		Outcome:    Outcome(percentage, system),
	}
}
