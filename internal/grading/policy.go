// Package grading derives percentages, grades, rankings and distributions from
// raw exam marks. Every function is pure and works on in-memory values.
package grading

import (
	"math"

	"github.com/noah-isme/sma-exams-api/internal/models"
)

// GradeBand is one row of the KNEC letter table. MinMark and MaxMark are the
// documented integer bounds, both inclusive.
type GradeBand struct {
	Grade   string `json:"grade"`
	MinMark int    `json:"minMark"`
	MaxMark int    `json:"maxMark"`
	Points  int    `json:"points"`
	Comment string `json:"comment"`
}

// LevelBand is one row of the CBC competency rubric.
type LevelBand struct {
	Level       int    `json:"level"`
	Description string `json:"description"`
	MinMark     int    `json:"minMark"`
	MaxMark     int    `json:"maxMark"`
}

// Ordered from the highest band down; lookups depend on this order.
var knecBands = []GradeBand{
	{Grade: "A", MinMark: 80, MaxMark: 100, Points: 12, Comment: "Excellent"},
	{Grade: "A-", MinMark: 75, MaxMark: 79, Points: 11, Comment: "Very Good"},
	{Grade: "B+", MinMark: 70, MaxMark: 74, Points: 10, Comment: "Good"},
	{Grade: "B", MinMark: 65, MaxMark: 69, Points: 9, Comment: "Fairly Good"},
	{Grade: "B-", MinMark: 60, MaxMark: 64, Points: 8, Comment: "Above Average"},
	{Grade: "C+", MinMark: 55, MaxMark: 59, Points: 7, Comment: "Average"},
	{Grade: "C", MinMark: 50, MaxMark: 54, Points: 6, Comment: "Average"},
	{Grade: "C-", MinMark: 45, MaxMark: 49, Points: 5, Comment: "Below Average"},
	{Grade: "D+", MinMark: 40, MaxMark: 44, Points: 4, Comment: "Weak"},
	{Grade: "D", MinMark: 35, MaxMark: 39, Points: 3, Comment: "Weak"},
	{Grade: "D-", MinMark: 30, MaxMark: 34, Points: 2, Comment: "Very Weak"},
	{Grade: "E", MinMark: 0, MaxMark: 29, Points: 1, Comment: "Poor"},
}

var cbcBands = []LevelBand{
	{Level: 4, Description: "Exceeding Expectations", MinMark: 80, MaxMark: 100},
	{Level: 3, Description: "Meeting Expectations", MinMark: 65, MaxMark: 79},
	{Level: 2, Description: "Approaching Expectations", MinMark: 50, MaxMark: 64},
	{Level: 1, Description: "Below Expectations", MinMark: 0, MaxMark: 49},
}

var meanGradeThresholds = []struct {
	min   float64
	grade string
}{
	{11.5, "A"},
	{10.5, "A-"},
	{9.5, "B+"},
	{8.5, "B"},
	{7.5, "B-"},
	{6.5, "C+"},
	{5.5, "C"},
	{4.5, "C-"},
	{3.5, "D+"},
	{2.5, "D"},
	{1.5, "D-"},
}

// KNECBands returns a copy of the letter table, highest band first.
func KNECBands() []GradeBand {
	out := make([]GradeBand, len(knecBands))
	copy(out, knecBands)
	return out
}

// CBCBands returns a copy of the competency rubric, highest level first.
func CBCBands() []LevelBand {
	out := make([]LevelBand, len(cbcBands))
	copy(out, cbcBands)
	return out
}

// GradeOrder returns the KNEC grade labels in chart order, A first.
func GradeOrder() []string {
	order := make([]string, 0, len(knecBands))
	for _, band := range knecBands {
		order = append(order, band.Grade)
	}
	return order
}

func inRange(p float64) bool {
	return !math.IsNaN(p) && p >= 0 && p <= 100
}

// GradeForPercentage returns the KNEC band containing p. A fractional
// percentage between two integer ranges belongs to the lower band, so 79.99
// is A- and 80 is A.
func GradeForPercentage(p float64) (GradeBand, bool) {
	if !inRange(p) {
		return GradeBand{}, false
	}
	for _, band := range knecBands {
		if p >= float64(band.MinMark) {
			return band, true
		}
	}
	return GradeBand{}, false
}

// LevelForPercentage returns the CBC level containing p.
func LevelForPercentage(p float64) (LevelBand, bool) {
	if !inRange(p) {
		return LevelBand{}, false
	}
	for _, band := range cbcBands {
		if p >= float64(band.MinMark) {
			return band, true
		}
	}
	return LevelBand{}, false
}

// MeanGradeForPoints maps an average of per-subject points to a letter grade.
func MeanGradeForPoints(avgPoints float64) string {
	for _, threshold := range meanGradeThresholds {
		if avgPoints >= threshold.min {
			return threshold.grade
		}
	}
	return "E"
}

// Outcome grades a percentage under the given system. It returns nil when the
// percentage is out of range or the system is unknown.
func Outcome(p float64, system models.GradingSystem) models.GradeOutcome {
	switch system {
	case models.GradingSystemKNEC:
		band, ok := GradeForPercentage(p)
		if !ok {
			return nil
		}
		return models.LetterGrade{Grade: band.Grade, Points: band.Points, Comment: band.Comment}
	case models.GradingSystemCBC:
		band, ok := LevelForPercentage(p)
		if !ok {
			return nil
		}
		return models.CompetencyLevel{Level: band.Level, Description: band.Description}
	default:
		return nil
	}
}
