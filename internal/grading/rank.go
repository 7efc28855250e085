package grading

import (
	"sort"

	"github.com/noah-isme/sma-exams-api/internal/models"
)

// RankCohort returns a copy of results ordered by mean percentage, highest
// first, with positions 1..N. Exact ties keep their input order and still get
// sequential positions.
func RankCohort(results []models.AggregatedStudentResult) []models.AggregatedStudentResult {
	ranked := make([]models.AggregatedStudentResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MeanPercentage > ranked[j].MeanPercentage
	})
	for i := range ranked {
		ranked[i].Position = i + 1
	}
	return ranked
}

// PositionOf finds the position of studentID in a ranked cohort.
func PositionOf(ranked []models.AggregatedStudentResult, studentID string) (models.AggregatedStudentResult, bool) {
	for _, result := range ranked {
		if result.StudentID == studentID {
			return result, true
		}
	}
	return models.AggregatedStudentResult{}, false
}
