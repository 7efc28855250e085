package grading

import "github.com/noah-isme/sma-exams-api/internal/models"

// SummarizeDistribution counts mean grades across a cohort. Buckets follow the
// fixed A..E order and include grades nobody attained. Total is the cohort size.
func SummarizeDistribution(results []models.AggregatedStudentResult) models.GradeDistribution {
	counts := make(map[string]int)
	for _, result := range results {
		if result.MeanGrade == "" {
			continue
		}
		counts[result.MeanGrade]++
	}

	order := GradeOrder()
	buckets := make([]models.GradeBucket, 0, len(order))
	for _, grade := range order {
		buckets = append(buckets, models.GradeBucket{Grade: grade, Count: counts[grade]})
	}
	return models.GradeDistribution{
		Buckets: buckets,
		Counts:  counts,
		Total:   len(results),
	}
}
