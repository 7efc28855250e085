package grading

import (
	"strconv"

	"github.com/noah-isme/sma-exams-api/internal/models"
)

// AnalyzeSubjects computes per-subject statistics over an aggregated cohort in
// exam subject order. names maps subject ids to display names.
func AnalyzeSubjects(exam *models.Exam, cohort []models.AggregatedStudentResult, names map[string]string) []models.SubjectAnalysis {
	if exam == nil {
		return nil
	}
	analyses := make([]models.SubjectAnalysis, 0, len(exam.Subjects))
	for _, subject := range exam.Subjects {
		analysis := models.SubjectAnalysis{
			SubjectID:         subject.SubjectID,
			SubjectName:       names[subject.SubjectID],
			GradeDistribution: make(map[string]int),
		}
		var marksSum, percentageSum float64
		var pointsSum int
		for _, student := range cohort {
			result, ok := student.Results[subject.SubjectID]
			if !ok {
				continue
			}
			analysis.Entries++
			marksSum += result.Marks
			percentageSum += result.Percentage
			pointsSum += result.Points()
			if key := distributionKey(result.Outcome); key != "" {
				analysis.GradeDistribution[key]++
			}
		}
		if analysis.Entries > 0 {
			entries := float64(analysis.Entries)
			analysis.MeanScore = Round2(marksSum / entries)
			analysis.MeanPercentage = Round2(percentageSum / entries)
			if exam.GradingSystem == models.GradingSystemKNEC {
				analysis.MeanGrade = MeanGradeForPoints(float64(pointsSum) / entries)
			}
		}
		analyses = append(analyses, analysis)
	}
	return analyses
}

func distributionKey(outcome models.GradeOutcome) string {
	switch o := outcome.(type) {
	case models.LetterGrade:
		return o.Grade
	case models.CompetencyLevel:
		return strconv.Itoa(o.Level)
	default:
		return ""
	}
}

// CohortMeanScore is the mean of every student's mean percentage.
func CohortMeanScore(cohort []models.AggregatedStudentResult) float64 {
	if len(cohort) == 0 {
		return 0
	}
	var sum float64
	for _, result := range cohort {
		sum += result.MeanPercentage
	}
	return Round2(sum / float64(len(cohort)))
}

// EntryStatistics summarises the raw marks entered for one subject.
func EntryStatistics(marks []float64) models.EntryStats {
	if len(marks) == 0 {
		return models.EntryStats{}
	}
	stats := models.EntryStats{
		Entries: len(marks),
		Highest: marks[0],
		Lowest:  marks[0],
	}
	var sum float64
	for _, value := range marks {
		sum += value
		if value > stats.Highest {
			stats.Highest = value
		}
		if value < stats.Lowest {
			stats.Lowest = value
		}
	}
	stats.Mean = Round2(sum / float64(len(marks)))
	return stats
}
