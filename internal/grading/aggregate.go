package grading

import (
	"errors"

	"github.com/noah-isme/sma-exams-api/internal/models"
)

// ErrExamNotFound is returned when aggregation is attempted without an exam.
var ErrExamNotFound = errors.New("exam not found")

// resultIndex maps studentID -> subjectID -> raw result for one exam.
type resultIndex map[string]map[string]models.ExamResult

func indexResults(examID string, results []models.ExamResult) resultIndex {
	index := make(resultIndex)
	for _, result := range results {
		if result.ExamID != examID {
			continue
		}
		bySubject, ok := index[result.StudentID]
		if !ok {
			bySubject = make(map[string]models.ExamResult)
			index[result.StudentID] = bySubject
		}
		bySubject[result.SubjectID] = result
	}
	return index
}

// Aggregate combines a student's raw marks for an exam into one derived
// record. Subjects without a mark are left out of the totals and the mean.
func Aggregate(student models.Student, exam *models.Exam, results []models.ExamResult) (models.AggregatedStudentResult, error) {
	if exam == nil {
		return models.AggregatedStudentResult{}, ErrExamNotFound
	}
	return aggregate(student, exam, indexResults(exam.ID, results)[student.ID]), nil
}

// AggregateCohort aggregates every student against the same raw result set,
// preserving the roster order.
func AggregateCohort(students []models.Student, exam *models.Exam, results []models.ExamResult) ([]models.AggregatedStudentResult, error) {
	if exam == nil {
		return nil, ErrExamNotFound
	}
	index := indexResults(exam.ID, results)
	out := make([]models.AggregatedStudentResult, 0, len(students))
	for _, student := range students {
		out = append(out, aggregate(student, exam, index[student.ID]))
	}
	return out, nil
}

func aggregate(student models.Student, exam *models.Exam, marks map[string]models.ExamResult) models.AggregatedStudentResult {
	aggregated := models.AggregatedStudentResult{
		StudentID:       student.ID,
		StudentName:     student.Name,
		AdmissionNumber: student.AdmissionNumber,
		Results:         make(map[string]models.SubjectResult, len(exam.Subjects)),
	}

	var (
		percentageSum float64
		pointsSum     int
		present       int
	)
	for _, subject := range exam.Subjects {
		raw, ok := marks[subject.SubjectID]
		if !ok {
			continue
		}
		derived := SubjectResultFor(raw.Marks, raw.MaxMarks, exam.GradingSystem)
		aggregated.Results[subject.SubjectID] = derived
		aggregated.TotalMarks += raw.Marks
		aggregated.TotalMaxMarks += raw.MaxMarks
		percentageSum += derived.Percentage
		pointsSum += derived.Points()
		present++
	}

	if present == 0 {
		return aggregated
	}
	aggregated.MeanPercentage = Round2(percentageSum / float64(present))
	if exam.GradingSystem == models.GradingSystemKNEC {
		aggregated.MeanGrade = MeanGradeForPoints(float64(pointsSum) / float64(present))
	}
	return aggregated
}
