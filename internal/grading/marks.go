package grading

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/noah-isme/sma-exams-api/internal/models"
)

// InvalidMarksError describes a mark that is not a number within [0, MaxMarks].
// Its message is meant to be shown to the person entering marks.
type InvalidMarksError struct {
	StudentName string
	Value       string
	MaxMarks    float64
}

func (e *InvalidMarksError) Error() string {
	return fmt.Sprintf("Invalid marks for %s. Marks should be between 0 and %s",
		e.StudentName, strconv.FormatFloat(e.MaxMarks, 'f', -1, 64))
}

// ParseMarks validates a typed mark. Blank input reports ok=false and no error
// so the entry is skipped. Non-numeric or out-of-range input is rejected, never
// clamped.
func ParseMarks(studentName, raw string, maxMarks float64) (value float64, ok bool, err error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false, nil
	}
	invalid := &InvalidMarksError{StudentName: studentName, Value: raw, MaxMarks: maxMarks}
	value, err = strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false, invalid
	}
	if value < 0 || value > maxMarks {
		return 0, false, invalid
	}
	return value, true, nil
}

// Derive fills the cached percentage and outcome fields of a raw result.
// Exactly one of grade/points or level is set, depending on the system.
func Derive(result *models.ExamResult, system models.GradingSystem) {
	if result == nil {
		return
	}
	derived := SubjectResultFor(result.Marks, result.MaxMarks, system)
	result.Percentage = derived.Percentage
	result.Grade, result.Points, result.Level, result.Comment = nil, nil, nil, nil
	switch outcome := derived.Outcome.(type) {
	case models.LetterGrade:
		grade, points, comment := outcome.Grade, outcome.Points, outcome.Comment
		result.Grade, result.Points, result.Comment = &grade, &points, &comment
	case models.CompetencyLevel:
		level := outcome.Level
		result.Level = &level
	}
}
