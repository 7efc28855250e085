package models

import (
	"encoding/json"
)

// GradeOutcome is the graded result of one subject. It is either a LetterGrade
// (KNEC) or a CompetencyLevel (CBC), never both.
type GradeOutcome interface {
	gradeOutcome()
}

// LetterGrade is a KNEC band outcome.
type LetterGrade struct {
	Grade   string
	Points  int
	Comment string
}

// CompetencyLevel is a CBC rubric outcome.
type CompetencyLevel struct {
	Level       int
	Description string
}

func (LetterGrade) gradeOutcome()     {}
func (CompetencyLevel) gradeOutcome() {}

// SubjectResult is the derived view of one raw mark. Outcome is nil when the
// percentage could not be graded.
type SubjectResult struct {
	Marks      float64
	MaxMarks   float64
	Percentage float64
	Outcome    GradeOutcome
}

// Letter returns the letter outcome when the subject was graded under KNEC.
func (r SubjectResult) Letter() (LetterGrade, bool) {
	letter, ok := r.Outcome.(LetterGrade)
	return letter, ok
}

// Level returns the competency outcome when the subject was graded under CBC.
func (r SubjectResult) Level() (CompetencyLevel, bool) {
	level, ok := r.Outcome.(CompetencyLevel)
	return level, ok
}

// Points returns the KNEC points of the outcome, or 0 when there are none.
func (r SubjectResult) Points() int {
	if letter, ok := r.Letter(); ok {
		return letter.Points
	}
	return 0
}

type subjectResultJSON struct {
	Marks       float64 `json:"marks"`
	MaxMarks    float64 `json:"maxMarks"`
	Percentage  float64 `json:"percentage"`
	Grade       *string `json:"grade,omitempty"`
	Points      *int    `json:"points,omitempty"`
	Comment     *string `json:"comment,omitempty"`
	Level       *int    `json:"level,omitempty"`
	Description *string `json:"description,omitempty"`
}

// MarshalJSON flattens the outcome into the grade/points or level fields used by stored records.
func (r SubjectResult) MarshalJSON() ([]byte, error) {
	payload := subjectResultJSON{
		Marks:      r.Marks,
		MaxMarks:   r.MaxMarks,
		Percentage: r.Percentage,
	}
	switch outcome := r.Outcome.(type) {
	case LetterGrade:
		payload.Grade = &outcome.Grade
		payload.Points = &outcome.Points
		if outcome.Comment != "" {
			payload.Comment = &outcome.Comment
		}
	case CompetencyLevel:
		payload.Level = &outcome.Level
		if outcome.Description != "" {
			payload.Description = &outcome.Description
		}
	}
	return json.Marshal(payload)
}

// UnmarshalJSON rebuilds the outcome variant from the flattened fields.
func (r *SubjectResult) UnmarshalJSON(data []byte) error {
	var payload subjectResultJSON
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	r.Marks = payload.Marks
	r.MaxMarks = payload.MaxMarks
	r.Percentage = payload.Percentage
	r.Outcome = nil
	switch {
	case payload.Grade != nil:
		letter := LetterGrade{Grade: *payload.Grade}
		if payload.Points != nil {
			letter.Points = *payload.Points
		}
		if payload.Comment != nil {
			letter.Comment = *payload.Comment
		}
		r.Outcome = letter
	case payload.Level != nil:
		level := CompetencyLevel{Level: *payload.Level}
		if payload.Description != nil {
			level.Description = *payload.Description
		}
		r.Outcome = level
	}
	return nil
}
