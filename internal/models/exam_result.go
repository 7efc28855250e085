package models

// ExamResult is one raw mark for a (exam, student, subject) triple. Percentage,
// Grade, Points and Level are cached at write time for export compatibility;
// derivations always recompute them from Marks and MaxMarks.
type ExamResult struct {
	ID         string  `db:"id" json:"id"`
	ExamID     string  `db:"exam_id" json:"examId"`
	StudentID  string  `db:"student_id" json:"studentId"`
	SubjectID  string  `db:"subject_id" json:"subjectId"`
	Marks      float64 `db:"marks" json:"marks"`
	MaxMarks   float64 `db:"max_marks" json:"maxMarks"`
	Percentage float64 `db:"percentage" json:"percentage"`
	Grade      *string `db:"grade" json:"grade,omitempty"`
	Points     *int    `db:"points" json:"points,omitempty"`
	Level      *int    `db:"level" json:"level,omitempty"`
	Comment    *string `db:"comment" json:"comment,omitempty"`
}

// ExamResultFilter scopes raw result queries.
type ExamResultFilter struct {
	ExamID    string
	StudentID string
	SubjectID string
}
