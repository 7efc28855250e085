package models

// GradingSystem selects the grading policy used for every derivation tied to an exam.
type GradingSystem string

const (
	// GradingSystemKNEC grades subjects with the 12-band letter table and derives a mean grade.
	GradingSystemKNEC GradingSystem = "knec"
	// GradingSystemCBC grades subjects with the 4-level competency rubric.
	GradingSystemCBC GradingSystem = "cbc"
)

// Valid reports whether the value names a supported grading system.
func (g GradingSystem) Valid() bool {
	return g == GradingSystemKNEC || g == GradingSystemCBC
}

// ExamSubject declares a subject assessed by an exam and its maximum score.
type ExamSubject struct {
	SubjectID string  `db:"subject_id" json:"subjectId"`
	MaxMarks  float64 `db:"max_marks" json:"maxMarks"`
}

// Exam is a single sitting assessed over an ordered set of subjects.
type Exam struct {
	ID            string        `db:"id" json:"id"`
	Name          string        `db:"name" json:"name"`
	ExamTypeID    string        `db:"exam_type_id" json:"examTypeId"`
	TermID        string        `db:"term_id" json:"termId"`
	Year          int           `db:"year" json:"year"`
	StartDate     string        `db:"start_date" json:"startDate"`
	EndDate       string        `db:"end_date" json:"endDate"`
	Subjects      []ExamSubject `db:"-" json:"subjects"`
	GradingSystem GradingSystem `db:"grading_system" json:"gradingSystem"`
}

// Subject returns the declaration for subjectID when the exam assesses it.
func (e *Exam) Subject(subjectID string) (ExamSubject, bool) {
	if e == nil {
		return ExamSubject{}, false
	}
	for _, subject := range e.Subjects {
		if subject.SubjectID == subjectID {
			return subject, true
		}
	}
	return ExamSubject{}, false
}

// ExamFilter defines filters supported by the exam list endpoint.
type ExamFilter struct {
	Year       int
	TermID     string
	ExamTypeID string
	Page       int
	PageSize   int
}
