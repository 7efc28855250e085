package models

// CohortFilter selects the students of one form, optionally narrowed to a stream,
// sitting one exam.
type CohortFilter struct {
	ExamID   string
	FormID   string
	StreamID string
}

// AggregatedStudentResult is one student's derived result for an exam. It is
// rebuilt from raw marks on every query and never persisted.
type AggregatedStudentResult struct {
	StudentID       string                   `json:"studentId"`
	StudentName     string                   `json:"studentName"`
	AdmissionNumber string                   `json:"admissionNumber"`
	Results         map[string]SubjectResult `json:"results"`
	TotalMarks      float64                  `json:"totalMarks"`
	TotalMaxMarks   float64                  `json:"totalMaxMarks"`
	MeanPercentage  float64                  `json:"meanPercentage"`
	MeanGrade       string                   `json:"meanGrade,omitempty"`
	Position        int                      `json:"position,omitempty"`
}

// SubjectColumn describes one assessed subject in exam order.
type SubjectColumn struct {
	SubjectID string  `json:"subjectId"`
	Name      string  `json:"name"`
	Code      string  `json:"code"`
	MaxMarks  float64 `json:"maxMarks"`
}

// ClassResult is the ranked result sheet of a cohort.
type ClassResult struct {
	ExamID         string                    `json:"examId"`
	ExamName       string                    `json:"examName"`
	GradingSystem  GradingSystem             `json:"gradingSystem"`
	FormID         string                    `json:"formId"`
	StreamID       string                    `json:"streamId,omitempty"`
	Subjects       []SubjectColumn           `json:"subjects"`
	StudentResults []AggregatedStudentResult `json:"studentResults"`
}

// GradeBucket is one chart bar.
type GradeBucket struct {
	Grade string `json:"grade"`
	Count int    `json:"count"`
}

// GradeDistribution counts mean grades across a cohort.
type GradeDistribution struct {
	Buckets []GradeBucket  `json:"buckets"`
	Counts  map[string]int `json:"counts"`
	Total   int            `json:"total"`
}

// SubjectAnalysis holds per-subject cohort statistics.
type SubjectAnalysis struct {
	SubjectID         string         `json:"subjectId"`
	SubjectName       string         `json:"subjectName"`
	Entries           int            `json:"entries"`
	MeanScore         float64        `json:"meanScore"`
	MeanPercentage    float64        `json:"meanPercentage"`
	MeanGrade         string         `json:"meanGrade,omitempty"`
	GradeDistribution map[string]int `json:"gradeDistribution"`
}

// ExamSummary aggregates cohort statistics for the exam detail view.
type ExamSummary struct {
	ExamID          string             `json:"examId"`
	ExamName        string             `json:"examName"`
	GradingSystem   GradingSystem      `json:"gradingSystem"`
	FormID          string             `json:"formId"`
	StreamID        string             `json:"streamId,omitempty"`
	Students        int                `json:"students"`
	Subjects        int                `json:"subjects"`
	MeanScore       float64            `json:"meanScore"`
	Distribution    *GradeDistribution `json:"distribution,omitempty"`
	SubjectAnalysis []SubjectAnalysis  `json:"subjectAnalysis"`
}

// EntryStats summarises the marks entered for one subject.
type EntryStats struct {
	Entries int     `json:"entries"`
	Mean    float64 `json:"mean"`
	Highest float64 `json:"highest"`
	Lowest  float64 `json:"lowest"`
}
