package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-exams-api/internal/grading"
	"github.com/noah-isme/sma-exams-api/internal/models"
	appErrors "github.com/noah-isme/sma-exams-api/pkg/errors"
)

type examReader interface {
	FindByID(ctx context.Context, id string) (*models.Exam, error)
}

type examResultReader interface {
	ListByExam(ctx context.Context, examID string) ([]models.ExamResult, error)
}

type rosterReader interface {
	ListByCohort(ctx context.Context, formID, streamID string) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type subjectReader interface {
	List(ctx context.Context) ([]models.Subject, error)
}

// CohortQuery selects the students whose results are derived.
type CohortQuery struct {
	ExamID   string `form:"-" validate:"required"`
	FormID   string `form:"formId" validate:"required"`
	StreamID string `form:"streamId"`
}

// ResultService derives ranked results from raw marks. Nothing it returns is
// persisted or cached; every call reads the current marks.
type ResultService struct {
	exams     examReader
	results   examResultReader
	students  rosterReader
	subjects  subjectReader
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewResultService constructs the result service.
func NewResultService(exams examReader, results examResultReader, students rosterReader, subjects subjectReader, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ResultService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultService{
		exams:     exams,
		results:   results,
		students:  students,
		subjects:  subjects,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// ClassResults returns the ranked result sheet of a form or stream.
func (s *ResultService) ClassResults(ctx context.Context, query CohortQuery) (*models.ClassResult, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "examId and formId are required")
	}
	start := time.Now()
	exam, err := s.loadExam(ctx, query.ExamID)
	if err != nil {
		return nil, err
	}
	ranked, err := s.rankedCohort(ctx, exam, query.FormID, query.StreamID)
	if err != nil {
		return nil, err
	}
	columns, err := s.subjectColumns(ctx, exam)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveDerivation("class_results", string(exam.GradingSystem), len(ranked), time.Since(start))

	return &models.ClassResult{
		ExamID:         exam.ID,
		ExamName:       exam.Name,
		GradingSystem:  exam.GradingSystem,
		FormID:         query.FormID,
		StreamID:       query.StreamID,
		Subjects:       columns,
		StudentResults: ranked,
	}, nil
}

// StudentResult returns one student's aggregated result, positioned within
// their whole form.
func (s *ResultService) StudentResult(ctx context.Context, examID, studentID string) (*models.AggregatedStudentResult, error) {
	exam, err := s.loadExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, lookupError(err, "student not found", "failed to load student")
	}
	ranked, err := s.rankedCohort(ctx, exam, student.FormID, "")
	if err != nil {
		return nil, err
	}
	if result, ok := grading.PositionOf(ranked, student.ID); ok {
		return &result, nil
	}

	// Roster and student lookup disagree; derive the row without a position.
	rows, err := s.results.ListByExam(ctx, exam.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam results")
	}
	result, err := grading.Aggregate(*student, exam, rows)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
	}
	return &result, nil
}

// Summary returns the cohort statistics shown on the exam detail view.
func (s *ResultService) Summary(ctx context.Context, query CohortQuery) (*models.ExamSummary, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "examId and formId are required")
	}
	start := time.Now()
	exam, err := s.loadExam(ctx, query.ExamID)
	if err != nil {
		return nil, err
	}
	ranked, err := s.rankedCohort(ctx, exam, query.FormID, query.StreamID)
	if err != nil {
		return nil, err
	}
	names, err := s.subjectNames(ctx)
	if err != nil {
		return nil, err
	}

	summary := &models.ExamSummary{
		ExamID:          exam.ID,
		ExamName:        exam.Name,
		GradingSystem:   exam.GradingSystem,
		FormID:          query.FormID,
		StreamID:        query.StreamID,
		Students:        len(ranked),
		Subjects:        len(exam.Subjects),
		MeanScore:       grading.CohortMeanScore(ranked),
		SubjectAnalysis: grading.AnalyzeSubjects(exam, ranked, names),
	}
	if exam.GradingSystem == models.GradingSystemKNEC {
		distribution := grading.SummarizeDistribution(ranked)
		summary.Distribution = &distribution
	}
	s.metrics.ObserveDerivation("summary", string(exam.GradingSystem), len(ranked), time.Since(start))
	return summary, nil
}

func (s *ResultService) loadExam(ctx context.Context, examID string) (*models.Exam, error) {
	exam, err := s.exams.FindByID(ctx, examID)
	if err != nil {
		return nil, lookupError(err, "exam not found", "failed to load exam")
	}
	return exam, nil
}

func (s *ResultService) rankedCohort(ctx context.Context, exam *models.Exam, formID, streamID string) ([]models.AggregatedStudentResult, error) {
	students, err := s.students.ListByCohort(ctx, formID, streamID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	rows, err := s.results.ListByExam(ctx, exam.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam results")
	}
	cohort, err := grading.AggregateCohort(students, exam, rows)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
	}
	ranked := grading.RankCohort(cohort)
	s.logger.Debug("cohort ranked",
		zap.String("exam_id", exam.ID),
		zap.String("form_id", formID),
		zap.String("stream_id", streamID),
		zap.Int("students", len(ranked)),
	)
	return ranked, nil
}

func (s *ResultService) subjectNames(ctx context.Context) (map[string]string, error) {
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	names := make(map[string]string, len(subjects))
	for _, subject := range subjects {
		names[subject.ID] = subject.Name
	}
	return names, nil
}

func (s *ResultService) subjectColumns(ctx context.Context, exam *models.Exam) ([]models.SubjectColumn, error) {
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	byID := make(map[string]models.Subject, len(subjects))
	for _, subject := range subjects {
		byID[subject.ID] = subject
	}
	columns := make([]models.SubjectColumn, 0, len(exam.Subjects))
	for _, declared := range exam.Subjects {
		column := models.SubjectColumn{SubjectID: declared.SubjectID, MaxMarks: declared.MaxMarks}
		if subject, ok := byID[declared.SubjectID]; ok {
			column.Name = subject.Name
			column.Code = subject.Code
		} else {
			column.Name = declared.SubjectID
			column.Code = declared.SubjectID
		}
		columns = append(columns, column)
	}
	return columns, nil
}

// lookupError maps a repository lookup failure to a typed error.
func lookupError(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}
