package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-exams-api/internal/grading"
	"github.com/noah-isme/sma-exams-api/internal/models"
	appErrors "github.com/noah-isme/sma-exams-api/pkg/errors"
)

type marksRepository interface {
	List(ctx context.Context, filter models.ExamResultFilter) ([]models.ExamResult, error)
	BulkUpsert(ctx context.Context, results []models.ExamResult) error
	Delete(ctx context.Context, id string) error
}

type exportInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// invalidateExports drops cached export files matching pattern. Failures are
// logged only; cached exports are keyed by result fingerprint.
func invalidateExports(ctx context.Context, cache exportInvalidator, logger *zap.Logger, pattern string) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, pattern); err != nil {
		logger.Warn("export cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

// RawMarks is a mark exactly as typed. It accepts a JSON number, string or null.
type RawMarks string

// UnmarshalJSON implements json.Unmarshaler.
func (r *RawMarks) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*r = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*r = RawMarks(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("marks must be a number or string: %w", err)
	}
	*r = RawMarks(n.String())
	return nil
}

// MarksEntry is one student's typed mark.
type MarksEntry struct {
	StudentID string   `json:"studentId" validate:"required"`
	Marks     RawMarks `json:"marks"`
}

// MarksEntryRequest carries the marks typed for one subject of an exam.
type MarksEntryRequest struct {
	ExamID    string       `json:"-" validate:"required"`
	SubjectID string       `json:"subjectId" validate:"required"`
	Entries   []MarksEntry `json:"entries" validate:"required,min=1,dive"`
}

// MarksEntryResult reports what a marks entry stored. Stats cover every stored
// mark of the subject within the forms of the students entered.
type MarksEntryResult struct {
	Saved   int                 `json:"saved"`
	Skipped int                 `json:"skipped"`
	Results []models.ExamResult `json:"results"`
	Stats   models.EntryStats   `json:"stats"`
}

// MarksStatsQuery selects the entered marks of one subject.
type MarksStatsQuery struct {
	ExamID    string `form:"-" validate:"required"`
	SubjectID string `form:"subjectId" validate:"required"`
	FormID    string `form:"formId"`
	StreamID  string `form:"streamId"`
}

// MarksService implements the marks entry flow.
type MarksService struct {
	exams     examReader
	results   marksRepository
	students  rosterReader
	cache     exportInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMarksService constructs the marks service.
func NewMarksService(exams examReader, results marksRepository, students rosterReader, cache exportInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *MarksService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarksService{
		exams:     exams,
		results:   results,
		students:  students,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Enter validates and stores the marks of one subject. Any invalid value
// rejects the whole batch; blank values are skipped.
func (s *MarksService) Enter(ctx context.Context, req MarksEntryRequest) (*MarksEntryResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marks payload")
	}
	exam, err := s.exams.FindByID(ctx, req.ExamID)
	if err != nil {
		return nil, lookupError(err, "exam not found", "failed to load exam")
	}
	declared, ok := exam.Subject(req.SubjectID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject is not assessed by this exam")
	}

	stored, err := s.results.List(ctx, models.ExamResultFilter{ExamID: exam.ID, SubjectID: declared.SubjectID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam results")
	}
	existing := make(map[string]models.ExamResult, len(stored))
	for _, result := range stored {
		existing[result.StudentID] = result
	}

	// A student listed twice keeps the last value.
	order := make([]string, 0, len(req.Entries))
	latest := make(map[string]RawMarks, len(req.Entries))
	for _, entry := range req.Entries {
		if _, seen := latest[entry.StudentID]; !seen {
			order = append(order, entry.StudentID)
		}
		latest[entry.StudentID] = entry.Marks
	}

	pending := make([]models.ExamResult, 0, len(order))
	skipped := 0
	forms := make([]string, 0, 1)
	for _, studentID := range order {
		student, err := s.students.FindByID(ctx, studentID)
		if err != nil {
			return nil, lookupError(err, fmt.Sprintf("student %s not found", studentID), "failed to load student")
		}
		if !slices.Contains(forms, student.FormID) {
			forms = append(forms, student.FormID)
		}
		marks, ok, err := grading.ParseMarks(student.Name, string(latest[studentID]), declared.MaxMarks)
		if err != nil {
			var invalid *grading.InvalidMarksError
			if errors.As(err, &invalid) {
				return nil, appErrors.Wrap(err, appErrors.ErrInvalidMarks.Code, appErrors.ErrInvalidMarks.Status, invalid.Error())
			}
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marks payload")
		}
		if !ok {
			skipped++
			continue
		}
		result := models.ExamResult{
			ExamID:    exam.ID,
			StudentID: student.ID,
			SubjectID: declared.SubjectID,
			Marks:     marks,
			MaxMarks:  declared.MaxMarks,
		}
		if previous, found := existing[student.ID]; found {
			result.ID = previous.ID
		}
		grading.Derive(&result, exam.GradingSystem)
		pending = append(pending, result)
	}

	if err := s.results.BulkUpsert(ctx, pending); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save marks")
	}
	for _, result := range pending {
		existing[result.StudentID] = result
	}
	members := make(map[string]struct{})
	for _, formID := range forms {
		if err := s.cohortMembers(ctx, formID, "", members); err != nil {
			return nil, err
		}
	}
	marks := make([]float64, 0, len(existing))
	for _, result := range existing {
		if _, ok := members[result.StudentID]; ok {
			marks = append(marks, result.Marks)
		}
	}

	invalidateExports(ctx, s.cache, s.logger, exportCachePattern(exam.ID))
	s.metrics.RecordMarksEntry(len(pending), skipped)
	s.logger.Info("marks entered",
		zap.String("exam_id", exam.ID),
		zap.String("subject_id", declared.SubjectID),
		zap.Int("saved", len(pending)),
		zap.Int("skipped", skipped),
	)

	return &MarksEntryResult{
		Saved:   len(pending),
		Skipped: skipped,
		Results: pending,
		Stats:   grading.EntryStatistics(marks),
	}, nil
}

// Stats summarises the stored marks of one subject, optionally limited to a
// form or stream.
func (s *MarksService) Stats(ctx context.Context, query MarksStatsQuery) (*models.EntryStats, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "examId and subjectId are required")
	}
	exam, err := s.exams.FindByID(ctx, query.ExamID)
	if err != nil {
		return nil, lookupError(err, "exam not found", "failed to load exam")
	}
	if _, ok := exam.Subject(query.SubjectID); !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject is not assessed by this exam")
	}
	rows, err := s.results.List(ctx, models.ExamResultFilter{ExamID: exam.ID, SubjectID: query.SubjectID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam results")
	}

	var members map[string]struct{}
	if query.FormID != "" {
		members = make(map[string]struct{})
		if err := s.cohortMembers(ctx, query.FormID, query.StreamID, members); err != nil {
			return nil, err
		}
	}

	marks := make([]float64, 0, len(rows))
	for _, row := range rows {
		if members != nil {
			if _, ok := members[row.StudentID]; !ok {
				continue
			}
		}
		marks = append(marks, row.Marks)
	}
	stats := grading.EntryStatistics(marks)
	return &stats, nil
}

// Delete removes a single stored mark.
func (s *MarksService) Delete(ctx context.Context, id string) error {
	if err := s.results.Delete(ctx, id); err != nil {
		return lookupError(err, "exam result not found", "failed to delete exam result")
	}
	return nil
}

// cohortMembers adds the ids of a form's (or stream's) students to members.
func (s *MarksService) cohortMembers(ctx context.Context, formID, streamID string, members map[string]struct{}) error {
	students, err := s.students.ListByCohort(ctx, formID, streamID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	for _, student := range students {
		members[student.ID] = struct{}{}
	}
	return nil
}
