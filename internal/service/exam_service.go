package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-exams-api/internal/grading"
	"github.com/noah-isme/sma-exams-api/internal/models"
	appErrors "github.com/noah-isme/sma-exams-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type examRepository interface {
	List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, int, error)
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	Create(ctx context.Context, exam *models.Exam) error
	Update(ctx context.Context, exam *models.Exam) error
	Delete(ctx context.Context, id string) error
}

type examResultStore interface {
	List(ctx context.Context, filter models.ExamResultFilter) ([]models.ExamResult, error)
	BulkUpsert(ctx context.Context, results []models.ExamResult) error
	HighestMarksBySubject(ctx context.Context, examID string) (map[string]float64, error)
}

type subjectLookup interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type examTypeLookup interface {
	FindByID(ctx context.Context, id string) (*models.ExamType, error)
}

// ExamSubjectInput declares one assessed subject.
type ExamSubjectInput struct {
	SubjectID string  `json:"subjectId" validate:"required"`
	MaxMarks  float64 `json:"maxMarks" validate:"gt=0"`
}

// ExamRequest is the payload for creating or replacing an exam.
type ExamRequest struct {
	Name          string             `json:"name" validate:"required"`
	ExamTypeID    string             `json:"examTypeId" validate:"required"`
	TermID        string             `json:"termId" validate:"required"`
	Year          int                `json:"year" validate:"required,gte=2000,lte=2100"`
	StartDate     string             `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate       string             `json:"endDate" validate:"required,datetime=2006-01-02"`
	GradingSystem string             `json:"gradingSystem" validate:"required,oneof=knec cbc"`
	Subjects      []ExamSubjectInput `json:"subjects" validate:"required,min=1,dive"`
}

// ExamService handles exam use-cases.
type ExamService struct {
	repo      examRepository
	results   examResultStore
	subjects  subjectLookup
	examTypes examTypeLookup
	cache     exportInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamService constructs the exam service.
func NewExamService(repo examRepository, results examResultStore, subjects subjectLookup, examTypes examTypeLookup, cache exportInvalidator, validate *validator.Validate, logger *zap.Logger) *ExamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{
		repo:      repo,
		results:   results,
		subjects:  subjects,
		examTypes: examTypes,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// List returns exams and pagination metadata.
func (s *ExamService) List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, *models.Pagination, error) {
	exams, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exams")
	}
	return exams, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns an exam with its subject declarations.
func (s *ExamService) Get(ctx context.Context, id string) (*models.Exam, error) {
	exam, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "exam not found", "failed to load exam")
	}
	return exam, nil
}

// Create registers a new exam.
func (s *ExamService) Create(ctx context.Context, req ExamRequest) (*models.Exam, error) {
	exam, err := s.buildExam(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam")
	}
	s.logger.Info("exam created", zap.String("exam_id", exam.ID), zap.String("grading_system", string(exam.GradingSystem)))
	return exam, nil
}

// Update replaces an exam definition. Stored marks of the remaining subjects
// are re-derived against the new maximums and grading system.
func (s *ExamService) Update(ctx context.Context, id string, req ExamRequest) (*models.Exam, error) {
	exam, err := s.buildExam(ctx, req)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, lookupError(err, "exam not found", "failed to load exam")
	}
	exam.ID = id

	highest, err := s.results.HighestMarksBySubject(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stored marks")
	}
	for _, subject := range exam.Subjects {
		if top, ok := highest[subject.SubjectID]; ok && top > subject.MaxMarks {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf(
				"maxMarks for subject %s cannot be lower than stored marks (%s)",
				subject.SubjectID, strconv.FormatFloat(top, 'f', -1, 64)))
		}
	}

	if err := s.repo.Update(ctx, exam); err != nil {
		return nil, lookupError(err, "exam not found", "failed to update exam")
	}
	if err := s.rederive(ctx, exam); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return exam, nil
}

// Delete removes an exam and every result recorded against it.
func (s *ExamService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "exam not found", "failed to delete exam")
	}
	s.invalidate(ctx, id)
	s.logger.Info("exam deleted", zap.String("exam_id", id))
	return nil
}

func (s *ExamService) buildExam(ctx context.Context, req ExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}
	start, _ := time.Parse(dateLayout, req.StartDate)
	end, _ := time.Parse(dateLayout, req.EndDate)
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must not be before startDate")
	}
	if _, err := s.examTypes.FindByID(ctx, req.ExamTypeID); err != nil {
		return nil, lookupError(err, "exam type not found", "failed to load exam type")
	}

	exam := &models.Exam{
		Name:          req.Name,
		ExamTypeID:    req.ExamTypeID,
		TermID:        req.TermID,
		Year:          req.Year,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		GradingSystem: models.GradingSystem(req.GradingSystem),
		Subjects:      make([]models.ExamSubject, 0, len(req.Subjects)),
	}
	seen := make(map[string]struct{}, len(req.Subjects))
	for _, input := range req.Subjects {
		if _, dup := seen[input.SubjectID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject %s listed more than once", input.SubjectID))
		}
		seen[input.SubjectID] = struct{}{}
		if _, err := s.subjects.FindByID(ctx, input.SubjectID); err != nil {
			return nil, lookupError(err, fmt.Sprintf("subject %s not found", input.SubjectID), "failed to load subject")
		}
		exam.Subjects = append(exam.Subjects, models.ExamSubject{SubjectID: input.SubjectID, MaxMarks: input.MaxMarks})
	}
	return exam, nil
}

func (s *ExamService) rederive(ctx context.Context, exam *models.Exam) error {
	stored, err := s.results.List(ctx, models.ExamResultFilter{ExamID: exam.ID})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam results")
	}
	updated := make([]models.ExamResult, 0, len(stored))
	for _, result := range stored {
		declared, ok := exam.Subject(result.SubjectID)
		if !ok {
			continue
		}
		result.MaxMarks = declared.MaxMarks
		grading.Derive(&result, exam.GradingSystem)
		updated = append(updated, result)
	}
	if err := s.results.BulkUpsert(ctx, updated); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to re-derive exam results")
	}
	return nil
}

func (s *ExamService) invalidate(ctx context.Context, examID string) {
	invalidateExports(ctx, s.cache, s.logger, exportCachePattern(examID))
}
