package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-exams-api/internal/models"
	appErrors "github.com/noah-isme/sma-exams-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context) ([]models.Subject, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

type streamRepository interface {
	List(ctx context.Context, formID string) ([]models.Stream, error)
	Create(ctx context.Context, stream *models.Stream) error
}

type examTypeRepository interface {
	List(ctx context.Context) ([]models.ExamType, error)
	Create(ctx context.Context, examType *models.ExamType) error
}

// CreateSubjectRequest is the payload for registering a subject.
type CreateSubjectRequest struct {
	Name string `json:"name" validate:"required"`
	Code string `json:"code" validate:"required,max=16"`
}

// CreateStreamRequest is the payload for registering a stream.
type CreateStreamRequest struct {
	Name   string `json:"name" validate:"required"`
	FormID string `json:"formId" validate:"required"`
}

// CreateExamTypeRequest is the payload for registering an exam type.
type CreateExamTypeRequest struct {
	Name string `json:"name" validate:"required"`
}

// ReferenceService manages subjects, streams and exam types.
type ReferenceService struct {
	subjects  subjectRepository
	streams   streamRepository
	examTypes examTypeRepository
	cache     exportInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReferenceService constructs the reference data service.
func NewReferenceService(subjects subjectRepository, streams streamRepository, examTypes examTypeRepository, cache exportInvalidator, validate *validator.Validate, logger *zap.Logger) *ReferenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceService{subjects: subjects, streams: streams, examTypes: examTypes, cache: cache, validator: validate, logger: logger}
}

// ListSubjects returns every subject.
func (s *ReferenceService) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// CreateSubject registers a subject with a unique code.
func (s *ReferenceService) CreateSubject(ctx context.Context, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	exists, err := s.subjects.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate subject code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject code already used")
	}
	subject := &models.Subject{Name: req.Name, Code: req.Code}
	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return subject, nil
}

// DeleteSubject removes a subject, its exam declarations and its results.
func (s *ReferenceService) DeleteSubject(ctx context.Context, id string) error {
	if err := s.subjects.Delete(ctx, id); err != nil {
		return lookupError(err, "subject not found", "failed to delete subject")
	}
	invalidateExports(ctx, s.cache, s.logger, exportCachePattern("*"))
	s.logger.Info("subject deleted", zap.String("subject_id", id))
	return nil
}

// ListStreams returns streams, optionally limited to a form.
func (s *ReferenceService) ListStreams(ctx context.Context, formID string) ([]models.Stream, error) {
	streams, err := s.streams.List(ctx, formID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list streams")
	}
	return streams, nil
}

// CreateStream registers a stream within a form.
func (s *ReferenceService) CreateStream(ctx context.Context, req CreateStreamRequest) (*models.Stream, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid stream payload")
	}
	stream := &models.Stream{Name: req.Name, FormID: req.FormID}
	if err := s.streams.Create(ctx, stream); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create stream")
	}
	return stream, nil
}

// ListExamTypes returns every exam type.
func (s *ReferenceService) ListExamTypes(ctx context.Context) ([]models.ExamType, error) {
	types, err := s.examTypes.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exam types")
	}
	return types, nil
}

// CreateExamType registers an exam type.
func (s *ReferenceService) CreateExamType(ctx context.Context, req CreateExamTypeRequest) (*models.ExamType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam type payload")
	}
	examType := &models.ExamType{Name: req.Name}
	if err := s.examTypes.Create(ctx, examType); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam type")
	}
	return examType, nil
}
