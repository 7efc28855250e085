package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-exams-api/internal/models"
	appErrors "github.com/noah-isme/sma-exams-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByAdmissionNumber(ctx context.Context, admissionNumber string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

type streamLookup interface {
	FindByID(ctx context.Context, id string) (*models.Stream, error)
}

// StudentRequest holds the payload for creating or updating students.
type StudentRequest struct {
	AdmissionNumber string  `json:"admissionNumber" validate:"required"`
	Name            string  `json:"name" validate:"required"`
	FormID          string  `json:"formId" validate:"required"`
	StreamID        *string `json:"streamId" validate:"omitempty,min=1"`
	Gender          string  `json:"gender" validate:"required,oneof=male female"`
	DateOfBirth     *string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	ParentContact   *string `json:"parentContact"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	streams   streamLookup
	cache     exportInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, streams streamLookup, cache exportInvalidator, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, streams: streams, cache: cache, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "student not found", "failed to load student")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req StudentRequest) (*models.Student, error) {
	if err := s.validate(ctx, req, ""); err != nil {
		return nil, err
	}
	student := &models.Student{}
	applyStudentRequest(student, req)
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, id string, req StudentRequest) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "student not found", "failed to load student")
	}
	if err := s.validate(ctx, req, id); err != nil {
		return nil, err
	}
	applyStudentRequest(student, req)
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, lookupError(err, "student not found", "failed to update student")
	}
	return student, nil
}

// Delete removes a student and their recorded results.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "student not found", "failed to delete student")
	}
	invalidateExports(ctx, s.cache, s.logger, exportCachePattern("*"))
	s.logger.Info("student deleted", zap.String("student_id", id))
	return nil
}

func (s *StudentService) validate(ctx context.Context, req StudentRequest, excludeID string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if req.StreamID != nil {
		stream, err := s.streams.FindByID(ctx, *req.StreamID)
		if err != nil {
			return lookupError(err, "stream not found", "failed to load stream")
		}
		if stream.FormID != req.FormID {
			return appErrors.Clone(appErrors.ErrValidation, "stream does not belong to the student's form")
		}
	}
	exists, err := s.repo.ExistsByAdmissionNumber(ctx, req.AdmissionNumber, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate admission number")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "admission number already used")
	}
	return nil
}

func applyStudentRequest(student *models.Student, req StudentRequest) {
	student.AdmissionNumber = req.AdmissionNumber
	student.Name = req.Name
	student.FormID = req.FormID
	student.StreamID = req.StreamID
	student.Gender = models.Gender(req.Gender)
	student.DateOfBirth = req.DateOfBirth
	student.ParentContact = req.ParentContact
}
