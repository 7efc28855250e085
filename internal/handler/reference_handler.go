package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-exams-api/internal/models"
	"github.com/noah-isme/sma-exams-api/internal/service"
	appErrors "github.com/noah-isme/sma-exams-api/pkg/errors"
	"github.com/noah-isme/sma-exams-api/pkg/response"
)

type referenceService interface {
	ListSubjects(ctx context.Context) ([]models.Subject, error)
	CreateSubject(ctx context.Context, req service.CreateSubjectRequest) (*models.Subject, error)
	DeleteSubject(ctx context.Context, id string) error
	ListStreams(ctx context.Context, formID string) ([]models.Stream, error)
	CreateStream(ctx context.Context, req service.CreateStreamRequest) (*models.Stream, error)
	ListExamTypes(ctx context.Context) ([]models.ExamType, error)
	CreateExamType(ctx context.Context, req service.CreateExamTypeRequest) (*models.ExamType, error)
}

// ReferenceHandler exposes subjects, streams and exam types.
type ReferenceHandler struct {
	reference referenceService
}

// NewReferenceHandler constructs ReferenceHandler.
func NewReferenceHandler(reference referenceService) *ReferenceHandler {
	return &ReferenceHandler{reference: reference}
}

// ListSubjects godoc
// @Summary List subjects
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *ReferenceHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.reference.ListSubjects(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// CreateSubject godoc
// @Summary Create subject
// @Tags Reference
// @Accept json
// @Produce json
// @Param payload body service.CreateSubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Router /subjects [post]
func (h *ReferenceHandler) CreateSubject(c *gin.Context) {
	var req service.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subject, err := h.reference.CreateSubject(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// DeleteSubject godoc
// @Summary Delete subject and its results
// @Tags Reference
// @Param id path string true "Subject ID"
// @Success 204
// @Router /subjects/{id} [delete]
func (h *ReferenceHandler) DeleteSubject(c *gin.Context) {
	if err := h.reference.DeleteSubject(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListStreams godoc
// @Summary List streams
// @Tags Reference
// @Produce json
// @Param formId query string false "Form"
// @Success 200 {object} response.Envelope
// @Router /streams [get]
func (h *ReferenceHandler) ListStreams(c *gin.Context) {
	streams, err := h.reference.ListStreams(c.Request.Context(), c.Query("formId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, streams, nil)
}

// CreateStream godoc
// @Summary Create stream
// @Tags Reference
// @Accept json
// @Produce json
// @Param payload body service.CreateStreamRequest true "Stream payload"
// @Success 201 {object} response.Envelope
// @Router /streams [post]
func (h *ReferenceHandler) CreateStream(c *gin.Context) {
	var req service.CreateStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	stream, err := h.reference.CreateStream(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, stream)
}

// ListExamTypes godoc
// @Summary List exam types
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /exam-types [get]
func (h *ReferenceHandler) ListExamTypes(c *gin.Context) {
	types, err := h.reference.ListExamTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// CreateExamType godoc
// @Summary Create exam type
// @Tags Reference
// @Accept json
// @Produce json
// @Param payload body service.CreateExamTypeRequest true "Exam type payload"
// @Success 201 {object} response.Envelope
// @Router /exam-types [post]
func (h *ReferenceHandler) CreateExamType(c *gin.Context) {
	var req service.CreateExamTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	examType, err := h.reference.CreateExamType(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, examType)
}
