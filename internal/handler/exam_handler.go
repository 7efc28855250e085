package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-exams-api/internal/models"
	"github.com/noah-isme/sma-exams-api/internal/service"
	appErrors "github.com/noah-isme/sma-exams-api/pkg/errors"
	"github.com/noah-isme/sma-exams-api/pkg/response"
)

type examService interface {
	List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Exam, error)
	Create(ctx context.Context, req service.ExamRequest) (*models.Exam, error)
	Update(ctx context.Context, id string, req service.ExamRequest) (*models.Exam, error)
	Delete(ctx context.Context, id string) error
}

// ExamHandler exposes exam endpoints.
type ExamHandler struct {
	exams examService
}

// NewExamHandler constructs ExamHandler.
func NewExamHandler(exams examService) *ExamHandler {
	return &ExamHandler{exams: exams}
}

// List godoc
// @Summary List exams
// @Tags Exams
// @Produce json
// @Param year query int false "Year"
// @Param termId query string false "Term"
// @Param examTypeId query string false "Exam type"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /exams [get]
func (h *ExamHandler) List(c *gin.Context) {
	var filter models.ExamFilter
	if year, err := strconv.Atoi(c.Query("year")); err == nil {
		filter.Year = year
	}
	filter.TermID = c.Query("termId")
	filter.ExamTypeID = c.Query("examTypeId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	exams, pagination, err := h.exams.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exams, pagination)
}

// Get godoc
// @Summary Get exam
// @Tags Exams
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /exams/{id} [get]
func (h *ExamHandler) Get(c *gin.Context) {
	exam, err := h.exams.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}

// Create godoc
// @Summary Create exam
// @Tags Exams
// @Accept json
// @Produce json
// @Param payload body service.ExamRequest true "Exam payload"
// @Success 201 {object} response.Envelope
// @Router /exams [post]
func (h *ExamHandler) Create(c *gin.Context) {
	var req service.ExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	exam, err := h.exams.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exam)
}

// Update godoc
// @Summary Replace exam
// @Tags Exams
// @Accept json
// @Produce json
// @Param id path string true "Exam ID"
// @Param payload body service.ExamRequest true "Exam payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /exams/{id} [put]
func (h *ExamHandler) Update(c *gin.Context) {
	var req service.ExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	exam, err := h.exams.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}

// Delete godoc
// @Summary Delete exam and its results
// @Tags Exams
// @Param id path string true "Exam ID"
// @Success 204
// @Router /exams/{id} [delete]
func (h *ExamHandler) Delete(c *gin.Context) {
	if err := h.exams.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
