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

type resultService interface {
	ClassResults(ctx context.Context, query service.CohortQuery) (*models.ClassResult, error)
	StudentResult(ctx context.Context, examID, studentID string) (*models.AggregatedStudentResult, error)
	Summary(ctx context.Context, query service.CohortQuery) (*models.ExamSummary, error)
}

type exportService interface {
	Export(ctx context.Context, query service.CohortQuery, format string) (*service.ExportFile, error)
}

// ResultHandler exposes derived result endpoints.
type ResultHandler struct {
	results resultService
	exports exportService
}

// NewResultHandler constructs ResultHandler.
func NewResultHandler(results resultService, exports exportService) *ResultHandler {
	return &ResultHandler{results: results, exports: exports}
}

func bindCohort(c *gin.Context) (service.CohortQuery, bool) {
	var query service.CohortQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return query, false
	}
	query.ExamID = c.Param("id")
	return query, true
}

// ClassResults godoc
// @Summary Ranked class results
// @Tags Results
// @Produce json
// @Param id path string true "Exam ID"
// @Param formId query string true "Form"
// @Param streamId query string false "Stream"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exams/{id}/results [get]
func (h *ResultHandler) ClassResults(c *gin.Context) {
	query, ok := bindCohort(c)
	if !ok {
		return
	}
	class, err := h.results.ClassResults(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil, map[string]interface{}{"students": len(class.StudentResults)})
}

// Summary godoc
// @Summary Grade distribution and subject analysis
// @Tags Results
// @Produce json
// @Param id path string true "Exam ID"
// @Param formId query string true "Form"
// @Param streamId query string false "Stream"
// @Success 200 {object} response.Envelope
// @Router /exams/{id}/summary [get]
func (h *ResultHandler) Summary(c *gin.Context) {
	query, ok := bindCohort(c)
	if !ok {
		return
	}
	summary, err := h.results.Summary(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// StudentResult godoc
// @Summary One student's result and form position
// @Tags Results
// @Produce json
// @Param id path string true "Exam ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /exams/{id}/students/{studentId}/result [get]
func (h *ResultHandler) StudentResult(c *gin.Context) {
	result, err := h.results.StudentResult(c.Request.Context(), c.Param("id"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Download the class result sheet
// @Tags Results
// @Produce octet-stream
// @Param id path string true "Exam ID"
// @Param formId query string true "Form"
// @Param streamId query string false "Stream"
// @Param format query string false "csv, pdf or xlsx"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /exams/{id}/export [get]
func (h *ResultHandler) Export(c *gin.Context) {
	query, ok := bindCohort(c)
	if !ok {
		return
	}
	file, err := h.exports.Export(c.Request.Context(), query, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	cache := "MISS"
	if file.Cached {
		cache = "HIT"
	}
	c.Header("X-Cache", cache)
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
