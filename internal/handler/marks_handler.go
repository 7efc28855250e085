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

type marksService interface {
	Enter(ctx context.Context, req service.MarksEntryRequest) (*service.MarksEntryResult, error)
	Stats(ctx context.Context, query service.MarksStatsQuery) (*models.EntryStats, error)
	Delete(ctx context.Context, id string) error
}

// MarksHandler exposes the marks entry endpoints.
type MarksHandler struct {
	marks marksService
}

// NewMarksHandler constructs MarksHandler.
func NewMarksHandler(marks marksService) *MarksHandler {
	return &MarksHandler{marks: marks}
}

// Enter godoc
// @Summary Enter marks for one subject
// @Description Blank marks are skipped. Any invalid mark rejects the whole batch.
// @Tags Marks
// @Accept json
// @Produce json
// @Param id path string true "Exam ID"
// @Param payload body service.MarksEntryRequest true "Marks payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /exams/{id}/marks [post]
func (h *MarksHandler) Enter(c *gin.Context) {
	var req service.MarksEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.ExamID = c.Param("id")
	result, err := h.marks.Enter(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Stats godoc
// @Summary Entry statistics for one subject
// @Tags Marks
// @Produce json
// @Param id path string true "Exam ID"
// @Param subjectId query string true "Subject ID"
// @Param formId query string false "Form"
// @Param streamId query string false "Stream"
// @Success 200 {object} response.Envelope
// @Router /exams/{id}/marks/stats [get]
func (h *MarksHandler) Stats(c *gin.Context) {
	var query service.MarksStatsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	query.ExamID = c.Param("id")
	stats, err := h.marks.Stats(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Delete godoc
// @Summary Delete a stored mark
// @Tags Marks
// @Param id path string true "Exam result ID"
// @Success 204
// @Router /exam-results/{id} [delete]
func (h *MarksHandler) Delete(c *gin.Context) {
	if err := h.marks.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
