package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-exams-api/internal/service"
	appErrors "github.com/noah-isme/sma-exams-api/pkg/errors"
)

func TestMarksHandlerEnter(t *testing.T) {
	router, deps := buildTestRouter()
	payload := map[string]interface{}{
		"subjectId": "mat",
		"entries": []map[string]interface{}{
			{"studentId": "s1", "marks": 78},
			{"studentId": "s2", "marks": "64.5"},
			{"studentId": "s3", "marks": nil},
		},
	}

	rec := performRequest(router, http.MethodPost, "/api/v1/exams/exam-1/marks", payload)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "exam-1", deps.marks.lastReq.ExamID)
	assert.Equal(t, "mat", deps.marks.lastReq.SubjectID)
	require.Len(t, deps.marks.lastReq.Entries, 3)
	assert.Equal(t, service.RawMarks("78"), deps.marks.lastReq.Entries[0].Marks)
	assert.Equal(t, service.RawMarks("64.5"), deps.marks.lastReq.Entries[1].Marks)
	assert.Equal(t, service.RawMarks(""), deps.marks.lastReq.Entries[2].Marks)
	assert.Contains(t, rec.Body.String(), `"saved":3`)
}

func TestMarksHandlerInvalidMarks(t *testing.T) {
	router, deps := buildTestRouter()
	message := "Invalid marks for Brian Kamau. Marks should be between 0 and 100"
	deps.marks.err = appErrors.Wrap(assertErr{}, appErrors.ErrInvalidMarks.Code, appErrors.ErrInvalidMarks.Status, message)

	rec := performRequest(router, http.MethodPost, "/api/v1/exams/exam-1/marks", map[string]interface{}{
		"subjectId": "mat",
		"entries":   []map[string]interface{}{{"studentId": "s2", "marks": 120}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "INVALID_MARKS", envelope.Error.Code)
	assert.Equal(t, message, envelope.Error.Message)
}

func TestMarksHandlerMalformedBody(t *testing.T) {
	router, _ := buildTestRouter()

	rec := performRequest(router, http.MethodPost, "/api/v1/exams/exam-1/marks", map[string]interface{}{
		"subjectId": "mat",
		"entries":   []map[string]interface{}{{"studentId": "s2", "marks": true}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestMarksHandlerStatsAndDelete(t *testing.T) {
	router, deps := buildTestRouter()

	rec := performRequest(router, http.MethodGet, "/api/v1/exams/exam-1/marks/stats?subjectId=mat&formId=4", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.MarksStatsQuery{ExamID: "exam-1", SubjectID: "mat", FormID: "4"}, deps.marks.lastStats)
	assert.Contains(t, rec.Body.String(), `"highest":60`)

	rec = performRequest(router, http.MethodDelete, "/api/v1/exam-results/r1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "r1", deps.marks.deleted)
}

type assertErr struct{}

func (assertErr) Error() string { return "invalid marks" }
