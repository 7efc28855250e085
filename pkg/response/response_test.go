package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-exams-api/internal/models"
	appErrors "github.com/noah-isme/sma-exams-api/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func TestJSONWithPagination(t *testing.T) {
	c, rec := newContext()

	JSON(c, http.StatusOK, []string{"a"}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []interface{}{"a"}, body["data"])
	assert.Equal(t, float64(1), body["pagination"].(map[string]interface{})["total_count"])
}

func TestErrorMapsTypedError(t *testing.T) {
	c, rec := newContext()

	Error(c, appErrors.Clone(appErrors.ErrInvalidMarks, "Invalid marks for Amina. Marks should be between 0 and 100"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"INVALID_MARKS","message":"Invalid marks for Amina. Marks should be between 0 and 100","status":400}}`, rec.Body.String())
	assert.Empty(t, c.Errors)
}

func TestErrorRecordsInternalErrors(t *testing.T) {
	c, rec := newContext()

	Error(c, errors.New("connection reset"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Len(t, c.Errors, 1)
}

func TestAttachment(t *testing.T) {
	c, rec := newContext()

	Attachment(c, "results.csv", "text/csv", []byte("a,b\n"))

	assert.Equal(t, `attachment; filename="results.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "a,b\n", rec.Body.String())
}
