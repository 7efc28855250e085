package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func perform(origins []string, method, origin string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(New(origins))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	req := httptest.NewRequest(method, "/", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCORSAllowList(t *testing.T) {
	rec := perform([]string{"http://school.test/"}, http.MethodGet, "http://school.test")
	assert.Equal(t, "http://school.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")

	rec = perform([]string{"http://school.test"}, http.MethodGet, "http://evil.test")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSAllowAllAndPreflight(t *testing.T) {
	rec := perform(nil, http.MethodGet, "")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = perform(nil, http.MethodOptions, "http://any.test")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://any.test", rec.Header().Get("Access-Control-Allow-Origin"))
}
