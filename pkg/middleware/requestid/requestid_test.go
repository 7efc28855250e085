package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func serve(header string) (*httptest.ResponseRecorder, string) {
	gin.SetMode(gin.TestMode)
	var seen string
	router := gin.New()
	router.Use(Middleware())
	router.GET("/", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(HeaderKey, header)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec, seen
}

func TestMiddlewareGeneratesID(t *testing.T) {
	rec, seen := serve("")
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(HeaderKey))
}

func TestMiddlewareReusesIncomingID(t *testing.T) {
	_, seen := serve("abc-123")
	assert.Equal(t, "abc-123", seen)

	_, seen = serve(strings.Repeat("x", 200))
	assert.NotEqual(t, strings.Repeat("x", 200), seen)
}
