package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-exams-api/internal/service"
)

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	router := gin.New()
	router.Use(Metrics(metrics))
	router.GET("/exams/:id/results", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/exams/a/results", "/exams/b/results", "/nowhere"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	paths := map[string]float64{}
	for _, family := range families {
		if family.GetName() != "http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "path" {
					paths[label.GetValue()] += metric.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, 2.0, paths["/exams/:id/results"])
	assert.Equal(t, 1.0, paths["unmatched"])
	for path := range paths {
		assert.False(t, strings.Contains(path, "/exams/a"))
	}
}

func TestMetricsMiddlewareNilService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Metrics(nil))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
