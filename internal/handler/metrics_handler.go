package handler

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-exams-api/internal/service"
	appErrors "github.com/noah-isme/sma-exams-api/pkg/errors"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// PingContext implements Pinger.
func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics      *service.MetricsService
	dependencies map[string]Pinger
}

// NewMetricsHandler constructs a metrics handler. Dependencies are checked by Ready.
func NewMetricsHandler(metrics *service.MetricsService, dependencies map[string]Pinger) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, dependencies: dependencies}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready pings every dependency and reports 503 when one is down.
func (h *MetricsHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.dependencies))
	down := make([]string, 0)
	for name, dep := range h.dependencies {
		if err := dep.PingContext(ctx); err != nil {
			checks[name] = err.Error()
			down = append(down, name)
			continue
		}
		checks[name] = "ok"
	}
	if len(down) == 0 {
		c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
		return
	}
	sort.Strings(down)
	unavailable := appErrors.Clone(appErrors.ErrUnavailable, strings.Join(down, ", ")+" unavailable")
	c.JSON(unavailable.Status, gin.H{"status": "degraded", "checks": checks, "error": unavailable})
}
