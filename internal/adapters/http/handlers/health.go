// Package handlers provides HTTP request handlers for the service.
package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsamuelsen/quotes-service/internal/ports"
)

// DefaultReadinessTimeout bounds a readiness probe. Storage, Redis and the
// import upstream are all checked within it.
const DefaultReadinessTimeout = 2 * time.Second

// BuildInfo describes the running binary and the catalog backend it serves.
// Version, commit and build time are injected at build time using ldflags.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`

	// Service is the configured application name.
	Service string `json:"service,omitempty"`

	// Storage is the catalog backend driver (memory, sqlite, postgres).
	Storage string `json:"storage,omitempty"`
}

// NewBuildInfo creates a BuildInfo with the Go version automatically set.
func NewBuildInfo(version, commit, buildTime string) BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}

// HealthHandler serves the probe, build and metrics endpoints under /-.
type HealthHandler struct {
	registry         ports.HealthRegistry
	buildInfo        BuildInfo
	gatherer         prometheus.Gatherer
	readinessTimeout time.Duration
}

// NewHealthHandler creates a health handler that serves the default
// Prometheus registry and bounds readiness by DefaultReadinessTimeout.
func NewHealthHandler(registry ports.HealthRegistry, buildInfo BuildInfo) *HealthHandler {
	return &HealthHandler{
		registry:         registry,
		buildInfo:        buildInfo,
		gatherer:         prometheus.DefaultGatherer,
		readinessTimeout: DefaultReadinessTimeout,
	}
}

// WithGatherer serves metrics from g instead of the default registry.
func (h *HealthHandler) WithGatherer(g prometheus.Gatherer) *HealthHandler {
	h.gatherer = g
	return h
}

// WithReadinessTimeout overrides the readiness deadline. Non-positive values
// are ignored.
func (h *HealthHandler) WithReadinessTimeout(d time.Duration) *HealthHandler {
	if d > 0 {
		h.readinessTimeout = d
	}

	return h
}

type livenessResponse struct {
	Status string `json:"status"`
}

// Liveness handles GET /-/live. It never consults dependencies.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, livenessResponse{Status: "ok"})
}

type readinessResponse struct {
	Status string                        `json:"status"`
	Checks map[string]*ports.CheckResult `json:"checks,omitempty"`
}

// Readiness handles GET /-/ready. A failing storage check makes the service
// unhealthy (503); a failing optional check (rate limiter, import upstream)
// only degrades it and still answers 200.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.readinessTimeout)
	defer cancel()

	result := h.registry.CheckAll(ctx)

	status := http.StatusOK
	if result.Status == ports.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(status, readinessResponse{
		Status: string(result.Status),
		Checks: result.Checks,
	})
}

// BuildInfoHandler handles GET /-/build.
func (h *HealthHandler) BuildInfoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.buildInfo)
}

// MetricsHandler returns the Prometheus exposition handler for the
// handler's gatherer.
func (h *HealthHandler) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})
}

// RegisterHealthRoutes registers live, ready, build and metrics on rg.
func (h *HealthHandler) RegisterHealthRoutes(rg *gin.RouterGroup) {
	rg.GET("/live", h.Liveness)
	rg.GET("/ready", h.Readiness)
	rg.GET("/build", h.BuildInfoHandler)
	rg.GET("/metrics", gin.WrapH(h.MetricsHandler()))
}

// RegisterHealthRoutesOnEngine registers the probe routes under /-.
func (h *HealthHandler) RegisterHealthRoutesOnEngine(engine *gin.Engine) {
	h.RegisterHealthRoutes(engine.Group("/-"))
}
