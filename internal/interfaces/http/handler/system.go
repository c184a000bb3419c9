package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/storefront/cartsync/internal/interfaces/http/dto"
)

// HealthChecker reports whether a dependency is usable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	startTime time.Time
	version   string
	store     HealthChecker
	degraded  func() bool
}

// NewSystemHandler creates a new SystemHandler. degraded reports whether the
// cart is running on volatile storage; it may be nil.
func NewSystemHandler(version string, store HealthChecker, degraded func() bool) *SystemHandler {
	if degraded == nil {
		degraded = func() bool { return false }
	}
	return &SystemHandler{
		startTime: time.Now(),
		version:   version,
		store:     store,
		degraded:  degraded,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Store     string `json:"store"`
}

// RegisterRoutes mounts the system endpoints on rg
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
}

// Health reports liveness and the state of the local store. A failing store
// still answers 200: the cart keeps working from memory.
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "ok",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Store:     "ok",
	}

	switch {
	case h.degraded():
		resp.Status = "degraded"
		resp.Store = "memory"
	case h.store != nil:
		if err := h.store.Ping(c.Request.Context()); err != nil {
			resp.Status = "degraded"
			resp.Store = "unavailable"
		}
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
