package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/paybridge/backend/internal/infrastructure/logger"
	"github.com/paybridge/backend/internal/interfaces/http/dto"
)

// StorePinger checks that the remote store accepts connections
type StorePinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves health and build information
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	store     StorePinger
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler. store may be nil.
func NewSystemHandler(name, version string, store StorePinger) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		store:     store,
		startTime: time.Now(),
	}
}

// HealthResponse is the payload of the health endpoint
type HealthResponse struct {
	Status    string `json:"status"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Store     string `json:"store,omitempty"`
}

// Health reports liveness. With ?deep=true it also opens a connection to the
// remote store and answers 503 when that fails.
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "ok",
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	if c.Query("deep") == "true" && h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			logger.GetGinLogger(c).Warn("Remote store health check failed", zap.Error(err))
			resp.Status = "degraded"
			resp.Store = "unreachable"
			c.JSON(http.StatusServiceUnavailable, dto.NewSuccessResponse(resp))
			return
		}
		resp.Store = "reachable"
	}

	h.Success(c, resp)
}

// RegisterRoutes mounts the health endpoint on the root engine
func (h *SystemHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", h.Health)
}
