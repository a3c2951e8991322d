package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/weiwangfds/vidshare/internal/logger"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Storage  string `json:"storage"`
	Uptime   string `json:"uptime"`
}

// HealthHandler reports liveness.
type HealthHandler struct {
	db        Pinger
	storage   string
	startTime time.Time
}

// NewHealthHandler creates a HealthHandler. storage is the provider name
// reported in the body.
func NewHealthHandler(db Pinger, storage string) *HealthHandler {
	return &HealthHandler{db: db, storage: storage, startTime: time.Now()}
}

// Health pings the database.
// @Summary Health check
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:   "healthy",
		Database: "healthy",
		Storage:  h.storage,
		Uptime:   time.Since(h.startTime).Round(time.Second).String(),
	}
	status := http.StatusOK
	if err := h.db.PingContext(ctx); err != nil {
		logger.WithError(err).Warn("health check: database ping failed")
		resp.Status = "unhealthy"
		resp.Database = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
