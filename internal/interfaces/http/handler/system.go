package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/logimaster/backend/internal/infrastructure/persistence"
	"github.com/logimaster/backend/internal/interfaces/http/dto"
)

// SystemHandler serves the service metadata endpoints.
type SystemHandler struct {
	BaseHandler
	db        *persistence.Database
	startTime time.Time
}

// NewSystemHandler creates a SystemHandler. The database handle is
// optional; without it the info endpoint omits pool statistics.
func NewSystemHandler(db *persistence.Database) *SystemHandler {
	return &SystemHandler{
		db:        db,
		startTime: time.Now(),
	}
}

// PoolStats is the connection pool snapshot exposed on the info endpoint.
// @name HandlerPoolStats
type PoolStats struct {
	MaxOpen   int   `json:"max_open" example:"25"`
	Open      int   `json:"open" example:"10"`
	InUse     int   `json:"in_use" example:"4"`
	Idle      int   `json:"idle" example:"6"`
	WaitCount int64 `json:"wait_count" example:"0"`
}

// SystemInfoResponse represents the system information response
// @name HandlerSystemInfoResponse
type SystemInfoResponse struct {
	Name         string     `json:"name" example:"LogiMaster Backend API"`
	Version      string     `json:"version" example:"1.0.0"`
	GoVersion    string     `json:"go_version" example:"go1.25.5"`
	Uptime       string     `json:"uptime" example:"1h30m45s"`
	DatabasePool *PoolStats `json:"database_pool,omitempty"`
}

// GetSystemInfo godoc
// @ID           getSystemSystemInfo
// @Summary      Get system information
// @Description  Returns service version, uptime and database pool statistics
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Failure      500 {object} ErrorResponse
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      "LogiMaster Backend API",
		Version:   "1.0.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	if h.db != nil {
		if stats, err := h.db.Stats(); err == nil {
			info.DatabasePool = &PoolStats{
				MaxOpen:   stats.MaxOpenConnections,
				Open:      stats.OpenConnections,
				InUse:     stats.InUse,
				Idle:      stats.Idle,
				WaitCount: stats.WaitCount,
			}
		}
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// PingResponse represents the ping response
// @name HandlerPingResponse
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// Ping godoc
// @ID           pingSystem
// @Summary      Ping the API
// @Description  Simple ping endpoint to check if the API is responsive
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[PingResponse]
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	}))
}
