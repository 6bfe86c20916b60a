package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MAHMOUDGAD123/vidl-api/internal/app"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	janitor *app.Janitor
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(janitor *app.Janitor) *HealthHandler {
	return &HealthHandler{
		janitor: janitor,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Janitor struct {
		Running bool `json:"running"`
	} `json:"janitor"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	}
	response.Janitor.Running = h.janitor.IsRunning()

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.janitor.IsRunning() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "session janitor not running",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
