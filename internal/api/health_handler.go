package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/fittracker/fittracker-bot/internal/config"
)

// HealthHandler reports process liveness and configuration presence
type HealthHandler struct {
	cfg *config.Config
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

// Handle returns ok plus which required settings are present. Values are
// booleans only; secrets never appear in the response.
func (h *HealthHandler) Handle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"env":    h.cfg.EnvPresence(),
	})
}
