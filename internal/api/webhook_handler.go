package api

import (
	"context"
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gin-gonic/gin"
	"github.com/fittracker/fittracker-bot/internal/logger"
)

// UpdateProcessor consumes telegram updates. The bot satisfies it.
type UpdateProcessor interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update) error
}

// WebhookHandler receives telegram webhook calls
type WebhookHandler struct {
	processor UpdateProcessor
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(processor UpdateProcessor) *WebhookHandler {
	return &WebhookHandler{processor: processor}
}

// Handle accepts a telegram update. Telegram retries any non-200 response,
// so every outcome, including a body we cannot decode, is answered with 200.
func (h *WebhookHandler) Handle(c *gin.Context) {
	var update tgbotapi.Update
	if err := json.NewDecoder(c.Request.Body).Decode(&update); err != nil {
		logger.Warningf("Failed to decode webhook update: %v", err)
		c.String(http.StatusOK, "OK")
		return
	}

	if err := h.processor.HandleUpdate(c.Request.Context(), update); err != nil {
		logger.Errorf("Failed to handle webhook update %d: %v", update.UpdateID, err)
	}
	c.String(http.StatusOK, "OK")
}
