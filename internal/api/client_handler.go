package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/fittracker/fittracker-bot/internal/domain"
	"github.com/fittracker/fittracker-bot/internal/interfaces"
)

// ClientHandler serves trainer roster operations
type ClientHandler struct {
	trainerService interfaces.TrainerServiceInterface
}

// NewClientHandler creates a new client handler
func NewClientHandler(trainerService interfaces.TrainerServiceInterface) *ClientHandler {
	return &ClientHandler{trainerService: trainerService}
}

// AddClientRequest is the POST /api/clients body
type AddClientRequest struct {
	TrainerID uint   `json:"trainer_id" binding:"required"`
	Name      string `json:"client_name" binding:"required"`
	Username  string `json:"username"`
	Goal      string `json:"goal"`
	Notes     string `json:"notes"`
}

// ClientResponse is the public shape of a roster entry
type ClientResponse struct {
	ID           uint   `json:"id"`
	TrainerID    uint   `json:"trainerId"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	LinkedUserID *uint  `json:"linkedUserId,omitempty"`
	Status       string `json:"status"`
	Goal         string `json:"goal,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

func mapClientToResponse(c *domain.TrainerClient) ClientResponse {
	return ClientResponse{
		ID:           c.ID,
		TrainerID:    c.TrainerID,
		Name:         c.ClientName,
		Username:     c.ClientUsername,
		LinkedUserID: c.LinkedUserID,
		Status:       c.Status,
		Goal:         c.Goal,
		Notes:        c.Notes,
	}
}

// List handles GET /api/clients/:trainerId
func (h *ClientHandler) List(c *gin.Context) {
	trainerID, err := strconv.ParseUint(c.Param("trainerId"), 10, 32)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "trainerId must be a number")
		return
	}

	clients, err := h.trainerService.ListClients(c.Request.Context(), uint(trainerID))
	if err != nil {
		abortWithAppError(c, err)
		return
	}

	resp := make([]ClientResponse, 0, len(clients))
	for i := range clients {
		resp = append(resp, mapClientToResponse(&clients[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// Add handles POST /api/clients
func (h *ClientHandler) Add(c *gin.Context) {
	var req AddClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	client, err := h.trainerService.AddClient(c.Request.Context(), req.TrainerID, req.Name, req.Username, req.Goal, req.Notes)
	if err != nil {
		abortWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, mapClientToResponse(client))
}
