package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/fittracker/fittracker-bot/internal/domain"
	"github.com/fittracker/fittracker-bot/internal/interfaces"
)

// UserHandler serves user lookups for the mini-app
type UserHandler struct {
	userService interfaces.UserServiceInterface
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService interfaces.UserServiceInterface) *UserHandler {
	return &UserHandler{userService: userService}
}

// UserResponse is the public shape of a user
type UserResponse struct {
	ID         uint   `json:"id"`
	TelegramID int64  `json:"telegramId"`
	Username   string `json:"username"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Role       string `json:"role"`
}

func mapUserToResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		TelegramID: u.TelegramID,
		Username:   u.Username,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       u.Role,
	}
}

// GetByTelegramID handles GET /api/user/:telegramId
func (h *UserHandler) GetByTelegramID(c *gin.Context) {
	telegramID, err := strconv.ParseInt(c.Param("telegramId"), 10, 64)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "telegramId must be a number")
		return
	}

	user, err := h.userService.GetByTelegramID(c.Request.Context(), telegramID)
	if err != nil {
		abortWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapUserToResponse(user))
}
