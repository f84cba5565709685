package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/fittracker/fittracker-bot/internal/domain"
	"github.com/fittracker/fittracker-bot/internal/repository"
)

// ExerciseHandler serves the exercise reference catalog
type ExerciseHandler struct {
	exercises repository.ExerciseRepository
}

// NewExerciseHandler creates a new exercise handler
func NewExerciseHandler(exercises repository.ExerciseRepository) *ExerciseHandler {
	return &ExerciseHandler{exercises: exercises}
}

// List handles GET /api/exercises
func (h *ExerciseHandler) List(c *gin.Context) {
	exercises, err := h.exercises.List(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load exercises")
		return
	}
	if exercises == nil {
		exercises = []domain.Exercise{}
	}

	c.JSON(http.StatusOK, exercises)
}
