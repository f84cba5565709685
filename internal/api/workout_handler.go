package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/fittracker/fittracker-bot/internal/domain"
	"github.com/fittracker/fittracker-bot/internal/interfaces"
)

// WorkoutHandler serves set logging and session completion
type WorkoutHandler struct {
	workoutService interfaces.WorkoutServiceInterface
}

// NewWorkoutHandler creates a new workout handler
func NewWorkoutHandler(workoutService interfaces.WorkoutServiceInterface) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// UpsertSetRequest is the POST /api/workout/set body
type UpsertSetRequest struct {
	WorkoutExerciseID uint    `json:"workoutExerciseId" binding:"required"`
	SetNumber         int     `json:"setNumber" binding:"required"`
	ActualWeight      float64  `json:"actualWeight"`
	ActualReps        int      `json:"actualReps"`
	RPE               *float64 `json:"rpe"`
	Completed         bool     `json:"completed"`
}

// CompleteWorkoutRequest is the POST /api/workout/:id/complete body
type CompleteWorkoutRequest struct {
	RPE      *float64 `json:"rpe"`
	Feedback string   `json:"feedback"`
}

// UpsertSet handles POST /api/workout/set
func (h *WorkoutHandler) UpsertSet(c *gin.Context) {
	var req UpsertSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	set := &domain.WorkoutSet{
		WorkoutExerciseID: req.WorkoutExerciseID,
		SetNumber:         req.SetNumber,
		ActualWeight:      req.ActualWeight,
		ActualReps:        req.ActualReps,
		RPE:               req.RPE,
		Completed:         req.Completed,
	}
	if err := h.workoutService.UpsertSet(c.Request.Context(), set); err != nil {
		abortWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, set)
}

// Complete handles POST /api/workout/:id/complete. The progression analysis
// and trainer notification run in the background; the response carries the
// persisted totals only.
func (h *WorkoutHandler) Complete(c *gin.Context) {
	workoutID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "workout id must be a number")
		return
	}

	var req CompleteWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	workout, err := h.workoutService.CompleteWorkout(c.Request.Context(), uint(workoutID), req.RPE, req.Feedback)
	if err != nil {
		abortWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, workout)
}

// Progress handles GET /api/progress/:userId/:exerciseId
func (h *WorkoutHandler) Progress(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "userId must be a number")
		return
	}
	exerciseID, err := strconv.ParseUint(c.Param("exerciseId"), 10, 32)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "exerciseId must be a number")
		return
	}

	sets, err := h.workoutService.Progress(c.Request.Context(), uint(userID), uint(exerciseID))
	if err != nil {
		abortWithAppError(c, err)
		return
	}
	if sets == nil {
		sets = []domain.WorkoutSet{}
	}

	c.JSON(http.StatusOK, sets)
}
