package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/fittracker/fittracker-bot/internal/interfaces"
)

// ProgramHandler serves program retrieval and the parse endpoint
type ProgramHandler struct {
	programService interfaces.ProgramServiceInterface
}

// NewProgramHandler creates a new program handler
func NewProgramHandler(programService interfaces.ProgramServiceInterface) *ProgramHandler {
	return &ProgramHandler{programService: programService}
}

// ParseProgramRequest is the POST /api/parse-program body. A successful
// parse is saved and activated for the client, replacing any prior program.
type ParseProgramRequest struct {
	Text     string `json:"text"`
	ClientID uint   `json:"client_id"`
}

// GetActive handles GET /api/program/:clientId
func (h *ProgramHandler) GetActive(c *gin.Context) {
	clientID, err := strconv.ParseUint(c.Param("clientId"), 10, 32)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "clientId must be a number")
		return
	}

	program, err := h.programService.GetActiveProgram(c.Request.Context(), uint(clientID))
	if err != nil {
		abortWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, program)
}

// Parse handles POST /api/parse-program
func (h *ProgramHandler) Parse(c *gin.Context) {
	var req ParseProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if req.Text == "" {
		abortWithError(c, http.StatusBadRequest, "text is required")
		return
	}
	if req.ClientID == 0 {
		abortWithError(c, http.StatusBadRequest, "client_id is required")
		return
	}

	program, err := h.programService.ParseAndSave(c.Request.Context(), req.ClientID, req.Text)
	if err != nil {
		abortWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, program)
}
