package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mentorly-backend-go/internal/core"
	"mentorly-backend-go/internal/models"
)

// AIHandler handles assistant-backed endpoints.
type AIHandler struct {
	recommendService core.RecommendationService
}

// NewAIHandler creates a new AIHandler.
func NewAIHandler(rs core.RecommendationService) *AIHandler {
	return &AIHandler{recommendService: rs}
}

// SuggestMentors handles POST /api/v1/ai/suggest-mentors, matching the
// learner's goals against the approved roster.
func (h *AIHandler) SuggestMentors(c *gin.Context) {
	if _, ok := contextUserID(c); !ok {
		return
	}

	var req models.SuggestMentorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	suggestions, err := h.recommendService.SuggestMentors(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
