package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mentorly-backend-go/internal/core"
	"mentorly-backend-go/internal/models"
)

// MentorHandler handles mentor roster and approval endpoints.
type MentorHandler struct {
	userService      core.UserService
	recommendService core.RecommendationService
}

// NewMentorHandler creates a new MentorHandler.
func NewMentorHandler(us core.UserService, rs core.RecommendationService) *MentorHandler {
	return &MentorHandler{userService: us, recommendService: rs}
}

// ListMentors handles GET /api/v1/mentors. The roster is approved-only by
// default; admins may pass ?all=true to include pending mentors.
func (h *MentorHandler) ListMentors(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}

	approvedOnly := true
	if c.Query("all") == "true" && h.isAdmin(c, userID) {
		approvedOnly = false
	}

	mentors, err := h.userService.ListMentors(c.Request.Context(), approvedOnly)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mentors)
}

// GetMentor handles GET /api/v1/mentors/:mentorId.
func (h *MentorHandler) GetMentor(c *gin.Context) {
	mentorID := c.Param("mentorId")
	if mentorID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Mentor ID is required"})
		return
	}

	mentor, err := h.userService.GetMentor(c.Request.Context(), mentorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mentor)
}

// approvalRequest is the body of the approval toggle.
type approvalRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}

// SetApproval handles PATCH /api/v1/mentors/:mentorId/approval. Admins only.
func (h *MentorHandler) SetApproval(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}
	if !h.isAdmin(c, userID) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Admin role required"})
		return
	}

	mentorID := c.Param("mentorId")
	var req approvalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	if err := h.userService.SetMentorApproval(c.Request.Context(), mentorID, *req.Approved); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Mentor approval updated"})
}

// TeachingTips handles GET /api/v1/mentors/me/teaching-tips, generating tips
// for the authenticated mentor's subjects.
func (h *MentorHandler) TeachingTips(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}

	tips, err := h.recommendService.TeachingTips(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tips": tips})
}

func (h *MentorHandler) isAdmin(c *gin.Context, userID string) bool {
	user, err := h.userService.GetByID(c.Request.Context(), userID)
	return err == nil && user.Role == models.RoleAdmin
}
