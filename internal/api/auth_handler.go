package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"mentorly-backend-go/internal/core"
	"mentorly-backend-go/internal/models"
)

// AuthHandler handles authentication related API endpoints.
type AuthHandler struct {
	userService core.UserService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(us core.UserService) *AuthHandler {
	return &AuthHandler{userService: us}
}

// InitializeUserProfile handles POST /api/v1/users/initialize. Called by the
// client after a Firebase sign-in to ensure the backend profile exists. The
// request body carries the chosen display name and role; on a repeated call
// the existing profile is returned untouched.
func (h *AuthHandler) InitializeUserProfile(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}

	var req models.CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	email := c.GetString("userEmail")
	user, created, err := h.userService.GetOrCreate(c.Request.Context(), userID, email, req.Name, req.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if created {
		log.Printf("User profile created for userID: %s", userID)
		c.JSON(http.StatusCreated, user)
		return
	}
	c.JSON(http.StatusOK, user)
}
