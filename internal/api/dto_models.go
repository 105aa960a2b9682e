package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"mentorly-backend-go/internal/core"
)

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// respondServiceError maps core service errors to HTTP status codes. Expected
// failures get their sentinel message; anything unrecognized is logged and
// answered with a generic 500.
func respondServiceError(c *gin.Context, err error) {
	var statusCode int
	switch {
	case errors.Is(err, core.ErrUserNotFound),
		errors.Is(err, core.ErrMentorNotFound),
		errors.Is(err, core.ErrLearnerNotFound),
		errors.Is(err, core.ErrSessionNotFound),
		errors.Is(err, core.ErrNotificationNotFound),
		errors.Is(err, core.ErrFeedbackNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, core.ErrSlotUnavailable),
		errors.Is(err, core.ErrConflict):
		statusCode = http.StatusConflict
	case errors.Is(err, core.ErrValidation),
		errors.Is(err, core.ErrMentorNotApproved),
		errors.Is(err, core.ErrSessionNotPending),
		errors.Is(err, core.ErrSessionNotCompleted),
		errors.Is(err, core.ErrEmptyMessage):
		statusCode = http.StatusBadRequest
	case errors.Is(err, core.ErrForbidden):
		statusCode = http.StatusForbidden
	case errors.Is(err, core.ErrRemoteService):
		statusCode = http.StatusBadGateway
	case errors.Is(err, core.ErrAttachmentsDisabled):
		statusCode = http.StatusServiceUnavailable
	default:
		log.Printf("Internal Server Error: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred."})
		return
	}
	c.JSON(statusCode, ErrorResponse{Error: err.Error()})
}

// contextUserID pulls the authenticated user's ID set by the auth middleware.
// It writes the error response itself when the ID is missing.
func contextUserID(c *gin.Context) (string, bool) {
	rawUserID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication error: User ID not found in context"})
		return "", false
	}
	userID, ok := rawUserID.(string)
	if !ok || userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid user ID format in context"})
		return "", false
	}
	return userID, true
}
