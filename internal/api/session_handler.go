package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mentorly-backend-go/internal/core"
	"mentorly-backend-go/internal/models"
)

// SessionHandler handles session booking and feedback endpoints.
type SessionHandler struct {
	bookingService  core.BookingService
	feedbackService core.FeedbackService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(bs core.BookingService, fs core.FeedbackService) *SessionHandler {
	return &SessionHandler{bookingService: bs, feedbackService: fs}
}

// CreateSession handles POST /api/v1/sessions: a learner requesting one of a
// mentor's published slots.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}

	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	session, err := h.bookingService.RequestSession(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// ListSessions handles GET /api/v1/sessions. ?as=mentor lists the mentor side
// of the caller's sessions; the default is the learner side.
func (h *SessionHandler) ListSessions(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}

	sessions, err := h.bookingService.ListSessions(c.Request.Context(), userID, c.Query("as") == "mentor")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// GetSession handles GET /api/v1/sessions/:sessionId.
func (h *SessionHandler) GetSession(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}

	session, err := h.bookingService.GetSession(c.Request.Context(), userID, c.Param("sessionId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// ResolveSession handles POST /api/v1/sessions/:sessionId/resolve: the mentor
// accepting or declining a pending request.
func (h *SessionHandler) ResolveSession(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}

	var req models.ResolveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	session, err := h.bookingService.ResolveRequest(c.Request.Context(), userID, c.Param("sessionId"), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// AddFeedback handles POST /api/v1/sessions/:sessionId/feedback.
func (h *SessionHandler) AddFeedback(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}

	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	mentor, err := h.feedbackService.AddFeedback(c.Request.Context(), userID, c.Param("sessionId"), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mentor)
}

// RemoveFeedback handles DELETE /api/v1/sessions/:sessionId/feedback.
func (h *SessionHandler) RemoveFeedback(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}

	if err := h.feedbackService.RemoveFeedback(c.Request.Context(), userID, c.Param("sessionId")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Feedback removed"})
}
