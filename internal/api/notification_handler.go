package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"mentorly-backend-go/internal/core"
)

// NotificationHandler handles in-app notification endpoints.
type NotificationHandler struct {
	notificationService core.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(ns core.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: ns}
}

// ListNotifications handles GET /api/v1/notifications, newest first.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}

	notifications, err := h.notificationService.List(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// MarkAllRead handles POST /api/v1/notifications/read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkAllRead(c.Request.Context(), userID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "All notifications marked read"})
}

// DeleteNotification handles DELETE /api/v1/notifications/:notificationId.
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}

	if err := h.notificationService.Delete(c.Request.Context(), userID, c.Param("notificationId")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Notification deleted"})
}

// StreamNotifications handles GET /api/v1/notifications/stream, pushing the
// user's notification list as a server-sent event on every change.
func (h *NotificationHandler) StreamNotifications(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}

	updates, stop, err := h.notificationService.Watch(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer stop()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case notifications, open := <-updates:
			if !open {
				return false
			}
			c.SSEvent("notifications", notifications)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
