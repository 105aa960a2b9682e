package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"mentorly-backend-go/internal/core"
)

// maxAttachmentBytes caps chat file uploads.
const maxAttachmentBytes = 10 << 20

// ChatHandler handles session chat endpoints.
type ChatHandler struct {
	chatService core.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(cs core.ChatService) *ChatHandler {
	return &ChatHandler{chatService: cs}
}

// sendMessageRequest is the body of a text message.
type sendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// SendMessage handles POST /api/v1/sessions/:sessionId/messages.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	msg, err := h.chatService.SendMessage(c.Request.Context(), c.Param("sessionId"), userID, req.Text)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// SendFile handles POST /api/v1/sessions/:sessionId/messages/file as a
// multipart form with a single "file" field.
func (h *ChatHandler) SendFile(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "A 'file' form field is required", Details: err.Error()})
		return
	}
	if fileHeader.Size > maxAttachmentBytes {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "File exceeds the 10MB attachment limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to read uploaded file", Details: err.Error()})
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	msg, err := h.chatService.SendFileMessage(c.Request.Context(), c.Param("sessionId"), userID, fileHeader.Filename, contentType, file)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// ListMessages handles GET /api/v1/sessions/:sessionId/messages.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}

	messages, err := h.chatService.ListMessages(c.Request.Context(), c.Param("sessionId"), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// StreamMessages handles GET /api/v1/sessions/:sessionId/messages/stream,
// pushing the full message list as a server-sent event on every change.
func (h *ChatHandler) StreamMessages(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}

	updates, stop, err := h.chatService.Watch(c.Request.Context(), c.Param("sessionId"), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer stop()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case messages, open := <-updates:
			if !open {
				return false
			}
			c.SSEvent("messages", messages)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
