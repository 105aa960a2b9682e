package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"mentorly-backend-go/internal/core"
	"mentorly-backend-go/internal/db"
	"mentorly-backend-go/internal/models"
)

// SignalHandler exposes the call-signaling mailboxes over REST: each
// participant publishes into its own mailbox and reads or streams the peer's.
type SignalHandler struct {
	signalRepo     db.SignalRepository
	bookingService core.BookingService
}

// NewSignalHandler creates a new SignalHandler.
func NewSignalHandler(sr db.SignalRepository, bs core.BookingService) *SignalHandler {
	return &SignalHandler{signalRepo: sr, bookingService: bs}
}

// authorize verifies the caller participates in the session and, when peerID
// is set, that it names the other participant. Writes the error response on
// failure.
func (h *SignalHandler) authorize(c *gin.Context, userID, sessionID, peerID string) bool {
	session, err := h.bookingService.GetSession(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondServiceError(c, err)
		return false
	}
	if peerID != "" && peerID != session.MentorID && peerID != session.LearnerID {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Peer is not a participant of this session"})
		return false
	}
	return true
}

// PublishOffer handles POST /api/v1/sessions/:sessionId/signal/offer.
func (h *SignalHandler) PublishOffer(c *gin.Context) {
	h.publishDescription(c, true)
}

// PublishAnswer handles POST /api/v1/sessions/:sessionId/signal/answer.
func (h *SignalHandler) PublishAnswer(c *gin.Context) {
	h.publishDescription(c, false)
}

func (h *SignalHandler) publishDescription(c *gin.Context, offer bool) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}
	sessionID := c.Param("sessionId")
	if !h.authorize(c, userID, sessionID, "") {
		return
	}

	var desc models.SessionDescription
	if err := c.ShouldBindJSON(&desc); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	var err error
	if offer {
		err = h.signalRepo.PublishOffer(c.Request.Context(), sessionID, userID, desc)
	} else {
		err = h.signalRepo.PublishAnswer(c.Request.Context(), sessionID, userID, desc)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{Message: "Description published"})
}

// AddCandidate handles POST /api/v1/sessions/:sessionId/signal/candidates.
func (h *SignalHandler) AddCandidate(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}
	sessionID := c.Param("sessionId")
	if !h.authorize(c, userID, sessionID, "") {
		return
	}

	var cand models.IceCandidate
	if err := c.ShouldBindJSON(&cand); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}
	if err := h.signalRepo.AddCandidate(c.Request.Context(), sessionID, userID, cand); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{Message: "Candidate published"})
}

// GetPeerMailbox handles GET /api/v1/sessions/:sessionId/signal/peers/:peerId.
func (h *SignalHandler) GetPeerMailbox(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}
	sessionID := c.Param("sessionId")
	peerID := c.Param("peerId")
	if !h.authorize(c, userID, sessionID, peerID) {
		return
	}

	mailbox, err := h.signalRepo.GetMailbox(c.Request.Context(), sessionID, peerID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Peer has not published yet"})
			return
		}
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mailbox)
}

// StreamPeer handles GET /api/v1/sessions/:sessionId/signal/peers/:peerId/stream.
// It fans the peer's mailbox changes and new candidates out as server-sent
// events, so a client needs a single subscription per call.
func (h *SignalHandler) StreamPeer(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}
	sessionID := c.Param("sessionId")
	peerID := c.Param("peerId")
	if !h.authorize(c, userID, sessionID, peerID) {
		return
	}

	mailboxes, stopMailbox, err := h.signalRepo.WatchMailbox(c.Request.Context(), sessionID, peerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer stopMailbox()

	candidates, stopCandidates, err := h.signalRepo.WatchCandidates(c.Request.Context(), sessionID, peerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer stopCandidates()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case mailbox, open := <-mailboxes:
			if !open {
				return false
			}
			c.SSEvent("description", mailbox)
			return true
		case cand, open := <-candidates:
			if !open {
				return false
			}
			c.SSEvent("candidate", cand)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// DeleteMailbox handles DELETE /api/v1/sessions/:sessionId/signal. A
// participant tears down its own mailbox and candidates when the call ends.
func (h *SignalHandler) DeleteMailbox(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}
	sessionID := c.Param("sessionId")
	if !h.authorize(c, userID, sessionID, "") {
		return
	}

	if err := h.signalRepo.DeleteMailbox(c.Request.Context(), sessionID, userID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Signaling state cleared"})
}
