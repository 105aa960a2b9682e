package db

import (
	"context"
	"io"

	"mentorly-backend-go/internal/models"
)

// UserRepository defines the interface for user and mentor profile storage.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	GetMentorByID(ctx context.Context, mentorID string) (*models.Mentor, error)
	// CreateProfile writes a profile document with merge semantics, so a
	// repeated sign-in never clobbers an existing profile.
	CreateProfile(ctx context.Context, userID string, profile interface{}) error
	// UpdateFields applies a partial update to the user document.
	UpdateFields(ctx context.Context, userID string, fields map[string]interface{}) error
	ListMentors(ctx context.Context, approvedOnly bool) ([]*models.Mentor, error)
	SetApproval(ctx context.Context, mentorID string, approved bool) error
}

// SessionRepository defines the interface for session storage, including the
// transactional booking and rating mutations that span the session and the
// mentor documents.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) (string, error)
	GetByID(ctx context.Context, sessionID string) (*models.Session, error)
	ListByLearner(ctx context.Context, learnerID string) ([]*models.Session, error)
	ListByMentor(ctx context.Context, mentorID string) ([]*models.Session, error)
	ListUpcoming(ctx context.Context) ([]*models.Session, error)
	// Resolve accepts or declines a pending session. On accept it atomically
	// removes the slot from the mentor's availability in the same
	// transaction; the slot already being absent fails with ErrSlotUnavailable.
	Resolve(ctx context.Context, sessionID, mentorID, date, slot string, accept bool) (*models.Session, error)
	// ApplyFeedback writes the session feedback and the recomputed mentor
	// aggregate in one transaction, returning the updated mentor.
	ApplyFeedback(ctx context.Context, sessionID, mentorID string, fb models.Feedback) (*models.Mentor, error)
	// RemoveFeedback clears the session feedback and reverses its effect on
	// the mentor aggregate in one transaction.
	RemoveFeedback(ctx context.Context, sessionID, mentorID string, ratingToRemove int) error
	// CompleteBatch marks the given sessions completed in one batched write.
	CompleteBatch(ctx context.Context, sessionIDs []string) error
	SetSummary(ctx context.Context, sessionID, summary string) error
}

// NotificationRepository defines the interface for notification storage.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string) ([]*models.Notification, error)
	MarkRead(ctx context.Context, ids []string) error
	Delete(ctx context.Context, id string) error
	// Watch streams full result sets for the user's notifications, newest
	// first, until the returned cancel func is called.
	Watch(ctx context.Context, userID string) (<-chan []*models.Notification, func(), error)
}

// MessageRepository defines the interface for session chat storage.
type MessageRepository interface {
	Add(ctx context.Context, sessionID string, msg *models.Message) (string, error)
	List(ctx context.Context, sessionID string) ([]*models.Message, error)
	Watch(ctx context.Context, sessionID string) (<-chan []*models.Message, func(), error)
}

// SignalRepository defines the interface for the per-participant signaling
// mailbox used to establish a live call. Each participant publishes under its
// own identity and watches the peer's record.
type SignalRepository interface {
	PublishOffer(ctx context.Context, sessionID, userID string, desc models.SessionDescription) error
	PublishAnswer(ctx context.Context, sessionID, userID string, desc models.SessionDescription) error
	AddCandidate(ctx context.Context, sessionID, userID string, cand models.IceCandidate) error
	GetMailbox(ctx context.Context, sessionID, userID string) (*models.SignalMailbox, error)
	// WatchMailbox delivers the latest snapshot of the mailbox record on
	// every change (last-write-wins on offer/answer, not an operation log).
	WatchMailbox(ctx context.Context, sessionID, userID string) (<-chan models.SignalMailbox, func(), error)
	// WatchCandidates delivers newly appended candidates only; previously
	// seen candidates are never redelivered.
	WatchCandidates(ctx context.Context, sessionID, userID string) (<-chan models.IceCandidate, func(), error)
	// DeleteMailbox removes the participant's record and its candidate
	// subcollection after a call ends.
	DeleteMailbox(ctx context.Context, sessionID, userID string) error
}

// BlobRepository defines the interface for file attachment storage.
type BlobRepository interface {
	// Upload stores the bytes under the key and returns a retrievable URL.
	Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}
