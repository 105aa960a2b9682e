package core

import (
	"context"
	"io"
	"time"

	"mentorly-backend-go/internal/models"
)

// UserService defines the interface for profile operations.
type UserService interface {
	// GetOrCreate retrieves the profile for an authenticated user, creating it
	// with defaults on first sign-in. The bool reports whether it was created.
	GetOrCreate(ctx context.Context, userID, email, name string, role models.UserRole) (*models.User, bool, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
	GetMentor(ctx context.Context, mentorID string) (*models.Mentor, error)
	UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) error
	ListMentors(ctx context.Context, approvedOnly bool) ([]*models.Mentor, error)
	SetMentorApproval(ctx context.Context, mentorID string, approved bool) error
}

// BookingService defines the interface for the session lifecycle: requesting,
// resolving, listing, and sweeping past-due bookings to completion.
type BookingService interface {
	RequestSession(ctx context.Context, learnerID string, req models.CreateSessionRequest) (*models.Session, error)
	ResolveRequest(ctx context.Context, mentorID, sessionID string, req models.ResolveSessionRequest) (*models.Session, error)
	GetSession(ctx context.Context, userID, sessionID string) (*models.Session, error)
	// ListSessions returns the user's sessions from either side of the
	// marketplace, running a completion sweep first so past-due bookings are
	// already completed in what the caller sees.
	ListSessions(ctx context.Context, userID string, asMentor bool) ([]*models.Session, error)
	// CompleteDueSessions promotes past-due upcoming sessions to completed and
	// generates their summaries best-effort. Returns how many were completed.
	CompleteDueSessions(ctx context.Context, now time.Time) (int, error)
}

// FeedbackService defines the interface for session ratings.
type FeedbackService interface {
	AddFeedback(ctx context.Context, learnerID, sessionID string, req models.FeedbackRequest) (*models.Mentor, error)
	RemoveFeedback(ctx context.Context, learnerID, sessionID string) error
}

// NotificationService defines the interface for in-app notifications.
type NotificationService interface {
	Notify(ctx context.Context, userID, message, link string) error
	List(ctx context.Context, userID string) ([]*models.Notification, error)
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID, notificationID string) error
	Watch(ctx context.Context, userID string) (<-chan []*models.Notification, func(), error)
}

// ChatService defines the interface for session chat and attachments.
type ChatService interface {
	SendMessage(ctx context.Context, sessionID, senderID, text string) (*models.Message, error)
	SendFileMessage(ctx context.Context, sessionID, senderID, fileName, contentType string, data io.Reader) (*models.Message, error)
	ListMessages(ctx context.Context, sessionID, userID string) ([]*models.Message, error)
	Watch(ctx context.Context, sessionID, userID string) (<-chan []*models.Message, func(), error)
	// Transcript renders the session's chat as one "Name: text" line per
	// message, resolving sender names from their profiles.
	Transcript(ctx context.Context, sessionID string) (string, error)
}

// RecommendationService defines the interface for assistant-backed flows on
// top of the mentor roster.
type RecommendationService interface {
	// SuggestMentors matches the learner's goals against approved mentors,
	// dropping any suggestion that does not resolve to a real mentor.
	SuggestMentors(ctx context.Context, req models.SuggestMentorsRequest) ([]models.MentorSuggestion, error)
	TeachingTips(ctx context.Context, mentorID string) ([]string, error)
}

// Assistant is the language-model client the services generate text with.
// Implemented by the ai package; faked in tests.
type Assistant interface {
	Summarize(ctx context.Context, transcript string) (string, error)
	SuggestMentors(ctx context.Context, goals string, interests []string, mentors []*models.Mentor) ([]models.MentorSuggestion, error)
	TeachingTips(ctx context.Context, subjects []string) ([]string, error)
}

// MentorCache is a read-through cache for the mentor listing. A nil-safe
// no-op implementation is acceptable when no cache backend is configured.
type MentorCache interface {
	Get(ctx context.Context, key string) ([]*models.Mentor, bool)
	Set(ctx context.Context, key string, mentors []*models.Mentor)
	Invalidate(ctx context.Context)
}
