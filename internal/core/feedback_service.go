package core

import (
	"context"
	"errors"
	"fmt"
	"log"

	"mentorly-backend-go/internal/db"
	"mentorly-backend-go/internal/models"
)

// Custom errors for the FeedbackService
var (
	ErrFeedbackNotFound    = errors.New("session has no feedback")
	ErrSessionNotCompleted = errors.New("session is not completed")
)

// feedbackService implements the FeedbackService interface.
type feedbackService struct {
	sessionRepo     db.SessionRepository
	notificationSvc NotificationService
}

// NewFeedbackService creates a new FeedbackService instance.
func NewFeedbackService(sr db.SessionRepository, ns NotificationService) FeedbackService {
	return &feedbackService{
		sessionRepo:     sr,
		notificationSvc: ns,
	}
}

// AddFeedback attaches the learner's rating to a completed session and folds
// it into the mentor's aggregate in one transaction. No rounding is applied
// to the stored mean. Re-rating an already-rated session is accepted and adds
// a fresh review; callers remove the old feedback first if they want a
// replacement instead.
func (s *feedbackService) AddFeedback(ctx context.Context, learnerID, sessionID string, req models.FeedbackRequest) (*models.Mentor, error) {
	if s.sessionRepo == nil {
		return nil, errors.New("feedbackService: sessionRepo not initialized")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5, got %d", ErrValidation, req.Rating)
	}

	session, err := s.getLearnerSession(ctx, learnerID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionCompleted {
		return nil, ErrSessionNotCompleted
	}

	fb := models.Feedback{Rating: req.Rating, Comment: req.Comment}
	mentor, err := s.sessionRepo.ApplyFeedback(ctx, sessionID, session.MentorID, fb)
	if err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to apply feedback on session '%s': %w", sessionID, err)
	}

	if s.notificationSvc != nil {
		msg := fmt.Sprintf("You received a %d-star rating for your session on %s.", req.Rating, session.Date)
		if err := s.notificationSvc.Notify(ctx, session.MentorID, msg, "/dashboard"); err != nil {
			log.Printf("Warning: failed to notify mentor '%s' about feedback on session '%s': %v", session.MentorID, sessionID, err)
		}
	}
	return mentor, nil
}

// RemoveFeedback withdraws the learner's rating, reversing its effect on the
// mentor's aggregate in the same transaction that clears the session field.
func (s *feedbackService) RemoveFeedback(ctx context.Context, learnerID, sessionID string) error {
	session, err := s.getLearnerSession(ctx, learnerID, sessionID)
	if err != nil {
		return err
	}
	if session.Feedback == nil {
		return ErrFeedbackNotFound
	}

	if err := s.sessionRepo.RemoveFeedback(ctx, sessionID, session.MentorID, session.Feedback.Rating); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return ErrConflict
		}
		return fmt.Errorf("failed to remove feedback from session '%s': %w", sessionID, err)
	}
	return nil
}

// getLearnerSession loads a session and verifies the caller is its learner.
func (s *feedbackService) getLearnerSession(ctx context.Context, learnerID, sessionID string) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session '%s': %w", sessionID, err)
	}
	if session.LearnerID != learnerID {
		return nil, ErrForbidden
	}
	return session, nil
}
