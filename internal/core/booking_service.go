package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"mentorly-backend-go/internal/db"
	"mentorly-backend-go/internal/models"
)

// Custom errors for the BookingService
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrLearnerNotFound   = errors.New("learner not found")
	ErrMentorNotApproved = errors.New("mentor is not approved for bookings")
	ErrSlotUnavailable   = errors.New("requested slot is not available")
	ErrSessionNotPending = errors.New("session is not pending")
	ErrConflict          = errors.New("conflicting concurrent update, retry")
)

// bookingService implements the BookingService interface.
type bookingService struct {
	sessionRepo     db.SessionRepository
	userRepo        db.UserRepository
	notificationSvc NotificationService
	chatSvc         ChatService
	assistant       Assistant
}

// NewBookingService creates a new BookingService instance. The assistant is
// optional; without one, completed sessions simply get no summary.
func NewBookingService(
	sr db.SessionRepository,
	ur db.UserRepository,
	ns NotificationService,
	cs ChatService,
	assistant Assistant,
) BookingService {
	return &bookingService{
		sessionRepo:     sr,
		userRepo:        ur,
		notificationSvc: ns,
		chatSvc:         cs,
		assistant:       assistant,
	}
}

// RequestSession creates a pending booking for one of the mentor's published
// slots and notifies the mentor. The slot itself stays listed until the
// mentor accepts, so several learners may request the same slot and the first
// accepted request wins.
func (s *bookingService) RequestSession(ctx context.Context, learnerID string, req models.CreateSessionRequest) (*models.Session, error) {
	if s.sessionRepo == nil || s.userRepo == nil {
		return nil, errors.New("bookingService: component not initialized")
	}

	if !models.ValidDate(req.Date) {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD, got '%s'", ErrValidation, req.Date)
	}
	if !models.ValidSlot(req.Time) {
		return nil, fmt.Errorf("%w: time must be HH:MM, got '%s'", ErrValidation, req.Time)
	}

	mentor, err := s.userRepo.GetMentorByID(ctx, req.MentorID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrMentorNotFound
		}
		return nil, fmt.Errorf("failed to get mentor '%s': %w", req.MentorID, err)
	}
	if !mentor.IsApproved {
		return nil, ErrMentorNotApproved
	}
	if !mentor.Availability.HasSlot(req.Date, req.Time) {
		return nil, fmt.Errorf("%w: %s %s is not listed by mentor '%s'", ErrSlotUnavailable, req.Date, req.Time, req.MentorID)
	}

	learner, err := s.userRepo.GetByID(ctx, learnerID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrLearnerNotFound
		}
		return nil, fmt.Errorf("failed to get learner '%s': %w", learnerID, err)
	}

	session := &models.Session{
		MentorID:  req.MentorID,
		LearnerID: learnerID,
		Date:      req.Date,
		Time:      req.Time,
		Status:    models.SessionPending,
	}
	sessionID, err := s.sessionRepo.Create(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	session.ID = sessionID

	if s.notificationSvc != nil {
		msg := fmt.Sprintf("%s requested a session on %s at %s.", learner.Name, req.Date, req.Time)
		if err := s.notificationSvc.Notify(ctx, req.MentorID, msg, "/requests"); err != nil {
			log.Printf("Warning: failed to notify mentor '%s' about session request '%s': %v", req.MentorID, sessionID, err)
		}
	}
	return session, nil
}

// ResolveRequest accepts or declines a pending session as the mentor. On
// accept, the booked slot is removed from the mentor's availability in the
// same transaction that flips the status, so a slot that was already taken by
// an earlier acceptance fails here with ErrSlotUnavailable instead of
// double-booking. Declining leaves the availability untouched.
func (s *bookingService) ResolveRequest(ctx context.Context, mentorID, sessionID string, req models.ResolveSessionRequest) (*models.Session, error) {
	if s.sessionRepo == nil {
		return nil, errors.New("bookingService: sessionRepo not initialized")
	}

	accept := req.Decision == "accept"
	session, err := s.sessionRepo.Resolve(ctx, sessionID, mentorID, req.Date, req.Time, accept)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			return nil, ErrSessionNotFound
		case errors.Is(err, db.ErrWrongMentor):
			return nil, ErrForbidden
		case errors.Is(err, db.ErrSessionNotPending):
			return nil, ErrSessionNotPending
		case errors.Is(err, db.ErrSlotUnavailable):
			return nil, ErrSlotUnavailable
		case errors.Is(err, db.ErrConflict):
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to resolve session '%s': %w", sessionID, err)
	}

	if s.notificationSvc != nil {
		mentorName := "Your mentor"
		if mentor, merr := s.userRepo.GetByID(ctx, mentorID); merr == nil {
			mentorName = mentor.Name
		}
		var msg string
		if accept {
			msg = fmt.Sprintf("%s confirmed your session on %s at %s.", mentorName, session.Date, session.Time)
		} else {
			msg = fmt.Sprintf("%s declined your session request for %s at %s.", mentorName, session.Date, session.Time)
		}
		if err := s.notificationSvc.Notify(ctx, session.LearnerID, msg, "/sessions"); err != nil {
			log.Printf("Warning: failed to notify learner '%s' about session '%s': %v", session.LearnerID, sessionID, err)
		}
	}
	return session, nil
}

// GetSession returns one session, visible only to its two participants.
func (s *bookingService) GetSession(ctx context.Context, userID, sessionID string) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session '%s': %w", sessionID, err)
	}
	if session.MentorID != userID && session.LearnerID != userID {
		return nil, ErrForbidden
	}
	return session, nil
}

// ListSessions returns the user's sessions from either side of the
// marketplace. A completion sweep runs first so past-due bookings are already
// completed in the returned list; a sweep failure only logs.
func (s *bookingService) ListSessions(ctx context.Context, userID string, asMentor bool) ([]*models.Session, error) {
	if _, err := s.CompleteDueSessions(ctx, time.Now()); err != nil {
		log.Printf("Warning: completion sweep before listing failed: %v", err)
	}

	var (
		sessions []*models.Session
		err      error
	)
	if asMentor {
		sessions, err = s.sessionRepo.ListByMentor(ctx, userID)
	} else {
		sessions, err = s.sessionRepo.ListByLearner(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions for user '%s': %w", userID, err)
	}
	return sessions, nil
}

// CompleteDueSessions promotes every upcoming session whose slot has passed
// to completed in one batched write, then generates summaries best-effort.
// Only upcoming sessions are candidates, so a repeated sweep over the same
// data finds nothing to do.
func (s *bookingService) CompleteDueSessions(ctx context.Context, now time.Time) (int, error) {
	upcoming, err := s.sessionRepo.ListUpcoming(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list upcoming sessions: %w", err)
	}

	var due []*models.Session
	for _, session := range upcoming {
		if session.DueBefore(now) {
			due = append(due, session)
		}
	}
	if len(due) == 0 {
		return 0, nil
	}

	ids := make([]string, len(due))
	for i, session := range due {
		ids[i] = session.ID
	}
	if err := s.sessionRepo.CompleteBatch(ctx, ids); err != nil {
		return 0, fmt.Errorf("failed to complete %d due sessions: %w", len(due), err)
	}

	for _, session := range due {
		s.summarizeSession(ctx, session)
	}
	return len(due), nil
}

// summarizeSession generates and stores the chat summary for a freshly
// completed session and tells both participants it is ready. Every step is
// best-effort: the session is already completed and a failed summary simply
// stays unset.
func (s *bookingService) summarizeSession(ctx context.Context, session *models.Session) {
	if s.assistant == nil || s.chatSvc == nil {
		return
	}

	transcript, err := s.chatSvc.Transcript(ctx, session.ID)
	if err != nil {
		log.Printf("Warning: failed to build transcript for session '%s': %v", session.ID, err)
		return
	}
	summary, err := s.assistant.Summarize(ctx, transcript)
	if err != nil {
		log.Printf("Warning: failed to summarize session '%s': %v", session.ID, err)
		return
	}
	if err := s.sessionRepo.SetSummary(ctx, session.ID, summary); err != nil {
		log.Printf("Warning: failed to store summary for session '%s': %v", session.ID, err)
		return
	}

	if s.notificationSvc != nil {
		msg := fmt.Sprintf("Your session on %s is complete. An AI summary is ready.", session.Date)
		for _, uid := range []string{session.MentorID, session.LearnerID} {
			if err := s.notificationSvc.Notify(ctx, uid, msg, "/sessions/"+session.ID); err != nil {
				log.Printf("Warning: failed to notify user '%s' about summary for session '%s': %v", uid, session.ID, err)
			}
		}
	}
}
