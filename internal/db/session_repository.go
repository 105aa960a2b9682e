package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"mentorly-backend-go/internal/models"
)

const sessionsCollection = "sessions"

// Booking-specific errors surfaced by the transactional mutations.
var (
	// ErrSlotUnavailable reports that the requested time is no longer listed
	// in the mentor's availability.
	ErrSlotUnavailable = errors.New("time slot is no longer available")
	// ErrSessionNotPending reports a resolve attempt on a session that has
	// already left the pending state.
	ErrSessionNotPending = errors.New("session is not pending")
	// ErrWrongMentor reports a resolve attempt by a mentor the session does
	// not belong to.
	ErrWrongMentor = errors.New("session does not belong to this mentor")
	// ErrConflict reports that the underlying transaction aborted after
	// exhausting its retries.
	ErrConflict = errors.New("transaction conflict")
)

// firestoreSessionRepository implements the SessionRepository interface using Firestore.
type firestoreSessionRepository struct {
	client *firestore.Client
}

// NewFirestoreSessionRepository creates a new instance of firestoreSessionRepository.
func NewFirestoreSessionRepository(client *firestore.Client) SessionRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for SessionRepository.")
	}
	return &firestoreSessionRepository{client: client}
}

// Create adds a new session document with an auto-generated ID.
func (r *firestoreSessionRepository) Create(ctx context.Context, session *models.Session) (string, error) {
	docRef := r.client.Collection(sessionsCollection).NewDoc()
	session.ID = docRef.ID
	if _, err := docRef.Create(ctx, session); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return docRef.ID, nil
}

// GetByID retrieves a session document by its ID.
func (r *firestoreSessionRepository) GetByID(ctx context.Context, sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return nil, errors.New("sessionID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(sessionsCollection).Doc(sessionID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("session with ID '%s' not found: %w", sessionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get session with ID '%s': %w", sessionID, err)
	}

	var session models.Session
	if err := docSnap.DataTo(&session); err != nil {
		return nil, fmt.Errorf("failed to decode session data for ID '%s': %w", sessionID, err)
	}
	session.ID = docSnap.Ref.ID

	return &session, nil
}

func (r *firestoreSessionRepository) listByField(ctx context.Context, field, value string) ([]*models.Session, error) {
	iter := r.client.Collection(sessionsCollection).Where(field, "==", value).Documents(ctx)
	defer iter.Stop()

	var sessions []*models.Session
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate sessions (%s=%s): %w", field, value, err)
		}

		var session models.Session
		if err := doc.DataTo(&session); err != nil {
			log.Printf("Error decoding session data (ID: %s): %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		session.ID = doc.Ref.ID
		sessions = append(sessions, &session)
	}
	return sessions, nil
}

// ListByLearner retrieves all sessions requested by a learner.
func (r *firestoreSessionRepository) ListByLearner(ctx context.Context, learnerID string) ([]*models.Session, error) {
	if learnerID == "" {
		return nil, errors.New("learnerID cannot be empty for ListByLearner operation")
	}
	return r.listByField(ctx, "learnerId", learnerID)
}

// ListByMentor retrieves all sessions addressed to a mentor.
func (r *firestoreSessionRepository) ListByMentor(ctx context.Context, mentorID string) ([]*models.Session, error) {
	if mentorID == "" {
		return nil, errors.New("mentorID cannot be empty for ListByMentor operation")
	}
	return r.listByField(ctx, "mentorId", mentorID)
}

// ListUpcoming retrieves every session currently in the upcoming state,
// for the completion sweep.
func (r *firestoreSessionRepository) ListUpcoming(ctx context.Context) ([]*models.Session, error) {
	return r.listByField(ctx, "status", string(models.SessionUpcoming))
}

// Resolve accepts or declines a pending session inside a single transaction
// spanning the session and the mentor documents. Accepting removes the slot
// from the mentor's availability; the date key is deleted entirely when its
// slot list empties. A slot that is already gone fails the accept with
// ErrSlotUnavailable so two pending requests can never both confirm the same
// listing.
func (r *firestoreSessionRepository) Resolve(ctx context.Context, sessionID, mentorID, date, slot string, accept bool) (*models.Session, error) {
	sessionRef := r.client.Collection(sessionsCollection).Doc(sessionID)
	mentorRef := r.client.Collection(usersCollection).Doc(mentorID)

	var resolved models.Session
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		sessionSnap, err := tx.Get(sessionRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("session '%s': %w", sessionID, ErrNotFound)
			}
			return err
		}
		mentorSnap, err := tx.Get(mentorRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("mentor '%s': %w", mentorID, ErrNotFound)
			}
			return err
		}

		var session models.Session
		if err := sessionSnap.DataTo(&session); err != nil {
			return fmt.Errorf("failed to decode session '%s': %w", sessionID, err)
		}
		session.ID = sessionSnap.Ref.ID

		if session.MentorID != mentorID {
			return ErrWrongMentor
		}
		if session.Status != models.SessionPending {
			return ErrSessionNotPending
		}

		if accept {
			var mentor models.Mentor
			if err := mentorSnap.DataTo(&mentor); err != nil {
				return fmt.Errorf("failed to decode mentor '%s': %w", mentorID, err)
			}
			if mentor.Availability == nil || !mentor.Availability.RemoveSlot(date, slot) {
				return ErrSlotUnavailable
			}

			var slotValue interface{}
			if remaining, ok := mentor.Availability[date]; ok {
				slotValue = remaining
			} else {
				slotValue = firestore.Delete
			}
			if err := tx.Update(mentorRef, []firestore.Update{
				{FieldPath: firestore.FieldPath{"availability", date}, Value: slotValue},
			}); err != nil {
				return err
			}
			session.Status = models.SessionUpcoming
		} else {
			session.Status = models.SessionCancelled
		}

		if err := tx.Update(sessionRef, []firestore.Update{
			{Path: "status", Value: string(session.Status)},
		}); err != nil {
			return err
		}

		resolved = session
		return nil
	})
	if err != nil {
		if status.Code(err) == codes.Aborted {
			return nil, fmt.Errorf("resolving session '%s': %w", sessionID, ErrConflict)
		}
		return nil, err
	}
	return &resolved, nil
}

// ApplyFeedback records a learner's feedback on the session and folds its
// rating into the mentor aggregate, both inside one transaction so the
// review count and the feedback presence can never disagree.
func (r *firestoreSessionRepository) ApplyFeedback(ctx context.Context, sessionID, mentorID string, fb models.Feedback) (*models.Mentor, error) {
	sessionRef := r.client.Collection(sessionsCollection).Doc(sessionID)
	mentorRef := r.client.Collection(usersCollection).Doc(mentorID)

	var updated models.Mentor
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		mentorSnap, err := tx.Get(mentorRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("mentor '%s': %w", mentorID, ErrNotFound)
			}
			return err
		}
		if _, err := tx.Get(sessionRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("session '%s': %w", sessionID, ErrNotFound)
			}
			return err
		}

		var mentor models.Mentor
		if err := mentorSnap.DataTo(&mentor); err != nil {
			return fmt.Errorf("failed to decode mentor '%s': %w", mentorID, err)
		}
		mentor.ID = mentorSnap.Ref.ID
		mentor.ApplyFeedback(fb.Rating)

		if err := tx.Update(mentorRef, []firestore.Update{
			{Path: "rating", Value: mentor.Rating},
			{Path: "reviews", Value: mentor.Reviews},
		}); err != nil {
			return err
		}
		if err := tx.Update(sessionRef, []firestore.Update{
			{Path: "feedback", Value: map[string]interface{}{
				"rating":  fb.Rating,
				"comment": fb.Comment,
			}},
		}); err != nil {
			return err
		}

		updated = mentor
		return nil
	})
	if err != nil {
		if status.Code(err) == codes.Aborted {
			return nil, fmt.Errorf("applying feedback to session '%s': %w", sessionID, ErrConflict)
		}
		return nil, err
	}
	return &updated, nil
}

// RemoveFeedback clears the session's feedback field and reverses its effect
// on the mentor aggregate in one transaction. The review count is floored at
// zero and the rating resets to zero when no feedback remains.
func (r *firestoreSessionRepository) RemoveFeedback(ctx context.Context, sessionID, mentorID string, ratingToRemove int) error {
	sessionRef := r.client.Collection(sessionsCollection).Doc(sessionID)
	mentorRef := r.client.Collection(usersCollection).Doc(mentorID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		mentorSnap, err := tx.Get(mentorRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("mentor '%s': %w", mentorID, ErrNotFound)
			}
			return err
		}

		var mentor models.Mentor
		if err := mentorSnap.DataTo(&mentor); err != nil {
			return fmt.Errorf("failed to decode mentor '%s': %w", mentorID, err)
		}
		mentor.RemoveFeedback(ratingToRemove)

		if err := tx.Update(mentorRef, []firestore.Update{
			{Path: "rating", Value: mentor.Rating},
			{Path: "reviews", Value: mentor.Reviews},
		}); err != nil {
			return err
		}
		return tx.Update(sessionRef, []firestore.Update{
			{Path: "feedback", Value: firestore.Delete},
		})
	})
	if err != nil {
		if status.Code(err) == codes.Aborted {
			return fmt.Errorf("removing feedback from session '%s': %w", sessionID, ErrConflict)
		}
		return err
	}
	return nil
}

// CompleteBatch marks the given sessions completed in one batched write.
func (r *firestoreSessionRepository) CompleteBatch(ctx context.Context, sessionIDs []string) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	bw := r.client.BulkWriter(ctx)
	for _, id := range sessionIDs {
		ref := r.client.Collection(sessionsCollection).Doc(id)
		if _, err := bw.Update(ref, []firestore.Update{
			{Path: "status", Value: string(models.SessionCompleted)},
		}); err != nil {
			return fmt.Errorf("failed to enqueue completion for session '%s': %w", id, err)
		}
	}
	bw.End()
	return nil
}

// SetSummary attaches the generated summary to a session.
func (r *firestoreSessionRepository) SetSummary(ctx context.Context, sessionID, summary string) error {
	_, err := r.client.Collection(sessionsCollection).Doc(sessionID).Update(ctx, []firestore.Update{
		{Path: "summary", Value: summary},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("session with ID '%s' not found: %w", sessionID, ErrNotFound)
		}
		return fmt.Errorf("failed to set summary for session '%s': %w", sessionID, err)
	}
	return nil
}
