package models

import "time"

// SessionStatus is the lifecycle state of a mentoring session request.
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionUpcoming  SessionStatus = "upcoming"
	SessionCancelled SessionStatus = "cancelled"
	SessionCompleted SessionStatus = "completed"
)

// Feedback is a learner's rating of a completed session.
type Feedback struct {
	Rating  int    `json:"rating" firestore:"rating"`
	Comment string `json:"comment,omitempty" firestore:"comment,omitempty"`
}

// Session represents one requested or booked mentoring engagement.
//
// Lifecycle: pending --accept--> upcoming --time elapsed--> completed,
// pending --decline--> cancelled. Cancelled and completed are terminal;
// feedback mutation never changes status.
type Session struct {
	ID        string        `json:"id" firestore:"-"`
	MentorID  string        `json:"mentorId" firestore:"mentorId"`
	LearnerID string        `json:"learnerId" firestore:"learnerId"`
	Date      string        `json:"date" firestore:"date"` // "2006-01-02"
	Time      string        `json:"time" firestore:"time"` // "15:04"
	Status    SessionStatus `json:"status" firestore:"status"`
	Feedback  *Feedback     `json:"feedback,omitempty" firestore:"feedback,omitempty"`
	Summary   string        `json:"summary,omitempty" firestore:"summary,omitempty"`
	Keywords  string        `json:"keywords,omitempty" firestore:"keywords,omitempty"`
	CreatedAt time.Time     `json:"createdAt" firestore:"createdAt,serverTimestamp"`
}

const (
	dateLayout = "2006-01-02"
	slotLayout = "15:04"
)

// ValidDate reports whether s is a well-formed calendar date string.
func ValidDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// ValidSlot reports whether s is a well-formed time-slot string.
func ValidSlot(s string) bool {
	_, err := time.Parse(slotLayout, s)
	return err == nil
}

// ScheduledAt combines the session's date and slot into a single timestamp
// in the given location. Malformed sessions report the zero time.
func (s *Session) ScheduledAt(loc *time.Location) time.Time {
	t, err := time.ParseInLocation(dateLayout+" "+slotLayout, s.Date+" "+s.Time, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// DueBefore reports whether an upcoming session's scheduled slot has passed.
// Only upcoming sessions can become due; every other status is ignored by
// the completion sweep.
func (s *Session) DueBefore(now time.Time) bool {
	if s.Status != SessionUpcoming {
		return false
	}
	at := s.ScheduledAt(now.Location())
	return !at.IsZero() && at.Before(now)
}
