package models

import "time"

// UserRole distinguishes the three account types in the marketplace.
type UserRole string

const (
	RoleLearner UserRole = "learner"
	RoleMentor  UserRole = "mentor"
	RoleAdmin   UserRole = "admin"
)

// User represents an identity record in the `users` collection.
// The document ID is the Firebase Auth UID.
type User struct {
	ID        string    `json:"id" firestore:"-"`
	Name      string    `json:"name" firestore:"name"`
	Email     string    `json:"email" firestore:"email"`
	Role      UserRole  `json:"role" firestore:"role"`
	AvatarURL string    `json:"avatarUrl,omitempty" firestore:"avatarUrl,omitempty"`
	Bio       string    `json:"bio,omitempty" firestore:"bio,omitempty"`
	Skills    []string  `json:"skills,omitempty" firestore:"skills,omitempty"`
	Interests []string  `json:"interests,omitempty" firestore:"interests,omitempty"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// Mentor is a user with role "mentor" plus the denormalized rating aggregate
// and the published availability. Stored in the same `users` document.
type Mentor struct {
	User
	Rating       float64      `json:"rating" firestore:"rating"`
	Reviews      int          `json:"reviews" firestore:"reviews"`
	Availability Availability `json:"availability" firestore:"availability"`
	Subjects     []string     `json:"subjects" firestore:"subjects"`
	IsApproved   bool         `json:"isApproved" firestore:"isApproved"`
	PortfolioURL string       `json:"portfolioUrl,omitempty" firestore:"portfolioUrl,omitempty"`
}

// ApplyFeedback folds one new feedback rating into the running mean.
// No rounding is applied; display layers round for presentation only.
func (m *Mentor) ApplyFeedback(rating int) {
	newReviews := m.Reviews + 1
	m.Rating = (m.Rating*float64(m.Reviews) + float64(rating)) / float64(newReviews)
	m.Reviews = newReviews
}

// RemoveFeedback is the inverse of ApplyFeedback. The review count is floored
// at zero and the rating resets to zero when no feedback remains, so a stray
// removal can never produce a negative count or a divide by zero.
func (m *Mentor) RemoveFeedback(rating int) {
	if m.Reviews <= 1 {
		m.Rating = 0
		m.Reviews = 0
		return
	}
	total := m.Rating * float64(m.Reviews)
	m.Reviews--
	m.Rating = (total - float64(rating)) / float64(m.Reviews)
}

// Availability maps a calendar date ("2006-01-02") to the open time slots
// ("15:04") a mentor has published for that day. Slot order is irrelevant.
type Availability map[string][]string

// HasSlot reports whether the given time is currently listed for the date.
func (a Availability) HasSlot(date, slot string) bool {
	for _, t := range a[date] {
		if t == slot {
			return true
		}
	}
	return false
}

// RemoveSlot deletes one slot from a date's listing and reports whether it
// was present. The date key is removed entirely once its slot list empties.
func (a Availability) RemoveSlot(date, slot string) bool {
	slots, ok := a[date]
	if !ok {
		return false
	}
	kept := slots[:0]
	removed := false
	for _, t := range slots {
		if t == slot && !removed {
			removed = true
			continue
		}
		kept = append(kept, t)
	}
	if !removed {
		return false
	}
	if len(kept) == 0 {
		delete(a, date)
	} else {
		a[date] = kept
	}
	return true
}
