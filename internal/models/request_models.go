package models

// CreateProfileRequest is sent after client-side Firebase sign-up to create
// the backend profile for the authenticated user.
type CreateProfileRequest struct {
	Name string   `json:"name" binding:"required,min=2"`
	Role UserRole `json:"role" binding:"required,oneof=learner mentor"`
}

// UpdateProfileRequest updates profile fields. Pointers distinguish "not
// provided" from "clear this value". Skills, interests and subjects accept
// either a JSON list or a single comma-separated string.
type UpdateProfileRequest struct {
	Name         *string       `json:"name,omitempty"`
	Bio          *string       `json:"bio,omitempty"`
	Skills       *StringList   `json:"skills,omitempty"`
	Interests    *StringList   `json:"interests,omitempty"`
	Subjects     *StringList   `json:"subjects,omitempty"`
	Availability *Availability `json:"availability,omitempty"`
	PortfolioURL *string       `json:"portfolioUrl,omitempty"`
}

// CreateSessionRequest is a learner's request for a mentor's time slot.
type CreateSessionRequest struct {
	MentorID string `json:"mentorId" binding:"required"`
	Date     string `json:"date" binding:"required"`
	Time     string `json:"time" binding:"required"`
}

// ResolveSessionRequest is a mentor's decision on a pending session.
type ResolveSessionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=accept decline"`
	Date     string `json:"date" binding:"required"`
	Time     string `json:"time" binding:"required"`
}

// FeedbackRequest attaches a learner's rating to a session.
type FeedbackRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty"`
}

// SuggestMentorsRequest asks the recommendation flow for mentor matches.
type SuggestMentorsRequest struct {
	Goals     string   `json:"goals" binding:"required"`
	Interests []string `json:"interests"`
}
