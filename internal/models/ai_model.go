package models

// MentorSuggestion pairs a recommended mentor with the reason the assistant
// gave for the match.
type MentorSuggestion struct {
	MentorID string `json:"mentorId"`
	Reason   string `json:"reason"`
}
