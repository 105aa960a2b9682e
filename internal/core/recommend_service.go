package core

import (
	"context"
	"errors"
	"fmt"

	"mentorly-backend-go/internal/db"
	"mentorly-backend-go/internal/models"
)

// ErrRemoteService indicates the language-model backend failed after retries.
var ErrRemoteService = errors.New("assistant service unavailable")

const maxSuggestions = 3

// recommendationService implements the RecommendationService interface.
type recommendationService struct {
	userRepo  db.UserRepository
	assistant Assistant
}

// NewRecommendationService creates a new RecommendationService instance.
func NewRecommendationService(ur db.UserRepository, assistant Assistant) RecommendationService {
	return &recommendationService{
		userRepo:  ur,
		assistant: assistant,
	}
}

// SuggestMentors asks the assistant to match the learner's goals against the
// approved mentor roster. Suggestions naming a mentor that is not actually in
// the roster are dropped rather than surfaced, and at most three survive.
func (s *recommendationService) SuggestMentors(ctx context.Context, req models.SuggestMentorsRequest) ([]models.MentorSuggestion, error) {
	if s.assistant == nil {
		return nil, ErrRemoteService
	}

	mentors, err := s.userRepo.ListMentors(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list mentors for suggestions: %w", err)
	}
	if len(mentors) == 0 {
		return []models.MentorSuggestion{}, nil
	}

	suggestions, err := s.assistant.SuggestMentors(ctx, req.Goals, req.Interests, mentors)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteService, err)
	}

	roster := make(map[string]bool, len(mentors))
	for _, m := range mentors {
		roster[m.ID] = true
	}
	valid := make([]models.MentorSuggestion, 0, maxSuggestions)
	for _, sg := range suggestions {
		if !roster[sg.MentorID] {
			continue
		}
		valid = append(valid, sg)
		if len(valid) == maxSuggestions {
			break
		}
	}
	return valid, nil
}

// TeachingTips generates short coaching tips from the mentor's subjects.
func (s *recommendationService) TeachingTips(ctx context.Context, mentorID string) ([]string, error) {
	if s.assistant == nil {
		return nil, ErrRemoteService
	}

	mentor, err := s.userRepo.GetMentorByID(ctx, mentorID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrMentorNotFound
		}
		return nil, fmt.Errorf("failed to get mentor '%s' for teaching tips: %w", mentorID, err)
	}

	tips, err := s.assistant.TeachingTips(ctx, mentor.Subjects)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteService, err)
	}
	return tips, nil
}
