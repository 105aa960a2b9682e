package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"

	"mentorly-backend-go/internal/db"
	"mentorly-backend-go/internal/models"
)

// Custom errors for the UserService
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrMentorNotFound = errors.New("mentor not found")
	ErrValidation     = errors.New("invalid request data")
)

// Cache keys for the mentor listing.
const (
	mentorsAllKey      = "mentors:all"
	mentorsApprovedKey = "mentors:approved"
)

// userService implements the UserService interface.
type userService struct {
	userRepo        db.UserRepository
	notificationSvc NotificationService
	mentorCache     MentorCache
}

// NewUserService creates a new UserService instance.
func NewUserService(ur db.UserRepository, ns NotificationService, mc MentorCache) UserService {
	return &userService{
		userRepo:        ur,
		notificationSvc: ns,
		mentorCache:     mc,
	}
}

// GetOrCreate retrieves the profile for an authenticated user, creating it
// with defaults on first sign-in. Mentor profiles start unapproved with an
// empty availability and a zero rating aggregate.
func (s *userService) GetOrCreate(ctx context.Context, userID, email, name string, role models.UserRole) (*models.User, bool, error) {
	if s.userRepo == nil {
		return nil, false, errors.New("userService: userRepo not initialized")
	}

	existing, err := s.userRepo.GetByID(ctx, userID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up user '%s': %w", userID, err)
	}

	if role != models.RoleLearner && role != models.RoleMentor {
		return nil, false, fmt.Errorf("%w: role must be learner or mentor, got '%s'", ErrValidation, role)
	}

	base := models.User{
		Name:  name,
		Email: email,
		Role:  role,
	}
	var profile interface{} = &base
	if role == models.RoleMentor {
		profile = &models.Mentor{
			User:         base,
			Rating:       0,
			Reviews:      0,
			Availability: models.Availability{},
			Subjects:     []string{},
			IsApproved:   false,
		}
	}

	if err := s.userRepo.CreateProfile(ctx, userID, profile); err != nil {
		return nil, false, fmt.Errorf("failed to create profile for user '%s': %w", userID, err)
	}

	created, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read back created profile '%s': %w", userID, err)
	}
	return created, true, nil
}

// GetByID retrieves a user profile.
func (s *userService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user '%s': %w", userID, err)
	}
	return user, nil
}

// GetMentor retrieves a mentor profile, including the rating aggregate and
// availability.
func (s *userService) GetMentor(ctx context.Context, mentorID string) (*models.Mentor, error) {
	mentor, err := s.userRepo.GetMentorByID(ctx, mentorID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrMentorNotFound
		}
		return nil, fmt.Errorf("failed to get mentor '%s': %w", mentorID, err)
	}
	return mentor, nil
}

// UpdateProfile applies a partial profile update. Only provided fields are
// written; list fields may arrive as comma-separated strings and are already
// normalized by the request model.
func (s *userService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) error {
	fields := make(map[string]interface{})

	if req.Name != nil {
		if len(*req.Name) < 2 {
			return fmt.Errorf("%w: name must be at least 2 characters", ErrValidation)
		}
		fields["name"] = *req.Name
	}
	if req.Bio != nil {
		fields["bio"] = *req.Bio
	}
	if req.Skills != nil {
		fields["skills"] = []string(*req.Skills)
	}
	if req.Interests != nil {
		fields["interests"] = []string(*req.Interests)
	}
	if req.Subjects != nil {
		fields["subjects"] = []string(*req.Subjects)
	}
	if req.PortfolioURL != nil {
		if *req.PortfolioURL != "" {
			u, err := url.Parse(*req.PortfolioURL)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return fmt.Errorf("%w: portfolioUrl must be an http(s) URL", ErrValidation)
			}
		}
		fields["portfolioUrl"] = *req.PortfolioURL
	}
	if req.Availability != nil {
		for date, slots := range *req.Availability {
			if !models.ValidDate(date) {
				return fmt.Errorf("%w: invalid availability date '%s'", ErrValidation, date)
			}
			for _, slot := range slots {
				if !models.ValidSlot(slot) {
					return fmt.Errorf("%w: invalid availability slot '%s' on '%s'", ErrValidation, slot, date)
				}
			}
		}
		fields["availability"] = *req.Availability
	}

	if len(fields) == 0 {
		return fmt.Errorf("%w: no fields to update", ErrValidation)
	}

	if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update profile '%s': %w", userID, err)
	}

	s.invalidateMentorCache(ctx)
	return nil
}

// ListMentors returns the mentor roster, read through the cache when one is
// configured.
func (s *userService) ListMentors(ctx context.Context, approvedOnly bool) ([]*models.Mentor, error) {
	key := mentorsAllKey
	if approvedOnly {
		key = mentorsApprovedKey
	}
	if s.mentorCache != nil {
		if mentors, ok := s.mentorCache.Get(ctx, key); ok {
			return mentors, nil
		}
	}

	mentors, err := s.userRepo.ListMentors(ctx, approvedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list mentors: %w", err)
	}

	if s.mentorCache != nil {
		s.mentorCache.Set(ctx, key, mentors)
	}
	return mentors, nil
}

// SetMentorApproval toggles a mentor's approval and notifies the mentor when
// the profile goes live.
func (s *userService) SetMentorApproval(ctx context.Context, mentorID string, approved bool) error {
	if _, err := s.userRepo.GetMentorByID(ctx, mentorID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrMentorNotFound
		}
		return fmt.Errorf("failed to get mentor '%s' for approval: %w", mentorID, err)
	}

	if err := s.userRepo.SetApproval(ctx, mentorID, approved); err != nil {
		return fmt.Errorf("failed to set approval for mentor '%s': %w", mentorID, err)
	}
	s.invalidateMentorCache(ctx)

	if approved && s.notificationSvc != nil {
		msg := "Your mentor profile has been approved. Learners can now book sessions with you."
		if err := s.notificationSvc.Notify(ctx, mentorID, msg, "/dashboard"); err != nil {
			log.Printf("Warning: failed to notify mentor '%s' about approval: %v", mentorID, err)
		}
	}
	return nil
}

func (s *userService) invalidateMentorCache(ctx context.Context) {
	if s.mentorCache != nil {
		s.mentorCache.Invalidate(ctx)
	}
}
