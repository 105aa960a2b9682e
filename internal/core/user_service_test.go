package core

import (
	"context"
	"errors"
	"testing"

	"mentorly-backend-go/internal/models"
)

func strPtr(s string) *string { return &s }

func TestGetOrCreateFirstSignIn(t *testing.T) {
	users := newFakeUserRepo()
	notifications := &fakeNotificationRepo{}
	svc := NewUserService(users, NewNotificationService(notifications), nil)

	user, created, err := svc.GetOrCreate(context.Background(), "uid-1", "liam@example.com", "Liam", models.RoleLearner)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if !created {
		t.Error("created = false, want true on first sign-in")
	}
	if user.Role != models.RoleLearner || user.Email != "liam@example.com" {
		t.Errorf("profile = %+v, want learner with the token email", user)
	}

	_, created, err = svc.GetOrCreate(context.Background(), "uid-1", "liam@example.com", "Liam", models.RoleLearner)
	if err != nil {
		t.Fatalf("second GetOrCreate: %v", err)
	}
	if created {
		t.Error("created = true on repeat sign-in, want false")
	}
}

func TestGetOrCreateMentorDefaults(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewUserService(users, nil, nil)

	if _, _, err := svc.GetOrCreate(context.Background(), "uid-2", "maya@example.com", "Maya", models.RoleMentor); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	mentor, err := svc.GetMentor(context.Background(), "uid-2")
	if err != nil {
		t.Fatalf("GetMentor: %v", err)
	}
	if mentor.IsApproved {
		t.Error("new mentors must start unapproved")
	}
	if mentor.Rating != 0 || mentor.Reviews != 0 {
		t.Errorf("aggregate = %.1f/%d, want 0/0", mentor.Rating, mentor.Reviews)
	}
	if mentor.Availability == nil || len(mentor.Availability) != 0 {
		t.Errorf("availability = %v, want empty map", mentor.Availability)
	}
}

func TestGetOrCreateRejectsUnknownRole(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), nil, nil)
	if _, _, err := svc.GetOrCreate(context.Background(), "uid-3", "x@example.com", "X", "admin"); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation for self-assigned admin role", err)
	}
}

func TestUpdateProfileValidation(t *testing.T) {
	users := newFakeUserRepo()
	seedLearner(users, "uid-1", "Liam")
	svc := NewUserService(users, nil, nil)

	tests := []struct {
		name string
		req  models.UpdateProfileRequest
	}{
		{"short name", models.UpdateProfileRequest{Name: strPtr("L")}},
		{"bad portfolio scheme", models.UpdateProfileRequest{PortfolioURL: strPtr("ftp://example.com")}},
		{"portfolio without host", models.UpdateProfileRequest{PortfolioURL: strPtr("https://")}},
		{"bad availability date", models.UpdateProfileRequest{Availability: &models.Availability{"10-01-2025": {"10:00"}}}},
		{"bad availability slot", models.UpdateProfileRequest{Availability: &models.Availability{"2025-01-10": {"10am"}}}},
		{"empty update", models.UpdateProfileRequest{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.UpdateProfile(context.Background(), "uid-1", tt.req); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestUpdateProfileAppliesFields(t *testing.T) {
	users := newFakeUserRepo()
	seedMentor(users, "mentor-1", "Maya", models.Availability{})
	svc := NewUserService(users, nil, nil)

	err := svc.UpdateProfile(context.Background(), "mentor-1", models.UpdateProfileRequest{
		Name:         strPtr("Maya R."),
		Bio:          strPtr("Backend mentor."),
		Availability: &models.Availability{"2025-01-10": {"10:00", "11:00"}},
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	mentor, _ := users.GetMentorByID(context.Background(), "mentor-1")
	if mentor.Name != "Maya R." || mentor.Bio != "Backend mentor." {
		t.Errorf("profile = %+v, want updated name and bio", mentor.User)
	}
	if !mentor.Availability.HasSlot("2025-01-10", "11:00") {
		t.Errorf("availability = %v, want the published slots", mentor.Availability)
	}

	if err := svc.UpdateProfile(context.Background(), "ghost", models.UpdateProfileRequest{Name: strPtr("Ghost")}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user err = %v, want ErrUserNotFound", err)
	}
}

func TestListMentorsReadsThroughCache(t *testing.T) {
	users := newFakeUserRepo()
	seedMentor(users, "mentor-1", "Maya", models.Availability{})
	cache := newFakeMentorCache()
	svc := NewUserService(users, nil, cache)

	first, err := svc.ListMentors(context.Background(), true)
	if err != nil {
		t.Fatalf("ListMentors: %v", err)
	}
	if len(first) != 1 || cache.hits != 0 {
		t.Fatalf("first listing = %d mentors with %d cache hits, want 1 and 0", len(first), cache.hits)
	}

	second, err := svc.ListMentors(context.Background(), true)
	if err != nil {
		t.Fatalf("ListMentors (cached): %v", err)
	}
	if len(second) != 1 || cache.hits != 1 {
		t.Errorf("second listing = %d mentors with %d cache hits, want 1 and 1", len(second), cache.hits)
	}

	// Approval changes must not serve stale rosters.
	if err := svc.SetMentorApproval(context.Background(), "mentor-1", false); err != nil {
		t.Fatalf("SetMentorApproval: %v", err)
	}
	if cache.invalidated == 0 {
		t.Error("approval change did not invalidate the mentor cache")
	}
	third, err := svc.ListMentors(context.Background(), true)
	if err != nil {
		t.Fatalf("ListMentors (post-invalidate): %v", err)
	}
	if len(third) != 0 {
		t.Errorf("approved roster after revocation = %d mentors, want 0", len(third))
	}
}

func TestSetMentorApprovalNotifies(t *testing.T) {
	users := newFakeUserRepo()
	seedMentor(users, "mentor-1", "Maya", models.Availability{})
	notifications := &fakeNotificationRepo{}
	svc := NewUserService(users, NewNotificationService(notifications), nil)

	if err := svc.SetMentorApproval(context.Background(), "mentor-1", true); err != nil {
		t.Fatalf("SetMentorApproval: %v", err)
	}
	if msgs := notifications.messagesFor("mentor-1"); len(msgs) != 1 {
		t.Errorf("approval notifications = %v, want exactly one", msgs)
	}

	if err := svc.SetMentorApproval(context.Background(), "mentor-1", false); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if msgs := notifications.messagesFor("mentor-1"); len(msgs) != 1 {
		t.Errorf("revocation must not notify, got %v", msgs)
	}

	if err := svc.SetMentorApproval(context.Background(), "ghost", true); !errors.Is(err, ErrMentorNotFound) {
		t.Errorf("unknown mentor err = %v, want ErrMentorNotFound", err)
	}
}
