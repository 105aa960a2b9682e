package core

import (
	"context"
	"errors"
	"testing"

	"mentorly-backend-go/internal/models"
)

func TestSuggestMentorsFiltersRoster(t *testing.T) {
	users := newFakeUserRepo()
	seedMentor(users, "mentor-1", "Maya", models.Availability{})
	seedMentor(users, "mentor-2", "Omar", models.Availability{})
	assistant := &fakeAssistant{suggestions: []models.MentorSuggestion{
		{MentorID: "mentor-2", Reason: "teaches Go"},
		{MentorID: "made-up", Reason: "hallucinated"},
		{MentorID: "mentor-1", Reason: "also teaches Go"},
	}}
	svc := NewRecommendationService(users, assistant)

	got, err := svc.SuggestMentors(context.Background(), models.SuggestMentorsRequest{Goals: "learn Go"})
	if err != nil {
		t.Fatalf("SuggestMentors: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("suggestions = %+v, want the two real mentors", got)
	}
	if got[0].MentorID != "mentor-2" || got[1].MentorID != "mentor-1" {
		t.Errorf("suggestions = %+v, want hallucinated id dropped and order kept", got)
	}
}

func TestSuggestMentorsCapsAtThree(t *testing.T) {
	users := newFakeUserRepo()
	assistant := &fakeAssistant{}
	for _, id := range []string{"m1", "m2", "m3", "m4"} {
		seedMentor(users, id, "Mentor "+id, models.Availability{})
		assistant.suggestions = append(assistant.suggestions, models.MentorSuggestion{MentorID: id})
	}
	svc := NewRecommendationService(users, assistant)

	got, err := svc.SuggestMentors(context.Background(), models.SuggestMentorsRequest{Goals: "learn Go"})
	if err != nil {
		t.Fatalf("SuggestMentors: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("suggestions = %d, want capped at 3", len(got))
	}
}

func TestSuggestMentorsEmptyRoster(t *testing.T) {
	assistant := &fakeAssistant{err: errors.New("should not be called")}
	svc := NewRecommendationService(newFakeUserRepo(), assistant)

	got, err := svc.SuggestMentors(context.Background(), models.SuggestMentorsRequest{Goals: "learn Go"})
	if err != nil {
		t.Fatalf("SuggestMentors: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("suggestions = %+v, want none without mentors", got)
	}
}

func TestSuggestMentorsAssistantFailure(t *testing.T) {
	users := newFakeUserRepo()
	seedMentor(users, "mentor-1", "Maya", models.Availability{})

	svc := NewRecommendationService(users, &fakeAssistant{err: errors.New("model overloaded")})
	if _, err := svc.SuggestMentors(context.Background(), models.SuggestMentorsRequest{Goals: "learn Go"}); !errors.Is(err, ErrRemoteService) {
		t.Errorf("err = %v, want ErrRemoteService", err)
	}

	svc = NewRecommendationService(users, nil)
	if _, err := svc.SuggestMentors(context.Background(), models.SuggestMentorsRequest{Goals: "learn Go"}); !errors.Is(err, ErrRemoteService) {
		t.Errorf("nil assistant err = %v, want ErrRemoteService", err)
	}
}

func TestTeachingTips(t *testing.T) {
	users := newFakeUserRepo()
	seedMentor(users, "mentor-1", "Maya", models.Availability{})
	svc := NewRecommendationService(users, &fakeAssistant{tips: []string{"Open with a question."}})

	tips, err := svc.TeachingTips(context.Background(), "mentor-1")
	if err != nil {
		t.Fatalf("TeachingTips: %v", err)
	}
	if len(tips) != 1 || tips[0] != "Open with a question." {
		t.Errorf("tips = %v, want the canned tip", tips)
	}

	if _, err := svc.TeachingTips(context.Background(), "ghost"); !errors.Is(err, ErrMentorNotFound) {
		t.Errorf("unknown mentor err = %v, want ErrMentorNotFound", err)
	}
}
