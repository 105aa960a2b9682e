package models

import (
	"testing"
	"time"
)

func TestDueBefore(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		session Session
		want    bool
	}{
		{"upcoming in the past", Session{Status: SessionUpcoming, Date: "2025-01-10", Time: "10:00"}, true},
		{"upcoming in the future", Session{Status: SessionUpcoming, Date: "2025-01-10", Time: "14:00"}, false},
		{"pending is never due", Session{Status: SessionPending, Date: "2025-01-09", Time: "10:00"}, false},
		{"completed is never due", Session{Status: SessionCompleted, Date: "2025-01-09", Time: "10:00"}, false},
		{"cancelled is never due", Session{Status: SessionCancelled, Date: "2025-01-09", Time: "10:00"}, false},
		{"malformed date ignored", Session{Status: SessionUpcoming, Date: "someday", Time: "10:00"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.session.DueBefore(now); got != tt.want {
				t.Fatalf("DueBefore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidDateAndSlot(t *testing.T) {
	if !ValidDate("2025-01-10") || ValidDate("10-01-2025") || ValidDate("") {
		t.Error("ValidDate misclassified input")
	}
	if !ValidSlot("09:30") || ValidSlot("9:3") || ValidSlot("25:00") {
		t.Error("ValidSlot misclassified input")
	}
}
