package lifecycle

import (
	"testing"

	"clubhub-backend/pkg/models"
)

func TestDeriveEvent(t *testing.T) {
	req := &models.EventRequest{
		ID:             "req-1",
		EventName:      "Spring Hackathon",
		Date:           "2025-04-12",
		Time:           "14:00",
		Location:       "Main Hall",
		Purpose:        "24-hour coding sprint for all members",
		BudgetEstimate: 350.50,
		IsPublic:       true,
		Category:       "Technology",
		SubmitterID:    "user-1",
		SubmitterName:  "Ada",
		SubmitterEmail: "ada@club.test",
		Status:         models.RequestPending,
	}

	event := deriveEvent(req, "admin-1")

	if event.Title != req.EventName {
		t.Errorf("title = %q, want %q", event.Title, req.EventName)
	}
	if event.Date != req.Date {
		t.Errorf("date = %q, want %q", event.Date, req.Date)
	}
	if event.StartTime != "14:00" || event.EndTime != "16:00" {
		t.Errorf("times = %q-%q, want 14:00-16:00", event.StartTime, event.EndTime)
	}
	if event.Description != req.Purpose {
		t.Errorf("description = %q, want purpose text", event.Description)
	}
	if event.Budget != req.BudgetEstimate {
		t.Errorf("budget = %v, want %v", event.Budget, req.BudgetEstimate)
	}
	if event.Origin != models.OriginUserApproved {
		t.Errorf("origin = %q, want %q", event.Origin, models.OriginUserApproved)
	}
	if event.Color != models.ColorUserApproved {
		t.Errorf("color = %q, want %q", event.Color, models.ColorUserApproved)
	}
	if event.RequestID == nil || *event.RequestID != req.ID {
		t.Errorf("request id not carried over: %v", event.RequestID)
	}
	if event.CreatedBy != "user-1" || event.ApprovedBy != "admin-1" {
		t.Errorf("attribution = created_by %q approved_by %q", event.CreatedBy, event.ApprovedBy)
	}
	if event.OrganizerName != "Ada" || event.OrganizerEmail != "ada@club.test" {
		t.Errorf("organizer = %q <%q>", event.OrganizerName, event.OrganizerEmail)
	}
	if event.Status != EventStatusActive {
		t.Errorf("status = %q, want %q", event.Status, EventStatusActive)
	}
}

func TestDeriveEndTime(t *testing.T) {
	tests := []struct {
		start string
		want  string
	}{
		{"09:00", "11:00"},
		{"23:30", "01:30"}, // wraps past midnight
		{"", ""},
		{"not-a-time", ""},
	}

	for _, tt := range tests {
		if got := deriveEndTime(tt.start); got != tt.want {
			t.Errorf("deriveEndTime(%q) = %q, want %q", tt.start, got, tt.want)
		}
	}
}
