package policy

import (
	"testing"
	"time"

	"clubhub-backend/pkg/models"
)

var (
	admin  = &models.User{ID: "admin-1", Role: models.RoleAdmin}
	member = &models.User{ID: "user-1", Role: models.RoleUser}
	other  = &models.User{ID: "user-2", Role: models.RoleUser}
)

func TestCanEdit(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	fresh := now.Add(-1 * time.Hour)
	stale := now.Add(-25 * time.Hour)

	tests := []struct {
		name      string
		actor     *models.User
		ownerID   string
		createdAt time.Time
		want      bool
	}{
		{"admin edits anything, any age", admin, "user-1", stale, true},
		{"author inside window", member, "user-1", fresh, true},
		{"author outside window", member, "user-1", stale, false},
		{"non-author inside window", other, "user-1", fresh, false},
		{"nil actor", nil, "user-1", fresh, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanEdit(tt.actor, tt.ownerID, tt.createdAt, now); got != tt.want {
				t.Errorf("CanEdit() = %v, want %v", got, tt.want)
			}
			if got := CanDelete(tt.actor, tt.ownerID, tt.createdAt, now); got != tt.want {
				t.Errorf("CanDelete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequestsVisibleTo(t *testing.T) {
	if scope := RequestsVisibleTo(admin); !scope.All {
		t.Error("admin should see all requests")
	}

	scope := RequestsVisibleTo(member)
	if scope.All {
		t.Error("member should not see all requests")
	}
	if scope.SubmitterID != member.ID {
		t.Errorf("member scope submitter = %q, want %q", scope.SubmitterID, member.ID)
	}

	// Two distinct members never share a scope.
	if RequestsVisibleTo(member).SubmitterID == RequestsVisibleTo(other).SubmitterID {
		t.Error("distinct members must have distinct request scopes")
	}
}

func TestEventsVisibleTo(t *testing.T) {
	publicEvent := &models.CalendarEvent{ID: "e1", IsPublic: true}
	privateEvent := &models.CalendarEvent{ID: "e2", IsPublic: false}

	// Admin sees everything regardless of the deployment setting.
	scope := EventsVisibleTo(admin, true)
	if !EventVisible(scope, privateEvent) {
		t.Error("admin should see private events")
	}

	// Member under restricted visibility sees public only.
	scope = EventsVisibleTo(member, true)
	if !EventVisible(scope, publicEvent) {
		t.Error("member should see public events")
	}
	if EventVisible(scope, privateEvent) {
		t.Error("member should not see private events under restricted visibility")
	}

	// Single-tenant deployment: everyone sees everything.
	scope = EventsVisibleTo(member, false)
	if !EventVisible(scope, privateEvent) {
		t.Error("member should see all events when visibility is unrestricted")
	}
}
