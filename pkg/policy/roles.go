package policy

import (
	"time"

	"clubhub-backend/pkg/models"
)

// CanEdit decides whether actor may modify a record owned by ownerID that was
// created at createdAt. Admins may always edit; everyone else only their own
// records, and only inside the edit window.
func CanEdit(actor *models.User, ownerID string, createdAt time.Time, now time.Time) bool {
	if actor == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	return actor.ID == ownerID && IsEditable(createdAt, now)
}

// CanDelete mirrors CanEdit; deletion is gated by the same window.
func CanDelete(actor *models.User, ownerID string, createdAt time.Time, now time.Time) bool {
	return CanEdit(actor, ownerID, createdAt, now)
}

// RequestScope describes which event requests an actor may see.
// Admins see every request; members only their own.
type RequestScope struct {
	All         bool
	SubmitterID string
}

// RequestsVisibleTo returns the request scope for an actor.
func RequestsVisibleTo(actor *models.User) RequestScope {
	if actor.IsAdmin() {
		return RequestScope{All: true}
	}
	return RequestScope{SubmitterID: actor.ID}
}

// EventScope describes which calendar events an actor may see.
// restrictPublic 为 false 时（单租户部署）成员可以看到全部事件。
type EventScope struct {
	All        bool
	PublicOnly bool
}

// EventsVisibleTo returns the event scope for an actor under the deployment's
// visibility setting.
func EventsVisibleTo(actor *models.User, restrictPublic bool) EventScope {
	if actor.IsAdmin() || !restrictPublic {
		return EventScope{All: true}
	}
	return EventScope{PublicOnly: true}
}

// EventVisible applies an EventScope to a single event.
func EventVisible(scope EventScope, event *models.CalendarEvent) bool {
	if scope.All {
		return true
	}
	return event.IsPublic
}
