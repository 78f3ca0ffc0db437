package models

import "time"

// EventOrigin 日历事件的来源标记
type EventOrigin string

const (
	OriginUserApproved EventOrigin = "user_approved" // materialized from an approved request
	OriginAdminCreated EventOrigin = "admin_created" // created directly by an admin
)

// Display colors keyed by origin; the calendar UI renders approved-request
// events and admin-created events in distinct colors.
const (
	ColorUserApproved = "#10B981"
	ColorAdminCreated = "#3B82F6"
)

// ColorForOrigin returns the fixed display color for an origin tag.
func ColorForOrigin(origin EventOrigin) string {
	if origin == OriginUserApproved {
		return ColorUserApproved
	}
	return ColorAdminCreated
}

// Participant is one registered attendee on a calendar event, unique by user id
type Participant struct {
	UserID string `json:"user_id" db:"user_id"`
	Name   string `json:"name" db:"name"`
	Email  string `json:"email" db:"email"`
}

// CalendarEvent is a confirmed, schedulable event shown to members
type CalendarEvent struct {
	ID             string        `json:"id" db:"id"`
	Title          string        `json:"title" db:"title"`
	Date           string        `json:"date" db:"date"` // YYYY-MM-DD
	StartTime      string        `json:"start_time,omitempty" db:"start_time"`
	EndTime        string        `json:"end_time,omitempty" db:"end_time"`
	Location       string        `json:"location,omitempty" db:"location"`
	Description    string        `json:"description,omitempty" db:"description"`
	Budget         float64       `json:"budget" db:"budget"`
	Category       string        `json:"category" db:"category"`
	Participants   int           `json:"participants" db:"participants"` // expected head count
	IsPublic       bool          `json:"is_public" db:"is_public"`
	Origin         EventOrigin   `json:"origin" db:"origin"`
	CreatedBy      string        `json:"created_by" db:"created_by"`
	ApprovedBy     string        `json:"approved_by,omitempty" db:"approved_by"`
	RequestID      *string       `json:"request_id,omitempty" db:"request_id"` // nil for admin-direct events
	OrganizerName  string        `json:"organizer_name,omitempty" db:"organizer_name"`
	OrganizerEmail string        `json:"organizer_email,omitempty" db:"organizer_email"`
	Status         string        `json:"status" db:"status"` // free-form: active, cancelled, ...
	Color          string        `json:"color" db:"color"`
	Registered     []Participant `json:"registered,omitempty" db:"-"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// CreateEventPayload represents the request payload for admin-direct event creation
type CreateEventPayload struct {
	Title        string   `json:"title"`
	Date         string   `json:"date"`
	StartTime    string   `json:"start_time,omitempty"`
	EndTime      string   `json:"end_time,omitempty"`
	Location     string   `json:"location,omitempty"`
	Description  string   `json:"description,omitempty"`
	Budget       *float64 `json:"budget,omitempty"`
	Category     string   `json:"category"`
	Participants int      `json:"participants,omitempty"`
	IsPublic     *bool    `json:"is_public,omitempty"`
}

// UpdateEventPayload carries a partial event update; nil fields are left unchanged
type UpdateEventPayload struct {
	Title        *string  `json:"title,omitempty"`
	Date         *string  `json:"date,omitempty"`
	StartTime    *string  `json:"start_time,omitempty"`
	EndTime      *string  `json:"end_time,omitempty"`
	Location     *string  `json:"location,omitempty"`
	Description  *string  `json:"description,omitempty"`
	Budget       *float64 `json:"budget,omitempty"`
	Category     *string  `json:"category,omitempty"`
	Participants *int     `json:"participants,omitempty"`
	IsPublic     *bool    `json:"is_public,omitempty"`
	Status       *string  `json:"status,omitempty"`
}

// EventStats 仪表盘统计
type EventStats struct {
	TotalEvents    int     `json:"total_events"`
	TotalBudget    float64 `json:"total_budget"`
	TodayEvents    int     `json:"today_events"`
	UpcomingEvents int     `json:"upcoming_events"`
}
