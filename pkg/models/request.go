package models

import "time"

// RequestStatus 事件申请的生命周期状态
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Terminal reports whether the status admits no further transition.
// pending is the only non-terminal state; approved/rejected never revert.
func (s RequestStatus) Terminal() bool {
	return s == RequestApproved || s == RequestRejected
}

// EventRequest is a member's proposal for a club event, awaiting an admin decision
type EventRequest struct {
	ID             string        `json:"id" db:"id"`
	EventName      string        `json:"event_name" db:"event_name"`
	Date           string        `json:"date" db:"date"` // proposed date, YYYY-MM-DD
	Time           string        `json:"time,omitempty" db:"time"`
	Location       string        `json:"location,omitempty" db:"location"`
	Purpose        string        `json:"purpose" db:"purpose"`
	BudgetEstimate float64       `json:"budget_estimate" db:"budget_estimate"`
	IsPublic       bool          `json:"is_public" db:"is_public"`
	Category       string        `json:"category" db:"category"`
	SubmitterID    string        `json:"submitter_id" db:"submitter_id"`
	SubmitterName  string        `json:"submitter_name" db:"submitter_name"`
	SubmitterEmail string        `json:"submitter_email" db:"submitter_email"`
	Status         RequestStatus `json:"status" db:"status"`
	ApprovedBy     *string       `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt     *time.Time    `json:"approved_at,omitempty" db:"approved_at"`
	RejectedBy     *string       `json:"rejected_by,omitempty" db:"rejected_by"`
	RejectedAt     *time.Time    `json:"rejected_at,omitempty" db:"rejected_at"`
	AdminComment   string        `json:"admin_comment,omitempty" db:"admin_comment"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// SubmitRequestPayload represents the request payload for submitting an event request
type SubmitRequestPayload struct {
	EventName      string   `json:"event_name"`
	Date           string   `json:"date"`
	Time           string   `json:"time,omitempty"`
	Location       string   `json:"location,omitempty"`
	Purpose        string   `json:"purpose"`
	BudgetEstimate *float64 `json:"budget_estimate,omitempty"` // nil means 0
	IsPublic       *bool    `json:"is_public,omitempty"`       // nil means public
	Category       string   `json:"category,omitempty"`        // empty means "General"
}

// DecidePayload carries the optional admin comment attached to a decision
type DecidePayload struct {
	Comment string `json:"comment,omitempty"`
}
