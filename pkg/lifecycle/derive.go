package lifecycle

import (
	"time"

	"clubhub-backend/pkg/models"
)

// DefaultEventDuration is assumed when a request names a start time but the
// derived calendar event needs an end time.
const DefaultEventDuration = 2 * time.Hour

// EventStatusActive 派生与直建事件的初始状态
const EventStatusActive = "active"

// deriveEvent maps an approved request onto the calendar event it materializes.
// The mapping is one-way: later edits to the event never touch the request,
// and the request keeps the submitted values as an audit record.
func deriveEvent(req *models.EventRequest, approvedBy string) *models.CalendarEvent {
	requestID := req.ID
	return &models.CalendarEvent{
		Title:          req.EventName,
		Date:           req.Date,
		StartTime:      req.Time,
		EndTime:        deriveEndTime(req.Time),
		Location:       req.Location,
		Description:    req.Purpose,
		Budget:         req.BudgetEstimate,
		Category:       req.Category,
		Participants:   0,
		IsPublic:       req.IsPublic,
		Origin:         models.OriginUserApproved,
		CreatedBy:      req.SubmitterID,
		ApprovedBy:     approvedBy,
		RequestID:      &requestID,
		OrganizerName:  req.SubmitterName,
		OrganizerEmail: req.SubmitterEmail,
		Status:         EventStatusActive,
		Color:          models.ColorForOrigin(models.OriginUserApproved),
	}
}

// deriveEndTime 开始时间 + 默认时长；无/非法开始时间则留空
func deriveEndTime(startTime string) string {
	if startTime == "" {
		return ""
	}
	t, err := time.Parse("15:04", startTime)
	if err != nil {
		return ""
	}
	return t.Add(DefaultEventDuration).Format("15:04")
}
