package lifecycle

import (
	"strings"

	"clubhub-backend/pkg/database"
	"clubhub-backend/pkg/models"
)

// DefaultRequestCategory 申请未指定分类时使用
const DefaultRequestCategory = "General"

// Engine drives the request/event lifecycle on top of a store. All state
// transitions go through here; handlers never mutate status fields directly.
type Engine struct {
	store database.DatabaseInterface
}

// NewEngine 创建生命周期引擎
func NewEngine(store database.DatabaseInterface) *Engine {
	return &Engine{store: store}
}

// SubmitRequest validates a member's proposal and persists it as pending.
func (e *Engine) SubmitRequest(submitter *models.User, payload *models.SubmitRequestPayload) (*models.EventRequest, error) {
	var missing []string
	if strings.TrimSpace(payload.EventName) == "" {
		missing = append(missing, "event_name")
	}
	if strings.TrimSpace(payload.Date) == "" {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(payload.Purpose) == "" {
		missing = append(missing, "purpose")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}

	req := &models.EventRequest{
		EventName:      strings.TrimSpace(payload.EventName),
		Date:           payload.Date,
		Time:           payload.Time,
		Location:       payload.Location,
		Purpose:        strings.TrimSpace(payload.Purpose),
		BudgetEstimate: 0,
		IsPublic:       true,
		Category:       DefaultRequestCategory,
		SubmitterID:    submitter.ID,
		SubmitterName:  submitter.Name,
		SubmitterEmail: submitter.Email,
		Status:         models.RequestPending,
	}
	if payload.BudgetEstimate != nil {
		if *payload.BudgetEstimate < 0 {
			return nil, &ValidationError{Fields: []string{"budget_estimate"}}
		}
		req.BudgetEstimate = *payload.BudgetEstimate
	}
	if payload.IsPublic != nil {
		req.IsPublic = *payload.IsPublic
	}
	if payload.Category != "" {
		req.Category = payload.Category
	}

	if err := e.store.CreateRequest(req); err != nil {
		return nil, err
	}
	return req, nil
}

// Approve flips a pending request to approved and materializes its calendar
// event. The event is derived from the request before the store call, so a
// losing race never half-creates one; the store's conditional update decides
// the winner.
func (e *Engine) Approve(requestID string, admin *models.User, comment string) (*models.EventRequest, *models.CalendarEvent, error) {
	current, err := e.store.GetRequest(requestID)
	if err != nil {
		return nil, nil, mapStoreError(err)
	}
	if current.Status.Terminal() {
		return nil, nil, mapStoreError(database.ErrNotPending)
	}

	event := deriveEvent(current, admin.ID)
	req, err := e.store.ApproveRequest(requestID, admin.ID, comment, event)
	if err != nil {
		return nil, nil, mapStoreError(err)
	}
	return req, event, nil
}

// Reject flips a pending request to rejected. No calendar event is created,
// and a previously approved request is never demoted.
func (e *Engine) Reject(requestID string, admin *models.User, comment string) (*models.EventRequest, error) {
	req, err := e.store.RejectRequest(requestID, admin.ID, comment)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return req, nil
}

// CreateDirectEvent creates a calendar event without any backing request.
// Caller must have checked the admin role already.
func (e *Engine) CreateDirectEvent(admin *models.User, payload *models.CreateEventPayload) (*models.CalendarEvent, error) {
	var missing []string
	if strings.TrimSpace(payload.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(payload.Date) == "" {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(payload.Category) == "" {
		missing = append(missing, "category")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}

	event := &models.CalendarEvent{
		Title:          strings.TrimSpace(payload.Title),
		Date:           payload.Date,
		StartTime:      payload.StartTime,
		EndTime:        payload.EndTime,
		Location:       payload.Location,
		Description:    payload.Description,
		Category:       payload.Category,
		Participants:   payload.Participants,
		IsPublic:       true,
		Origin:         models.OriginAdminCreated,
		CreatedBy:      admin.ID,
		OrganizerName:  admin.Name,
		OrganizerEmail: admin.Email,
		Status:         EventStatusActive,
		Color:          models.ColorForOrigin(models.OriginAdminCreated),
	}
	if event.EndTime == "" {
		event.EndTime = deriveEndTime(event.StartTime)
	}
	if payload.Budget != nil {
		if *payload.Budget < 0 {
			return nil, &ValidationError{Fields: []string{"budget"}}
		}
		event.Budget = *payload.Budget
	}
	if payload.IsPublic != nil {
		event.IsPublic = *payload.IsPublic
	}

	if err := e.store.CreateEvent(event); err != nil {
		return nil, err
	}
	return event, nil
}

// RegisterForEvent adds the user to the event's registered set. Registering
// twice is a no-op; the returned flag says whether this call added them.
func (e *Engine) RegisterForEvent(eventID string, user *models.User) (bool, error) {
	if _, err := e.store.GetEvent(eventID); err != nil {
		return false, mapStoreError(err)
	}

	added, err := e.store.AddParticipant(eventID, models.Participant{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
	})
	if err != nil {
		return false, mapStoreError(err)
	}
	return added, nil
}

// CreateExpense validates and persists a ledger line.
func (e *Engine) CreateExpense(payload *models.ExpensePayload) (*models.Expense, error) {
	expense, err := expenseFromPayload(payload)
	if err != nil {
		return nil, err
	}
	if err := e.store.CreateExpense(expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// UpdateExpense replaces an existing ledger line after the same validation.
func (e *Engine) UpdateExpense(id string, payload *models.ExpensePayload) (*models.Expense, error) {
	existing, err := e.store.GetExpense(id)
	if err != nil {
		return nil, mapStoreError(err)
	}

	expense, err := expenseFromPayload(payload)
	if err != nil {
		return nil, err
	}
	expense.ID = existing.ID
	expense.CreatedAt = existing.CreatedAt
	if payload.Date == "" {
		expense.Date = existing.Date
	}
	if payload.Status == "" {
		expense.Status = existing.Status
	}

	if err := e.store.UpdateExpense(expense); err != nil {
		return nil, mapStoreError(err)
	}
	return expense, nil
}

func expenseFromPayload(payload *models.ExpensePayload) (*models.Expense, error) {
	var invalid []string
	if strings.TrimSpace(payload.Title) == "" {
		invalid = append(invalid, "title")
	}
	if payload.Amount == nil || *payload.Amount <= 0 {
		invalid = append(invalid, "amount")
	}
	if !models.ValidExpenseCategory(payload.Category) {
		invalid = append(invalid, "category")
	}
	if len(invalid) > 0 {
		return nil, &ValidationError{Fields: invalid}
	}

	expense := &models.Expense{
		Title:       strings.TrimSpace(payload.Title),
		Amount:      *payload.Amount,
		Category:    payload.Category,
		Date:        payload.Date,
		EventTitle:  payload.EventTitle,
		Description: payload.Description,
		Status:      models.ExpensePending,
	}
	switch payload.Status {
	case "":
		// keep default
	case string(models.ExpensePending), string(models.ExpenseApproved), string(models.ExpenseRejected):
		expense.Status = models.ExpenseStatus(payload.Status)
	default:
		return nil, &ValidationError{Fields: []string{"status"}}
	}
	return expense, nil
}
