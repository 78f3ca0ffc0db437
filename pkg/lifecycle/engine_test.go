package lifecycle

import (
	"errors"
	"testing"

	"clubhub-backend/pkg/database"
	"clubhub-backend/pkg/models"
)

func newTestEngine() (*Engine, database.DatabaseInterface) {
	store := database.NewLocalDatabase()
	return NewEngine(store), store
}

var (
	testMember = &models.User{ID: "user-1", Name: "Ada", Email: "ada@club.test", Role: models.RoleUser}
	testAdmin  = &models.User{ID: "admin-1", Name: "Grace", Email: "grace@club.test", Role: models.RoleAdmin}
)

func floatPtr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool        { return &b }

func submitTestRequest(t *testing.T, engine *Engine) *models.EventRequest {
	t.Helper()
	req, err := engine.SubmitRequest(testMember, &models.SubmitRequestPayload{
		EventName:      "Board Games Night",
		Date:           "2025-05-01",
		Time:           "18:00",
		Purpose:        "Monthly social for new members",
		BudgetEstimate: floatPtr(80),
	})
	if err != nil {
		t.Fatalf("SubmitRequest() error = %v", err)
	}
	return req
}

func TestSubmitRequestValidation(t *testing.T) {
	engine, _ := newTestEngine()

	_, err := engine.SubmitRequest(testMember, &models.SubmitRequestPayload{
		EventName: "No purpose or date",
	})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Fields) != 2 {
		t.Errorf("missing fields = %v, want date and purpose", ve.Fields)
	}

	if _, err := engine.SubmitRequest(testMember, &models.SubmitRequestPayload{
		EventName:      "Negative budget",
		Date:           "2025-05-01",
		Purpose:        "testing",
		BudgetEstimate: floatPtr(-5),
	}); !IsValidation(err) {
		t.Errorf("expected validation error for negative budget, got %v", err)
	}
}

func TestSubmitRequestDefaults(t *testing.T) {
	engine, _ := newTestEngine()

	req, err := engine.SubmitRequest(testMember, &models.SubmitRequestPayload{
		EventName: "Minimal",
		Date:      "2025-05-01",
		Purpose:   "defaults check",
	})
	if err != nil {
		t.Fatalf("SubmitRequest() error = %v", err)
	}

	if req.Status != models.RequestPending {
		t.Errorf("status = %q, want pending", req.Status)
	}
	if !req.IsPublic {
		t.Error("is_public should default to true")
	}
	if req.Category != DefaultRequestCategory {
		t.Errorf("category = %q, want %q", req.Category, DefaultRequestCategory)
	}
	if req.BudgetEstimate != 0 {
		t.Errorf("budget = %v, want 0", req.BudgetEstimate)
	}
	if req.SubmitterID != testMember.ID || req.SubmitterEmail != testMember.Email {
		t.Error("submitter identity not recorded")
	}
}

func TestApproveMaterializesEvent(t *testing.T) {
	engine, store := newTestEngine()
	req := submitTestRequest(t, engine)

	decided, event, err := engine.Approve(req.ID, testAdmin, "room booked")
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	if decided.Status != models.RequestApproved {
		t.Errorf("status = %q, want approved", decided.Status)
	}
	if decided.ApprovedBy == nil || *decided.ApprovedBy != testAdmin.ID {
		t.Error("approved_by not recorded")
	}
	if decided.ApprovedAt == nil {
		t.Error("approved_at not recorded")
	}
	if decided.AdminComment != "room booked" {
		t.Errorf("comment = %q", decided.AdminComment)
	}

	stored, err := store.GetEvent(event.ID)
	if err != nil {
		t.Fatalf("derived event not stored: %v", err)
	}
	if stored.Title != req.EventName {
		t.Errorf("event title = %q, want %q", stored.Title, req.EventName)
	}
	if stored.Origin != models.OriginUserApproved || stored.Color != models.ColorUserApproved {
		t.Errorf("origin/color = %q/%q", stored.Origin, stored.Color)
	}
	if stored.RequestID == nil || *stored.RequestID != req.ID {
		t.Error("event does not reference its request")
	}
}

func TestRejectLeavesNoEvent(t *testing.T) {
	engine, store := newTestEngine()
	req := submitTestRequest(t, engine)

	decided, err := engine.Reject(req.ID, testAdmin, "budget too high")
	if err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if decided.Status != models.RequestRejected {
		t.Errorf("status = %q, want rejected", decided.Status)
	}
	if decided.RejectedBy == nil || *decided.RejectedBy != testAdmin.ID {
		t.Error("rejected_by not recorded")
	}

	events, err := store.ListEvents()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Errorf("rejection created %d events, want 0", len(events))
	}
}

func TestDecisionIsFinal(t *testing.T) {
	engine, store := newTestEngine()
	req := submitTestRequest(t, engine)

	if _, _, err := engine.Approve(req.ID, testAdmin, ""); err != nil {
		t.Fatalf("first Approve() error = %v", err)
	}

	// Second approval must fail and must not create a second event.
	if _, _, err := engine.Approve(req.ID, testAdmin, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second approve error = %v, want ErrInvalidTransition", err)
	}
	// A rejection after approval must not demote the request.
	if _, err := engine.Reject(req.ID, testAdmin, "changed my mind"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("reject after approve error = %v, want ErrInvalidTransition", err)
	}

	current, err := store.GetRequest(req.ID)
	if err != nil {
		t.Fatal(err)
	}
	if current.Status != models.RequestApproved {
		t.Errorf("status after losing decisions = %q, want approved", current.Status)
	}

	events, _ := store.ListEvents()
	if len(events) != 1 {
		t.Errorf("got %d events, want exactly 1", len(events))
	}
}

func TestDecideUnknownRequest(t *testing.T) {
	engine, _ := newTestEngine()

	if _, _, err := engine.Approve("no-such-id", testAdmin, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("approve unknown error = %v, want ErrNotFound", err)
	}
	if _, err := engine.Reject("no-such-id", testAdmin, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("reject unknown error = %v, want ErrNotFound", err)
	}
}

func TestCreateDirectEvent(t *testing.T) {
	engine, _ := newTestEngine()

	event, err := engine.CreateDirectEvent(testAdmin, &models.CreateEventPayload{
		Title:     "AGM",
		Date:      "2025-06-01",
		StartTime: "10:00",
		Category:  "Meeting",
		Budget:    floatPtr(120),
		IsPublic:  boolPtr(false),
	})
	if err != nil {
		t.Fatalf("CreateDirectEvent() error = %v", err)
	}

	if event.Origin != models.OriginAdminCreated || event.Color != models.ColorAdminCreated {
		t.Errorf("origin/color = %q/%q", event.Origin, event.Color)
	}
	if event.RequestID != nil {
		t.Error("direct event should not reference a request")
	}
	if event.EndTime != "12:00" {
		t.Errorf("end time = %q, want default duration applied", event.EndTime)
	}
	if event.IsPublic {
		t.Error("is_public override not applied")
	}
	if event.OrganizerName != testAdmin.Name {
		t.Errorf("organizer = %q, want admin", event.OrganizerName)
	}

	if _, err := engine.CreateDirectEvent(testAdmin, &models.CreateEventPayload{Title: "no date"}); !IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestRegisterForEventIdempotent(t *testing.T) {
	engine, store := newTestEngine()
	req := submitTestRequest(t, engine)
	_, event, err := engine.Approve(req.ID, testAdmin, "")
	if err != nil {
		t.Fatal(err)
	}

	added, err := engine.RegisterForEvent(event.ID, testMember)
	if err != nil || !added {
		t.Fatalf("first registration: added=%v err=%v", added, err)
	}

	added, err = engine.RegisterForEvent(event.ID, testMember)
	if err != nil {
		t.Fatalf("repeat registration error = %v", err)
	}
	if added {
		t.Error("repeat registration reported as added")
	}

	participants, err := store.ListParticipants(event.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(participants) != 1 {
		t.Errorf("got %d participants, want 1", len(participants))
	}

	if _, err := engine.RegisterForEvent("no-such-event", testMember); !errors.Is(err, ErrNotFound) {
		t.Errorf("register on unknown event error = %v, want ErrNotFound", err)
	}
}

func TestExpenseValidation(t *testing.T) {
	engine, _ := newTestEngine()

	expense, err := engine.CreateExpense(&models.ExpensePayload{
		Title:    "Pizza",
		Amount:   floatPtr(45.90),
		Category: "Catering",
		Date:     "2025-05-01",
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	if expense.Status != models.ExpensePending {
		t.Errorf("status = %q, want pending", expense.Status)
	}

	tests := []struct {
		name    string
		payload models.ExpensePayload
	}{
		{"missing title", models.ExpensePayload{Amount: floatPtr(10), Category: "Venue"}},
		{"zero amount", models.ExpensePayload{Title: "x", Amount: floatPtr(0), Category: "Venue"}},
		{"nil amount", models.ExpensePayload{Title: "x", Category: "Venue"}},
		{"unknown category", models.ExpensePayload{Title: "x", Amount: floatPtr(10), Category: "Snacks"}},
		{"bogus status", models.ExpensePayload{Title: "x", Amount: floatPtr(10), Category: "Venue", Status: "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := engine.CreateExpense(&tt.payload); !IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUpdateExpensePreservesUnsetFields(t *testing.T) {
	engine, _ := newTestEngine()

	created, err := engine.CreateExpense(&models.ExpensePayload{
		Title:    "Banner printing",
		Amount:   floatPtr(30),
		Category: "Marketing",
		Date:     "2025-05-02",
		Status:   "approved",
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := engine.UpdateExpense(created.ID, &models.ExpensePayload{
		Title:    "Banner printing (reprint)",
		Amount:   floatPtr(35),
		Category: "Marketing",
	})
	if err != nil {
		t.Fatalf("UpdateExpense() error = %v", err)
	}
	if updated.Date != "2025-05-02" {
		t.Errorf("date = %q, want preserved", updated.Date)
	}
	if updated.Status != models.ExpenseApproved {
		t.Errorf("status = %q, want preserved approved", updated.Status)
	}

	if _, err := engine.UpdateExpense("no-such-id", &models.ExpensePayload{
		Title: "x", Amount: floatPtr(1), Category: "Other",
	}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update unknown error = %v, want ErrNotFound", err)
	}
}
