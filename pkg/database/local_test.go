package database

import (
	"errors"
	"sync"
	"testing"

	"clubhub-backend/pkg/models"
)

func seedRequest(t *testing.T, db DatabaseInterface) *models.EventRequest {
	t.Helper()
	req := &models.EventRequest{
		EventName:   "Chess Tournament",
		Date:        "2025-04-01",
		Purpose:     "Spring bracket",
		SubmitterID: "user-1",
	}
	if err := db.CreateRequest(req); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	return req
}

func TestLocalApproveIsConditional(t *testing.T) {
	db := NewLocalDatabase()
	req := seedRequest(t, db)

	event := &models.CalendarEvent{Title: "Chess Tournament", Date: "2025-04-01"}
	if _, err := db.ApproveRequest(req.ID, "admin-1", "", event); err != nil {
		t.Fatalf("first ApproveRequest() error = %v", err)
	}
	if event.ID == "" {
		t.Error("approve did not assign the derived event an id")
	}

	if _, err := db.ApproveRequest(req.ID, "admin-2", "", &models.CalendarEvent{}); !errors.Is(err, ErrNotPending) {
		t.Errorf("second approve error = %v, want ErrNotPending", err)
	}
	if _, err := db.RejectRequest(req.ID, "admin-2", ""); !errors.Is(err, ErrNotPending) {
		t.Errorf("reject after approve error = %v, want ErrNotPending", err)
	}
	if _, err := db.ApproveRequest("missing", "admin-1", "", &models.CalendarEvent{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("approve missing error = %v, want ErrNotFound", err)
	}
}

func TestLocalConcurrentDecisions(t *testing.T) {
	db := NewLocalDatabase()
	req := seedRequest(t, db)

	var wg sync.WaitGroup
	wins := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := db.ApproveRequest(req.ID, "admin-1", "", &models.CalendarEvent{Title: "x"})
			wins <- err == nil
		}()
	}
	wg.Wait()
	close(wins)

	var winners int
	for won := range wins {
		if won {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("%d concurrent approvals succeeded, want exactly 1", winners)
	}

	events, _ := db.ListEvents()
	if len(events) != 1 {
		t.Errorf("got %d events after race, want 1", len(events))
	}
}

func TestLocalAddParticipantSetSemantics(t *testing.T) {
	db := NewLocalDatabase()
	event := &models.CalendarEvent{Title: "Picnic", Date: "2025-07-01"}
	if err := db.CreateEvent(event); err != nil {
		t.Fatal(err)
	}

	p := models.Participant{UserID: "user-1", Name: "Ada", Email: "ada@club.test"}
	added, err := db.AddParticipant(event.ID, p)
	if err != nil || !added {
		t.Fatalf("first add: added=%v err=%v", added, err)
	}
	added, err = db.AddParticipant(event.ID, p)
	if err != nil {
		t.Fatal(err)
	}
	if added {
		t.Error("duplicate add reported as added")
	}

	if _, err := db.AddParticipant("missing", p); !errors.Is(err, ErrNotFound) {
		t.Errorf("add to missing event error = %v, want ErrNotFound", err)
	}
}

func TestLocalUpdateEventKeepsDerivedFields(t *testing.T) {
	db := NewLocalDatabase()
	requestID := "req-1"
	event := &models.CalendarEvent{
		Title:     "Derived",
		Date:      "2025-04-01",
		Origin:    models.OriginUserApproved,
		Color:     models.ColorUserApproved,
		RequestID: &requestID,
	}
	if err := db.CreateEvent(event); err != nil {
		t.Fatal(err)
	}

	update := *event
	update.Title = "Renamed"
	update.Origin = models.OriginAdminCreated // must not stick
	update.RequestID = nil
	if err := db.UpdateEvent(&update); err != nil {
		t.Fatal(err)
	}

	stored, err := db.GetEvent(event.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Title != "Renamed" {
		t.Errorf("title = %q, want Renamed", stored.Title)
	}
	if stored.Origin != models.OriginUserApproved {
		t.Errorf("origin was rewritten to %q", stored.Origin)
	}
	if stored.RequestID == nil || *stored.RequestID != requestID {
		t.Error("request_id link was dropped by update")
	}
}

func TestLocalUserEmailLookup(t *testing.T) {
	db := NewLocalDatabase()
	user := &models.User{Email: "Ada@Club.Test", Name: "Ada"}
	if err := db.CreateUser(user); err != nil {
		t.Fatal(err)
	}
	if user.Role != models.RoleUser {
		t.Errorf("role = %q, want default user", user.Role)
	}

	// 邮箱查找不区分大小写
	found, err := db.GetUserByEmail("ada@club.test")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if found.ID != user.ID {
		t.Error("lookup returned a different user")
	}

	if err := db.CreateUser(&models.User{Email: "ada@club.test"}); err == nil {
		t.Error("duplicate email registration should fail")
	}
}
