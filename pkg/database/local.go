package database

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"clubhub-backend/pkg/models"

	"github.com/google/uuid"
)

// LocalDatabase 本地内存数据库实现（开发与测试用，无持久化）
type LocalDatabase struct {
	mu           sync.RWMutex
	users        map[string]*models.User         // keyed by id
	usersByEmail map[string]string               // email -> id
	requests     map[string]*models.EventRequest // keyed by id
	events       map[string]*models.CalendarEvent
	participants map[string]map[string]models.Participant // event id -> user id -> participant
	expenses     map[string]*models.Expense
}

// NewLocalDatabase 创建本地内存数据库实例
func NewLocalDatabase() DatabaseInterface {
	return &LocalDatabase{
		users:        make(map[string]*models.User),
		usersByEmail: make(map[string]string),
		requests:     make(map[string]*models.EventRequest),
		events:       make(map[string]*models.CalendarEvent),
		participants: make(map[string]map[string]models.Participant),
		expenses:     make(map[string]*models.Expense),
	}
}

// ================= Users =================

func (db *LocalDatabase) CreateUser(user *models.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := db.usersByEmail[email]; exists {
		return fmt.Errorf("user with email %s already exists", user.Email)
	}

	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.ID = uuid.New().String()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	db.users[user.ID] = &stored
	db.usersByEmail[email] = user.ID
	return nil
}

func (db *LocalDatabase) GetUserByEmail(email string) (*models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	id, ok := db.usersByEmail[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("user %w", ErrNotFound)
	}
	u := *db.users[id]
	return &u, nil
}

func (db *LocalDatabase) GetUserByID(id string) (*models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	stored, ok := db.users[id]
	if !ok {
		return nil, fmt.Errorf("user %w", ErrNotFound)
	}
	u := *stored
	return &u, nil
}

// ================= Event requests =================

func (db *LocalDatabase) CreateRequest(req *models.EventRequest) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	req.ID = uuid.New().String()
	req.Status = models.RequestPending
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	stored := *req
	db.requests[req.ID] = &stored
	return nil
}

func (db *LocalDatabase) GetRequest(id string) (*models.EventRequest, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	stored, ok := db.requests[id]
	if !ok {
		return nil, fmt.Errorf("request %w", ErrNotFound)
	}
	r := *stored
	return &r, nil
}

func (db *LocalDatabase) ListRequests() ([]models.EventRequest, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var list []models.EventRequest
	for _, r := range db.requests {
		list = append(list, *r)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (db *LocalDatabase) ListRequestsBySubmitter(userID string) ([]models.EventRequest, error) {
	all, _ := db.ListRequests()
	var list []models.EventRequest
	for _, r := range all {
		if r.SubmitterID == userID {
			list = append(list, r)
		}
	}
	return list, nil
}

// ApproveRequest 持锁完成状态检查、转移和事件写入，等价于单事务。
func (db *LocalDatabase) ApproveRequest(requestID, approvedBy, comment string, event *models.CalendarEvent) (*models.EventRequest, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	stored, ok := db.requests[requestID]
	if !ok {
		return nil, fmt.Errorf("request %w", ErrNotFound)
	}
	if stored.Status != models.RequestPending {
		return nil, fmt.Errorf("request is %s: %w", stored.Status, ErrNotPending)
	}

	now := time.Now().UTC()
	stored.Status = models.RequestApproved
	stored.ApprovedBy = &approvedBy
	stored.ApprovedAt = &now
	if comment != "" {
		stored.AdminComment = comment
	}
	stored.UpdatedAt = now

	event.ID = uuid.New().String()
	event.CreatedAt = now
	event.UpdatedAt = now
	storedEvent := *event
	db.events[event.ID] = &storedEvent

	r := *stored
	return &r, nil
}

func (db *LocalDatabase) RejectRequest(requestID, rejectedBy, comment string) (*models.EventRequest, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	stored, ok := db.requests[requestID]
	if !ok {
		return nil, fmt.Errorf("request %w", ErrNotFound)
	}
	if stored.Status != models.RequestPending {
		return nil, fmt.Errorf("request is %s: %w", stored.Status, ErrNotPending)
	}

	now := time.Now().UTC()
	stored.Status = models.RequestRejected
	stored.RejectedBy = &rejectedBy
	stored.RejectedAt = &now
	if comment != "" {
		stored.AdminComment = comment
	}
	stored.UpdatedAt = now

	r := *stored
	return &r, nil
}

// ================= Calendar events =================

func (db *LocalDatabase) CreateEvent(event *models.CalendarEvent) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	event.ID = uuid.New().String()
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	stored := *event
	db.events[event.ID] = &stored
	return nil
}

func (db *LocalDatabase) GetEvent(id string) (*models.CalendarEvent, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	stored, ok := db.events[id]
	if !ok {
		return nil, fmt.Errorf("event %w", ErrNotFound)
	}
	e := *stored
	return &e, nil
}

func (db *LocalDatabase) ListEvents() ([]models.CalendarEvent, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var list []models.CalendarEvent
	for _, e := range db.events {
		list = append(list, *e)
	}
	sortEvents(list)
	return list, nil
}

func (db *LocalDatabase) ListPublicEvents() ([]models.CalendarEvent, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var list []models.CalendarEvent
	for _, e := range db.events {
		if e.IsPublic {
			list = append(list, *e)
		}
	}
	sortEvents(list)
	return list, nil
}

func sortEvents(list []models.CalendarEvent) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Date != list[j].Date {
			return list[i].Date < list[j].Date
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}

func (db *LocalDatabase) UpdateEvent(event *models.CalendarEvent) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	stored, ok := db.events[event.ID]
	if !ok {
		return fmt.Errorf("event %w", ErrNotFound)
	}

	// origin/request_id/color 派生字段不随更新改写
	event.Origin = stored.Origin
	event.RequestID = stored.RequestID
	event.Color = stored.Color
	event.CreatedAt = stored.CreatedAt
	event.UpdatedAt = time.Now().UTC()

	updated := *event
	db.events[event.ID] = &updated
	return nil
}

func (db *LocalDatabase) DeleteEvent(id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.events[id]; !ok {
		return fmt.Errorf("event %w", ErrNotFound)
	}
	delete(db.events, id)
	delete(db.participants, id)
	return nil
}

func (db *LocalDatabase) AddParticipant(eventID string, p models.Participant) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.events[eventID]; !ok {
		return false, fmt.Errorf("event %w", ErrNotFound)
	}

	set, ok := db.participants[eventID]
	if !ok {
		set = make(map[string]models.Participant)
		db.participants[eventID] = set
	}
	if _, exists := set[p.UserID]; exists {
		return false, nil
	}
	set[p.UserID] = p
	return true, nil
}

func (db *LocalDatabase) ListParticipants(eventID string) ([]models.Participant, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var list []models.Participant
	for _, p := range db.participants[eventID] {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UserID < list[j].UserID })
	return list, nil
}

// ================= Expenses =================

func (db *LocalDatabase) CreateExpense(expense *models.Expense) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	expense.ID = uuid.New().String()
	now := time.Now().UTC()
	expense.CreatedAt = now
	expense.UpdatedAt = now

	stored := *expense
	db.expenses[expense.ID] = &stored
	return nil
}

func (db *LocalDatabase) GetExpense(id string) (*models.Expense, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	stored, ok := db.expenses[id]
	if !ok {
		return nil, fmt.Errorf("expense %w", ErrNotFound)
	}
	x := *stored
	return &x, nil
}

func (db *LocalDatabase) ListExpenses() ([]models.Expense, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var list []models.Expense
	for _, x := range db.expenses {
		list = append(list, *x)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Date != list[j].Date {
			return list[i].Date > list[j].Date
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (db *LocalDatabase) UpdateExpense(expense *models.Expense) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	stored, ok := db.expenses[expense.ID]
	if !ok {
		return fmt.Errorf("expense %w", ErrNotFound)
	}
	expense.CreatedAt = stored.CreatedAt
	expense.UpdatedAt = time.Now().UTC()

	updated := *expense
	db.expenses[expense.ID] = &updated
	return nil
}

func (db *LocalDatabase) DeleteExpense(id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.expenses[id]; !ok {
		return fmt.Errorf("expense %w", ErrNotFound)
	}
	delete(db.expenses, id)
	return nil
}

// HealthCheck 健康检查
func (db *LocalDatabase) HealthCheck() error {
	return nil
}

// Close 关闭（内存库无资源可释放）
func (db *LocalDatabase) Close() error {
	return nil
}
