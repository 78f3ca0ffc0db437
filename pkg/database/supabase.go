package database

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"clubhub-backend/pkg/models"
)

// SupabaseDatabase Supabase数据库实现（REST API，避免Serverless环境的IPv6直连问题）
type SupabaseDatabase struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewSupabaseDatabase 创建Supabase数据库实例
func NewSupabaseDatabase(rawURL, key string) DatabaseInterface {
	// 确保URL格式正确
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "https://" + rawURL
	}

	return &SupabaseDatabase{
		baseURL: rawURL,
		apiKey:  key,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// makeRequest 发送HTTP请求到Supabase
func (db *SupabaseDatabase) makeRequest(method, endpoint string, body interface{}) ([]byte, error) {
	return db.makeRequestWithHeaders(method, endpoint, body, nil)
}

// makeRequestWithHeaders 发送HTTP请求到Supabase（支持自定义头）
func (db *SupabaseDatabase) makeRequestWithHeaders(method, endpoint string, body interface{}, customHeaders map[string]string) ([]byte, error) {
	var reqBody io.Reader

	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	reqURL := db.baseURL + "/rest/v1" + endpoint
	req, err := http.NewRequest(method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// 设置默认请求头
	req.Header.Set("apikey", db.apiKey)
	req.Header.Set("Authorization", "Bearer "+db.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	// 设置自定义请求头
	for key, value := range customHeaders {
		req.Header.Set(key, value)
	}

	resp, err := db.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ================= Users =================

func (db *SupabaseDatabase) CreateUser(user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	payload := map[string]interface{}{
		"email":         user.Email,
		"password_hash": user.Password,
		"name":          user.Name,
		"role":          string(user.Role),
	}
	data, err := db.makeRequest("POST", "/users", payload)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	var rows []supabaseUser
	if err := json.Unmarshal(data, &rows); err == nil && len(rows) > 0 {
		rows[0].apply(user)
	}
	return nil
}

// supabaseUser 用户行（password_hash列名与模型字段不同，需要单独映射）
type supabaseUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (r *supabaseUser) apply(u *models.User) {
	u.ID = r.ID
	u.Email = r.Email
	u.Password = r.PasswordHash
	u.Name = r.Name
	u.Role = models.UserRole(r.Role)
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	u.CreatedAt = r.CreatedAt
	u.UpdatedAt = r.UpdatedAt
}

func (db *SupabaseDatabase) getUser(filter string) (*models.User, error) {
	data, err := db.makeRequest("GET", "/users?"+filter+"&select=*&limit=1", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	var rows []supabaseUser
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("user %w", ErrNotFound)
	}
	var u models.User
	rows[0].apply(&u)
	return &u, nil
}

func (db *SupabaseDatabase) GetUserByEmail(email string) (*models.User, error) {
	return db.getUser("email=eq." + url.QueryEscape(email))
}

func (db *SupabaseDatabase) GetUserByID(id string) (*models.User, error) {
	return db.getUser("id=eq." + url.QueryEscape(id))
}

// ================= Event requests =================

func (db *SupabaseDatabase) CreateRequest(req *models.EventRequest) error {
	payload := map[string]interface{}{
		"event_name":      req.EventName,
		"date":            req.Date,
		"time":            req.Time,
		"location":        req.Location,
		"purpose":         req.Purpose,
		"budget_estimate": req.BudgetEstimate,
		"is_public":       req.IsPublic,
		"category":        req.Category,
		"submitter_id":    req.SubmitterID,
		"submitter_name":  req.SubmitterName,
		"submitter_email": req.SubmitterEmail,
		"status":          string(models.RequestPending),
	}
	data, err := db.makeRequest("POST", "/event_requests", payload)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	var rows []models.EventRequest
	if err := json.Unmarshal(data, &rows); err == nil && len(rows) > 0 {
		*req = rows[0]
	}
	return nil
}

func (db *SupabaseDatabase) GetRequest(id string) (*models.EventRequest, error) {
	data, err := db.makeRequest("GET", "/event_requests?id=eq."+url.QueryEscape(id)+"&select=*&limit=1", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	var rows []models.EventRequest
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("request %w", ErrNotFound)
	}
	return &rows[0], nil
}

func (db *SupabaseDatabase) ListRequests() ([]models.EventRequest, error) {
	return db.listRequests("/event_requests?select=*&order=created_at.desc")
}

func (db *SupabaseDatabase) ListRequestsBySubmitter(userID string) ([]models.EventRequest, error) {
	return db.listRequests("/event_requests?submitter_id=eq." + url.QueryEscape(userID) + "&select=*&order=created_at.desc")
}

func (db *SupabaseDatabase) listRequests(endpoint string) ([]models.EventRequest, error) {
	data, err := db.makeRequest("GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	var rows []models.EventRequest
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse requests: %w", err)
	}
	return rows, nil
}

// decideRequest 条件PATCH：status=eq.pending过滤保证同一申请只能被决定一次，
// 竞争的第二次决定会匹配0行。
func (db *SupabaseDatabase) decideRequest(requestID string, patch map[string]interface{}) (*models.EventRequest, error) {
	endpoint := "/event_requests?id=eq." + url.QueryEscape(requestID) + "&status=eq.pending"
	data, err := db.makeRequest("PATCH", endpoint, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update request: %w", err)
	}
	var rows []models.EventRequest
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse updated request: %w", err)
	}
	if len(rows) == 0 {
		// 区分不存在和已被决定
		if _, err := db.GetRequest(requestID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("request already decided: %w", ErrNotPending)
	}
	return &rows[0], nil
}

func (db *SupabaseDatabase) ApproveRequest(requestID, approvedBy, comment string, event *models.CalendarEvent) (*models.EventRequest, error) {
	patch := map[string]interface{}{
		"status":      string(models.RequestApproved),
		"approved_by": approvedBy,
		"approved_at": nowRFC3339(),
		"updated_at":  nowRFC3339(),
	}
	if comment != "" {
		patch["admin_comment"] = comment
	}
	req, err := db.decideRequest(requestID, patch)
	if err != nil {
		return nil, err
	}

	// REST API没有事务；先赢得条件更新，再写入派生事件。
	if err := db.CreateEvent(event); err != nil {
		return nil, fmt.Errorf("request approved but event materialization failed: %w", err)
	}
	return req, nil
}

func (db *SupabaseDatabase) RejectRequest(requestID, rejectedBy, comment string) (*models.EventRequest, error) {
	patch := map[string]interface{}{
		"status":      string(models.RequestRejected),
		"rejected_by": rejectedBy,
		"rejected_at": nowRFC3339(),
		"updated_at":  nowRFC3339(),
	}
	if comment != "" {
		patch["admin_comment"] = comment
	}
	return db.decideRequest(requestID, patch)
}

// ================= Calendar events =================

func eventPayload(event *models.CalendarEvent) map[string]interface{} {
	payload := map[string]interface{}{
		"title":           event.Title,
		"date":            event.Date,
		"start_time":      event.StartTime,
		"end_time":        event.EndTime,
		"location":        event.Location,
		"description":     event.Description,
		"budget":          event.Budget,
		"category":        event.Category,
		"participants":    event.Participants,
		"is_public":       event.IsPublic,
		"origin":          string(event.Origin),
		"created_by":      event.CreatedBy,
		"organizer_name":  event.OrganizerName,
		"organizer_email": event.OrganizerEmail,
		"status":          event.Status,
		"color":           event.Color,
	}
	if event.ApprovedBy != "" {
		payload["approved_by"] = event.ApprovedBy
	}
	if event.RequestID != nil {
		payload["request_id"] = *event.RequestID
	}
	return payload
}

func (db *SupabaseDatabase) CreateEvent(event *models.CalendarEvent) error {
	data, err := db.makeRequest("POST", "/events", eventPayload(event))
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	var rows []models.CalendarEvent
	if err := json.Unmarshal(data, &rows); err == nil && len(rows) > 0 {
		registered := event.Registered
		*event = rows[0]
		event.Registered = registered
	}
	return nil
}

func (db *SupabaseDatabase) GetEvent(id string) (*models.CalendarEvent, error) {
	data, err := db.makeRequest("GET", "/events?id=eq."+url.QueryEscape(id)+"&select=*&limit=1", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	var rows []models.CalendarEvent
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("event %w", ErrNotFound)
	}
	return &rows[0], nil
}

func (db *SupabaseDatabase) ListEvents() ([]models.CalendarEvent, error) {
	return db.listEvents("/events?select=*&order=date.asc,created_at.asc")
}

func (db *SupabaseDatabase) ListPublicEvents() ([]models.CalendarEvent, error) {
	return db.listEvents("/events?is_public=eq.true&select=*&order=date.asc,created_at.asc")
}

func (db *SupabaseDatabase) listEvents(endpoint string) ([]models.CalendarEvent, error) {
	data, err := db.makeRequest("GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	var rows []models.CalendarEvent
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse events: %w", err)
	}
	return rows, nil
}

func (db *SupabaseDatabase) UpdateEvent(event *models.CalendarEvent) error {
	patch := map[string]interface{}{
		"title":        event.Title,
		"date":         event.Date,
		"start_time":   event.StartTime,
		"end_time":     event.EndTime,
		"location":     event.Location,
		"description":  event.Description,
		"budget":       event.Budget,
		"category":     event.Category,
		"participants": event.Participants,
		"is_public":    event.IsPublic,
		"status":       event.Status,
		"updated_at":   nowRFC3339(),
	}
	data, err := db.makeRequest("PATCH", "/events?id=eq."+url.QueryEscape(event.ID), patch)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	var rows []models.CalendarEvent
	if err := json.Unmarshal(data, &rows); err == nil && len(rows) == 0 {
		return fmt.Errorf("event %w", ErrNotFound)
	}
	return nil
}

func (db *SupabaseDatabase) DeleteEvent(id string) error {
	data, err := db.makeRequest("DELETE", "/events?id=eq."+url.QueryEscape(id), nil)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	var rows []models.CalendarEvent
	if err := json.Unmarshal(data, &rows); err == nil && len(rows) == 0 {
		return fmt.Errorf("event %w", ErrNotFound)
	}
	return nil
}

// AddParticipant 利用唯一约束 + ignore-duplicates实现原子集合添加。
// 返回空集表示该用户已报名过。
func (db *SupabaseDatabase) AddParticipant(eventID string, p models.Participant) (bool, error) {
	payload := map[string]interface{}{
		"event_id": eventID,
		"user_id":  p.UserID,
		"name":     p.Name,
		"email":    p.Email,
	}
	headers := map[string]string{
		"Prefer": "resolution=ignore-duplicates,return=representation",
	}
	data, err := db.makeRequestWithHeaders("POST", "/event_participants", payload, headers)
	if err != nil {
		return false, fmt.Errorf("failed to register participant: %w", err)
	}
	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return false, fmt.Errorf("failed to parse registration result: %w", err)
	}
	return len(rows) > 0, nil
}

func (db *SupabaseDatabase) ListParticipants(eventID string) ([]models.Participant, error) {
	data, err := db.makeRequest("GET", "/event_participants?event_id=eq."+url.QueryEscape(eventID)+"&select=user_id,name,email&order=created_at.asc", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	var rows []models.Participant
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse participants: %w", err)
	}
	return rows, nil
}

// ================= Expenses =================

func (db *SupabaseDatabase) CreateExpense(expense *models.Expense) error {
	payload := map[string]interface{}{
		"title":       expense.Title,
		"amount":      expense.Amount,
		"category":    expense.Category,
		"date":        expense.Date,
		"event_title": expense.EventTitle,
		"description": expense.Description,
		"status":      string(expense.Status),
	}
	data, err := db.makeRequest("POST", "/expenses", payload)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	var rows []models.Expense
	if err := json.Unmarshal(data, &rows); err == nil && len(rows) > 0 {
		*expense = rows[0]
	}
	return nil
}

func (db *SupabaseDatabase) GetExpense(id string) (*models.Expense, error) {
	data, err := db.makeRequest("GET", "/expenses?id=eq."+url.QueryEscape(id)+"&select=*&limit=1", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	var rows []models.Expense
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse expense: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("expense %w", ErrNotFound)
	}
	return &rows[0], nil
}

func (db *SupabaseDatabase) ListExpenses() ([]models.Expense, error) {
	data, err := db.makeRequest("GET", "/expenses?select=*&order=date.desc,created_at.desc", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	var rows []models.Expense
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse expenses: %w", err)
	}
	return rows, nil
}

func (db *SupabaseDatabase) UpdateExpense(expense *models.Expense) error {
	patch := map[string]interface{}{
		"title":       expense.Title,
		"amount":      expense.Amount,
		"category":    expense.Category,
		"date":        expense.Date,
		"event_title": expense.EventTitle,
		"description": expense.Description,
		"status":      string(expense.Status),
		"updated_at":  nowRFC3339(),
	}
	data, err := db.makeRequest("PATCH", "/expenses?id=eq."+url.QueryEscape(expense.ID), patch)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	var rows []models.Expense
	if err := json.Unmarshal(data, &rows); err == nil && len(rows) == 0 {
		return fmt.Errorf("expense %w", ErrNotFound)
	}
	return nil
}

func (db *SupabaseDatabase) DeleteExpense(id string) error {
	data, err := db.makeRequest("DELETE", "/expenses?id=eq."+url.QueryEscape(id), nil)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	var rows []models.Expense
	if err := json.Unmarshal(data, &rows); err == nil && len(rows) == 0 {
		return fmt.Errorf("expense %w", ErrNotFound)
	}
	return nil
}

// HealthCheck 健康检查（访问一个轻量端点）
func (db *SupabaseDatabase) HealthCheck() error {
	_, err := db.makeRequest("GET", "/users?select=id&limit=1", nil)
	return err
}

// Close 关闭连接（HTTP客户端无需显式关闭）
func (db *SupabaseDatabase) Close() error {
	return nil
}
