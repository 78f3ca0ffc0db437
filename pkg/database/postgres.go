package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"clubhub-backend/pkg/models"

	_ "github.com/lib/pq"
)

// PostgresDatabase PostgreSQL数据库实现
type PostgresDatabase struct {
	db *sql.DB
}

// NewPostgresDatabase 创建PostgreSQL数据库实例
func NewPostgresDatabase(dsn string) DatabaseInterface {
	// 尝试多种连接策略来解决Serverless环境的IPv6问题
	// Sanitize DSN to avoid stray CR/LF from env values
	dsn = strings.TrimSpace(dsn)
	strategies := []string{
		addConnectionParams(dsn, "prefer_simple_protocol=true"),
		addConnectionParams(dsn, "prefer_simple_protocol=true&connect_timeout=10"),
		addConnectionParams(dsn, "sslmode=require&prefer_simple_protocol=true"),
		dsn, // 最后尝试原始DSN
	}

	var db *sql.DB
	var err error

	for i, strategy := range strategies {
		fmt.Printf("🔄 Trying connection strategy %d...\n", i+1)

		db, err = sql.Open("postgres", strategy)
		if err != nil {
			fmt.Printf("❌ Strategy %d failed to open: %v\n", i+1, err)
			continue
		}

		// 设置连接池参数，适合无服务器环境
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err = db.Ping(); err != nil {
			fmt.Printf("❌ Strategy %d failed to ping: %v\n", i+1, err)
			db.Close()
			continue
		}

		fmt.Printf("✅ PostgreSQL connection established successfully with strategy %d\n", i+1)
		return &PostgresDatabase{db: db}
	}

	panic(fmt.Sprintf("Failed to connect to PostgreSQL with all strategies. Last error: %v", err))
}

// addConnectionParams 添加连接参数到DSN
func addConnectionParams(dsn, params string) string {
	if params == "" {
		return dsn
	}

	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}

	return dsn + separator + params
}

// ================= Users =================

// CreateUser 创建用户
func (db *PostgresDatabase) CreateUser(user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	query := `
		INSERT INTO users (email, password_hash, name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := db.db.QueryRow(query, user.Email, user.Password, user.Name, string(user.Role)).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail 根据邮箱获取用户
func (db *PostgresDatabase) GetUserByEmail(email string) (*models.User, error) {
	query := `
		SELECT id, email, COALESCE(name,''), COALESCE(password_hash,''), COALESCE(role,'user'),
		       created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var u models.User
	var role string
	err := db.db.QueryRow(query, email).Scan(
		&u.ID, &u.Email, &u.Name, &u.Password, &role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	u.Role = models.UserRole(role)
	return &u, nil
}

// GetUserByID 根据ID获取用户
func (db *PostgresDatabase) GetUserByID(id string) (*models.User, error) {
	query := `
		SELECT id, email, COALESCE(name,''), COALESCE(role,'user'), created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var u models.User
	var role string
	err := db.db.QueryRow(query, id).Scan(
		&u.ID, &u.Email, &u.Name, &role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.Role = models.UserRole(role)
	return &u, nil
}

// ================= Event requests =================

const requestColumns = `id, event_name, date, COALESCE(time,''), COALESCE(location,''), purpose,
	budget_estimate, is_public, category, submitter_id, submitter_name, submitter_email,
	status, approved_by, approved_at, rejected_by, rejected_at, COALESCE(admin_comment,''),
	created_at, updated_at`

func scanRequest(row interface{ Scan(...interface{}) error }) (*models.EventRequest, error) {
	var r models.EventRequest
	var status string
	var approvedBy, rejectedBy sql.NullString
	var approvedAt, rejectedAt sql.NullTime
	err := row.Scan(
		&r.ID, &r.EventName, &r.Date, &r.Time, &r.Location, &r.Purpose,
		&r.BudgetEstimate, &r.IsPublic, &r.Category, &r.SubmitterID, &r.SubmitterName, &r.SubmitterEmail,
		&status, &approvedBy, &approvedAt, &rejectedBy, &rejectedAt, &r.AdminComment,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Status = models.RequestStatus(status)
	if approvedBy.Valid {
		r.ApprovedBy = &approvedBy.String
	}
	if approvedAt.Valid {
		r.ApprovedAt = &approvedAt.Time
	}
	if rejectedBy.Valid {
		r.RejectedBy = &rejectedBy.String
	}
	if rejectedAt.Valid {
		r.RejectedAt = &rejectedAt.Time
	}
	return &r, nil
}

// CreateRequest 创建事件申请（初始状态 pending）
func (db *PostgresDatabase) CreateRequest(req *models.EventRequest) error {
	query := `
		INSERT INTO event_requests (event_name, date, time, location, purpose, budget_estimate,
			is_public, category, submitter_id, submitter_name, submitter_email, status, admin_comment,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 'pending', '', NOW(), NOW())
		RETURNING id, status, created_at, updated_at
	`
	var status string
	err := db.db.QueryRow(query, req.EventName, req.Date, req.Time, req.Location, req.Purpose,
		req.BudgetEstimate, req.IsPublic, req.Category, req.SubmitterID, req.SubmitterName, req.SubmitterEmail).
		Scan(&req.ID, &status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Status = models.RequestStatus(status)
	return nil
}

// GetRequest 获取单条申请
func (db *PostgresDatabase) GetRequest(id string) (*models.EventRequest, error) {
	row := db.db.QueryRow(`SELECT `+requestColumns+` FROM event_requests WHERE id = $1`, id)
	r, err := scanRequest(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("request %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return r, nil
}

// ListRequests 列出全部申请（管理员视图），按提交时间倒序
func (db *PostgresDatabase) ListRequests() ([]models.EventRequest, error) {
	return db.listRequests(`SELECT `+requestColumns+` FROM event_requests ORDER BY created_at DESC`, nil)
}

// ListRequestsBySubmitter 列出某个成员自己的申请
func (db *PostgresDatabase) ListRequestsBySubmitter(userID string) ([]models.EventRequest, error) {
	return db.listRequests(`SELECT `+requestColumns+` FROM event_requests WHERE submitter_id = $1 ORDER BY created_at DESC`, []interface{}{userID})
}

func (db *PostgresDatabase) listRequests(query string, args []interface{}) ([]models.EventRequest, error) {
	rows, err := db.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()
	var list []models.EventRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		list = append(list, *r)
	}
	return list, rows.Err()
}

// ApproveRequest 条件更新 + 派生事件写入，单事务完成。
// guard: WHERE status='pending'，第二次决定不会覆盖第一次。
func (db *PostgresDatabase) ApproveRequest(requestID, approvedBy, comment string, event *models.CalendarEvent) (*models.EventRequest, error) {
	tx, err := db.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	row := tx.QueryRow(`
		UPDATE event_requests
		SET status = 'approved', approved_by = $2, approved_at = NOW(),
		    admin_comment = COALESCE(NULLIF($3, ''), admin_comment), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+requestColumns, requestID, approvedBy, comment)
	req, err := scanRequest(row)
	if err != nil {
		_ = tx.Rollback()
		if err == sql.ErrNoRows {
			return nil, db.transitionFailure(requestID)
		}
		return nil, fmt.Errorf("failed to approve request: %w", err)
	}

	if err := insertEvent(tx, event); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to materialize event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit approval: %w", err)
	}
	return req, nil
}

// RejectRequest 条件更新为 rejected，不创建任何事件。
func (db *PostgresDatabase) RejectRequest(requestID, rejectedBy, comment string) (*models.EventRequest, error) {
	row := db.db.QueryRow(`
		UPDATE event_requests
		SET status = 'rejected', rejected_by = $2, rejected_at = NOW(),
		    admin_comment = COALESCE(NULLIF($3, ''), admin_comment), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+requestColumns, requestID, rejectedBy, comment)
	req, err := scanRequest(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, db.transitionFailure(requestID)
		}
		return nil, fmt.Errorf("failed to reject request: %w", err)
	}
	return req, nil
}

// transitionFailure 区分"申请不存在"和"申请已被决定"
func (db *PostgresDatabase) transitionFailure(requestID string) error {
	var status string
	err := db.db.QueryRow(`SELECT status FROM event_requests WHERE id = $1`, requestID).Scan(&status)
	if err == sql.ErrNoRows {
		return fmt.Errorf("request %w", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to inspect request: %w", err)
	}
	return fmt.Errorf("request is %s: %w", status, ErrNotPending)
}

// ================= Calendar events =================

const eventColumns = `id, title, date, COALESCE(start_time,''), COALESCE(end_time,''), COALESCE(location,''),
	COALESCE(description,''), budget, category, participants, is_public, origin, created_by,
	COALESCE(approved_by,''), request_id, COALESCE(organizer_name,''), COALESCE(organizer_email,''),
	status, color, created_at, updated_at`

type rowScanner interface{ Scan(...interface{}) error }

func scanEvent(row rowScanner) (*models.CalendarEvent, error) {
	var e models.CalendarEvent
	var origin string
	var requestID sql.NullString
	err := row.Scan(
		&e.ID, &e.Title, &e.Date, &e.StartTime, &e.EndTime, &e.Location,
		&e.Description, &e.Budget, &e.Category, &e.Participants, &e.IsPublic, &origin, &e.CreatedBy,
		&e.ApprovedBy, &requestID, &e.OrganizerName, &e.OrganizerEmail,
		&e.Status, &e.Color, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Origin = models.EventOrigin(origin)
	if requestID.Valid {
		e.RequestID = &requestID.String
	}
	return &e, nil
}

type execer interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

func insertEvent(q execer, event *models.CalendarEvent) error {
	query := `
		INSERT INTO events (title, date, start_time, end_time, location, description, budget,
			category, participants, is_public, origin, created_by, approved_by, request_id,
			organizer_name, organizer_email, status, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13,''), $14,
			$15, $16, $17, $18, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	return q.QueryRow(query, event.Title, event.Date, event.StartTime, event.EndTime, event.Location,
		event.Description, event.Budget, event.Category, event.Participants, event.IsPublic,
		string(event.Origin), event.CreatedBy, event.ApprovedBy, event.RequestID,
		event.OrganizerName, event.OrganizerEmail, event.Status, event.Color).
		Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
}

// CreateEvent 创建日历事件（管理员直建路径）
func (db *PostgresDatabase) CreateEvent(event *models.CalendarEvent) error {
	if err := insertEvent(db.db, event); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// GetEvent 获取单个事件
func (db *PostgresDatabase) GetEvent(id string) (*models.CalendarEvent, error) {
	row := db.db.QueryRow(`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	e, err := scanEvent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("event %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

// ListEvents 列出全部事件
func (db *PostgresDatabase) ListEvents() ([]models.CalendarEvent, error) {
	return db.listEvents(`SELECT `+eventColumns+` FROM events ORDER BY date ASC, created_at ASC`, nil)
}

// ListPublicEvents 仅公开事件（非管理员视图）
func (db *PostgresDatabase) ListPublicEvents() ([]models.CalendarEvent, error) {
	return db.listEvents(`SELECT `+eventColumns+` FROM events WHERE is_public = true ORDER BY date ASC, created_at ASC`, nil)
}

func (db *PostgresDatabase) listEvents(query string, args []interface{}) ([]models.CalendarEvent, error) {
	rows, err := db.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()
	var list []models.CalendarEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

// UpdateEvent 更新事件。申请派生字段（origin/request_id）不可改写。
func (db *PostgresDatabase) UpdateEvent(event *models.CalendarEvent) error {
	res, err := db.db.Exec(`
		UPDATE events
		SET title=$1, date=$2, start_time=$3, end_time=$4, location=$5, description=$6,
		    budget=$7, category=$8, participants=$9, is_public=$10, status=$11, updated_at=NOW()
		WHERE id=$12
	`, event.Title, event.Date, event.StartTime, event.EndTime, event.Location, event.Description,
		event.Budget, event.Category, event.Participants, event.IsPublic, event.Status, event.ID)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("event %w", ErrNotFound)
	}
	return nil
}

// DeleteEvent 删除事件及其报名记录
func (db *PostgresDatabase) DeleteEvent(id string) error {
	res, err := db.db.Exec(`DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("event %w", ErrNotFound)
	}
	return nil
}

// AddParticipant 原子集合添加：唯一约束 (event_id, user_id) + ON CONFLICT DO NOTHING，
// 并发报名不会产生重复行，也不会丢失更新。
func (db *PostgresDatabase) AddParticipant(eventID string, p models.Participant) (bool, error) {
	res, err := db.db.Exec(`
		INSERT INTO event_participants (event_id, user_id, name, email, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (event_id, user_id) DO NOTHING
	`, eventID, p.UserID, p.Name, p.Email)
	if err != nil {
		return false, fmt.Errorf("failed to register participant: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// ListParticipants 列出事件的报名成员
func (db *PostgresDatabase) ListParticipants(eventID string) ([]models.Participant, error) {
	rows, err := db.db.Query(`
		SELECT user_id, name, email FROM event_participants
		WHERE event_id = $1 ORDER BY created_at ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()
	var list []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.UserID, &p.Name, &p.Email); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// ================= Expenses =================

const expenseColumns = `id, title, amount, category, date, COALESCE(event_title,''),
	COALESCE(description,''), status, created_at, updated_at`

func scanExpense(row rowScanner) (*models.Expense, error) {
	var x models.Expense
	var status string
	err := row.Scan(&x.ID, &x.Title, &x.Amount, &x.Category, &x.Date, &x.EventTitle,
		&x.Description, &status, &x.CreatedAt, &x.UpdatedAt)
	if err != nil {
		return nil, err
	}
	x.Status = models.ExpenseStatus(status)
	return &x, nil
}

// CreateExpense 创建支出
func (db *PostgresDatabase) CreateExpense(expense *models.Expense) error {
	query := `
		INSERT INTO expenses (title, amount, category, date, event_title, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := db.db.QueryRow(query, expense.Title, expense.Amount, expense.Category, expense.Date,
		expense.EventTitle, expense.Description, string(expense.Status)).
		Scan(&expense.ID, &expense.CreatedAt, &expense.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// GetExpense 获取单条支出
func (db *PostgresDatabase) GetExpense(id string) (*models.Expense, error) {
	row := db.db.QueryRow(`SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id)
	x, err := scanExpense(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("expense %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return x, nil
}

// ListExpenses 按日期倒序列出支出
func (db *PostgresDatabase) ListExpenses() ([]models.Expense, error) {
	rows, err := db.db.Query(`SELECT ` + expenseColumns + ` FROM expenses ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()
	var list []models.Expense
	for rows.Next() {
		x, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		list = append(list, *x)
	}
	return list, rows.Err()
}

// UpdateExpense 更新支出
func (db *PostgresDatabase) UpdateExpense(expense *models.Expense) error {
	res, err := db.db.Exec(`
		UPDATE expenses
		SET title=$1, amount=$2, category=$3, date=$4, event_title=$5, description=$6, status=$7, updated_at=NOW()
		WHERE id=$8
	`, expense.Title, expense.Amount, expense.Category, expense.Date, expense.EventTitle,
		expense.Description, string(expense.Status), expense.ID)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("expense %w", ErrNotFound)
	}
	return nil
}

// DeleteExpense 删除支出
func (db *PostgresDatabase) DeleteExpense(id string) error {
	res, err := db.db.Exec(`DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("expense %w", ErrNotFound)
	}
	return nil
}

// HealthCheck 健康检查
func (db *PostgresDatabase) HealthCheck() error {
	return db.db.Ping()
}

// Close 关闭连接
func (db *PostgresDatabase) Close() error {
	return db.db.Close()
}
