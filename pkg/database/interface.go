package database

import (
	"errors"
	"fmt"
	"os"

	"clubhub-backend/pkg/models"
)

// Sentinel errors shared by all store implementations. Callers distinguish a
// missing document from a decision race with errors.Is.
var (
	// ErrNotFound 目标文档不存在
	ErrNotFound = errors.New("not found")
	// ErrNotPending 条件更新失败：申请已不在 pending 状态
	ErrNotPending = errors.New("request is not pending")
)

// DatabaseInterface 定义数据库访问接口
type DatabaseInterface interface {
	// 用户管理
	CreateUser(user *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)

	// Event requests
	CreateRequest(req *models.EventRequest) error
	GetRequest(id string) (*models.EventRequest, error)
	ListRequests() ([]models.EventRequest, error)                          // created_at desc
	ListRequestsBySubmitter(userID string) ([]models.EventRequest, error) // created_at desc
	// ApproveRequest flips a pending request to approved and inserts the derived
	// calendar event in a single storage-level operation. The status guard is a
	// conditional update ("only if status == pending"), never read-then-write.
	// Returns ErrNotFound if no such request, ErrNotPending if already decided.
	ApproveRequest(requestID, approvedBy, comment string, event *models.CalendarEvent) (*models.EventRequest, error)
	// RejectRequest flips a pending request to rejected under the same guard.
	// No calendar event is created.
	RejectRequest(requestID, rejectedBy, comment string) (*models.EventRequest, error)

	// Calendar events
	CreateEvent(event *models.CalendarEvent) error
	GetEvent(id string) (*models.CalendarEvent, error)
	ListEvents() ([]models.CalendarEvent, error)
	ListPublicEvents() ([]models.CalendarEvent, error)
	UpdateEvent(event *models.CalendarEvent) error
	DeleteEvent(id string) error
	// AddParticipant performs an atomic set-add keyed by user id. Returns false
	// when the user was already registered; never duplicates an entry.
	AddParticipant(eventID string, p models.Participant) (bool, error)
	ListParticipants(eventID string) ([]models.Participant, error)

	// Expenses
	CreateExpense(expense *models.Expense) error
	GetExpense(id string) (*models.Expense, error)
	ListExpenses() ([]models.Expense, error) // date desc
	UpdateExpense(expense *models.Expense) error
	DeleteExpense(id string) error

	// 健康检查
	HealthCheck() error

	// 关闭连接
	Close() error
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	PostgresDSN string
	SupabaseURL string
	SupabaseKey string
	UseLocalDB  bool
	Debug       bool
}

// NewDatabase 根据环境与配置选择数据库实现
func NewDatabase(config DatabaseConfig) DatabaseInterface {
	// 是否在 Vercel 生产环境
	if IsVercelEnvironment() {
		fmt.Printf("🧭 Detected Vercel production environment\n")

		// Vercel 优先使用 Supabase（避免 IPv6）
		if config.SupabaseURL != "" && config.SupabaseKey != "" {
			fmt.Printf("🚀  Using Supabase REST API (Vercel optimized)\n")
			return NewSupabaseDatabase(config.SupabaseURL, config.SupabaseKey)
		}

		if config.PostgresDSN != "" {
			fmt.Printf("🌐  Using PostgreSQL in Vercel (may have IPv6 issues)\n")
			return NewPostgresDatabase(config.PostgresDSN)
		}

		panic("No valid database configured for Vercel environment. Please set SUPABASE_URL+SUPABASE_SERVICE_KEY or POSTGRES_DSN")
	}

	// 非 Vercel 环境：PostgreSQL > Supabase > 本地内存库
	if config.PostgresDSN != "" {
		fmt.Printf("🗄️  Using PostgreSQL database\n")
		return NewPostgresDatabase(config.PostgresDSN)
	}

	if config.SupabaseURL != "" && config.SupabaseKey != "" {
		fmt.Printf("🧰  Using Supabase REST API\n")
		return NewSupabaseDatabase(config.SupabaseURL, config.SupabaseKey)
	}

	if config.UseLocalDB {
		fmt.Printf("🧪  Using in-memory local database (development only)\n")
		return NewLocalDatabase()
	}

	panic("No valid database configuration found. Please configure POSTGRES_DSN or SUPABASE_URL+SUPABASE_SERVICE_KEY")
}

// IsVercelEnvironment 检查是否运行在 Vercel/Lambda 环境
func IsVercelEnvironment() bool {
	vercelEnv := os.Getenv("VERCEL_ENV")
	vercelURL := os.Getenv("VERCEL_URL")
	awsLambda := os.Getenv("AWS_LAMBDA_FUNCTION_NAME")
	return vercelEnv != "" || vercelURL != "" || awsLambda != ""
}
