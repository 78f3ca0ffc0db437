package models

import "time"

// ExpenseStatus 支出审批状态（与事件申请的生命周期相互独立）
type ExpenseStatus string

const (
	ExpensePending  ExpenseStatus = "pending"
	ExpenseApproved ExpenseStatus = "approved"
	ExpenseRejected ExpenseStatus = "rejected"
)

// ExpenseCategories is the closed set of ledger categories.
var ExpenseCategories = []string{
	"Catering",
	"Venue",
	"Transportation",
	"Office",
	"Marketing",
	"Equipment",
	"Other",
}

// ValidExpenseCategory reports whether the category is one of the enumerated set.
func ValidExpenseCategory(category string) bool {
	for _, c := range ExpenseCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Expense is a standalone ledger line. It references a related event only by
// free-text title; there is no structural link to CalendarEvent.
type Expense struct {
	ID          string        `json:"id" db:"id"`
	Title       string        `json:"title" db:"title"`
	Amount      float64       `json:"amount" db:"amount"`
	Category    string        `json:"category" db:"category"`
	Date        string        `json:"date" db:"date"` // YYYY-MM-DD
	EventTitle  string        `json:"event_title,omitempty" db:"event_title"`
	Description string        `json:"description,omitempty" db:"description"`
	Status      ExpenseStatus `json:"status" db:"status"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// ExpensePayload represents the request payload for creating or updating an expense
type ExpensePayload struct {
	Title       string   `json:"title"`
	Amount      *float64 `json:"amount"`
	Category    string   `json:"category"`
	Date        string   `json:"date,omitempty"`
	EventTitle  string   `json:"event_title,omitempty"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status,omitempty"`
}

// ExpenseStats 支出汇总（仪表盘卡片）
type ExpenseStats struct {
	Total    float64 `json:"total"`
	Approved float64 `json:"approved"`
	Pending  float64 `json:"pending"`
	Count    int     `json:"count"`
}
