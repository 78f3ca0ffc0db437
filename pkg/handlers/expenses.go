package handlers

import (
	"fmt"
	"net/http"

	"clubhub-backend/pkg/config"
	"clubhub-backend/pkg/database"
	"clubhub-backend/pkg/lifecycle"
	"clubhub-backend/pkg/middleware"
	"clubhub-backend/pkg/models"
	"clubhub-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// ExpensesHandler 支出台账处理器（全部端点仅管理员）
type ExpensesHandler struct {
	config *config.Config
	db     database.DatabaseInterface
	engine *lifecycle.Engine
}

// NewExpensesHandler 创建支出处理器
func NewExpensesHandler(cfg *config.Config, db database.DatabaseInterface) *ExpensesHandler {
	return &ExpensesHandler{
		config: cfg,
		db:     db,
		engine: lifecycle.NewEngine(db),
	}
}

// List 列出支出，按日期倒序
func (h *ExpensesHandler) List(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.db.ListExpenses()
	if err != nil {
		fmt.Printf("[error] ListExpenses failed: %v\n", err)
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	// 分类过滤
	if category := utils.GetQueryParam(r, "category", ""); category != "" {
		filtered := expenses[:0]
		for _, x := range expenses {
			if x.Category == category {
				filtered = append(filtered, x)
			}
		}
		expenses = filtered
	}

	var maxUpdated int64
	for _, x := range expenses {
		if ts := x.UpdatedAt.UnixMilli(); ts > maxUpdated {
			maxUpdated = ts
		}
	}
	etag := fmt.Sprintf("W/\"expenses:%d:%d\"", len(expenses), maxUpdated)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{
		"expenses":   expenses,
		"total":      len(expenses),
		"categories": models.ExpenseCategories,
	})
}

// Create 创建支出
func (h *ExpensesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload models.ExpensePayload
	if err := utils.ParseJSONBody(r, &payload); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}

	expense, err := h.engine.CreateExpense(&payload)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}

	utils.WriteCreatedResponse(w, map[string]interface{}{"expense": expense})
}

// Get 获取单条支出
func (h *ExpensesHandler) Get(w http.ResponseWriter, r *http.Request) {
	expense, err := h.db.GetExpense(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteNotFoundResponse(w, "Expense not found")
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"expense": expense})
}

// Update 更新支出
func (h *ExpensesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload models.ExpensePayload
	if err := utils.ParseJSONBody(r, &payload); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}

	expense, err := h.engine.UpdateExpense(chi.URLParam(r, "id"), &payload)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"expense": expense})
}

// Delete 删除支出
func (h *ExpensesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.db.DeleteExpense(id); err != nil {
		utils.WriteNotFoundResponse(w, "Expense not found")
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"deleted": id})
}

// Stats 支出汇总（总额、已批准、待审批）
func (h *ExpensesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.RequireAdmin(r.Context()); err != nil {
		utils.WriteForbiddenResponse(w, "Admin role required")
		return
	}

	expenses, err := h.db.ListExpenses()
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	stats := models.ExpenseStats{Count: len(expenses)}
	for _, x := range expenses {
		stats.Total += x.Amount
		switch x.Status {
		case models.ExpenseApproved:
			stats.Approved += x.Amount
		case models.ExpensePending:
			stats.Pending += x.Amount
		}
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"stats": stats})
}
