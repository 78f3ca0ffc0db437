package handlers

import (
	"fmt"
	"net/http"
	"time"

	"clubhub-backend/pkg/config"
	"clubhub-backend/pkg/database"
	"clubhub-backend/pkg/lifecycle"
	"clubhub-backend/pkg/middleware"
	"clubhub-backend/pkg/models"
	"clubhub-backend/pkg/policy"
	"clubhub-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// EventsHandler 日历事件处理器
type EventsHandler struct {
	config *config.Config
	db     database.DatabaseInterface
	engine *lifecycle.Engine
}

// NewEventsHandler 创建日历事件处理器
func NewEventsHandler(cfg *config.Config, db database.DatabaseInterface) *EventsHandler {
	return &EventsHandler{
		config: cfg,
		db:     db,
		engine: lifecycle.NewEngine(db),
	}
}

// List 列出日历事件（按可见性策略过滤，支持category/status查询参数）
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	scope := policy.EventsVisibleTo(user, h.config.RestrictPublicEvents)

	var events []models.CalendarEvent
	if scope.All {
		events, err = h.db.ListEvents()
	} else {
		events, err = h.db.ListPublicEvents()
	}
	if err != nil {
		fmt.Printf("[error] ListEvents failed for user=%s: %v\n", user.ID, err)
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	category := utils.GetQueryParam(r, "category", "")
	status := utils.GetQueryParam(r, "status", "")
	if category != "" || status != "" {
		filtered := events[:0]
		for _, e := range events {
			if category != "" && e.Category != category {
				continue
			}
			if status != "" && e.Status != status {
				continue
			}
			filtered = append(filtered, e)
		}
		events = filtered
	}

	// Compute weak ETag: events:<scope>:<count>:<maxUpdated>
	var maxUpdated int64
	for _, e := range events {
		if ts := e.UpdatedAt.UnixMilli(); ts > maxUpdated {
			maxUpdated = ts
		}
	}
	scopeKey := "public"
	if scope.All {
		scopeKey = "all"
	}
	etag := fmt.Sprintf("W/\"events:%s:%d:%d\"", scopeKey, len(events), maxUpdated)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{
		"events": events,
		"total":  len(events),
	})
}

// Create 管理员直接创建事件（不经过申请流程）
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	admin, err := middleware.RequireAdmin(r.Context())
	if err != nil {
		utils.WriteForbiddenResponse(w, "Admin role required")
		return
	}

	var payload models.CreateEventPayload
	if err := utils.ParseJSONBody(r, &payload); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}

	event, err := h.engine.CreateDirectEvent(admin, &payload)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}

	utils.WriteCreatedResponse(w, map[string]interface{}{"event": event})
}

// Get 获取单个事件（带报名名单）
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	event, err := h.db.GetEvent(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteNotFoundResponse(w, "Event not found")
		return
	}

	scope := policy.EventsVisibleTo(user, h.config.RestrictPublicEvents)
	if !policy.EventVisible(scope, event) {
		utils.WriteNotFoundResponse(w, "Event not found")
		return
	}

	if registered, err := h.db.ListParticipants(event.ID); err == nil {
		event.Registered = registered
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"event": event})
}

// Update 更新事件。管理员任意时间；创建者本人只能在创建后24小时内。
func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	event, err := h.db.GetEvent(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteNotFoundResponse(w, "Event not found")
		return
	}

	if !policy.CanEdit(user, event.CreatedBy, event.CreatedAt, time.Now()) {
		utils.WriteForbiddenResponse(w, "Edit window has closed")
		return
	}

	var payload models.UpdateEventPayload
	if err := utils.ParseJSONBody(r, &payload); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}

	applyEventUpdate(event, &payload)

	if err := h.db.UpdateEvent(event); err != nil {
		fmt.Printf("[error] UpdateEvent failed for event=%s: %v\n", event.ID, err)
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"event": event})
}

// applyEventUpdate 应用部分更新；origin/request_id/color等派生字段不可改
func applyEventUpdate(event *models.CalendarEvent, payload *models.UpdateEventPayload) {
	if payload.Title != nil {
		event.Title = *payload.Title
	}
	if payload.Date != nil {
		event.Date = *payload.Date
	}
	if payload.StartTime != nil {
		event.StartTime = *payload.StartTime
	}
	if payload.EndTime != nil {
		event.EndTime = *payload.EndTime
	}
	if payload.Location != nil {
		event.Location = *payload.Location
	}
	if payload.Description != nil {
		event.Description = *payload.Description
	}
	if payload.Budget != nil {
		event.Budget = *payload.Budget
	}
	if payload.Category != nil {
		event.Category = *payload.Category
	}
	if payload.Participants != nil {
		event.Participants = *payload.Participants
	}
	if payload.IsPublic != nil {
		event.IsPublic = *payload.IsPublic
	}
	if payload.Status != nil {
		event.Status = *payload.Status
	}
}

// Delete 删除事件。与Update使用同一策略窗口。
func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	event, err := h.db.GetEvent(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteNotFoundResponse(w, "Event not found")
		return
	}

	if !policy.CanDelete(user, event.CreatedBy, event.CreatedAt, time.Now()) {
		utils.WriteForbiddenResponse(w, "Delete window has closed")
		return
	}

	if err := h.db.DeleteEvent(event.ID); err != nil {
		fmt.Printf("[error] DeleteEvent failed for event=%s: %v\n", event.ID, err)
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"deleted": event.ID})
}

// Register 报名参加事件（重复报名为幂等no-op）
func (h *EventsHandler) Register(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	added, err := h.engine.RegisterForEvent(chi.URLParam(r, "id"), user)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{
		"registered":       true,
		"newly_registered": added,
	})
}

// Stats 事件统计（仪表盘卡片）
func (h *EventsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	scope := policy.EventsVisibleTo(user, h.config.RestrictPublicEvents)

	var events []models.CalendarEvent
	if scope.All {
		events, err = h.db.ListEvents()
	} else {
		events, err = h.db.ListPublicEvents()
	}
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	today := time.Now().Format("2006-01-02")
	stats := models.EventStats{TotalEvents: len(events)}
	for _, e := range events {
		stats.TotalBudget += e.Budget
		if e.Date == today {
			stats.TodayEvents++
		}
		if e.Date >= today {
			stats.UpcomingEvents++
		}
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"stats": stats})
}
