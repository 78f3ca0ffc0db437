package handlers

import (
	"fmt"
	"net/http"

	"clubhub-backend/pkg/config"
	"clubhub-backend/pkg/database"
	"clubhub-backend/pkg/lifecycle"
	"clubhub-backend/pkg/middleware"
	"clubhub-backend/pkg/models"
	"clubhub-backend/pkg/policy"
	"clubhub-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// RequestsHandler 事件申请处理器
type RequestsHandler struct {
	config *config.Config
	db     database.DatabaseInterface
	engine *lifecycle.Engine
}

// NewRequestsHandler 创建事件申请处理器
func NewRequestsHandler(cfg *config.Config, db database.DatabaseInterface) *RequestsHandler {
	return &RequestsHandler{
		config: cfg,
		db:     db,
		engine: lifecycle.NewEngine(db),
	}
}

// Submit 提交事件申请
func (h *RequestsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	var payload models.SubmitRequestPayload
	if err := utils.ParseJSONBody(r, &payload); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}

	req, err := h.engine.SubmitRequest(user, &payload)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}

	utils.WriteCreatedResponse(w, map[string]interface{}{"request": req})
}

// List 列出申请。管理员看到全部（可按status过滤），成员只看到自己的。
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	scope := policy.RequestsVisibleTo(user)

	var requests []models.EventRequest
	if scope.All {
		requests, err = h.db.ListRequests()
	} else {
		requests, err = h.db.ListRequestsBySubmitter(scope.SubmitterID)
	}
	if err != nil {
		fmt.Printf("[error] ListRequests failed for user=%s: %v\n", user.ID, err)
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	// 状态过滤（仅管理员视图有意义，但对成员也无害）
	if status := utils.GetQueryParam(r, "status", ""); status != "" {
		filtered := requests[:0]
		for _, req := range requests {
			if string(req.Status) == status {
				filtered = append(filtered, req)
			}
		}
		requests = filtered
	}

	// Compute weak ETag: requests:<scope>:<count>:<maxUpdated>
	var maxUpdated int64
	for _, req := range requests {
		if ts := req.UpdatedAt.UnixMilli(); ts > maxUpdated {
			maxUpdated = ts
		}
	}
	scopeKey := user.ID
	if scope.All {
		scopeKey = "all"
	}
	etag := fmt.Sprintf("W/\"requests:%s:%d:%d\"", scopeKey, len(requests), maxUpdated)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{
		"requests": requests,
		"total":    len(requests),
	})
}

// Get 获取单条申请（管理员或提交者本人）
func (h *RequestsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	req, err := h.db.GetRequest(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteNotFoundResponse(w, "Request not found")
		return
	}

	if !user.IsAdmin() && req.SubmitterID != user.ID {
		// 对无权限的成员隐藏存在性
		utils.WriteNotFoundResponse(w, "Request not found")
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"request": req})
}

// Approve 批准申请并物化日历事件（仅管理员）
func (h *RequestsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	admin, err := middleware.RequireAdmin(r.Context())
	if err != nil {
		utils.WriteForbiddenResponse(w, "Admin role required")
		return
	}

	var payload models.DecidePayload
	if r.ContentLength > 0 {
		if err := utils.ParseJSONBody(r, &payload); err != nil {
			utils.WriteBadRequestResponse(w, "Invalid request body")
			return
		}
	}

	req, event, err := h.engine.Approve(chi.URLParam(r, "id"), admin, payload.Comment)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{
		"request": req,
		"event":   event,
	})
}

// Reject 驳回申请（仅管理员），不创建任何事件
func (h *RequestsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	admin, err := middleware.RequireAdmin(r.Context())
	if err != nil {
		utils.WriteForbiddenResponse(w, "Admin role required")
		return
	}

	var payload models.DecidePayload
	if r.ContentLength > 0 {
		if err := utils.ParseJSONBody(r, &payload); err != nil {
			utils.WriteBadRequestResponse(w, "Invalid request body")
			return
		}
	}

	req, err := h.engine.Reject(chi.URLParam(r, "id"), admin, payload.Comment)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"request": req})
}
