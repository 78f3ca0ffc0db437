package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"clubhub-backend/pkg/config"
	"clubhub-backend/pkg/database"
	"clubhub-backend/pkg/middleware"
	"clubhub-backend/pkg/models"
	"clubhub-backend/pkg/utils"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	config *config.Config
	db     database.DatabaseInterface
	jwt    *utils.JWTService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config, db database.DatabaseInterface) *AuthHandler {
	return &AuthHandler{
		config: cfg,
		db:     db,
		jwt:    utils.NewJWTService(cfg.JWTSecret),
	}
}

// Register 用户注册
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.UserRegisterRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		utils.WriteValidationErrorResponse(w, "A valid email is required", "email")
		return
	}
	if req.Name == "" {
		utils.WriteValidationErrorResponse(w, "Name is required", "name")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.WriteValidationErrorResponse(w, err.Error(), "password")
		return
	}

	// 邮箱唯一
	if _, err := h.db.GetUserByEmail(req.Email); err == nil {
		utils.WriteConflictResponse(w, "Email is already registered")
		return
	}

	role := models.RoleUser
	// 第一个管理员通过环境变量引导，后续角色变更走数据库
	if h.config.BootstrapAdminEmail != "" && req.Email == h.config.BootstrapAdminEmail {
		role = models.RoleAdmin
	}

	user := &models.User{
		Email:    req.Email,
		Password: hash,
		Name:     req.Name,
		Role:     role,
	}
	if err := h.db.CreateUser(user); err != nil {
		fmt.Printf("[error] Register failed for email=%s: %v\n", req.Email, err)
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	accessToken, refreshToken, expiresIn, err := h.jwt.GenerateTokenPair(user)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to generate tokens")
		return
	}

	utils.WriteCreatedResponse(w, models.UserLoginResponse{
		User:         *user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	})
}

// Login 用户登录
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.UserLoginRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		utils.WriteValidationErrorResponse(w, "Email and password are required", "")
		return
	}

	user, err := h.db.GetUserByEmail(req.Email)
	if err != nil {
		// 不区分"用户不存在"和"密码错误"
		utils.WriteUnauthorizedResponse(w, "Invalid email or password")
		return
	}
	if !utils.CheckPassword(user.Password, req.Password) {
		utils.WriteUnauthorizedResponse(w, "Invalid email or password")
		return
	}

	accessToken, refreshToken, expiresIn, err := h.jwt.GenerateTokenPair(user)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to generate tokens")
		return
	}

	utils.WriteSuccessResponse(w, models.UserLoginResponse{
		User:         *user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	})
}

// RefreshToken 刷新令牌。角色从数据库重新读取，管理员变更在下次刷新生效。
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshTokenRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}
	if req.RefreshToken == "" {
		utils.WriteValidationErrorResponse(w, "refresh_token is required", "refresh_token")
		return
	}

	claims, err := h.jwt.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Invalid refresh token")
		return
	}

	user, err := h.db.GetUserByID(claims.UserID)
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "User no longer exists")
		return
	}

	accessToken, expiresIn, err := h.jwt.GenerateAccessToken(user)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to generate access token")
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{
		"access_token": accessToken,
		"expires_in":   expiresIn,
	})
}

// Logout 登出。令牌是无状态的，由客户端丢弃；这里只确认操作。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccessResponse(w, map[string]interface{}{"message": "Logged out"})
}

// HealthCheck 健康检查端点
func (h *AuthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "ok"
	if err := h.db.HealthCheck(); err != nil {
		status = "degraded"
		dbStatus = err.Error()
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{
		"status":      status,
		"database":    dbStatus,
		"environment": h.config.Environment,
	})
}

// Me 返回当前用户资料（从数据库读取最新角色）
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	user, err := h.db.GetUserByID(current.ID)
	if err != nil {
		utils.WriteNotFoundResponse(w, "User not found")
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"user": user})
}
