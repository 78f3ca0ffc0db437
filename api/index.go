package handler

import (
	"fmt"
	"net/http"
	"time"

	"clubhub-backend/pkg/config"
	"clubhub-backend/pkg/database"
	"clubhub-backend/pkg/handlers"
	customMiddleware "clubhub-backend/pkg/middleware"
	"clubhub-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler 是Vercel函数的入口点
// 单体路由模式：所有API端点集中在一个Chi路由器中管理
func Handler(w http.ResponseWriter, r *http.Request) {
	// 加载配置
	cfg := config.GetCached()

	// 验证配置
	if err := cfg.Validate(); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Configuration error: "+err.Error())
		return
	}

	// 获取数据库连接（连接池跨调用复用）
	db := database.GetDatabase(database.DatabaseConfig{
		UseLocalDB:  cfg.UseLocalDB,
		PostgresDSN: cfg.PostgresDSN,
		SupabaseURL: cfg.SupabaseURL,
		SupabaseKey: cfg.SupabaseKey,
		Debug:       cfg.Debug,
	})
	// 注意：连接由连接池管理，无需手动关闭

	// 创建Chi路由器
	router := chi.NewRouter()

	// 设置全局中间件
	setupMiddleware(router, cfg)

	// 设置路由
	setupRoutes(router, cfg, db)

	// 将请求传递给Chi路由器处理
	router.ServeHTTP(w, r)
}

// setupMiddleware 设置全局中间件
func setupMiddleware(router *chi.Mux, cfg *config.Config) {
	// 基础中间件
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	// Normalize path and restore scheme/host before logging and routing
	router.Use(customMiddleware.Normalize())
	router.Use(customMiddleware.Logger(cfg))
	router.Use(customMiddleware.Recovery(cfg))

	// CORS中间件
	router.Use(customMiddleware.CORS(cfg))

	// 超时中间件（Vercel函数有时间限制）
	router.Use(middleware.Timeout(25 * time.Second)) // 留5秒缓冲

	// 压缩中间件
	router.Use(middleware.Compress(5))

	// 请求体大小限制
	router.Use(customMiddleware.MaxBodySize(1 << 20)) // 1MB

	// 开发环境额外中间件
	if cfg.IsDevelopment() {
		router.Use(middleware.Heartbeat("/ping"))
	}
}

// setupRoutes 设置所有API路由
func setupRoutes(router *chi.Mux, cfg *config.Config, db database.DatabaseInterface) {
	// 创建处理器
	authHandler := handlers.NewAuthHandler(cfg, db)
	requestsHandler := handlers.NewRequestsHandler(cfg, db)
	eventsHandler := handlers.NewEventsHandler(cfg, db)
	expensesHandler := handlers.NewExpensesHandler(cfg, db)

	// 健康检查端点
	router.Get("/", authHandler.HealthCheck)

	// 数据库连接池状态端点（调试用）
	if cfg.IsDevelopment() {
		router.Get("/debug/db-pool", func(w http.ResponseWriter, r *http.Request) {
			utils.WriteSuccessResponse(w, database.GetConnectionStats())
		})
	}

	// API路由组
	router.Route("/api", func(r chi.Router) {
		// 公开路由（不需要认证）
		r.Route("/auth", func(r chi.Router) {
			r.Use(customMiddleware.ContentTypeJSON)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.RefreshToken)
			r.Post("/logout", authHandler.Logout)
		})

		// 需要认证的路由
		r.Group(func(r chi.Router) {
			// 应用认证中间件
			r.Use(customMiddleware.AuthMiddleware(cfg))

			r.Get("/auth/me", authHandler.Me)

			// 事件申请路由
			r.Route("/requests", func(r chi.Router) {
				r.Get("/", requestsHandler.List)    // 列出申请（按角色过滤）
				r.Post("/", requestsHandler.Submit) // 提交申请
				r.Get("/{id}", requestsHandler.Get) // 获取申请

				// 决定路由（仅管理员，处理器内再校验角色）
				r.Post("/{id}/approve", requestsHandler.Approve)
				r.Post("/{id}/reject", requestsHandler.Reject)
			})

			// 日历事件路由
			r.Route("/events", func(r chi.Router) {
				r.Get("/", eventsHandler.List)       // 列出事件（按可见性过滤）
				r.Post("/", eventsHandler.Create)    // 管理员直建事件
				r.Get("/stats", eventsHandler.Stats) // 仪表盘统计
				r.Get("/{id}", eventsHandler.Get)
				r.Put("/{id}", eventsHandler.Update)
				r.Delete("/{id}", eventsHandler.Delete)
				r.Post("/{id}/register", eventsHandler.Register) // 报名
			})

			// 支出台账路由（仅管理员）
			r.Route("/expenses", func(r chi.Router) {
				r.Use(customMiddleware.AdminOnly)
				r.Get("/", expensesHandler.List)
				r.Post("/", expensesHandler.Create)
				r.Get("/stats", expensesHandler.Stats)
				r.Get("/{id}", expensesHandler.Get)
				r.Put("/{id}", expensesHandler.Update)
				r.Delete("/{id}", expensesHandler.Delete)
			})
		})
	})

	// 404处理
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteNotFoundResponse(w, fmt.Sprintf("Route not found: %s %s", r.Method, r.URL.Path))
	})

	// 405处理
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorResponseWithCode(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			fmt.Sprintf("Method %s not allowed for %s", r.Method, r.URL.Path), "")
	})
}
