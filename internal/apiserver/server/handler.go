package server

import (
	"net/http"

	"course-market/internal/apiserver/admin"
	"course-market/internal/apiserver/auth"
	"course-market/internal/apiserver/course"
	"course-market/internal/apiserver/media"
	"course-market/internal/apiserver/purchase"
	"course-market/internal/apiserver/review"
	"course-market/internal/shared/model"
)

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 公开接口:
//   - POST /signup            - 注册（成功即签发令牌）
//   - POST /login             - 登录
//   - POST /admin/login       - 管理员登录
//   - GET  /courses           - 课程列表
//   - GET  /health            - 健康检查
//   - GET  /metrics           - Prometheus 指标
//
// 认证接口 (Bearer):
//   - GET  /users/me                        - 当前用户
//   - GET  /courses/{id}                    - 课程详情
//   - POST /courses/{id}/purchase           - 购买课程
//   - GET  /api/users/purchased-courses     - 已购课程
//   - GET  /api/courses/{id}/reviews        - 评价列表
//   - POST /api/courses/{id}/reviews        - 创建评价（需已购）
//   - POST /upload-video                    - 上传视频
//
// 讲师接口:
//   - POST /create-course       - 创建课程
//   - GET  /instructor/courses  - 自己的课程（含评价）
//
// 管理接口:
//   - GET /admin/instructors                 - 讲师列表
//   - PUT /admin/instructors/{id}/verify     - 切换讲师认证
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler())

	// Auth 路由
	authHandler := auth.NewHandler(h.store, h.authConfig)
	authHandler.RegisterRoutes(mux)

	// 角色门禁：角色以数据库当前值为准
	instructorGate := auth.RequireRole(h.store, model.UserRoleInstructor, model.UserRoleAdmin)
	adminGate := auth.RequireRole(h.store, model.UserRoleAdmin)

	// 课程路由
	courseHandler := course.NewHandler(h.store, h.catalog, h.mediaURLPrefix)
	courseHandler.RegisterRoutes(mux, instructorGate)

	// 购买路由
	purchaseHandler := purchase.NewHandler(h.store)
	purchaseHandler.RegisterRoutes(mux)

	// 评价路由
	reviewHandler := review.NewHandler(h.store, h.catalog)
	reviewHandler.RegisterRoutes(mux)

	// 上传路由
	mediaHandler := media.NewHandler(h.uploader)
	mediaHandler.RegisterRoutes(mux)

	// 管理路由
	adminHandler := admin.NewHandler(h.store, h.catalog)
	adminHandler.RegisterRoutes(mux, adminGate)

	// 应用指标中间件
	apiHandler := h.metrics.MetricsMiddleware(mux)

	// 应用认证中间件
	authedHandler := auth.Middleware(h.authConfig)(apiHandler)

	// 应用请求日志中间件
	loggedHandler := h.requestLogMiddleware(authedHandler)

	// 应用 CORS 中间件
	return corsMiddleware(loggedHandler)
}
