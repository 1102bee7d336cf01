// Package server 路由配置与核心基础设施
//
// 本文件定义 Handler 及其依赖装配，路由见 handler.go，
// Prometheus 指标见 metrics.go，中间件见 middleware.go。
package server

import (
	"encoding/json"
	"net/http"

	"course-market/internal/apiserver/auth"
	"course-market/internal/apiserver/media"
	"course-market/internal/shared/cache"
	"course-market/internal/shared/storage"
	"course-market/pkg/logging"
)

// Handler API Server 顶层处理器
//
// 依赖说明（接口隔离原则）：
//   - store: MongoDB 存储层（持久化业务数据）
//   - catalog: 课程目录缓存（Redis 或 NoOp）
//   - uploader: 对象存储上传客户端（未配置时为 nil，上传接口返回 503）
type Handler struct {
	store    storage.PersistentStore
	catalog  cache.CatalogCache
	uploader media.Uploader

	authConfig     auth.Config
	mediaURLPrefix string

	logger  *logging.Logger
	metrics *Metrics
}

// NewHandler 创建 Handler 实例
func NewHandler(store storage.PersistentStore, catalog cache.CatalogCache, uploader media.Uploader, authCfg auth.Config, mediaURLPrefix string) *Handler {
	if catalog == nil {
		catalog = cache.NewNoOpCache()
	}
	return &Handler{
		store:          store,
		catalog:        catalog,
		uploader:       uploader,
		authConfig:     authCfg,
		mediaURLPrefix: mediaURLPrefix,
		logger:         logging.Default("api-server"),
		metrics:        NewMetrics("course_market"),
	}
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

// writeJSON 将数据以 JSON 格式写入 HTTP 响应
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 用于负载均衡器和监控系统检查服务状态。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
