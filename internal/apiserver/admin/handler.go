// Package admin 管理端 HTTP 处理器
//
// 管理端路由全部挂在 admin 角色门禁之后，
// 角色以数据库中的当前值为准，不信任令牌里的声明。
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"course-market/internal/shared/cache"
	"course-market/internal/shared/model"
	"course-market/internal/shared/storage"
)

// Store 管理端处理器依赖的存储接口
type Store interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	ListInstructors(ctx context.Context) ([]*model.User, error)
	SetInstructorVerified(ctx context.Context, id string, verified bool) error
}

// Handler 管理端 HTTP 处理器
type Handler struct {
	store   Store
	catalog cache.CatalogCache
}

// NewHandler 创建管理端处理器
func NewHandler(store Store, catalog cache.CatalogCache) *Handler {
	return &Handler{store: store, catalog: catalog}
}

// RegisterRoutes 注册管理端路由
//
// gate 是 admin 角色门禁，由 server 装配时传入。
func (h *Handler) RegisterRoutes(mux *http.ServeMux, gate func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("GET /admin/instructors", gate(h.ListInstructors))
	mux.HandleFunc("PUT /admin/instructors/{id}/verify", gate(h.VerifyInstructor))
}

// ListInstructors 讲师列表
// GET /admin/instructors
func (h *Handler) ListInstructors(w http.ResponseWriter, r *http.Request) {
	instructors, err := h.store.ListInstructors(r.Context())
	if err != nil {
		log.Printf("[admin] ListInstructors error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if instructors == nil {
		instructors = []*model.User{}
	}
	writeJSON(w, http.StatusOK, instructors)
}

// VerifyInstructor 切换讲师认证状态
// PUT /admin/instructors/{id}/verify
func (h *Handler) VerifyInstructor(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	instructor, err := h.store.GetUserByID(r.Context(), id)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Printf("[admin.verify] GetUserByID error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if instructor == nil || instructor.Role != model.UserRoleInstructor {
		writeError(w, http.StatusNotFound, "instructor not found")
		return
	}

	verified := !instructor.IsVerified
	if err := h.store.SetInstructorVerified(r.Context(), id, verified); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "instructor not found")
			return
		}
		log.Printf("[admin.verify] SetInstructorVerified error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// 讲师认证状态会出现在课程列表里，需要失效缓存
	if err := h.catalog.InvalidateCourseList(r.Context()); err != nil {
		log.Printf("[admin.verify] cache invalidate error: %v", err)
	}

	log.Printf("[admin] Instructor %s (%s) verified=%v", instructor.Username, id, verified)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"msg":        "Instructor verification updated",
		"isVerified": verified,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}
