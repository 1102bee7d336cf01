// Package purchase 课程购买 HTTP 处理器
//
// 购买记录通过存储层的条件更新原子写入，重复购买由存储层报告冲突。
package purchase

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"course-market/internal/apiserver/auth"
	"course-market/internal/shared/model"
	"course-market/internal/shared/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// purchasesTotal 成功购买计数
var purchasesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "course_market_purchases_total",
	Help: "Total number of successful course purchases",
})

// Store 购买处理器依赖的存储接口
type Store interface {
	GetCourse(ctx context.Context, id string) (*model.Course, error)
	ListCoursesByIDs(ctx context.Context, ids []string) ([]*model.Course, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	RecordPurchase(ctx context.Context, userID string, record model.PurchaseRecord) error
}

// Handler 购买 HTTP 处理器
type Handler struct {
	store Store
}

// NewHandler 创建购买处理器
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册购买相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /courses/{id}/purchase", h.Purchase)
	mux.HandleFunc("GET /api/users/purchased-courses", h.PurchasedCourses)
}

// Purchase 购买课程
// POST /courses/{id}/purchase
//
// 购买记录快照课程标题和价格，之后课程改价不影响历史记录。
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	courseID := r.PathValue("id")
	course, err := h.store.GetCourse(r.Context(), courseID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Printf("[purchase] GetCourse error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if course == nil {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}

	user, err := h.store.GetUserByUsername(r.Context(), authUser.Username)
	if err != nil {
		log.Printf("[purchase] GetUserByUsername error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}

	record := model.PurchaseRecord{
		CourseID:    course.ID,
		CourseTitle: course.Title,
		Price:       course.Price,
		PurchasedAt: time.Now(),
	}

	if err := h.store.RecordPurchase(r.Context(), user.ID, record); err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			writeError(w, http.StatusConflict, "course already purchased")
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusUnauthorized, "user not found")
		default:
			log.Printf("[purchase] RecordPurchase error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	purchasesTotal.Inc()
	log.Printf("[purchase] User %s purchased course %s (%s)", user.Username, course.Title, course.ID)
	writeJSON(w, http.StatusOK, map[string]string{
		"msg": "Course purchased successfully",
	})
}

// PurchasedCourses 当前用户已购课程列表
// GET /api/users/purchased-courses
func (h *Handler) PurchasedCourses(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := h.store.GetUserByUsername(r.Context(), authUser.Username)
	if err != nil {
		log.Printf("[purchase.list] GetUserByUsername error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}

	courses := []*model.Course{}
	if len(user.PurchasedCourses) > 0 {
		courses, err = h.store.ListCoursesByIDs(r.Context(), user.PurchasedCourses)
		if err != nil {
			log.Printf("[purchase.list] ListCoursesByIDs error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	writeJSON(w, http.StatusOK, courses)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}
