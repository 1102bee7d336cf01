// Package review 课程评价 HTTP 处理器
//
// 只有已购用户可以评价，每人每课一条；
// 评价成功后同步重算课程的展示评分。
package review

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"course-market/internal/apiserver/auth"
	"course-market/internal/shared/cache"
	"course-market/internal/shared/model"
	"course-market/internal/shared/storage"
)

// Store 评价处理器依赖的存储接口
type Store interface {
	GetCourse(ctx context.Context, id string) (*model.Course, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	CreateReview(ctx context.Context, review *model.Review) error
	ListReviewsByCourse(ctx context.Context, courseID string) ([]*model.Review, error)
	SetCourseRating(ctx context.Context, courseID string, rating float64) error
}

// Handler 评价 HTTP 处理器
type Handler struct {
	store   Store
	catalog cache.CatalogCache
}

// NewHandler 创建评价处理器
func NewHandler(store Store, catalog cache.CatalogCache) *Handler {
	return &Handler{store: store, catalog: catalog}
}

// RegisterRoutes 注册评价相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/courses/{id}/reviews", h.Create)
	mux.HandleFunc("GET /api/courses/{id}/reviews", h.List)
}

// ============================================================================
// 请求类型
// ============================================================================

type createReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// ============================================================================
// Handlers
// ============================================================================

// Create 创建评价
// POST /api/courses/{id}/reviews
//
// 评分重算读的是评价全集，包含刚写入的这条，
// 所以展示评分始终等于所有评价的平均值（保留一位小数）。
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	courseID := r.PathValue("id")
	course, err := h.store.GetCourse(r.Context(), courseID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Printf("[review.create] GetCourse error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if course == nil {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}

	user, err := h.store.GetUserByUsername(r.Context(), authUser.Username)
	if err != nil {
		log.Printf("[review.create] GetUserByUsername error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}
	if !user.HasPurchased(courseID) {
		writeError(w, http.StatusForbidden, "course must be purchased before reviewing")
		return
	}

	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	review := &model.Review{
		ID:        generateID("rev"),
		CourseID:  courseID,
		UserID:    user.ID,
		Username:  user.Username,
		Rating:    float64(req.Rating),
		Comment:   req.Comment,
		CreatedAt: time.Now(),
	}
	if err := model.ValidateReview(review); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.CreateReview(r.Context(), review); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "course already reviewed")
			return
		}
		log.Printf("[review.create] CreateReview error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.recomputeRating(r.Context(), courseID); err != nil {
		// 评价已落库，评分留到下一条评价时修正
		log.Printf("[review.create] recompute rating error: %v", err)
	}

	if err := h.catalog.InvalidateCourseList(r.Context()); err != nil {
		log.Printf("[review.create] cache invalidate error: %v", err)
	}

	log.Printf("[review] User %s reviewed course %s: %v", user.Username, courseID, review.Rating)
	writeJSON(w, http.StatusCreated, review)
}

// List 课程评价列表
// GET /api/courses/{id}/reviews
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	courseID := r.PathValue("id")

	course, err := h.store.GetCourse(r.Context(), courseID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Printf("[review.list] GetCourse error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if course == nil {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}

	reviews, err := h.store.ListReviewsByCourse(r.Context(), courseID)
	if err != nil {
		log.Printf("[review.list] ListReviewsByCourse error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if reviews == nil {
		reviews = []*model.Review{}
	}
	writeJSON(w, http.StatusOK, reviews)
}

// recomputeRating 按评价全集重算课程展示评分
func (h *Handler) recomputeRating(ctx context.Context, courseID string) error {
	reviews, err := h.store.ListReviewsByCourse(ctx, courseID)
	if err != nil {
		return err
	}
	ratings := make([]float64, 0, len(reviews))
	for _, rv := range reviews {
		ratings = append(ratings, rv.Rating)
	}
	return h.store.SetCourseRating(ctx, courseID, model.MeanRating(ratings))
}

// ============================================================================
// 工具函数
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}

// generateID 生成带前缀的随机 ID
func generateID(prefix string) string {
	b := make([]byte, 6)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}
