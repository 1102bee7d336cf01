// Package course 课程目录 HTTP 处理器
//
// 课程列表是唯一带缓存的读路径；创建课程会同步失效列表缓存。
package course

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"course-market/internal/apiserver/auth"
	"course-market/internal/shared/cache"
	"course-market/internal/shared/model"
	"course-market/internal/shared/storage"
)

// Store 课程处理器依赖的存储接口
type Store interface {
	CreateCourse(ctx context.Context, course *model.Course) error
	GetCourse(ctx context.Context, id string) (*model.Course, error)
	ListCourses(ctx context.Context, filter storage.CourseFilter) ([]*model.Course, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListReviewsByCourse(ctx context.Context, courseID string) ([]*model.Review, error)
}

// Handler 课程 HTTP 处理器
type Handler struct {
	store          Store
	catalog        cache.CatalogCache
	mediaURLPrefix string
}

// NewHandler 创建课程处理器
func NewHandler(store Store, catalog cache.CatalogCache, mediaURLPrefix string) *Handler {
	return &Handler{store: store, catalog: catalog, mediaURLPrefix: mediaURLPrefix}
}

// RegisterRoutes 注册课程相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux, gate func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("GET /courses", h.List)
	mux.HandleFunc("GET /courses/{id}", h.Get)
	mux.HandleFunc("POST /create-course", gate(h.Create))
	mux.HandleFunc("GET /instructor/courses", gate(h.InstructorCourses))
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type createCourseRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Difficulty  string   `json:"difficulty"`
	Price       float64  `json:"price"`
	VideoURLs   []string `json:"video_urls"`
}

type instructorCourse struct {
	model.Course
	Reviews []*model.Review `json:"reviews"`
}

// ============================================================================
// Handlers
// ============================================================================

// List 课程列表
// GET /courses?difficulty=beginner&min_rating=4.0&instructor=xxx
//
// 公开接口。结果按过滤条件缓存，命中直接返回；
// 回源后补全讲师认证状态再写入缓存。
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseCourseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := cache.ListKey(filter)
	if cached, err := h.catalog.GetCourseList(r.Context(), key); err != nil {
		log.Printf("[course.list] cache get error: %v", err)
	} else if cached != nil {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	courses, err := h.store.ListCourses(r.Context(), filter)
	if err != nil {
		log.Printf("[course.list] ListCourses error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if courses == nil {
		courses = []*model.Course{}
	}

	if err := h.decorateInstructors(r.Context(), courses); err != nil {
		log.Printf("[course.list] decorate error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.catalog.SetCourseList(r.Context(), key, courses); err != nil {
		log.Printf("[course.list] cache set error: %v", err)
	}
	writeJSON(w, http.StatusOK, courses)
}

// Get 课程详情
// GET /courses/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	course, err := h.store.GetCourse(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "course not found")
			return
		}
		log.Printf("[course.get] GetCourse error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if course == nil {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}

	if err := h.decorateInstructors(r.Context(), []*model.Course{course}); err != nil {
		log.Printf("[course.get] decorate error: %v", err)
	}
	writeJSON(w, http.StatusOK, course)
}

// Create 创建课程（讲师）
// POST /create-course
//
// 课程的讲师字段始终取自当前登录讲师，不信任请求体。
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req createCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	difficulty, err := model.ParseDifficulty(req.Difficulty)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	instructor, err := h.store.GetUserByUsername(r.Context(), authUser.Username)
	if err != nil {
		log.Printf("[course.create] GetUserByUsername error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if instructor == nil {
		writeError(w, http.StatusUnauthorized, "instructor not found")
		return
	}

	now := time.Now()
	course := &model.Course{
		ID:          generateID("crs"),
		Title:       req.Title,
		Description: req.Description,
		Difficulty:  difficulty,
		Price:       req.Price,
		Rating:      0,
		VideoURLs:   req.VideoURLs,
		Instructor: model.InstructorRef{
			Username:   instructor.Username,
			IsVerified: instructor.IsVerified,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := model.ValidateCourse(course, h.mediaURLPrefix); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.CreateCourse(r.Context(), course); err != nil {
		log.Printf("[course.create] CreateCourse error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.catalog.InvalidateCourseList(r.Context()); err != nil {
		log.Printf("[course.create] cache invalidate error: %v", err)
	}

	log.Printf("[course] Course created: %s (%s) by %s", course.Title, course.ID, course.Instructor.Username)
	writeJSON(w, http.StatusCreated, course)
}

// InstructorCourses 讲师自己的课程（含全部评价）
// GET /instructor/courses
func (h *Handler) InstructorCourses(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	courses, err := h.store.ListCourses(r.Context(), storage.CourseFilter{
		Instructor: authUser.Username,
		MinRating:  -1,
	})
	if err != nil {
		log.Printf("[course.instructor] ListCourses error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	result := make([]instructorCourse, 0, len(courses))
	for _, c := range courses {
		reviews, err := h.store.ListReviewsByCourse(r.Context(), c.ID)
		if err != nil {
			log.Printf("[course.instructor] ListReviewsByCourse error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if reviews == nil {
			reviews = []*model.Review{}
		}
		result = append(result, instructorCourse{Course: *c, Reviews: reviews})
	}

	writeJSON(w, http.StatusOK, result)
}

// ============================================================================
// 工具函数
// ============================================================================

// parseCourseFilter 解析列表查询参数
func parseCourseFilter(r *http.Request) (storage.CourseFilter, error) {
	filter := storage.CourseFilter{MinRating: -1}
	q := r.URL.Query()

	if d := q.Get("difficulty"); d != "" {
		parsed, err := model.ParseDifficulty(d)
		if err != nil {
			return filter, err
		}
		filter.Difficulty = string(parsed)
	}
	if rating := q.Get("min_rating"); rating != "" {
		v, err := strconv.ParseFloat(rating, 64)
		if err != nil || v < 0 || v > 5 {
			return filter, errors.New("min_rating must be a number between 0 and 5")
		}
		filter.MinRating = v
	}
	filter.Instructor = q.Get("instructor")
	return filter, nil
}

// decorateInstructors 用讲师当前的认证状态补全课程列表
//
// 同一讲师只查一次库。讲师账号已注销时保留课程里保存的快照。
func (h *Handler) decorateInstructors(ctx context.Context, courses []*model.Course) error {
	verified := make(map[string]bool)
	for i := range courses {
		username := courses[i].Instructor.Username
		if username == "" {
			continue
		}
		v, seen := verified[username]
		if !seen {
			user, err := h.store.GetUserByUsername(ctx, username)
			if err != nil {
				return err
			}
			if user == nil {
				verified[username] = courses[i].Instructor.IsVerified
				continue
			}
			v = user.IsVerified
			verified[username] = v
		}
		courses[i].Instructor.IsVerified = v
	}
	return nil
}

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
