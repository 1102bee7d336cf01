package review

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"course-market/internal/apiserver/auth"
	"course-market/internal/shared/cache"
	"course-market/internal/shared/model"
	"course-market/internal/shared/storage/memstore"
)

func newTestHandler(t *testing.T) (*Handler, *memstore.Store) {
	t.Helper()
	store := memstore.NewStore()
	return NewHandler(store, cache.NewNoOpCache()), store
}

func seedCourse(t *testing.T, store *memstore.Store, id string) {
	t.Helper()
	course := &model.Course{
		ID:          id,
		Title:       "Go 入门",
		Description: "一段足够长的课程描述文字",
		Difficulty:  model.DifficultyBeginner,
		Price:       49.9,
		VideoURLs:   []string{"http://localhost:9000/videos/" + id + "/intro.mp4"},
		Instructor:  model.InstructorRef{Username: "teach01"},
		CreatedAt:   time.Now(),
	}
	if err := store.CreateCourse(context.Background(), course); err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
}

// seedBuyer 创建已购或未购指定课程的用户
func seedBuyer(t *testing.T, store *memstore.Store, username string, purchased ...string) *model.User {
	t.Helper()
	history := make([]model.PurchaseRecord, 0, len(purchased))
	for _, id := range purchased {
		history = append(history, model.PurchaseRecord{
			CourseID: id, CourseTitle: "Go 入门", Price: 49.9, PurchasedAt: time.Now(),
		})
	}
	ids := purchased
	if ids == nil {
		ids = []string{}
	}
	user := &model.User{
		ID:               "usr-" + username,
		Username:         username,
		Email:            username + "@example.com",
		PasswordHash:     "x",
		Role:             model.UserRoleUser,
		PurchasedCourses: ids,
		PurchaseHistory:  history,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

func reviewReq(t *testing.T, courseID, username string, rating int, comment string) *http.Request {
	t.Helper()
	body, err := json.Marshal(createReviewRequest{Rating: rating, Comment: comment})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest("POST", "/api/courses/"+courseID+"/reviews", bytes.NewReader(body))
	req.SetPathValue("id", courseID)
	return req.WithContext(auth.WithAuthUser(req.Context(), &auth.AuthUser{
		Username: username,
		Role:     model.UserRoleUser,
	}))
}

func TestCreateReview(t *testing.T) {
	h, store := newTestHandler(t)
	seedCourse(t, store, "crs-001")
	seedBuyer(t, store, "buyer01", "crs-001")
	seedBuyer(t, store, "buyer02", "crs-001")
	seedBuyer(t, store, "watcher")

	// 已购用户评价成功
	rec := httptest.NewRecorder()
	h.Create(rec, reviewReq(t, "crs-001", "buyer01", 4, "内容不错"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first review: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// 重复评价返回 409
	rec = httptest.NewRecorder()
	h.Create(rec, reviewReq(t, "crs-001", "buyer01", 5, "再评一次"))
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate review: status = %d, want 409", rec.Code)
	}

	// 未购用户返回 403
	rec = httptest.NewRecorder()
	h.Create(rec, reviewReq(t, "crs-001", "watcher", 5, "没买也想评"))
	if rec.Code != http.StatusForbidden {
		t.Errorf("not purchased: status = %d, want 403", rec.Code)
	}

	// 未知课程返回 404
	rec = httptest.NewRecorder()
	h.Create(rec, reviewReq(t, "crs-999", "buyer01", 5, "不存在的课程"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown course: status = %d, want 404", rec.Code)
	}

	// 评分重算：[4, 5] → 4.5
	rec = httptest.NewRecorder()
	h.Create(rec, reviewReq(t, "crs-001", "buyer02", 5, "讲得很好"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("second review: status = %d", rec.Code)
	}
	course, err := store.GetCourse(context.Background(), "crs-001")
	if err != nil || course == nil {
		t.Fatalf("GetCourse: %v", err)
	}
	if course.Rating != 4.5 {
		t.Errorf("rating = %v, want 4.5", course.Rating)
	}
	if course.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be refreshed when the rating is recomputed")
	}
}

func TestCreateReviewValidation(t *testing.T) {
	h, store := newTestHandler(t)
	seedCourse(t, store, "crs-001")
	seedBuyer(t, store, "buyer01", "crs-001")

	tests := []struct {
		name    string
		rating  int
		comment string
	}{
		{"评分为 0", 0, "内容不错"},
		{"评分超过 5", 6, "内容不错"},
		{"评论为空", 4, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Create(rec, reviewReq(t, "crs-001", "buyer01", tt.rating, tt.comment))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestListReviews(t *testing.T) {
	h, store := newTestHandler(t)
	seedCourse(t, store, "crs-001")
	seedBuyer(t, store, "buyer01", "crs-001")

	listReq := func(courseID string) *http.Request {
		req := httptest.NewRequest("GET", "/api/courses/"+courseID+"/reviews", nil)
		req.SetPathValue("id", courseID)
		return req.WithContext(auth.WithAuthUser(req.Context(), &auth.AuthUser{
			Username: "buyer01",
			Role:     model.UserRoleUser,
		}))
	}

	// 无评价时返回空列表
	rec := httptest.NewRecorder()
	h.List(rec, listReq("crs-001"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var reviews []model.Review
	if err := json.Unmarshal(rec.Body.Bytes(), &reviews); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(reviews) != 0 {
		t.Errorf("len = %d, want 0", len(reviews))
	}

	rec = httptest.NewRecorder()
	h.Create(rec, reviewReq(t, "crs-001", "buyer01", 4, "内容不错"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.List(rec, listReq("crs-001"))
	json.Unmarshal(rec.Body.Bytes(), &reviews)
	if len(reviews) != 1 || reviews[0].Username != "buyer01" || reviews[0].Rating != 4 {
		t.Errorf("reviews = %+v", reviews)
	}

	// 未知课程返回 404
	rec = httptest.NewRecorder()
	h.List(rec, listReq("crs-999"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown course: status = %d, want 404", rec.Code)
	}
}
