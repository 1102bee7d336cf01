// Package memstore 实现基于内存的 PersistentStore
//
// 用于单元测试和无 MongoDB 的本地开发。
// 语义与 mongostore 对齐：唯一约束返回 ErrDuplicate，
// 条件更新未命中返回 ErrConflict。
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"course-market/internal/shared/model"
	"course-market/internal/shared/storage"
)

// Store 内存存储
type Store struct {
	mu      sync.RWMutex
	users   map[string]*model.User   // _id -> user
	courses map[string]*model.Course // _id -> course
	reviews map[string]*model.Review // _id -> review
}

// NewStore 创建内存存储实例
func NewStore() *Store {
	return &Store{
		users:   make(map[string]*model.User),
		courses: make(map[string]*model.Course),
		reviews: make(map[string]*model.Review),
	}
}

// Close 实现 PersistentStore 接口
func (s *Store) Close() error {
	return nil
}

// 编译期接口断言
var _ storage.PersistentStore = (*Store)(nil)

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return storage.ErrDuplicate
	}
	for _, u := range s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return storage.ErrDuplicate
		}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, nil
}

func (s *Store) ListInstructors(ctx context.Context) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []*model.User{}
	for _, u := range s.users {
		if u.Role == model.UserRoleInstructor {
			result = append(result, cloneUser(u))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

func (s *Store) SetInstructorVerified(ctx context.Context, id string, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.Role != model.UserRoleInstructor {
		return storage.ErrNotFound
	}
	u.IsVerified = verified
	u.UpdatedAt = time.Now()
	return nil
}

func (s *Store) RecordPurchase(ctx context.Context, userID string, record model.PurchaseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	for _, id := range u.PurchasedCourses {
		if id == record.CourseID {
			return storage.ErrConflict
		}
	}
	u.PurchasedCourses = append(u.PurchasedCourses, record.CourseID)
	u.PurchaseHistory = append(u.PurchaseHistory, record)
	return nil
}

// ============================================================================
// CourseStore
// ============================================================================

func (s *Store) CreateCourse(ctx context.Context, course *model.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[course.ID]; ok {
		return storage.ErrDuplicate
	}
	c := *course
	s.courses[course.ID] = &c
	return nil
}

func (s *Store) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.courses[id]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, nil
}

func (s *Store) ListCourses(ctx context.Context, filter storage.CourseFilter) ([]*model.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []*model.Course{}
	for _, c := range s.courses {
		if filter.Difficulty != "" && string(c.Difficulty) != filter.Difficulty {
			continue
		}
		if filter.MinRating >= 0 && c.Rating < filter.MinRating {
			continue
		}
		if filter.Instructor != "" && c.Instructor.Username != filter.Instructor {
			continue
		}
		clone := *c
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) ListCoursesByIDs(ctx context.Context, ids []string) ([]*model.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []*model.Course{}
	for _, id := range ids {
		if c, ok := s.courses[id]; ok {
			clone := *c
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (s *Store) SetCourseRating(ctx context.Context, id string, rating float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[id]
	if !ok {
		return storage.ErrNotFound
	}
	c.Rating = rating
	c.UpdatedAt = time.Now()
	return nil
}

func (s *Store) CountCourses(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.courses)), nil
}

// ============================================================================
// ReviewStore
// ============================================================================

func (s *Store) CreateReview(ctx context.Context, review *model.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reviews {
		if r.CourseID == review.CourseID && r.UserID == review.UserID {
			return storage.ErrDuplicate
		}
	}
	r := *review
	s.reviews[review.ID] = &r
	return nil
}

func (s *Store) ListReviewsByCourse(ctx context.Context, courseID string) ([]*model.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []*model.Review{}
	for _, r := range s.reviews {
		if r.CourseID == courseID {
			clone := *r
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

// cloneUser 深拷贝用户，避免调用方修改内部状态
func cloneUser(u *model.User) *model.User {
	clone := *u
	clone.PurchasedCourses = append([]string(nil), u.PurchasedCourses...)
	clone.PurchaseHistory = append([]model.PurchaseRecord(nil), u.PurchaseHistory...)
	return &clone
}
