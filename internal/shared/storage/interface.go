// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：mongostore/, memstore/
//   - 初始化时通过依赖注入传入实现
package storage

import (
	"context"
	"time"

	"course-market/internal/shared/model"
)

// QueryObserver 观察一次存储层查询，用于指标上报和慢查询日志。
// 实现必须是非阻塞的轻量操作。
type QueryObserver func(operation, collection string, duration time.Duration, err error)

// CourseFilter 课程查询过滤条件
//
// Difficulty 为空表示不过滤；MinRating < 0 表示不过滤。
type CourseFilter struct {
	Difficulty string
	MinRating  float64
	Instructor string
}

// UserStore 用户存储接口
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	ListInstructors(ctx context.Context) ([]*model.User, error)
	CountUsers(ctx context.Context) (int64, error)
	SetInstructorVerified(ctx context.Context, id string, verified bool) error

	// RecordPurchase 原子条件更新：仅当 purchased_courses 中不含
	// record.CourseID 时追加课程 ID 和购买记录。
	// 已购买返回 ErrConflict，用户不存在返回 ErrNotFound。
	RecordPurchase(ctx context.Context, userID string, record model.PurchaseRecord) error
}

// CourseStore 课程存储接口
type CourseStore interface {
	CreateCourse(ctx context.Context, course *model.Course) error
	GetCourse(ctx context.Context, id string) (*model.Course, error)
	ListCourses(ctx context.Context, filter CourseFilter) ([]*model.Course, error)
	ListCoursesByIDs(ctx context.Context, ids []string) ([]*model.Course, error)
	SetCourseRating(ctx context.Context, id string, rating float64) error
	CountCourses(ctx context.Context) (int64, error)
}

// ReviewStore 评价存储接口
type ReviewStore interface {
	// CreateReview 重复 (course_id, user_id) 返回 ErrDuplicate
	CreateReview(ctx context.Context, review *model.Review) error
	ListReviewsByCourse(ctx context.Context, courseID string) ([]*model.Review, error)
}

// PersistentStore 持久化存储组合接口
type PersistentStore interface {
	UserStore
	CourseStore
	ReviewStore
	Close() error
}
