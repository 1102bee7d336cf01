// Package cache 缓存层抽象接口
//
// 提供课程目录的读缓存能力，当前由 Redis 实现。
package cache

import (
	"context"
	"fmt"
	"time"

	"course-market/internal/shared/model"
	"course-market/internal/shared/storage"
)

// ============================================================================
// 缓存接口定义
// ============================================================================

// CatalogCache 课程目录缓存接口
//
// 课程列表是整个系统读压力最大的接口，按过滤条件缓存查询结果。
// 未命中返回 (nil, nil)，调用方回源数据库。
type CatalogCache interface {
	GetCourseList(ctx context.Context, key string) ([]*model.Course, error)
	SetCourseList(ctx context.Context, key string, courses []*model.Course) error
	// InvalidateCourseList 清除所有列表缓存（课程创建 / 评分变更后调用）
	InvalidateCourseList(ctx context.Context) error
}

// ============================================================================
// 组合接口
// ============================================================================

// Cache 缓存组合接口
type Cache interface {
	CatalogCache
	Close() error
}

// ============================================================================
// Key 前缀和 TTL 常量
// ============================================================================

const (
	// Key 前缀
	KeyCourseList = "course_list:"

	// TTL 常量
	TTLCourseList = 5 * time.Minute
)

// ListKey 根据课程过滤条件生成缓存 key
//
// 同一过滤条件必须生成同一 key，各字段用 | 分隔避免歧义。
func ListKey(filter storage.CourseFilter) string {
	return fmt.Sprintf("%s%s|%.1f|%s", KeyCourseList, filter.Difficulty, filter.MinRating, filter.Instructor)
}
