// Package cache 缓存层 mock 实现
package cache

import (
	"context"

	"course-market/internal/shared/model"
)

// ============================================================================
// NoOpCache - 空操作的 Cache 实现（用于测试和未配置 Redis 的部署）
// ============================================================================

// NoOpCache 是一个不做任何操作的 Cache 实现
//
// 所有读取都未命中，调用方总是回源数据库。
type NoOpCache struct{}

// NewNoOpCache 创建 NoOpCache 实例
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Close 关闭缓存
func (c *NoOpCache) Close() error {
	return nil
}

// CatalogCache 方法

func (c *NoOpCache) GetCourseList(ctx context.Context, key string) ([]*model.Course, error) {
	return nil, nil
}

func (c *NoOpCache) SetCourseList(ctx context.Context, key string, courses []*model.Course) error {
	return nil
}

func (c *NoOpCache) InvalidateCourseList(ctx context.Context) error {
	return nil
}

// 确保 NoOpCache 实现了 Cache 接口
var _ Cache = (*NoOpCache)(nil)
