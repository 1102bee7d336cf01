// Package redis 课程目录缓存操作
package redis

import (
	"context"
	"encoding/json"

	goredis "github.com/redis/go-redis/v9"

	"course-market/internal/shared/cache"
	"course-market/internal/shared/model"
)

// GetCourseList 读取缓存的课程列表
//
// 未命中返回 (nil, nil)。缓存损坏按未命中处理，等待下次写入覆盖。
func (s *Store) GetCourseList(ctx context.Context, key string) ([]*model.Course, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var courses []*model.Course
	if err := json.Unmarshal(data, &courses); err != nil {
		return nil, nil
	}
	return courses, nil
}

// SetCourseList 写入课程列表缓存
func (s *Store) SetCourseList(ctx context.Context, key string, courses []*model.Course) error {
	data, err := json.Marshal(courses)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, cache.TTLCourseList).Err()
}

// InvalidateCourseList 清除所有课程列表缓存
//
// 用 SCAN 遍历前缀下的 key 逐批删除，避免 KEYS 阻塞。
func (s *Store) InvalidateCourseList(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, cache.KeyCourseList+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}
