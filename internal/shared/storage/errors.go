// Package storage 定义存储层领域错误
//
// 这些错误用于隔离业务层与底层存储引擎的错误类型，
// 各驱动实现（mongostore/memstore）负责将底层错误转换为这些领域错误。
package storage

import "errors"

var (
	// ErrNotFound 实体不存在
	// 替代 mongo.ErrNoDocuments
	ErrNotFound = errors.New("entity not found")

	// ErrConflict 条件更新未命中（目标状态已被占用，如重复购买）
	ErrConflict = errors.New("conflict: condition not met")

	// ErrDuplicate 唯一键冲突（重复邮箱、重复评价）
	ErrDuplicate = errors.New("duplicate: entity already exists")
)
