// Package mongostore 实现基于 MongoDB 的 PersistentStore
//
// 使用 mongo-go-driver v2，通过 bson tag 实现 model 结构体的序列化/反序列化。
// 所有 Collection 名称和索引在 ensureIndexes 中统一管理。
package mongostore

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"course-market/internal/shared/storage"
)

// Collection 名称常量
const (
	ColUsers   = "users"
	ColCourses = "courses"
	ColReviews = "reviews"
)

// Store 实现 storage.PersistentStore 接口的 MongoDB 驱动
type Store struct {
	client   *mongo.Client
	db       *mongo.Database
	observer storage.QueryObserver
}

// SetQueryObserver 设置查询观察器（启动期调用，不做并发保护）
func (s *Store) SetQueryObserver(obs storage.QueryObserver) {
	s.observer = obs
}

// observe 上报一次查询，observer 未设置时为空操作
func (s *Store) observe(operation, collection string, start time.Time, err error) {
	if s.observer != nil {
		s.observer(operation, collection, time.Since(start), err)
	}
}

// NewStore 创建 MongoDB 存储实例
//
// uri: MongoDB 连接 URI，如 "mongodb://localhost:27017"
// dbName: 数据库名称，如 "course_market"
func NewStore(uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect failed: %w", err)
	}

	// 验证连接
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongostore: ping failed: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{client: client, db: db}

	// 创建索引
	if err := s.ensureIndexes(ctx); err != nil {
		log.Printf("WARNING: mongostore: ensure indexes failed: %v", err)
	}

	return s, nil
}

// Close 关闭 MongoDB 连接
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// col 获取指定 Collection
func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// ensureIndexes 创建所有必要的索引
//
// users.email / users.username 唯一索引保证重复注册在存储层兜底；
// reviews (course_id, user_id) 唯一索引保证同一用户对同一课程只有一条评价。
func (s *Store) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col    string
		keys   bson.D
		unique bool
	}

	indexes := []idx{
		// users
		{ColUsers, bson.D{{Key: "email", Value: 1}}, true},
		{ColUsers, bson.D{{Key: "username", Value: 1}}, true},
		{ColUsers, bson.D{{Key: "role", Value: 1}}, false},

		// courses
		{ColCourses, bson.D{{Key: "instructor.username", Value: 1}}, false},
		{ColCourses, bson.D{{Key: "difficulty", Value: 1}}, false},
		{ColCourses, bson.D{{Key: "created_at", Value: -1}}, false},

		// reviews
		{ColReviews, bson.D{{Key: "course_id", Value: 1}, {Key: "user_id", Value: 1}}, true},
		{ColReviews, bson.D{{Key: "course_id", Value: 1}, {Key: "created_at", Value: -1}}, false},
	}

	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if i.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}

	return nil
}
