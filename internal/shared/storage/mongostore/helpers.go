package mongostore

import (
	"context"
	"errors"
	"time"

	"course-market/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// wrapError 将 MongoDB 错误转换为领域错误
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return storage.ErrDuplicate
	}
	return err
}

// findOne 查找单个文档并解码到 result
// 文档不存在时返回 (nil, nil)
func findOne[T any](ctx context.Context, s *Store, collection string, filter bson.D) (*T, error) {
	start := time.Now()
	var result T
	err := s.col(collection).FindOne(ctx, filter).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		err = nil
		s.observe("find_one", collection, start, nil)
		return nil, nil
	}
	s.observe("find_one", collection, start, err)
	if err != nil {
		return nil, wrapError(err)
	}
	return &result, nil
}

// findMany 查找多个文档
func findMany[T any](ctx context.Context, s *Store, collection string, filter bson.D, opts ...options.Lister[options.FindOptions]) ([]*T, error) {
	start := time.Now()
	results, err := decodeAll[T](ctx, s.col(collection), filter, opts...)
	s.observe("find", collection, start, err)
	return results, err
}

func decodeAll[T any](ctx context.Context, col *mongo.Collection, filter bson.D, opts ...options.Lister[options.FindOptions]) ([]*T, error) {
	cursor, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, wrapError(err)
	}
	defer cursor.Close(ctx)

	var results []*T
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, err
		}
		results = append(results, &item)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	if results == nil {
		results = []*T{}
	}
	return results, nil
}

// insertOne 插入单个文档
func insertOne(ctx context.Context, s *Store, collection string, doc interface{}) error {
	start := time.Now()
	_, err := s.col(collection).InsertOne(ctx, doc)
	s.observe("insert_one", collection, start, err)
	return wrapError(err)
}

// updateFields 按 _id 更新指定字段
func updateFields(ctx context.Context, s *Store, collection, id string, update bson.D) error {
	start := time.Now()
	res, err := s.col(collection).UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: update}})
	s.observe("update_one", collection, start, err)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}
