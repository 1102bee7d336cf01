package mongostore

import (
	"context"
	"time"

	"course-market/internal/shared/model"
	"course-market/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	return insertOne(ctx, s, ColUsers, user)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s, ColUsers, bson.D{{Key: "email", Value: email}})
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return findOne[model.User](ctx, s, ColUsers, bson.D{{Key: "username", Value: username}})
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, s, ColUsers, bson.D{{Key: "_id", Value: id}})
}

func (s *Store) ListInstructors(ctx context.Context) ([]*model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.User](ctx, s, ColUsers, bson.D{{Key: "role", Value: model.UserRoleInstructor}}, opts)
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := s.col(ColUsers).CountDocuments(ctx, bson.D{})
	s.observe("count", ColUsers, start, err)
	return n, wrapError(err)
}

func (s *Store) SetInstructorVerified(ctx context.Context, id string, verified bool) error {
	start := time.Now()
	res, err := s.col(ColUsers).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "role", Value: model.UserRoleInstructor}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "is_verified", Value: verified},
			{Key: "updated_at", Value: time.Now()},
		}}})
	s.observe("update_one", ColUsers, start, err)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// RecordPurchase 原子记录一次购买
//
// 过滤条件带 purchased_courses $ne，保证并发重复购买只有一次命中；
// 未命中时再查一次用户以区分 ErrNotFound 和 ErrConflict。
func (s *Store) RecordPurchase(ctx context.Context, userID string, record model.PurchaseRecord) error {
	start := time.Now()
	res, err := s.col(ColUsers).UpdateOne(ctx,
		bson.D{
			{Key: "_id", Value: userID},
			{Key: "purchased_courses", Value: bson.D{{Key: "$ne", Value: record.CourseID}}},
		},
		bson.D{{Key: "$push", Value: bson.D{
			{Key: "purchased_courses", Value: record.CourseID},
			{Key: "purchase_history", Value: record},
		}}})
	s.observe("update_one", ColUsers, start, err)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		user, err := s.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return storage.ErrNotFound
		}
		return storage.ErrConflict
	}
	return nil
}
