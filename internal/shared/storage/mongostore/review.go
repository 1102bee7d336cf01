package mongostore

import (
	"context"

	"course-market/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// ReviewStore
// ============================================================================

// CreateReview 插入评价
// (course_id, user_id) 唯一索引冲突时返回 storage.ErrDuplicate
func (s *Store) CreateReview(ctx context.Context, review *model.Review) error {
	return insertOne(ctx, s, ColReviews, review)
}

func (s *Store) ListReviewsByCourse(ctx context.Context, courseID string) ([]*model.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Review](ctx, s, ColReviews, bson.D{{Key: "course_id", Value: courseID}}, opts)
}
