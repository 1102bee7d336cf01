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
// CourseStore
// ============================================================================

func (s *Store) CreateCourse(ctx context.Context, course *model.Course) error {
	return insertOne(ctx, s, ColCourses, course)
}

func (s *Store) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	return findOne[model.Course](ctx, s, ColCourses, bson.D{{Key: "_id", Value: id}})
}

func (s *Store) ListCourses(ctx context.Context, filter storage.CourseFilter) ([]*model.Course, error) {
	query := bson.D{}
	if filter.Difficulty != "" {
		query = append(query, bson.E{Key: "difficulty", Value: filter.Difficulty})
	}
	if filter.MinRating >= 0 {
		query = append(query, bson.E{Key: "rating", Value: bson.D{{Key: "$gte", Value: filter.MinRating}}})
	}
	if filter.Instructor != "" {
		query = append(query, bson.E{Key: "instructor.username", Value: filter.Instructor})
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Course](ctx, s, ColCourses, query, opts)
}

func (s *Store) ListCoursesByIDs(ctx context.Context, ids []string) ([]*model.Course, error) {
	if len(ids) == 0 {
		return []*model.Course{}, nil
	}
	return findMany[model.Course](ctx, s, ColCourses,
		bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
}

func (s *Store) SetCourseRating(ctx context.Context, id string, rating float64) error {
	return updateFields(ctx, s, ColCourses, id, bson.D{
		{Key: "rating", Value: rating},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) CountCourses(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := s.col(ColCourses).CountDocuments(ctx, bson.D{})
	s.observe("count", ColCourses, start, err)
	return n, wrapError(err)
}
