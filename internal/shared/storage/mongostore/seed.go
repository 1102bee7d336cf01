package mongostore

import (
	"context"
	"fmt"
	"log"
	"time"

	"course-market/internal/shared/model"
)

// SeedCourses 在课程集合为空时插入示例课程（开发环境便利）
func (s *Store) SeedCourses(ctx context.Context) error {
	n, err := s.CountCourses(ctx)
	if err != nil {
		return fmt.Errorf("count courses: %w", err)
	}
	if n > 0 {
		return nil
	}

	now := time.Now()
	samples := []*model.Course{
		{
			ID:          "crs-seed-python01",
			Title:       "Introduction to Python",
			Description: "Learn Python programming from scratch",
			Difficulty:  model.DifficultyBeginner,
			Price:       49.99,
			Rating:      4.5,
			VideoURLs:   []string{"https://media.example.com/course_videos/python-intro.mp4"},
			Instructor:  model.InstructorRef{Username: "john.doe", IsVerified: true},
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          "crs-seed-react001",
			Title:       "Web Development with React",
			Description: "Master React.js and build modern web apps",
			Difficulty:  model.DifficultyIntermediate,
			Price:       79.99,
			Rating:      4.8,
			VideoURLs:   []string{"https://media.example.com/course_videos/react-basics.mp4"},
			Instructor:  model.InstructorRef{Username: "jane.smith", IsVerified: true},
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}

	for _, c := range samples {
		if err := s.CreateCourse(ctx, c); err != nil {
			return fmt.Errorf("seed course %s: %w", c.ID, err)
		}
	}
	log.Printf("[mongostore] Seeded %d sample courses", len(samples))
	return nil
}
