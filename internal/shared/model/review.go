package model

import (
	"fmt"
	"time"
)

// Review 课程评价
//
// 同一 (course_id, user_id) 只允许一条评价，由存储层唯一索引保证。
type Review struct {
	ID        string    `json:"id" bson:"_id"`
	CourseID  string    `json:"course_id" bson:"course_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Username  string    `json:"username" bson:"username"`
	Rating    float64   `json:"rating" bson:"rating"`
	Comment   string    `json:"comment" bson:"comment"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// ValidateReview 校验评价字段
func ValidateReview(r *Review) error {
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	if r.Comment == "" || len(r.Comment) > 500 {
		return fmt.Errorf("comment must be 1-500 characters")
	}
	return nil
}
