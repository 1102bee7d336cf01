package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// CourseDifficulty 课程难度
type CourseDifficulty string

const (
	DifficultyBeginner     CourseDifficulty = "beginner"
	DifficultyIntermediate CourseDifficulty = "intermediate"
	DifficultyAdvanced     CourseDifficulty = "advanced"
)

// ParseDifficulty 解析难度字符串
func ParseDifficulty(s string) (CourseDifficulty, error) {
	switch CourseDifficulty(s) {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return CourseDifficulty(s), nil
	}
	return "", fmt.Errorf("invalid difficulty: %q", s)
}

// InstructorRef 课程响应中的讲师信息（用户名 + 认证状态）
type InstructorRef struct {
	Username   string `json:"username" bson:"username"`
	IsVerified bool   `json:"isVerified" bson:"isVerified"`
}

// Course 课程
//
// Rating 是展示用的平均分，每次新评价写入后重算
// （所有评价评分的算术平均，保留一位小数）。
type Course struct {
	ID          string           `json:"id" bson:"_id"`
	Title       string           `json:"title" bson:"title"`
	Description string           `json:"description" bson:"description"`
	Difficulty  CourseDifficulty `json:"difficulty" bson:"difficulty"`
	Price       float64          `json:"price" bson:"price"`
	Rating      float64          `json:"rating" bson:"rating"`
	VideoURLs   []string         `json:"video_urls" bson:"video_urls"`
	Instructor  InstructorRef    `json:"instructor" bson:"instructor"`
	CreatedAt   time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" bson:"updated_at"`
}

// ValidateCourse 校验课程创建字段
//
// mediaURLPrefix 非空时，所有视频 URL 必须以该前缀开头
// （即必须是媒体服务返回的地址，不接受任意外链）。
func ValidateCourse(c *Course, mediaURLPrefix string) error {
	if c.Title == "" || len(c.Title) > 100 {
		return fmt.Errorf("title must be 1-100 characters")
	}
	if len(c.Description) < 10 {
		return fmt.Errorf("description must be at least 10 characters")
	}
	if _, err := ParseDifficulty(string(c.Difficulty)); err != nil {
		return err
	}
	if c.Price < 0 {
		return fmt.Errorf("price must be non-negative")
	}
	if c.Rating < 0 || c.Rating > 5 {
		return fmt.Errorf("rating must be between 0 and 5")
	}
	if len(c.VideoURLs) == 0 {
		return fmt.Errorf("at least one video URL is required")
	}
	if mediaURLPrefix != "" {
		for _, u := range c.VideoURLs {
			if !strings.HasPrefix(u, mediaURLPrefix) {
				return fmt.Errorf("invalid video URL: %s", u)
			}
		}
	}
	return nil
}

// MeanRating 计算评分平均值，保留一位小数
// 空切片返回 0
func MeanRating(ratings []float64) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range ratings {
		sum += r
	}
	return math.Round(sum/float64(len(ratings))*10) / 10
}
