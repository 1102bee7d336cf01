package model

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// UserRole 用户角色
type UserRole string

const (
	UserRoleUser       UserRole = "user"
	UserRoleInstructor UserRole = "instructor"
	UserRoleAdmin      UserRole = "admin"
)

// ParseUserRole 解析角色字符串，未知角色返回错误
func ParseUserRole(s string) (UserRole, error) {
	switch UserRole(s) {
	case UserRoleUser, UserRoleInstructor, UserRoleAdmin:
		return UserRole(s), nil
	}
	return "", fmt.Errorf("unknown role: %q", s)
}

// PurchaseRecord 购买记录（写入后不可变）
type PurchaseRecord struct {
	CourseID    string    `json:"course_id" bson:"course_id"`
	CourseTitle string    `json:"course_title" bson:"course_title"`
	Price       float64   `json:"price" bson:"price"`
	PurchasedAt time.Time `json:"purchased_at" bson:"purchased_at"`
}

// User 用户（Principal）
type User struct {
	ID               string           `json:"id" bson:"_id"`
	Username         string           `json:"username" bson:"username"`
	Email            string           `json:"email" bson:"email"`
	PasswordHash     string           `json:"-" bson:"password_hash"` // 绝不出现在 JSON 响应里
	Role             UserRole         `json:"role" bson:"role"`
	Balance          float64          `json:"balance" bson:"balance"`
	PurchasedCourses []string         `json:"purchased_courses" bson:"purchased_courses"`
	PurchaseHistory  []PurchaseRecord `json:"purchase_history" bson:"purchase_history"`
	IsVerified       bool             `json:"isVerified" bson:"is_verified"`
	CreatedAt        time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" bson:"updated_at"`
}

// HasPurchased 判断用户是否已购买指定课程
func (u *User) HasPurchased(courseID string) bool {
	for _, id := range u.PurchasedCourses {
		if id == courseID {
			return true
		}
	}
	return false
}

// ValidateUsername 校验用户名：非空，4-50 字符
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if len(username) < 4 || len(username) > 50 {
		return fmt.Errorf("username must be 4-50 characters")
	}
	return nil
}

// ValidateEmail 校验邮箱：非空且包含 @
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("email must contain '@' symbol")
	}
	return nil
}

// ValidatePassword 校验密码复杂度：至少 8 字符，含数字、大写字母和特殊字符
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	// bcrypt 只处理前 72 字节，超长直接拒绝
	if len(password) > 72 {
		return fmt.Errorf("password must be at most 72 characters long")
	}
	var hasDigit, hasUpper, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsUpper(r):
			hasUpper = true
		case strings.ContainsRune(`!@#$%^&*(),.?":{}|<>`, r):
			hasSpecial = true
		}
	}
	if !hasDigit {
		return fmt.Errorf("password must contain at least one number")
	}
	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasSpecial {
		return fmt.Errorf("password must contain at least one special character")
	}
	return nil
}
