package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  string
	}{
		{"合法密码", "Passw0rd!", ""},
		{"72 字节刚好合法", "Passw0rd!" + strings.Repeat("a", 63), ""},
		{"太短", "Ab1!", "at least 8 characters"},
		{"超过 bcrypt 上限", "Passw0rd!" + strings.Repeat("a", 64), "at most 72 characters"},
		{"缺数字", "Password!", "at least one number"},
		{"缺大写", "password1!", "uppercase"},
		{"缺特殊字符", "Password1", "special character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("alice"))
	assert.Error(t, ValidateUsername(""))
	assert.Error(t, ValidateUsername("abc"))
	assert.Error(t, ValidateUsername(string(make([]byte, 51))))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("alice@example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
}

func TestParseUserRole(t *testing.T) {
	for _, s := range []string{"user", "instructor", "admin"} {
		role, err := ParseUserRole(s)
		assert.NoError(t, err)
		assert.Equal(t, UserRole(s), role)
	}
	_, err := ParseUserRole("superuser")
	assert.Error(t, err)
}

func TestMeanRating(t *testing.T) {
	tests := []struct {
		name    string
		ratings []float64
		want    float64
	}{
		{"空切片", nil, 0},
		{"单个评分", []float64{4}, 4},
		{"均值取整到一位小数", []float64{4, 5}, 4.5},
		{"循环小数", []float64{4, 4, 5}, 4.3},
		{"向上取整", []float64{3, 4, 4}, 3.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MeanRating(tt.ratings))
		})
	}
}

func TestValidateCourse(t *testing.T) {
	valid := func() *Course {
		return &Course{
			Title:       "Go 入门",
			Description: "从零开始学习 Go 语言",
			Difficulty:  DifficultyBeginner,
			Price:       49.99,
			Rating:      0,
			VideoURLs:   []string{"https://media.example.com/videos/intro.mp4"},
		}
	}

	assert.NoError(t, ValidateCourse(valid(), "https://media.example.com/"))

	c := valid()
	c.Title = ""
	assert.Error(t, ValidateCourse(c, ""))

	c = valid()
	c.Description = "too short"
	assert.Error(t, ValidateCourse(c, ""))

	c = valid()
	c.Difficulty = "expert"
	assert.Error(t, ValidateCourse(c, ""))

	c = valid()
	c.Price = -1
	assert.Error(t, ValidateCourse(c, ""))

	c = valid()
	c.VideoURLs = nil
	assert.Error(t, ValidateCourse(c, ""))

	// 视频 URL 必须来自媒体服务
	c = valid()
	c.VideoURLs = []string{"https://evil.example.com/x.mp4"}
	assert.Error(t, ValidateCourse(c, "https://media.example.com/"))
}

func TestUserHasPurchased(t *testing.T) {
	u := &User{PurchasedCourses: []string{"crs-1", "crs-2"}}
	assert.True(t, u.HasPurchased("crs-1"))
	assert.False(t, u.HasPurchased("crs-3"))
}
