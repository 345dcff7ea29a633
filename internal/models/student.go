// internal/models/student.go
package models

import "time"

// Student 学员账号（内置名单，模拟数据库）
type Student struct {
	Email    string `json:"email"`
	Password string `json:"-"`
	Name     string `json:"name"`
}

// Session 登录会话
type Session struct {
	Token     string    `json:"token"`
	UserName  string    `json:"user_name"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
