// internal/services/user_service.go
package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/RomaLabs/RomaPlanner/internal/auth"
	"github.com/RomaLabs/RomaPlanner/internal/models"
	"github.com/RomaLabs/RomaPlanner/internal/storage"
)

// sessionFile 会话标志持久化文件（认证标志 + 显示名）
const (
	sessionDir  = "session"
	sessionFile = "session.json"
)

// sessionState 持久化的会话标志
type sessionState struct {
	Authenticated bool   `json:"authenticated"`
	UserName      string `json:"user_name"`
}

// UserService 学员登录与会话，名单内置，模拟数据库查询
type UserService struct {
	storage     *storage.FileStorage
	tokenConfig *auth.TokenConfig
	students    []models.Student
	mutex       sync.RWMutex
}

// NewUserService 创建用户服务
func NewUserService(fileStorage *storage.FileStorage, tokenConfig *auth.TokenConfig) *UserService {
	return &UserService{
		storage:     fileStorage,
		tokenConfig: tokenConfig,
		students:    studentDatabase,
	}
}

// Login 按邮箱+密码在学员名单中查找，成功则签发会话令牌
// admin 账号允许任意邮箱字段匹配
func (s *UserService) Login(email, password string) (*models.Session, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var found *models.Student
	for i := range s.students {
		student := &s.students[i]
		if (strings.EqualFold(student.Email, email) || student.Email == "admin") &&
			student.Password == password {
			found = student
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("邮箱或密码不正确")
	}

	token, err := auth.GenerateToken(found.Email, s.tokenConfig)
	if err != nil {
		return nil, fmt.Errorf("生成会话令牌失败: %w", err)
	}

	now := time.Now()
	session := &models.Session{
		Token:     token,
		UserName:  found.Name,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenConfig.Expiration),
	}

	// 写入会话标志，登出时清除
	state := sessionState{Authenticated: true, UserName: found.Name}
	if err := s.storage.SaveJSONFile(sessionDir, sessionFile, state); err != nil {
		return nil, fmt.Errorf("保存会话状态失败: %w", err)
	}

	return session, nil
}

// Logout 清除会话标志
func (s *UserService) Logout() error {
	if !s.storage.FileExists(sessionDir, sessionFile) {
		return nil
	}
	return s.storage.SaveJSONFile(sessionDir, sessionFile, sessionState{})
}

// CurrentUserName 返回当前会话的显示名，未登录时为空串
func (s *UserService) CurrentUserName() string {
	var state sessionState
	if err := s.storage.LoadJSONFile(sessionDir, sessionFile, &state); err != nil {
		return ""
	}
	if !state.Authenticated {
		return ""
	}
	return state.UserName
}

// ValidateToken 校验会话令牌
func (s *UserService) ValidateToken(tokenString string) (*auth.Token, error) {
	return auth.ParseToken(tokenString, s.tokenConfig)
}

// 内置学员名单（模拟数据库）
var studentDatabase = []models.Student{
	{Email: "admin", Password: "roma2024", Name: "Equipe Roma"},
	{Email: "fabi@romaplanner.com.br", Password: "fabi123", Name: "Fabi"},
	{Email: "bruno@romaplanner.com.br", Password: "bruno123", Name: "Bruno"},
	{Email: "aluna@romaplanner.com.br", Password: "aluna123", Name: "Aluna Convidada"},
}
