// internal/services/user_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/RomaLabs/RomaPlanner/internal/auth"
	"github.com/RomaLabs/RomaPlanner/internal/storage"
)

func newTestUserService(t *testing.T) *UserService {
	t.Helper()
	fs, err := storage.NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("创建文件存储失败: %v", err)
	}
	tokenConfig := &auth.TokenConfig{
		Secret:     []byte("test-secret"),
		Expiration: 24 * time.Hour,
	}
	return NewUserService(fs, tokenConfig)
}

func TestLogin_Success(t *testing.T) {
	svc := newTestUserService(t)

	session, err := svc.Login("fabi@romaplanner.com.br", "fabi123")
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}
	if session.Token == "" {
		t.Error("会话令牌不应为空")
	}
	if session.UserName != "Fabi" {
		t.Errorf("UserName = %q, 期望 Fabi", session.UserName)
	}
	if !session.ExpiresAt.After(session.CreatedAt) {
		t.Error("过期时间应晚于创建时间")
	}
	if svc.CurrentUserName() != "Fabi" {
		t.Errorf("CurrentUserName = %q, 期望 Fabi", svc.CurrentUserName())
	}
}

func TestLogin_EmailCaseInsensitive(t *testing.T) {
	svc := newTestUserService(t)

	if _, err := svc.Login("FABI@RomaPlanner.com.BR", "fabi123"); err != nil {
		t.Errorf("邮箱比较应忽略大小写: %v", err)
	}
}

// admin 账号只看密码，邮箱字段可以是任意值
func TestLogin_AdminMatchesAnyEmail(t *testing.T) {
	svc := newTestUserService(t)

	session, err := svc.Login("qualquer@coisa.com", "roma2024")
	if err != nil {
		t.Fatalf("admin 登录失败: %v", err)
	}
	if session.UserName != "Equipe Roma" {
		t.Errorf("UserName = %q, 期望 Equipe Roma", session.UserName)
	}
}

func TestLogin_Rejected(t *testing.T) {
	svc := newTestUserService(t)

	tests := []struct {
		email    string
		password string
	}{
		{"fabi@romaplanner.com.br", "senha-errada"},
		{"desconhecida@exemplo.com", "fabi123"},
		{"", ""},
	}
	for _, tt := range tests {
		if _, err := svc.Login(tt.email, tt.password); err == nil {
			t.Errorf("Login(%q, %q) 应失败", tt.email, tt.password)
		}
	}
}

func TestValidateToken_RoundTrip(t *testing.T) {
	svc := newTestUserService(t)

	session, err := svc.Login("bruno@romaplanner.com.br", "bruno123")
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}

	token, err := svc.ValidateToken(session.Token)
	if err != nil {
		t.Fatalf("校验令牌失败: %v", err)
	}
	if token.UserID != "bruno@romaplanner.com.br" {
		t.Errorf("UserID = %q", token.UserID)
	}

	if _, err := svc.ValidateToken("lixo.invalido"); err == nil {
		t.Error("伪造令牌应被拒绝")
	}
	if _, err := svc.ValidateToken(session.Token + "x"); err == nil {
		t.Error("被篡改的令牌应被拒绝")
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	svc := newTestUserService(t)

	if _, err := svc.Login("aluna@romaplanner.com.br", "aluna123"); err != nil {
		t.Fatalf("登录失败: %v", err)
	}
	if err := svc.Logout(); err != nil {
		t.Fatalf("登出失败: %v", err)
	}
	if name := svc.CurrentUserName(); name != "" {
		t.Errorf("登出后 CurrentUserName = %q, 期望空串", name)
	}

	// 未登录状态下重复登出不报错
	if err := svc.Logout(); err != nil {
		t.Errorf("重复登出不应失败: %v", err)
	}
}
