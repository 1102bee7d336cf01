package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"course-market/internal/shared/model"
	"course-market/internal/shared/storage/memstore"
)

func newTestHandler(t *testing.T) (*Handler, *memstore.Store) {
	t.Helper()
	store := memstore.NewStore()
	return NewHandler(store, testConfig()), store
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	handler(rec, req)
	return rec
}

func TestSignup(t *testing.T) {
	h, _ := newTestHandler(t)

	// 正常注册，返回 201 和令牌
	rec := postJSON(t, h.Signup, "/signup", signupRequest{
		Username: "alice01", Email: "alice@example.com", Password: "Passw0rd!",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Token == "" {
		t.Error("signup should return a token")
	}

	// 令牌可解析且携带默认 user 角色
	claims, err := ParseToken(testConfig(), resp.Token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Subject != "alice01" || claims.Role != string(model.UserRoleUser) {
		t.Errorf("claims = %s/%s, want alice01/user", claims.Subject, claims.Role)
	}

	// 重复邮箱返回 409
	rec = postJSON(t, h.Signup, "/signup", signupRequest{
		Username: "alice02", Email: "alice@example.com", Password: "Passw0rd!",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate email: status = %d, want 409", rec.Code)
	}
}

// brokenUserStore 模拟存储后端不可用：CreateUser 返回非重复类错误
type brokenUserStore struct {
	*memstore.Store
}

func (s *brokenUserStore) CreateUser(ctx context.Context, user *model.User) error {
	return errors.New("server selection timeout")
}

func TestSignupStoreErrors(t *testing.T) {
	// 存储故障必须是 500，不能伪装成 409 重复注册
	h := NewHandler(&brokenUserStore{memstore.NewStore()}, testConfig())
	rec := postJSON(t, h.Signup, "/signup", signupRequest{
		Username: "alice01", Email: "alice@example.com", Password: "Passw0rd!",
	})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("store failure: status = %d, want 500; body = %s", rec.Code, rec.Body.String())
	}

	// 唯一性冲突（同名不同邮箱）仍然是 409
	h2, _ := newTestHandler(t)
	rec = postJSON(t, h2.Signup, "/signup", signupRequest{
		Username: "alice01", Email: "alice@example.com", Password: "Passw0rd!",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("first signup: status = %d", rec.Code)
	}
	rec = postJSON(t, h2.Signup, "/signup", signupRequest{
		Username: "alice01", Email: "other@example.com", Password: "Passw0rd!",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate username: status = %d, want 409", rec.Code)
	}
}

func TestSignupValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name string
		req  signupRequest
	}{
		{"用户名过短", signupRequest{Username: "ab", Email: "a@b.com", Password: "Passw0rd!"}},
		{"邮箱缺少 @", signupRequest{Username: "alice01", Email: "nope", Password: "Passw0rd!"}},
		{"密码过短", signupRequest{Username: "alice01", Email: "a@b.com", Password: "P0d!"}},
		{"密码缺少数字", signupRequest{Username: "alice01", Email: "a@b.com", Password: "Password!"}},
		{"密码缺少大写", signupRequest{Username: "alice01", Email: "a@b.com", Password: "passw0rd!"}},
		{"密码缺少特殊字符", signupRequest{Username: "alice01", Email: "a@b.com", Password: "Passw0rd1"}},
		{"拒绝 admin 角色", signupRequest{Username: "alice01", Email: "a@b.com", Password: "Passw0rd!", Role: "admin"}},
		{"未知角色", signupRequest{Username: "alice01", Email: "a@b.com", Password: "Passw0rd!", Role: "superuser"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.Signup, "/signup", tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSignupInstructorRole(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := postJSON(t, h.Signup, "/signup", signupRequest{
		Username: "teach01", Email: "t@example.com", Password: "Passw0rd!", Role: "instructor",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup instructor: status = %d", rec.Code)
	}
	var resp tokenResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	claims, err := ParseToken(testConfig(), resp.Token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Role != string(model.UserRoleInstructor) {
		t.Errorf("role = %s, want instructor", claims.Role)
	}
}

func TestLogin(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := postJSON(t, h.Signup, "/signup", signupRequest{
		Username: "alice01", Email: "alice@example.com", Password: "Passw0rd!",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: status = %d", rec.Code)
	}

	// 正确凭据
	rec = postJSON(t, h.Login, "/login", loginRequest{Email: "alice@example.com", Password: "Passw0rd!"})
	if rec.Code != http.StatusOK {
		t.Errorf("login: status = %d, want 200", rec.Code)
	}
	var resp tokenResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Token == "" {
		t.Error("login should return a token")
	}

	// 密码错误
	rec = postJSON(t, h.Login, "/login", loginRequest{Email: "alice@example.com", Password: "Wrong0rd!"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: status = %d, want 401", rec.Code)
	}

	// 邮箱不存在
	rec = postJSON(t, h.Login, "/login", loginRequest{Email: "ghost@example.com", Password: "Passw0rd!"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown email: status = %d, want 401", rec.Code)
	}
}

func TestAdminLogin(t *testing.T) {
	h, store := newTestHandler(t)

	if err := EnsureAdminUser(store, "admin", "admin@example.com", "Adm1nPass!"); err != nil {
		t.Fatalf("EnsureAdminUser: %v", err)
	}
	// 幂等：重复调用不报错
	if err := EnsureAdminUser(store, "admin", "admin@example.com", "Adm1nPass!"); err != nil {
		t.Fatalf("EnsureAdminUser twice: %v", err)
	}

	// 管理员登录签发带 admin 角色的真实签名令牌
	rec := postJSON(t, h.AdminLogin, "/admin/login", adminLoginRequest{Username: "admin", Password: "Adm1nPass!"})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin login: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp tokenResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	claims, err := ParseToken(testConfig(), resp.Token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Role != string(model.UserRoleAdmin) {
		t.Errorf("role = %s, want admin", claims.Role)
	}

	// 密码错误
	rec = postJSON(t, h.AdminLogin, "/admin/login", adminLoginRequest{Username: "admin", Password: "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: status = %d, want 401", rec.Code)
	}

	// 普通用户不能走管理员登录
	postJSON(t, h.Signup, "/signup", signupRequest{
		Username: "alice01", Email: "alice@example.com", Password: "Passw0rd!",
	})
	rec = postJSON(t, h.AdminLogin, "/admin/login", adminLoginRequest{Username: "alice01", Password: "Passw0rd!"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("non-admin: status = %d, want 401", rec.Code)
	}
}

func TestMe(t *testing.T) {
	h, _ := newTestHandler(t)

	postJSON(t, h.Signup, "/signup", signupRequest{
		Username: "alice01", Email: "alice@example.com", Password: "Passw0rd!",
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/users/me", nil)
	req = req.WithContext(WithAuthUser(req.Context(), &AuthUser{Username: "alice01", Role: model.UserRoleUser}))
	h.Me(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status = %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["username"] != "alice01" {
		t.Errorf("username = %v, want alice01", body["username"])
	}
	// 密码哈希绝不出现在响应里
	if _, ok := body["password_hash"]; ok {
		t.Error("response must not contain password_hash")
	}

	// 未认证
	rec = httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest("GET", "/users/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated: status = %d, want 401", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	_, store := newTestHandler(t)
	if err := EnsureAdminUser(store, "admin", "admin@example.com", "Adm1nPass!"); err != nil {
		t.Fatalf("EnsureAdminUser: %v", err)
	}
	h := NewHandler(store, testConfig())
	postJSON(t, h.Signup, "/signup", signupRequest{
		Username: "alice01", Email: "alice@example.com", Password: "Passw0rd!",
	})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	guard := RequireRole(store, model.UserRoleAdmin)(next)

	// 角色不足返回 403
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/admin/instructors", nil)
	req = req.WithContext(WithAuthUser(req.Context(), &AuthUser{Username: "alice01", Role: model.UserRoleUser}))
	guard.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("user role: status = %d, want 403", rec.Code)
	}

	// 管理员放行
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/admin/instructors", nil)
	req = req.WithContext(WithAuthUser(req.Context(), &AuthUser{Username: "admin", Role: model.UserRoleAdmin}))
	guard.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("admin role: status = %d, want 200", rec.Code)
	}

	// 令牌声明 admin 但库中实际角色是 user：以库中角色为准，拒绝
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/admin/instructors", nil)
	req = req.WithContext(WithAuthUser(req.Context(), &AuthUser{Username: "alice01", Role: model.UserRoleAdmin}))
	guard.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("stale claim: status = %d, want 403", rec.Code)
	}

	// 身份不存在返回 401
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/admin/instructors", nil)
	req = req.WithContext(WithAuthUser(req.Context(), &AuthUser{Username: "ghost", Role: model.UserRoleAdmin}))
	guard.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing identity: status = %d, want 401", rec.Code)
	}
}
