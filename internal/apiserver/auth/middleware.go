package auth

import (
	"log"
	"net/http"
	"strings"

	"course-market/internal/shared/model"
)

// 免认证路由白名单（精确匹配，末尾斜杠等价）
// 课程列表对匿名访客开放，课程详情仍需登录
var publicRoutes = map[string]bool{
	"POST /signup":      true,
	"POST /login":       true,
	"POST /admin/login": true,
	"GET /health":       true,
	"GET /metrics":      true,
	"GET /courses":      true,
}

func isPublicRoute(method, path string) bool {
	// CORS 预检一律放行
	if method == http.MethodOptions {
		return true
	}
	path = strings.TrimSuffix(path, "/")
	return publicRoutes[method+" "+path]
}

// extractBearerToken 从 Authorization 头提取 Bearer 令牌
// 头缺失或格式不符返回空串
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// Middleware 创建 JWT 认证中间件
//
// 请求状态机：提取 Bearer 令牌 -> 验签 -> 注入 AuthUser。
// 任一环节失败返回 401，公开路由直接放行。
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 公开路由：直接放行
			if isPublicRoute(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			// 提取 Bearer Token
			tokenString := extractBearerToken(r)
			if tokenString == "" {
				http.Error(w, `{"detail":"missing or invalid token"}`, http.StatusUnauthorized)
				return
			}

			// 解析 JWT
			claims, err := ParseToken(cfg, tokenString)
			if err != nil {
				log.Printf("[auth] token parse error: %v", err)
				http.Error(w, `{"detail":"invalid or expired token"}`, http.StatusUnauthorized)
				return
			}

			// 注入 auth user 到 context
			user := &AuthUser{
				Username: claims.Subject,
				Role:     model.UserRole(claims.Role),
			}
			next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), user)))
		})
	}
}

// RequireRole 角色校验中间件
//
// 特权操作不信任令牌内嵌的角色，统一以存储中的 Principal 为准重新核对。
// 身份缺失返回 401，角色不符返回 403。
func RequireRole(store UserStore, roles ...model.UserRole) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authUser := GetAuthUser(r.Context())
			if authUser == nil {
				http.Error(w, `{"detail":"missing or invalid token"}`, http.StatusUnauthorized)
				return
			}

			user, err := store.GetUserByUsername(r.Context(), authUser.Username)
			if err != nil {
				log.Printf("[auth] role check lookup error: %v", err)
				http.Error(w, `{"detail":"internal error"}`, http.StatusInternalServerError)
				return
			}
			if user == nil {
				http.Error(w, `{"detail":"user not found"}`, http.StatusUnauthorized)
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next(w, r)
					return
				}
			}
			http.Error(w, `{"detail":"insufficient role"}`, http.StatusForbidden)
		}
	}
}
