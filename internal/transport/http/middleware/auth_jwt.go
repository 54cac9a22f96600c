package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"anime-shop/internal/core/auth"
	"anime-shop/internal/core/result"
	resp "anime-shop/internal/transport/http/response"
)

// AuthJWT 有 Bearer 头时解析并把 claims 放进请求上下文；没有头则匿名放行，由 RequireRoles 决定是否拒绝
func AuthJWT(j *auth.JWTer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if ah == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(ah, "Bearer ") {
			resp.Abort(c, result.CodeUnauthorized, "malformed authorization header")
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			resp.Abort(c, result.CodeUnauthorized, "invalid token")
			return
		}
		c.Request = c.Request.WithContext(auth.WithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

// RequireRoles 未登录 401；不带参数表示任意已登录用户
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := auth.FromContext(c.Request.Context())
		if !ok {
			resp.Abort(c, result.CodeUnauthorized, "User is not authenticated.")
			return
		}
		if !claims.HasAnyRole(roles...) {
			resp.Abort(c, result.CodeForbidden, "forbidden")
			return
		}
		c.Next()
	}
}
