package auth

import "context"

type ctxKey struct{}

// WithClaims 把当前用户放进请求上下文（AuthJWT 中间件调用）
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok && c != nil && c.UID != ""
}

// UserID 未登录返回空串
func UserID(ctx context.Context) string {
	if c, ok := FromContext(ctx); ok {
		return c.UID
	}
	return ""
}

func HasAnyRole(ctx context.Context, roles ...string) bool {
	c, ok := FromContext(ctx)
	return ok && c.HasAnyRole(roles...)
}
