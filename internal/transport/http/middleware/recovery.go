package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"anime-shop/internal/core/logger"
	"anime-shop/internal/core/result"
	resp "anime-shop/internal/transport/http/response"
)

// Recovery panic 记日志并返回 InternalError 信封
func Recovery(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Ctx(c.Request.Context(), l).Error("panic recovered",
					zap.Any("panic", rec), zap.String("path", c.FullPath()), zap.Stack("stack"))
				resp.Abort(c, result.CodeInternalError, "internal error")
			}
		}()
		c.Next()
	}
}
