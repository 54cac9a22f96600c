package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"anime-shop/internal/core/logger"
)

const KeyRequestID = "X-Request-ID"

// RequestID 同时写进 gin 上下文和请求 context（handler 日志带 rid）
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.Request.Header.Get(KeyRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(KeyRequestID, rid)
		c.Set(KeyRequestID, rid)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), rid))
		c.Next()
	}
}
