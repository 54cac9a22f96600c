package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "anime-shop/internal/transport/http/response"
)

// MaxBodyBytes 限制请求体大小；超限时由绑定失败路径返回，这里兜底未写出的情况
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			resp.Abort(c, resp.CodeBodyTooLarge, "request body too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
