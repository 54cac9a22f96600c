// Package response 统一写出 Result 信封
package response

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"anime-shop/internal/core/result"
	"anime-shop/internal/feature"
)

// Write 成功时 feature.File 按二进制下载写出，其余一律写 JSON 信封
func Write[T any](c *gin.Context, r result.Result[T]) {
	if r.IsSuccess {
		if f, ok := any(r.Data).(feature.File); ok {
			File(c, f)
			return
		}
	}
	c.JSON(StatusOf(r.ErrorCode), r)
}

func File(c *gin.Context, f feature.File) {
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.FileName}))
	c.Data(http.StatusOK, ct, f.Content)
}

// Fail 写失败信封（不中断）
func Fail(c *gin.Context, code result.ErrorCode, msg string, details ...any) {
	c.JSON(StatusOf(code), result.Failure[result.Empty](code, msg, details...))
}

// Abort 中间件用：中断后续 handler 并写失败信封
func Abort(c *gin.Context, code result.ErrorCode, msg string) {
	c.AbortWithStatusJSON(StatusOf(code), result.Failure[result.Empty](code, msg))
}
