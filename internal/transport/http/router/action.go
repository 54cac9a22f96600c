package router

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"anime-shop/internal/core/mediator"
	mdw "anime-shop/internal/transport/http/middleware"
	resp "anime-shop/internal/transport/http/response"
)

// Binder 请求体的绑定方式；路径参数（uri tag）总会先绑定
type Binder string

const (
	BindJSON      Binder = "json"      // JSON body
	BindQuery     Binder = "query"     // ?a=b
	BindMultipart Binder = "multipart" // 表单 + 单文件（字段 file）
	BindNone      Binder = "none"      // 只有路径参数
)

const fileField = "file"

// Upload 上传文件，交给 Action.File 填进请求
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Action 一个接口 = 一个请求类型。Req 入参，T 结果载荷。
type Action[Req any, T any] struct {
	Method string
	Path   string
	Binder Binder
	Auth   bool     // 要求登录
	Roles  []string // 限定角色，非空时隐含 Auth
	// Prepare 绑定之后、派发之前补充传输层才有的字段（客户端 IP、回调参数）
	Prepare func(c *gin.Context, req *Req)
	// File BindMultipart 时把上传文件交给请求
	File func(req *Req, f Upload)
}

// RegisterAction 绑定 → mediator.Send → 写出 Result
func RegisterAction[Req any, T any](g *gin.RouterGroup, m *mediator.Mediator, a Action[Req, T]) {
	h := func(c *gin.Context) {
		var req Req
		if len(c.Params) > 0 {
			if err := c.ShouldBindUri(&req); err != nil {
				resp.Fail(c, resp.CodeBadRequest, err.Error())
				return
			}
		}

		var bindErr error
		switch a.Binder {
		case BindJSON:
			if c.Request.ContentLength != 0 {
				bindErr = c.ShouldBindJSON(&req)
			}
		case BindQuery:
			bindErr = c.ShouldBindQuery(&req)
		case BindMultipart:
			closeFile, err := bindUpload(c, &req, a.File)
			if err != nil {
				bindErr = err
				break
			}
			defer closeFile()
		}
		if bindErr != nil {
			resp.Fail(c, resp.CodeBadRequest, bindErr.Error())
			return
		}

		if a.Prepare != nil {
			a.Prepare(c, &req)
		}
		resp.Write(c, mediator.Send[Req, T](c.Request.Context(), m, req))
	}

	handlers := make([]gin.HandlerFunc, 0, 2)
	if a.Auth || len(a.Roles) > 0 {
		handlers = append(handlers, mdw.RequireRoles(a.Roles...))
	}
	handlers = append(handlers, h)

	method := strings.ToUpper(a.Method)
	if method == "" {
		method = http.MethodPost
	}
	g.Handle(method, a.Path, handlers...)
}

func bindUpload[Req any](c *gin.Context, req *Req, fill func(*Req, Upload)) (func(), error) {
	if err := c.ShouldBind(req); err != nil {
		return nil, err
	}
	fh, err := c.FormFile(fileField)
	if err != nil {
		if err == http.ErrMissingFile {
			return func() {}, nil
		}
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	if fill != nil {
		fill(req, Upload{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Size: fh.Size, Reader: f})
	}
	return func() { _ = f.Close() }, nil
}

// callbackParams 网关回调参数：query 优先，POST 时合并 JSON body（Momo IPN）
func callbackParams(c *gin.Context) map[string]string {
	out := map[string]string{}
	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	if c.Request.Method != http.MethodPost || c.Request.ContentLength == 0 {
		return out
	}
	var body map[string]any
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return out
	}
	for k, v := range body {
		if _, ok := out[k]; !ok && v != nil {
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}

// noRoute 未匹配路由也返回信封
func noRoute(c *gin.Context) {
	resp.Fail(c, resp.CodeRouteNotFound, "route not found")
}
