package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"anime-shop/internal/core/auth"
	"anime-shop/internal/core/mediator"
	"anime-shop/internal/core/server"
	mdw "anime-shop/internal/transport/http/middleware"
)

// Options 两个 engine 共用
type Options struct {
	Log         *zap.Logger
	JWT         *auth.JWTer
	Mediator    *mediator.Mediator
	Mode        string
	CORSOrigins []string
	// Ping 健康检查探测下游（数据库），可以为 nil
	Ping func(ctx context.Context) error

	RPS           rate.Limit
	Burst         int
	PerIPRPS      rate.Limit
	PerIPBurst    int
	MaxConcurrent int64
	MaxBodyBytes  int64
	Timeout       time.Duration
}

func (o *Options) defaults() {
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	if o.RPS == 0 {
		o.RPS, o.Burst = 200, 400
	}
	if o.PerIPRPS == 0 {
		o.PerIPRPS, o.PerIPBurst = 20, 40
	}
	if o.MaxConcurrent == 0 {
		o.MaxConcurrent = 300
	}
	if o.MaxBodyBytes == 0 {
		o.MaxBodyBytes = 16 << 20
	}
	if o.Timeout == 0 {
		o.Timeout = 10 * time.Second
	}
}

func newEngine(name string, o Options) *gin.Engine {
	r := server.NewRouter(o.Log, server.Options{Name: name, Mode: o.Mode, CORSOrigins: o.CORSOrigins})
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(o.RPS, o.Burst),
		mdw.RateLimitPerIP(o.PerIPRPS, o.PerIPBurst, 10000, 10*time.Minute),
		mdw.ConcurrencyLimit(o.MaxConcurrent),
		mdw.MaxBodyBytes(o.MaxBodyBytes),
		mdw.Timeout(o.Timeout),
		mdw.Recovery(o.Log),
		mdw.Metrics(name),
		mdw.AccessLog(o.Log),
		mdw.AuthJWT(o.JWT),
	)
	r.NoRoute(noRoute)

	r.GET("/health", func(c *gin.Context) {
		if o.Ping != nil {
			if err := o.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"ok": 0, "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": 1})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// NewAPIEngine 用户端 /api/v1：公开接口 + 登录用户接口（Action.Auth）
func NewAPIEngine(o Options) *gin.Engine {
	o.defaults()
	r := newEngine("api", o)
	api := r.Group("/api/v1")
	NewRegistry(Modules(o.Mediator)...).MountAllAPI(api)
	return r
}
