// Package feature 各业务模块共用的依赖与 handler 辅助函数
package feature

import (
	"context"
	"time"

	"go.uber.org/zap"

	"anime-shop/internal/core/audit"
	"anime-shop/internal/core/auth"
	"anime-shop/internal/core/background"
	"anime-shop/internal/core/cache"
	"anime-shop/internal/core/logger"
	"anime-shop/internal/integration/notify"
	"anime-shop/internal/integration/payment"
	"anime-shop/internal/integration/shipping"
	"anime-shop/internal/integration/storage"
	"anime-shop/internal/repo"
)

// Deps handler 依赖。Cache / Audit / Runner 可以为 nil。
type Deps struct {
	UoW      *repo.Factory
	Log      *zap.Logger
	Cache    *cache.Cache
	CacheTTL time.Duration
	Storage  storage.Service
	Payments *payment.Registry
	Shipping *shipping.Registry
	Notify   *notify.Registry
	Audit    audit.Sink
	Runner   *background.Runner
	JWT      *auth.JWTer
	Clock    func() time.Time
}

func (d *Deps) Now() time.Time {
	if d.Clock != nil {
		return d.Clock().UTC()
	}
	return time.Now().UTC()
}

func (d *Deps) Logger(ctx context.Context) *zap.Logger {
	l := d.Log
	if l == nil {
		l = zap.NewNop()
	}
	return logger.Ctx(ctx, l)
}

// Go 后台执行；没有 Runner 时同步执行（测试）
func (d *Deps) Go(name string, fn func(ctx context.Context) error) {
	if d.Runner != nil {
		if err := d.Runner.Go(name, fn); err == nil {
			return
		}
		d.Logger(context.Background()).Warn("background runner closed, running inline", zap.String("task", name))
	}
	if err := fn(context.Background()); err != nil {
		d.Logger(context.Background()).Warn("background task failed", zap.String("task", name), zap.Error(err))
	}
}

// Record 事后审计，失败只记日志
func (d *Deps) Record(ctx context.Context, e audit.Entry) {
	if d.Audit == nil {
		return
	}
	if e.At.IsZero() {
		e.At = d.Now()
	}
	if err := d.Audit.Record(ctx, e); err != nil {
		d.Logger(ctx).Warn("audit record failed", zap.String("action", e.Action), zap.Error(err))
	}
}

// Invalidate 缓存失效；未启用缓存时忽略
func (d *Deps) Invalidate(ctx context.Context, keys ...string) {
	if d.Cache == nil {
		return
	}
	if err := d.Cache.Delete(ctx, keys...); err != nil {
		d.Logger(ctx).Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
