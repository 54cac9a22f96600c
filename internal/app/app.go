// Package app 按配置装配三个进程共用的依赖
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"anime-shop/internal/core/audit"
	"anime-shop/internal/core/auth"
	"anime-shop/internal/core/background"
	"anime-shop/internal/core/cache"
	"anime-shop/internal/core/config"
	"anime-shop/internal/core/database"
	"anime-shop/internal/core/mediator"
	"anime-shop/internal/feature"
	"anime-shop/internal/feature/badge"
	"anime-shop/internal/feature/blog"
	"anime-shop/internal/feature/cart"
	"anime-shop/internal/feature/catalog"
	"anime-shop/internal/feature/coupon"
	"anime-shop/internal/feature/order"
	"anime-shop/internal/feature/review"
	"anime-shop/internal/feature/user"
	"anime-shop/internal/feature/wishlist"
	"anime-shop/internal/integration/httpx"
	"anime-shop/internal/integration/notify"
	"anime-shop/internal/integration/payment"
	"anime-shop/internal/integration/shipping"
	"anime-shop/internal/integration/storage"
	"anime-shop/internal/repo"
)

type App struct {
	Cfg      *config.Config
	Log      *zap.Logger
	DB       *gorm.DB
	Deps     *feature.Deps
	Mediator *mediator.Mediator

	closers []func(context.Context) error
}

// New 任一依赖失败即返回错误，已创建的资源由 Close 释放
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: log}
	if err := a.build(ctx); err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *App) onClose(fn func(context.Context) error) { a.closers = append(a.closers, fn) }

func (a *App) build(ctx context.Context) error {
	cfg := a.Cfg
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Log:                a.Log,
	})
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	a.DB = db
	a.onClose(func(context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
	a.Log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("automigrate: %w", err)
		}
		a.Log.Info("automigrate done")
	}
	if err := database.SeedRoles(ctx, db); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	factory := repo.NewFactory(db, a.Log)
	d := &feature.Deps{
		UoW: factory,
		Log: a.Log,
		JWT: &auth.JWTer{
			Secret: []byte(cfg.JWT.Secret),
			Issuer: cfg.JWT.Issuer,
			TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
		},
	}

	if cfg.Cache.Enable {
		rdb := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		a.onClose(func(context.Context) error { return rdb.Close() })
		d.Cache = cache.New(rdb, cache.Options{
			Prefix:    cfg.App.Name + ":",
			LocalSize: cfg.Cache.LocalSize,
			LocalTTL:  time.Duration(cfg.Cache.LocalTTLSec) * time.Second,
		})
		d.CacheTTL = time.Duration(cfg.Cache.TTLSec) * time.Second

		lctx, stop := context.WithCancel(context.Background())
		go func() {
			if err := d.Cache.Listen(lctx); err != nil {
				a.Log.Warn("cache invalidation listener stopped", zap.Error(err))
			}
		}()
		a.onClose(func(context.Context) error { stop(); return nil })
	}

	if d.Storage, err = newStorage(ctx, cfg.Storage); err != nil {
		return err
	}
	d.Payments = newPayments(cfg.Payment, a.Log)
	if d.Shipping, err = newShipping(cfg.Shipping, a.Log); err != nil {
		return err
	}
	d.Notify = newNotify(cfg.SMTP, a.Log)

	if d.Audit, err = a.newAudit(factory); err != nil {
		return err
	}

	runner := background.NewRunner(cfg.Worker.Background, 30*time.Second, a.Log)
	a.onClose(runner.Close)
	d.Runner = runner

	a.Deps = d
	a.Mediator = NewMediator(d)
	return nil
}

// NewMediator 注册全部业务处理器
func NewMediator(d *feature.Deps) *mediator.Mediator {
	m := mediator.New(d.Log)
	m.Use(d.LiveUser)
	user.RegisterHandlers(m, d)
	catalog.Register(m, d)
	badge.Register(m, d)
	review.Register(m, d)
	cart.Register(m, d)
	wishlist.Register(m, d)
	coupon.Register(m, d)
	order.Register(m, d)
	blog.Register(m, d)
	return m
}

func newStorage(ctx context.Context, c config.Storage) (storage.Service, error) {
	switch c.Driver {
	case "minio":
		s, err := storage.NewMinIO(ctx, storage.MinIOConfig{
			Endpoint:  c.Endpoint,
			AccessKey: c.AccessKey,
			SecretKey: c.SecretKey,
			Bucket:    c.Bucket,
			UseSSL:    c.UseSSL,
			PublicURL: c.PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("minio: %w", err)
		}
		return s, nil
	case "", "memory":
		return storage.NewMemory(c.PublicURL), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.Driver)
	}
}

// newPayments VnPay 只做签名，不需要 http client；Momo 走 httpx（重试 + 熔断）
func newPayments(c config.Payment, log *zap.Logger) *payment.Registry {
	gws := []payment.Gateway{payment.NewVnPay(payment.VnPayConfig{
		TmnCode:    c.VnPay.TmnCode,
		HashSecret: c.VnPay.HashSecret,
		PayURL:     c.VnPay.PayURL,
		ReturnURL:  c.VnPay.ReturnURL,
	})}
	if c.Momo.Endpoint != "" {
		gws = append(gws, payment.NewMomo(payment.MomoConfig{
			PartnerCode: c.Momo.PartnerCode,
			AccessKey:   c.Momo.AccessKey,
			SecretKey:   c.Momo.SecretKey,
			Endpoint:    c.Momo.Endpoint,
			RedirectURL: c.Momo.RedirectURL,
			IpnURL:      c.Momo.IpnURL,
		}, httpx.New(httpx.Options{Name: "momo", MaxRetries: 2, Log: log})))
	}
	return payment.NewRegistry(gws...)
}

// newShipping GHN 启用时作为默认承运商，Flat 总是可用
func newShipping(c config.Shipping, log *zap.Logger) (*shipping.Registry, error) {
	flat, err := newFlat(c.Flat)
	if err != nil {
		return nil, err
	}
	if !c.GHN.Enable {
		return shipping.NewRegistry(flat), nil
	}
	client := httpx.New(httpx.Options{
		Name:       "ghn",
		Timeout:    time.Duration(c.GHN.TimeoutSec) * time.Second,
		MaxRetries: 2,
		Log:        log,
	})
	ghn := shipping.NewGHN(shipping.GHNConfig{
		BaseURL:        c.GHN.BaseURL,
		Token:          c.GHN.Token,
		ShopID:         c.GHN.ShopID,
		FromDistrictID: c.GHN.FromDistrictID,
		FromWardCode:   c.GHN.FromWardCode,
	}, client)
	return shipping.NewRegistry(ghn, flat), nil
}

func newFlat(c config.Flat) (*shipping.Flat, error) {
	var f shipping.Flat
	for _, fld := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"baseFee", c.BaseFee, &f.BaseFee},
		{"perKgFee", c.PerKgFee, &f.PerKg},
		{"freeThreshold", c.FreeThreshold, &f.FreeThreshold},
	} {
		if fld.raw == "" {
			continue
		}
		v, err := decimal.NewFromString(fld.raw)
		if err != nil {
			return nil, fmt.Errorf("shipping.flat.%s: %w", fld.name, err)
		}
		*fld.dst = v
	}
	return &f, nil
}

func newNotify(c config.SMTP, log *zap.Logger) *notify.Registry {
	ns := []notify.Notifier{notify.NewPush(log)}
	if c.Enable {
		ns = append(ns, notify.NewEmail(notify.SMTPConfig{
			Host:     c.Host,
			Port:     c.Port,
			Username: c.Username,
			Password: c.Password,
			From:     c.From,
		}))
	}
	return notify.NewRegistry(ns...)
}

// newAudit async：进程内写库；queue：投递给 worker
func (a *App) newAudit(f *repo.Factory) (audit.Sink, error) {
	switch a.Cfg.Audit.Mode {
	case "", "async":
		d := audit.NewDispatcher(audit.NewGormStore(f), a.Cfg.Audit.BufferSize, a.Log)
		a.onClose(d.Close)
		return d, nil
	case "queue":
		client := asynq.NewClient(RedisOpt(a.Cfg.Redis))
		a.onClose(func(context.Context) error { return client.Close() })
		return audit.NewQueue(client), nil
	default:
		return nil, fmt.Errorf("unknown audit mode %q", a.Cfg.Audit.Mode)
	}
}

func RedisOpt(c config.Redis) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.Addr, Password: c.Password, DB: c.DB}
}

// Ping 健康检查：数据库必须可用
func (a *App) Ping(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 逆序释放：先停后台任务和审计，最后关连接
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && !errors.Is(err, redis.ErrClosed) {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
