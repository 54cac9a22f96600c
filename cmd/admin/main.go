package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"anime-shop/internal/app"
	"anime-shop/internal/core/config"
	"anime-shop/internal/core/logger"
	"anime-shop/internal/core/server"
	"anime-shop/internal/feature/user"
	"anime-shop/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.FromConfig(cfg.Log)
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	a, err := app.New(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}

	// 首个管理员
	if cfg.Bootstrap.AdminEmail != "" {
		if err := user.EnsureAdmin(context.Background(), a.Deps, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
			log.Fatal("ensure admin", zap.Error(err))
		}
		log.Info("admin account ready", zap.String("email", cfg.Bootstrap.AdminEmail))
	}

	// 路由（后台端）
	r := router.NewAdminEngine(router.Options{
		Log:         log,
		JWT:         a.Deps.JWT,
		Mediator:    a.Mediator,
		Mode:        cfg.App.GinMode(),
		CORSOrigins: cfg.App.CORSOrigins,
		Ping:        a.Ping,
		// 后台导出、批量上传体积更大
		MaxBodyBytes: 32 << 20,
		Timeout:      30 * time.Second,
	})

	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(addr, r, 10*time.Second, 35*time.Second, 60*time.Second)

	// 启动前打印可点击地址
	host4human := cfg.App.Admin.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.Admin.Port)
	log.Info("admin api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("admin_v1", baseURL+"/admin/v1"),
	)

	// 异步启动；失败立即退出
	go func() {
		if err := server.StartHTTP(srv, log); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("admin api start FAILED", zap.Error(err))
		}
	}()
	log.Info("admin api started SUCCESS")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	if err := a.Close(ctx); err != nil {
		log.Warn("close dependencies", zap.Error(err))
	}
	log.Info("admin api stopped gracefully")
}
