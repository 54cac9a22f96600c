package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"anime-shop/internal/app"
	"anime-shop/internal/core/config"
	"anime-shop/internal/core/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.FromConfig(cfg.Log)
	defer cleanup()

	a, err := app.New(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}
	redisOpt := app.RedisOpt(cfg.Redis)
	maxAge := time.Duration(cfg.Worker.StaleImageMaxAge) * time.Hour

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
		Queues:      map[string]int{"audit": 6, "default": 3, "low": 1},
		Logger:      log.Sugar(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, t *asynq.Task, err error) {
			log.Warn("task failed", zap.String("type", t.Type()), zap.Error(err))
		}),
	})
	if err := srv.Start(newMux(a.Deps.UoW, a.Mediator, maxAge)); err != nil {
		log.Fatal("worker start FAILED", zap.Error(err))
	}

	// 定时任务
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Logger: log.Sugar(), Location: time.UTC})
	if _, err := scheduler.Register(cfg.Worker.StaleImageCron, asynq.NewTask(TypePurgeStaleFiles, nil), asynq.Queue("low"), asynq.MaxRetry(1)); err != nil {
		log.Fatal("register schedule", zap.Error(err))
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal("scheduler start FAILED", zap.Error(err))
	}
	log.Info("worker started SUCCESS",
		zap.String("redis", cfg.Redis.Addr),
		zap.Int("concurrency", cfg.Worker.Concurrency),
		zap.String("purge_cron", cfg.Worker.StaleImageCron),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	scheduler.Shutdown()
	srv.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		log.Warn("close dependencies", zap.Error(err))
	}
	log.Info("worker stopped gracefully")
}
