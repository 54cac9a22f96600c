package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"anime-shop/internal/core/audit"
	"anime-shop/internal/core/mediator"
	"anime-shop/internal/feature/catalog"
	"anime-shop/internal/repo"
)

const TypePurgeStaleFiles = "files:purge_stale"

// newMux 注册 worker 消费的全部任务类型
func newMux(f *repo.Factory, m *mediator.Mediator, maxAge time.Duration) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(audit.TypeUserAction, audit.NewTaskHandler(audit.NewGormStore(f)))
	mux.HandleFunc(TypePurgeStaleFiles, purgeHandler(m, maxAge))
	return mux
}

func purgeHandler(m *mediator.Mediator, maxAge time.Duration) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		res := mediator.Send[catalog.PurgeStaleFiles, catalog.PurgeDto](ctx, m, catalog.PurgeStaleFiles{MaxAge: maxAge})
		if !res.IsSuccess {
			return fmt.Errorf("purge stale files: %s", res.Message)
		}
		return nil
	}
}
