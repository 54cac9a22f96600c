// Package background 请求之外的后台任务：独立于请求的 context，信号量限并发，关闭时等待
package background

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

var ErrClosed = errors.New("background: runner closed")

type Runner struct {
	log     *zap.Logger
	sem     *semaphore.Weighted
	timeout time.Duration

	base   context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewRunner limit 为同时运行的任务数；timeout<=0 表示任务不设超时
func NewRunner(limit int64, timeout time.Duration, log *zap.Logger) *Runner {
	if limit < 1 {
		limit = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	base, cancel := context.WithCancel(context.Background())
	return &Runner{log: log, sem: semaphore.NewWeighted(limit), timeout: timeout, base: base, cancel: cancel}
}

// Go 提交任务后立即返回。任务拿到的 ctx 与提交方的请求无关。
func (r *Runner) Go(name string, fn func(ctx context.Context) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrClosed
	}
	r.wg.Add(1)
	go r.run(name, fn)
	return nil
}

func (r *Runner) run(name string, fn func(ctx context.Context) error) {
	defer r.wg.Done()
	if err := r.sem.Acquire(r.base, 1); err != nil {
		r.log.Warn("background task dropped", zap.String("task", name), zap.Error(err))
		return
	}
	defer r.sem.Release(1)

	ctx := r.base
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("background task panic", zap.String("task", name), zap.Any("panic", rec))
		}
	}()
	if err := fn(ctx); err != nil {
		r.log.Warn("background task failed", zap.String("task", name), zap.Error(err))
	}
}

// Close 不再接收新任务并等待在跑的任务；ctx 到期后取消剩余任务
func (r *Runner) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return ctx.Err()
	}
}
