// Package mediator 按请求类型分发到对应 handler，统一做校验、恢复、日志与计数
package mediator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"anime-shop/internal/core/result"
)

const validationMsg = "One or more validation errors occurred."

var requestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "mediator_requests_total", Help: "Count of dispatched requests"},
	[]string{"request", "outcome"},
)

func init() { prometheus.MustRegister(requestsTotal) }

type Handler[Req any, T any] interface {
	Handle(ctx context.Context, req Req) result.Result[T]
}

type HandlerFunc[Req any, T any] func(ctx context.Context, req Req) result.Result[T]

func (f HandlerFunc[Req, T]) Handle(ctx context.Context, req Req) result.Result[T] { return f(ctx, req) }

// Validatable 请求自带校验（ozzo-validation）
type Validatable interface{ Validate() error }

// Guard 在 handler 之前执行，可以替换 ctx；返回错误时请求直接失败
type Guard func(ctx context.Context) (context.Context, error)

type Mediator struct {
	log      *zap.Logger
	mu       sync.RWMutex
	handlers map[reflect.Type]any
	guards   []Guard
}

// Use 按注册顺序执行，校验通过后才会调用
func (m *Mediator) Use(g ...Guard) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guards = append(m.guards, g...)
}

func New(log *zap.Logger) *Mediator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mediator{log: log, handlers: map[reflect.Type]any{}}
}

// Register 同一请求类型重复注册时后者覆盖前者
func Register[Req any, T any](m *Mediator, h Handler[Req, T]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[reflect.TypeFor[Req]()] = h
}

func RegisterFunc[Req any, T any](m *Mediator, f func(ctx context.Context, req Req) result.Result[T]) {
	Register[Req, T](m, HandlerFunc[Req, T](f))
}

func Send[Req any, T any](ctx context.Context, m *Mediator, req Req) (res result.Result[T]) {
	typ := reflect.TypeFor[Req]()
	name := typ.String()
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			m.log.Error("handler panic", zap.String("request", name), zap.Any("panic", rec), zap.Stack("stack"))
			res = result.Internal[T]("")
		}
		outcome := "success"
		if !res.IsSuccess {
			outcome = string(res.ErrorCode)
		}
		requestsTotal.WithLabelValues(name, outcome).Inc()
		fields := []zap.Field{
			zap.String("request", name),
			zap.String("outcome", outcome),
			zap.Duration("latency", time.Since(start)),
		}
		if res.IsSuccess {
			m.log.Debug("request handled", fields...)
		} else {
			m.log.Info("request failed", append(fields, zap.String("msg", res.Message))...)
		}
	}()

	m.mu.RLock()
	h, ok := m.handlers[typ]
	guards := m.guards
	m.mu.RUnlock()
	if !ok {
		return result.Internal[T](fmt.Sprintf("no handler registered for %s", name))
	}
	handler, ok := h.(Handler[Req, T])
	if !ok {
		return result.Internal[T](fmt.Sprintf("handler for %s has a different result type", name))
	}

	if v, ok := any(req).(Validatable); ok {
		if err := v.Validate(); err != nil {
			return validationFailure[T](err)
		}
	}
	for _, g := range guards {
		var err error
		if ctx, err = g(ctx); err != nil {
			return result.FromError[T](err)
		}
	}
	return handler.Handle(ctx, req)
}

func validationFailure[T any](err error) result.Result[T] {
	var ie validation.InternalError
	if errors.As(err, &ie) {
		return result.FromError[T](err)
	}
	var fields validation.Errors
	if errors.As(err, &fields) {
		details := make(map[string]string, len(fields))
		for k, e := range fields {
			details[k] = e.Error()
		}
		return result.Validation[T](validationMsg, details)
	}
	return result.Validation[T](err.Error(), nil)
}
