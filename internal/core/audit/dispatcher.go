package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrFull   = errors.New("audit: buffer full")
	ErrClosed = errors.New("audit: dispatcher closed")
)

// Dispatcher 进程内缓冲 + 单 worker；满了就丢弃并计数
type Dispatcher struct {
	store Store
	log   *zap.Logger
	ch    chan Entry
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(store Store, size int, log *zap.Logger) *Dispatcher {
	if size < 1 {
		size = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{store: store, log: log, ch: make(chan Entry, size), done: make(chan struct{})}
	go d.loop()
	return d
}

func (d *Dispatcher) Record(_ context.Context, e Entry) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	select {
	case d.ch <- e:
		return nil
	default:
		entriesTotal.WithLabelValues("dropped").Inc()
		d.log.Warn("audit entry dropped", zap.String("action", e.Action), zap.String("entity", e.EntityID))
		return ErrFull
	}
}

func (d *Dispatcher) loop() {
	defer close(d.done)
	for e := range d.ch {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := d.store.Save(ctx, e)
		cancel()
		if err != nil {
			entriesTotal.WithLabelValues("failed").Inc()
			d.log.Error("audit write failed", zap.String("action", e.Action), zap.Error(err))
			continue
		}
		entriesTotal.WithLabelValues("written").Inc()
	}
}

// Close 停止接收并把缓冲里的记录写完
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.ch)
	}
	d.mu.Unlock()
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
