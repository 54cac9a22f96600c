package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const TypeUserAction = "audit:user_action"

// Queue 把审计交给 asynq，由 worker 进程消费
type Queue struct {
	client *asynq.Client
	opts   []asynq.Option
}

func NewQueue(client *asynq.Client, opts ...asynq.Option) *Queue {
	if len(opts) == 0 {
		opts = []asynq.Option{asynq.MaxRetry(5), asynq.Queue("audit")}
	}
	return &Queue{client: client, opts: opts}
}

func NewTask(e Entry) (*asynq.Task, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeUserAction, payload), nil
}

func (q *Queue) Record(ctx context.Context, e Entry) error {
	t, err := NewTask(e)
	if err != nil {
		return err
	}
	if _, err := q.client.EnqueueContext(ctx, t, q.opts...); err != nil {
		entriesTotal.WithLabelValues("enqueue_failed").Inc()
		return err
	}
	return nil
}

// NewTaskHandler worker 端消费 audit:user_action；坏 payload 不重试
func NewTaskHandler(store Store) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var e Entry
		if err := json.Unmarshal(t.Payload(), &e); err != nil {
			return fmt.Errorf("decode audit payload: %v: %w", err, asynq.SkipRetry)
		}
		if err := store.Save(ctx, e); err != nil {
			entriesTotal.WithLabelValues("failed").Inc()
			return err
		}
		entriesTotal.WithLabelValues("written").Inc()
		return nil
	}
}
