package notify

import (
	"context"

	"go.uber.org/zap"
)

// Push 还没有接入推送服务，只记日志
type Push struct{ log *zap.Logger }

func NewPush(log *zap.Logger) *Push {
	if log == nil {
		log = zap.NewNop()
	}
	return &Push{log: log}
}

func (p *Push) Channel() Channel { return ChannelPush }

func (p *Push) Send(_ context.Context, msg Message) error {
	p.log.Info("push notification", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
