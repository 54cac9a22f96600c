// Package notify 用户通知：按渠道注册（email / push）
package notify

import (
	"context"
	"errors"
	"fmt"
)

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
)

var ErrNoChannel = errors.New("notify: channel not configured")

// Message To 对 email 是邮箱，对 push 是用户 id
type Message struct {
	To      string
	Subject string
	Body    string
}

type Notifier interface {
	Channel() Channel
	Send(ctx context.Context, msg Message) error
}

type Registry struct {
	ns map[Channel]Notifier
}

func NewRegistry(ns ...Notifier) *Registry {
	r := &Registry{ns: make(map[Channel]Notifier, len(ns))}
	for _, n := range ns {
		r.ns[n.Channel()] = n
	}
	return r
}

func (r *Registry) Send(ctx context.Context, ch Channel, msg Message) error {
	n, ok := r.ns[ch]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoChannel, ch)
	}
	return n.Send(ctx, msg)
}
