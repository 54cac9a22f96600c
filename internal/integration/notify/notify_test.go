package notify

import (
	"context"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestEmailBuildsMessage(t *testing.T) {
	e := NewEmail(SMTPConfig{Host: "smtp.local", Port: 2525, From: "shop@anime.local"})
	var gotAddr string
	var gotTo []string
	var gotMsg string
	e.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	err := NewRegistry(e).Send(context.Background(), ChannelEmail, Message{To: "levi@example.com", Subject: "Order ORD-1", Body: "thanks"})
	require.NoError(t, err)
	assert.Equal(t, "smtp.local:2525", gotAddr)
	assert.Equal(t, []string{"levi@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Order ORD-1\r\n")
	assert.Contains(t, gotMsg, "\r\n\r\nthanks")
}

func TestEmailRejectsEmptyRecipient(t *testing.T) {
	e := NewEmail(SMTPConfig{Host: "h", Port: 25})
	e.send = func(string, smtp.Auth, string, []string, []byte) error { return nil }
	assert.Error(t, e.Send(context.Background(), Message{}))
}

func TestPushLogsAndUnknownChannel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := NewRegistry(NewPush(zap.New(core)))
	require.NoError(t, r.Send(context.Background(), ChannelPush, Message{To: "u1", Subject: "hi"}))
	assert.Equal(t, 1, logs.Len())

	assert.ErrorIs(t, r.Send(context.Background(), ChannelEmail, Message{}), ErrNoChannel)
}
