// Package payment 支付网关：按支付方式注册，生成支付链接并校验回调
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"anime-shop/internal/domain"
)

var (
	ErrInvalidSignature = errors.New("payment: invalid callback signature")
	ErrUnsupported      = errors.New("payment: unsupported method")
)

type Request struct {
	OrderCode string
	Amount    decimal.Decimal
	Note      string
	ClientIP  string
}

// CallbackResult 回调解析结果；Success=false 表示用户取消或支付失败
type CallbackResult struct {
	OrderCode      string
	TransactionRef string
	Amount         decimal.Decimal
	Success        bool
	Message        string
}

type Gateway interface {
	Method() domain.PaymentMethod
	CreatePaymentURL(ctx context.Context, req Request) (string, error)
	VerifyCallback(params map[string]string) (*CallbackResult, error)
}

type Registry struct {
	gateways map[domain.PaymentMethod]Gateway
}

func NewRegistry(gs ...Gateway) *Registry {
	r := &Registry{gateways: make(map[domain.PaymentMethod]Gateway, len(gs))}
	for _, g := range gs {
		r.gateways[g.Method()] = g
	}
	return r
}

func (r *Registry) Get(m domain.PaymentMethod) (Gateway, error) {
	g, ok := r.gateways[m]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, m)
	}
	return g, nil
}

const maxNoteLen = 255

// BuildOrderNote 网关要求的订单描述：只允许 ASCII 字母数字与空格、短横线
func BuildOrderNote(orderCode string, itemCount int, amount decimal.Decimal) string {
	note := fmt.Sprintf("Thanh toan don hang %s %d san pham %s VND", orderCode, itemCount, amount.StringFixed(0))
	var b strings.Builder
	for _, r := range note {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteRune(r)
		}
	}
	s := b.String()
	if len(s) > maxNoteLen {
		s = s[:maxNoteLen]
	}
	return s
}
