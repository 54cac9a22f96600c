// Package shipping 运费计算，按承运商注册
package shipping

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	ProviderGHN  = "GHN"
	ProviderFlat = "Flat"
)

var ErrUnknownProvider = errors.New("shipping: unknown provider")

type FeeRequest struct {
	ToDistrictID int
	ToWardCode   string
	WeightGrams  int
	Subtotal     decimal.Decimal
}

type Provider interface {
	Name() string
	CalculateFee(ctx context.Context, req FeeRequest) (decimal.Decimal, error)
}

type Registry struct {
	providers map[string]Provider
	fallback  string
}

// NewRegistry 第一个 provider 作为未指定时的默认
func NewRegistry(ps ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(ps))}
	for _, p := range ps {
		if r.fallback == "" {
			r.fallback = p.Name()
		}
		r.providers[p.Name()] = p
	}
	return r
}

func (r *Registry) Get(name string) (Provider, error) {
	if name == "" {
		name = r.fallback
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

func (r *Registry) Default() string { return r.fallback }
