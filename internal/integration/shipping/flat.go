package shipping

import (
	"context"

	"github.com/shopspring/decimal"
)

// Flat 首公斤 BaseFee，之后每公斤 PerKg；达到 FreeThreshold 免运费（0 表示不启用）
type Flat struct {
	BaseFee       decimal.Decimal
	PerKg         decimal.Decimal
	FreeThreshold decimal.Decimal
}

func (f *Flat) Name() string { return ProviderFlat }

func (f *Flat) CalculateFee(_ context.Context, req FeeRequest) (decimal.Decimal, error) {
	if f.FreeThreshold.IsPositive() && req.Subtotal.GreaterThanOrEqual(f.FreeThreshold) {
		return decimal.Zero, nil
	}
	kg := (req.WeightGrams + 999) / 1000
	extra := max(0, kg-1)
	return f.BaseFee.Add(f.PerKg.Mul(decimal.NewFromInt(int64(extra)))), nil
}
