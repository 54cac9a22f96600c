package coupon

import (
	"time"

	"github.com/shopspring/decimal"

	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Discount 计算优惠金额：百分比可封顶，固定金额不超过小计；结果取整到 VND
func Discount(c *domain.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() {
		return decimal.Zero
	}
	var off decimal.Decimal
	switch c.DiscountType {
	case domain.DiscountPercentage:
		off = subtotal.Mul(c.DiscountValue).Div(hundred)
		if c.MaxDiscountAmount != nil && off.GreaterThan(*c.MaxDiscountAmount) {
			off = *c.MaxDiscountAmount
		}
	case domain.DiscountFixed:
		off = c.DiscountValue
	default:
		return decimal.Zero
	}
	if off.GreaterThan(subtotal) {
		off = subtotal
	}
	return off.Round(0)
}

// CheckApplicable 下单时校验优惠券能否用于该小计
func CheckApplicable(c *domain.Coupon, subtotal decimal.Decimal, now time.Time) error {
	if !c.ValidAt(now) {
		return result.Errorf(result.CodeInvalidOperation, "Coupon is not active or has expired.")
	}
	if subtotal.LessThan(c.MinOrderAmount) {
		return result.Errorf(result.CodeInvalidOperation, "Order does not meet the coupon minimum amount of "+c.MinOrderAmount.StringFixed(0)+".")
	}
	return nil
}
