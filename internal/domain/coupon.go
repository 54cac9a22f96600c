package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "Percentage"
	DiscountFixed      DiscountType = "Fixed"
)

type Coupon struct {
	Base
	Code              string           `gorm:"size:64;not null;uniqueIndex" json:"code"`
	Description       string           `gorm:"size:512" json:"description"`
	DiscountType      DiscountType     `gorm:"size:16;not null" json:"discountType"`
	DiscountValue     decimal.Decimal  `gorm:"type:decimal(14,2);not null" json:"discountValue"`
	MaxDiscountAmount *decimal.Decimal `gorm:"type:decimal(14,2)" json:"maxDiscountAmount,omitempty"`
	MinOrderAmount    decimal.Decimal  `gorm:"type:decimal(14,2);not null" json:"minOrderAmount"`
	UsageLimit        int              `gorm:"not null" json:"usageLimit"`
	CurrentUsage      int              `gorm:"not null;default:0" json:"currentUsage"`
	StartsAt          time.Time        `json:"startsAt"`
	ExpiresAt         time.Time        `gorm:"index" json:"expiresAt"`
}

// Exhausted 发放/使用次数已达上限
func (c *Coupon) Exhausted() bool { return c.CurrentUsage >= c.UsageLimit }

func (c *Coupon) ValidAt(now time.Time) bool {
	return c.IsActive() && !now.Before(c.StartsAt) && now.Before(c.ExpiresAt)
}

// UserCoupon 用户领取的优惠券
type UserCoupon struct {
	Base
	UserID   string     `gorm:"size:36;not null;uniqueIndex:idx_user_coupon" json:"userId"`
	CouponID string     `gorm:"size:36;not null;uniqueIndex:idx_user_coupon;index" json:"couponId"`
	Coupon   *Coupon    `json:"coupon,omitempty"`
	IsUsed   bool       `gorm:"not null;default:false" json:"isUsed"`
	UsedAt   *time.Time `json:"usedAt,omitempty"`
	OrderID  *string    `gorm:"size:36" json:"orderId,omitempty"`
}
