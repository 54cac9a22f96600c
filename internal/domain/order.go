package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderConfirmed OrderStatus = "Confirmed"
	OrderShipping  OrderStatus = "Shipping"
	OrderDelivered OrderStatus = "Delivered"
	OrderCompleted OrderStatus = "Completed"
	OrderCancelled OrderStatus = "Cancelled"
)

// orderTransitions 允许的状态流转
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderShipping, OrderCancelled},
	OrderShipping:  {OrderDelivered},
	OrderDelivered: {OrderCompleted},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, n := range orderTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentCOD   PaymentMethod = "COD"
	PaymentVnPay PaymentMethod = "VnPay"
	PaymentMomo  PaymentMethod = "Momo"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "Unpaid"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentFailed   PaymentStatus = "Failed"
	PaymentRefunded PaymentStatus = "Refunded"
)

type Order struct {
	Base
	OrderCode     string        `gorm:"size:32;not null;uniqueIndex" json:"orderCode"`
	UserID        string        `gorm:"size:36;not null;index" json:"userId"`
	OrderStatus   OrderStatus   `gorm:"size:16;not null;index" json:"orderStatus"`
	PaymentMethod PaymentMethod `gorm:"size:16;not null" json:"paymentMethod"`
	PaymentStatus PaymentStatus `gorm:"size:16;not null" json:"paymentStatus"`
	PaymentRef    string        `gorm:"size:128" json:"paymentRef,omitempty"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`

	ShippingProvider string `gorm:"size:16" json:"shippingProvider"`
	RecipientName    string `gorm:"size:128;not null" json:"recipientName"`
	RecipientPhone   string `gorm:"size:32;not null" json:"recipientPhone"`
	ShippingAddress  string `gorm:"size:512;not null" json:"shippingAddress"`
	ToDistrictID     int    `json:"toDistrictId"`
	ToWardCode       string `gorm:"size:16" json:"toWardCode"`
	Note             string `gorm:"size:512" json:"note"`

	Subtotal       decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"subtotal"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"discountAmount"`
	ShippingFee    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"shippingFee"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"totalAmount"`

	UserCouponID *string     `gorm:"size:36" json:"userCouponId,omitempty"`
	Items        []OrderItem `json:"items,omitempty"`
}

type OrderItem struct {
	Base
	OrderID     string          `gorm:"size:36;not null;index" json:"orderId"`
	ProductID   string          `gorm:"size:36;not null;index" json:"productId"`
	Product     *Product        `json:"product,omitempty"`
	ProductName string          `gorm:"size:191;not null" json:"productName"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"unitPrice"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"lineTotal"`
}
