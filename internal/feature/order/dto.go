package order

import (
	"time"

	"github.com/shopspring/decimal"

	"anime-shop/internal/domain"
)

type ItemDto struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

type OrderDto struct {
	ID               string               `json:"id"`
	OrderCode        string               `json:"orderCode"`
	UserID           string               `json:"userId"`
	OrderStatus      domain.OrderStatus   `json:"orderStatus"`
	PaymentMethod    domain.PaymentMethod `json:"paymentMethod"`
	PaymentStatus    domain.PaymentStatus `json:"paymentStatus"`
	PaidAt           *time.Time           `json:"paidAt,omitempty"`
	ShippingProvider string               `json:"shippingProvider"`
	RecipientName    string               `json:"recipientName"`
	RecipientPhone   string               `json:"recipientPhone"`
	ShippingAddress  string               `json:"shippingAddress"`
	Note             string               `json:"note,omitempty"`
	Subtotal         decimal.Decimal      `json:"subtotal"`
	DiscountAmount   decimal.Decimal      `json:"discountAmount"`
	ShippingFee      decimal.Decimal      `json:"shippingFee"`
	TotalAmount      decimal.Decimal      `json:"totalAmount"`
	Items            []ItemDto            `json:"items"`
	CreatedAt        time.Time            `json:"createdAt"`
}

func toOrderDto(o *domain.Order) OrderDto {
	dto := OrderDto{
		ID: o.ID, OrderCode: o.OrderCode, UserID: o.UserID,
		OrderStatus: o.OrderStatus, PaymentMethod: o.PaymentMethod, PaymentStatus: o.PaymentStatus,
		PaidAt: o.PaidAt, ShippingProvider: o.ShippingProvider,
		RecipientName: o.RecipientName, RecipientPhone: o.RecipientPhone, ShippingAddress: o.ShippingAddress,
		Note: o.Note, Subtotal: o.Subtotal, DiscountAmount: o.DiscountAmount, ShippingFee: o.ShippingFee,
		TotalAmount: o.TotalAmount, CreatedAt: o.CreatedAt,
		Items: make([]ItemDto, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		dto.Items = append(dto.Items, ItemDto{
			ID: it.ID, ProductID: it.ProductID, ProductName: it.ProductName,
			UnitPrice: it.UnitPrice, Quantity: it.Quantity, LineTotal: it.LineTotal,
		})
	}
	return dto
}

// CreateOrderResult PaymentURL 仅在线支付时有值
type CreateOrderResult struct {
	Order      OrderDto `json:"order"`
	PaymentURL string   `json:"paymentUrl,omitempty"`
}

type ShippingQuote struct {
	Provider       string          `json:"provider"`
	WeightGrams    int             `json:"weightGrams"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	ShippingFee    decimal.Decimal `json:"shippingFee"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
}

type PaymentCallbackDto struct {
	OrderCode     string               `json:"orderCode"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
	Success       bool                 `json:"success"`
}
