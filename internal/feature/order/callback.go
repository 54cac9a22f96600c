package order

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"anime-shop/internal/core/audit"
	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
	"anime-shop/internal/feature"
	"anime-shop/internal/integration/payment"
	"anime-shop/internal/repo"
)

// HandlePaymentCallback 网关回跳 / IPN；Params 由传输层从 query 或 body 填入
type HandlePaymentCallback struct {
	Method domain.PaymentMethod `uri:"method"`
	Params map[string]string    `json:"-"`
}

// paymentCallback 验签后更新支付状态；重复回调幂等
func (h handlers) paymentCallback(ctx context.Context, req HandlePaymentCallback) result.Result[PaymentCallbackDto] {
	gw, err := h.d.Payments.Get(req.Method)
	if err != nil {
		return result.Invalid[PaymentCallbackDto]("Unsupported payment method.")
	}
	cb, err := gw.VerifyCallback(req.Params)
	if errors.Is(err, payment.ErrInvalidSignature) {
		h.d.Logger(ctx).Warn("payment callback with invalid signature", zap.String("method", string(req.Method)))
		return result.Invalid[PaymentCallbackDto]("Invalid payment signature.")
	}
	if err != nil {
		return feature.Fail[PaymentCallbackDto](ctx, h.d, "verify payment callback", err)
	}

	uow := h.d.UoW.New()
	orders := repo.Of[domain.Order](uow)
	o, err := orders.GetFirstOrDefault(ctx, repo.Eq("order_code", cb.OrderCode))
	if err != nil {
		return feature.Fail[PaymentCallbackDto](ctx, h.d, "payment callback", err)
	}
	if o == nil || o.PaymentMethod != req.Method {
		return result.NotFound[PaymentCallbackDto]("Order not found.")
	}
	out := PaymentCallbackDto{OrderCode: o.OrderCode, PaymentStatus: o.PaymentStatus, Success: cb.Success}
	if o.PaymentStatus == domain.PaymentPaid {
		out.Success = true
		return result.Success(out, "Payment already processed.")
	}
	if !cb.Success {
		return result.Success(out, "Payment was not successful.")
	}
	if !cb.Amount.Equal(o.TotalAmount) {
		h.d.Logger(ctx).Warn("payment amount mismatch",
			zap.String("order", o.OrderCode), zap.String("paid", cb.Amount.String()), zap.String("expected", o.TotalAmount.String()))
		return result.Invalid[PaymentCallbackDto]("Payment amount does not match the order total.")
	}
	if o.OrderStatus == domain.OrderCancelled {
		return result.Invalid[PaymentCallbackDto]("Order has been cancelled.")
	}

	now := h.d.Now()
	o.PaymentStatus = domain.PaymentPaid
	o.PaymentRef = cb.TransactionRef
	o.PaidAt = &now
	o.MarkUpdated("", now)
	orders.Update(o)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[PaymentCallbackDto](ctx, h.d, "payment callback", err)
	}
	out.PaymentStatus = o.PaymentStatus
	h.d.Record(ctx, audit.Entry{ActorID: o.UserID, Action: "order.paid", EntityType: "Order", EntityID: o.ID, Detail: cb.TransactionRef})
	h.svc.notifyUser(ctx, o.UserID, "Payment received for "+o.OrderCode, "We have received your payment of "+o.TotalAmount.StringFixed(0)+" VND.")
	return result.Success(out, "Payment confirmed.")
}
