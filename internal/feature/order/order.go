// Package order 下单、订单查询、状态流转、支付回调与发票
package order

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"anime-shop/internal/core/audit"
	"anime-shop/internal/core/mediator"
	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
	"anime-shop/internal/feature"
	"anime-shop/internal/filter"
	"anime-shop/internal/repo"
)

type CreateOrder struct {
	Checkout
	RecipientName   string               `json:"recipientName"`
	RecipientPhone  string               `json:"recipientPhone"`
	ShippingAddress string               `json:"shippingAddress"`
	Note            string               `json:"note"`
	PaymentMethod   domain.PaymentMethod `json:"paymentMethod"`
	ClientIP        string               `json:"-"`
}

func (r CreateOrder) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RecipientName, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.RecipientPhone, validation.Required, validation.Length(8, 32)),
		validation.Field(&r.ShippingAddress, validation.Required, validation.Length(1, 512)),
		validation.Field(&r.Note, validation.Length(0, 512)),
		validation.Field(&r.PaymentMethod, validation.Required,
			validation.In(domain.PaymentCOD, domain.PaymentVnPay, domain.PaymentMomo)),
	)
}

// CalculateShippingFee 按当前购物车报价
type CalculateShippingFee struct {
	Checkout
}

type OrderFilter struct {
	filter.PageRequest
	Status        *domain.OrderStatus   `form:"status"`
	PaymentStatus *domain.PaymentStatus `form:"paymentStatus"`
	From          *time.Time            `form:"from" time_format:"2006-01-02"`
	To            *time.Time            `form:"to" time_format:"2006-01-02"`
}

// GetMyOrders 当前用户的订单
type GetMyOrders struct {
	OrderFilter
}

// GetOrders 后台订单列表
type GetOrders struct {
	OrderFilter
	UserID  *string `form:"userId"`
	Keyword string  `form:"keyword"`
}

type GetOrderByID struct {
	ID string `uri:"id"`
}

type CancelOrder struct {
	ID     string `uri:"id" json:"-"`
	Reason string `json:"reason"`
}

type UpdateOrderStatus struct {
	ID     string             `uri:"id" json:"-"`
	Status domain.OrderStatus `json:"status"`
}

func (r UpdateOrderStatus) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required, validation.In(
			domain.OrderPending, domain.OrderConfirmed, domain.OrderShipping,
			domain.OrderDelivered, domain.OrderCompleted, domain.OrderCancelled)),
	)
}

var orderSort = filter.Sort{
	Columns:     map[string]string{"createdat": "created_at", "totalamount": "total_amount"},
	Default:     "created_at",
	DefaultDesc: true,
}

func (f OrderFilter) builder() *filter.Builder {
	b := filter.New()
	filter.Eq(b, "order_status", f.Status)
	filter.Eq(b, "payment_status", f.PaymentStatus)
	var to *time.Time
	if f.To != nil {
		end := f.To.AddDate(0, 0, 1).Add(-time.Nanosecond)
		to = &end
	}
	return filter.Range(b, "created_at", f.From, to)
}

func Register(m *mediator.Mediator, d *feature.Deps) {
	h := handlers{d: d, svc: NewService(d)}
	mediator.RegisterFunc(m, h.create)
	mediator.RegisterFunc(m, h.quote)
	mediator.RegisterFunc(m, h.mine)
	mediator.RegisterFunc(m, h.all)
	mediator.RegisterFunc(m, h.get)
	mediator.RegisterFunc(m, h.cancel)
	mediator.RegisterFunc(m, h.updateStatus)
	mediator.RegisterFunc(m, h.paymentCallback)
	mediator.RegisterFunc(m, h.invoice)
}

type handlers struct {
	d   *feature.Deps
	svc *Service
}

func (h handlers) create(ctx context.Context, req CreateOrder) result.Result[CreateOrderResult] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[CreateOrderResult](feature.MsgUnauthorized)
	}
	out, err := h.svc.CreateOrder(ctx, uid, req)
	if err != nil {
		return feature.Fail[CreateOrderResult](ctx, h.d, "create order", err)
	}
	return result.Success(*out, "Order created successfully.")
}

func (h handlers) quote(ctx context.Context, req CalculateShippingFee) result.Result[ShippingQuote] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[ShippingQuote](feature.MsgUnauthorized)
	}
	q, err := h.svc.Quote(ctx, h.d.UoW.New(), uid, req.Checkout)
	if err != nil {
		return feature.Fail[ShippingQuote](ctx, h.d, "calculate shipping fee", err)
	}
	return result.Success(q.ShippingQuote, "")
}

func (h handlers) mine(ctx context.Context, req GetMyOrders) result.PaginationResult[OrderDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[result.Page[OrderDto]](feature.MsgUnauthorized)
	}
	where := req.builder().EqValue("user_id", uid).Build()
	return feature.Paged(ctx, h.d, repo.Of[domain.Order](h.d.UoW.New()), req.PageRequest, where,
		orderSort.Resolve(req.SortBy, req.SortDirection), toOrderDto, "Items")
}

func (h handlers) all(ctx context.Context, req GetOrders) result.PaginationResult[OrderDto] {
	if !feature.IsStaff(ctx) {
		return result.Forbidden[result.Page[OrderDto]]("Staff role is required.")
	}
	b := req.builder().ContainsAny([]string{"order_code", "recipient_name", "recipient_phone"}, req.Keyword)
	filter.Eq(b, "user_id", req.UserID)
	return feature.Paged(ctx, h.d, repo.Of[domain.Order](h.d.UoW.New()), req.PageRequest, b.Build(),
		orderSort.Resolve(req.SortBy, req.SortDirection), toOrderDto, "Items")
}

// visible 本人或员工可见；其他人一律视为不存在
func (h handlers) visible(ctx context.Context, uow *repo.UnitOfWork, id string) (*domain.Order, error) {
	uid, _ := feature.CurrentUser(ctx)
	o, err := repo.Of[domain.Order](uow).GetByID(ctx, id, "Items")
	if err != nil {
		return nil, err
	}
	if o == nil || (o.UserID != uid && !feature.IsStaff(ctx)) {
		return nil, result.Errorf(result.CodeNotFound, "Order not found.")
	}
	return o, nil
}

func (h handlers) get(ctx context.Context, req GetOrderByID) result.Result[OrderDto] {
	if _, ok := feature.CurrentUser(ctx); !ok {
		return result.Unauthorized[OrderDto](feature.MsgUnauthorized)
	}
	o, err := h.visible(ctx, h.d.UoW.New(), req.ID)
	if err != nil {
		return feature.Fail[OrderDto](ctx, h.d, "get order", err)
	}
	return result.Success(toOrderDto(o), "")
}

// cancelInTx 回补库存与优惠券；已付款的标记为待退款
func cancelInTx(ctx context.Context, uow *repo.UnitOfWork, o *domain.Order, actor string, now time.Time) error {
	if err := moveStatus(ctx, uow, o.ID, o.OrderStatus, domain.OrderCancelled); err != nil {
		return err
	}
	for _, it := range o.Items {
		if err := adjustStock(ctx, uow, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	if o.UserCouponID != nil {
		if err := releaseCoupon(ctx, uow, o.ID); err != nil {
			return err
		}
	}
	o.OrderStatus = domain.OrderCancelled
	if o.PaymentStatus == domain.PaymentPaid {
		o.PaymentStatus = domain.PaymentRefunded
	}
	o.MarkUpdated(actor, now)
	repo.Of[domain.Order](uow).Update(o)
	_, err := uow.SaveChanges(ctx)
	return err
}

func (h handlers) cancel(ctx context.Context, req CancelOrder) result.Result[OrderDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[OrderDto](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	var o *domain.Order
	err := uow.InTransaction(ctx, func() error {
		var err error
		if o, err = h.visible(ctx, uow, req.ID); err != nil {
			return err
		}
		if o.OrderStatus != domain.OrderPending {
			return result.Errorf(result.CodeInvalidOperation, "Only pending orders can be cancelled.")
		}
		return cancelInTx(ctx, uow, o, uid, h.d.Now())
	})
	if err != nil {
		return feature.Fail[OrderDto](ctx, h.d, "cancel order", err)
	}
	h.d.Record(ctx, audit.Entry{ActorID: uid, Action: "order.cancelled", EntityType: "Order", EntityID: o.ID, Detail: req.Reason})
	return result.Success(toOrderDto(o), "Order cancelled successfully.")
}

func (h handlers) updateStatus(ctx context.Context, req UpdateOrderStatus) result.Result[OrderDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[OrderDto](feature.MsgUnauthorized)
	}
	if !feature.IsStaff(ctx) {
		return result.Forbidden[OrderDto]("Staff role is required.")
	}
	uow := h.d.UoW.New()
	var o *domain.Order
	err := uow.InTransaction(ctx, func() error {
		var err error
		if o, err = repo.Of[domain.Order](uow).GetByID(ctx, req.ID, "Items"); err != nil {
			return err
		}
		if o == nil {
			return result.Errorf(result.CodeNotFound, "Order not found.")
		}
		if !o.OrderStatus.CanTransitionTo(req.Status) {
			return result.Errorf(result.CodeInvalidOperation,
				"Cannot change order status from "+string(o.OrderStatus)+" to "+string(req.Status)+".")
		}
		now := h.d.Now()
		if req.Status == domain.OrderCancelled {
			return cancelInTx(ctx, uow, o, uid, now)
		}
		if err := moveStatus(ctx, uow, o.ID, o.OrderStatus, req.Status); err != nil {
			return err
		}
		o.OrderStatus = req.Status
		// 货到付款在完成时视为已收款
		if req.Status == domain.OrderCompleted && o.PaymentMethod == domain.PaymentCOD && o.PaymentStatus == domain.PaymentUnpaid {
			o.PaymentStatus = domain.PaymentPaid
			o.PaidAt = &now
		}
		o.MarkUpdated(uid, now)
		repo.Of[domain.Order](uow).Update(o)
		_, err = uow.SaveChanges(ctx)
		return err
	})
	if err != nil {
		return feature.Fail[OrderDto](ctx, h.d, "update order status", err)
	}
	h.d.Record(ctx, audit.Entry{ActorID: uid, Action: "order.status_changed", EntityType: "Order", EntityID: o.ID, Detail: string(o.OrderStatus)})
	h.svc.notifyUser(ctx, o.UserID, "Order "+o.OrderCode+" updated", "Your order is now "+string(o.OrderStatus)+".")
	return result.Success(toOrderDto(o), "Order status updated successfully.")
}
