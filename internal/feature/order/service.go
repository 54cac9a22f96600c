package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"anime-shop/internal/core/audit"
	"anime-shop/internal/core/auth"
	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
	"anime-shop/internal/feature"
	"anime-shop/internal/feature/cart"
	"anime-shop/internal/feature/coupon"
	"anime-shop/internal/integration/notify"
	"anime-shop/internal/integration/payment"
	"anime-shop/internal/integration/shipping"
	"anime-shop/internal/repo"
	"anime-shop/pkg/utils"
)

// Checkout 报价与下单共用的参数
type Checkout struct {
	ShippingProvider string  `json:"shippingProvider"`
	ToDistrictID     int     `json:"toDistrictId"`
	ToWardCode       string  `json:"toWardCode"`
	UserCouponID     *string `json:"userCouponId"`
}

type quote struct {
	ShippingQuote
	lines      []domain.CartItem
	userCoupon *domain.UserCoupon
}

// Service 下单流程：报价 -> 事务内扣库存、用券、清购物车 -> 支付链接 -> 后台通知
type Service struct{ d *feature.Deps }

func NewService(d *feature.Deps) *Service { return &Service{d: d} }

// Quote 按当前购物车计算小计、优惠与运费，不落库
func (s *Service) Quote(ctx context.Context, uow *repo.UnitOfWork, uid string, c Checkout) (*quote, error) {
	lines, err := cart.Lines(ctx, uow, uid)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, result.Errorf(result.CodeInvalidOperation, "Cart is empty.")
	}
	q := &quote{lines: lines}
	q.Subtotal = decimal.Zero
	for _, l := range lines {
		p := l.Product
		if p == nil || !p.IsActive() {
			return nil, result.Errorf(result.CodeInvalidOperation, "A product in your cart is no longer available.")
		}
		if l.Quantity > p.StockQuantity {
			return nil, result.Errorf(result.CodeInvalidOperation, fmt.Sprintf("Insufficient stock for %s.", p.Name))
		}
		q.Subtotal = q.Subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		q.WeightGrams += p.WeightGrams * l.Quantity
	}

	q.DiscountAmount = decimal.Zero
	if c.UserCouponID != nil && *c.UserCouponID != "" {
		uc, err := repo.Of[domain.UserCoupon](uow).GetFirstOrDefault(ctx,
			repo.And(repo.ByID(*c.UserCouponID), repo.Eq("user_id", uid)), "Coupon")
		if err != nil {
			return nil, err
		}
		if uc == nil || uc.Coupon == nil {
			return nil, result.Errorf(result.CodeNotFound, "Coupon not found.")
		}
		if uc.IsUsed {
			return nil, result.Errorf(result.CodeInvalidOperation, "Coupon has already been used.")
		}
		if err := coupon.CheckApplicable(uc.Coupon, q.Subtotal, s.d.Now()); err != nil {
			return nil, err
		}
		q.userCoupon = uc
		q.DiscountAmount = coupon.Discount(uc.Coupon, q.Subtotal)
	}

	provider, err := s.d.Shipping.Get(c.ShippingProvider)
	if err != nil {
		return nil, result.Wrap(result.CodeInvalidOperation, "Unsupported shipping provider.", err)
	}
	q.Provider = provider.Name()
	q.ShippingFee, err = provider.CalculateFee(ctx, shipping.FeeRequest{
		ToDistrictID: c.ToDistrictID,
		ToWardCode:   c.ToWardCode,
		WeightGrams:  q.WeightGrams,
		Subtotal:     q.Subtotal.Sub(q.DiscountAmount),
	})
	if err != nil {
		return nil, result.Wrap(result.CodeInternalError, "Failed to calculate shipping fee.", err)
	}
	q.TotalAmount = q.Subtotal.Sub(q.DiscountAmount).Add(q.ShippingFee)
	return q, nil
}

func (s *Service) CreateOrder(ctx context.Context, uid string, req CreateOrder) (*CreateOrderResult, error) {
	var gw payment.Gateway
	if req.PaymentMethod != domain.PaymentCOD {
		var err error
		if gw, err = s.d.Payments.Get(req.PaymentMethod); err != nil {
			return nil, result.Wrap(result.CodeInvalidOperation, "Unsupported payment method.", err)
		}
	}

	uow := s.d.UoW.New()
	q, err := s.Quote(ctx, uow, uid, req.Checkout)
	if err != nil {
		return nil, err
	}

	now := s.d.Now()
	o := &domain.Order{
		OrderCode:        utils.NewOrderCode(now),
		UserID:           uid,
		OrderStatus:      domain.OrderPending,
		PaymentMethod:    req.PaymentMethod,
		PaymentStatus:    domain.PaymentUnpaid,
		ShippingProvider: q.Provider,
		RecipientName:    req.RecipientName,
		RecipientPhone:   req.RecipientPhone,
		ShippingAddress:  req.ShippingAddress,
		ToDistrictID:     req.ToDistrictID,
		ToWardCode:       req.ToWardCode,
		Note:             req.Note,
		Subtotal:         q.Subtotal,
		DiscountAmount:   q.DiscountAmount,
		ShippingFee:      q.ShippingFee,
		TotalAmount:      q.TotalAmount,
	}
	o.Initialize(uid, now)
	for _, l := range q.lines {
		it := domain.OrderItem{
			OrderID: o.ID, ProductID: l.ProductID, ProductName: l.Product.Name,
			UnitPrice: l.Product.Price, Quantity: l.Quantity,
			LineTotal: l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))),
		}
		it.Initialize(uid, now)
		o.Items = append(o.Items, it)
	}
	if q.userCoupon != nil {
		o.UserCouponID = &q.userCoupon.ID
	}

	err = uow.InTransaction(ctx, func() error {
		for _, l := range q.lines {
			if err := adjustStock(ctx, uow, l.ProductID, -l.Quantity); err != nil {
				return err
			}
		}
		if q.userCoupon != nil {
			if err := useCoupon(ctx, uow, q.userCoupon.ID, o.ID, now); err != nil {
				return err
			}
		}
		repo.Of[domain.Order](uow).Add(o)
		carts := repo.Of[domain.CartItem](uow)
		for i := range q.lines {
			carts.Delete(&q.lines[i])
		}
		_, err := uow.SaveChanges(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := &CreateOrderResult{Order: toOrderDto(o)}
	if gw != nil {
		url, err := gw.CreatePaymentURL(ctx, payment.Request{
			OrderCode: o.OrderCode,
			Amount:    o.TotalAmount,
			Note:      payment.BuildOrderNote(o.OrderCode, len(o.Items), o.TotalAmount),
			ClientIP:  req.ClientIP,
		})
		if err != nil {
			s.d.Logger(ctx).Warn("create payment url failed", zap.String("order", o.OrderCode), zap.Error(err))
		} else {
			out.PaymentURL = url
		}
	}

	s.d.Record(ctx, audit.Entry{ActorID: uid, Action: "order.created", EntityType: "Order", EntityID: o.ID, Detail: o.OrderCode})
	s.notifyUser(ctx, uid, "Order "+o.OrderCode+" received",
		fmt.Sprintf("Your order %s of %s VND has been placed.", o.OrderCode, o.TotalAmount.StringFixed(0)))
	return out, nil
}

// notifyUser 后台推送；登录信息里有邮箱时同时发邮件
func (s *Service) notifyUser(ctx context.Context, uid, subject, body string) {
	if s.d.Notify == nil {
		return
	}
	email := ""
	if c, ok := auth.FromContext(ctx); ok && c.UID == uid {
		email = c.Email
	}
	send := func(ctx context.Context, ch notify.Channel, to string) error {
		err := s.d.Notify.Send(ctx, ch, notify.Message{To: to, Subject: subject, Body: body})
		if errors.Is(err, notify.ErrNoChannel) {
			return nil
		}
		return err
	}
	s.d.Go("order.notify", func(ctx context.Context) error {
		err := send(ctx, notify.ChannelPush, uid)
		if email != "" {
			err = errors.Join(err, send(ctx, notify.ChannelEmail, email))
		}
		return err
	})
}

// adjustStock delta<0 扣库存（库存不足时失败），delta>0 回补；销量反向变化
func adjustStock(ctx context.Context, uow *repo.UnitOfWork, productID string, delta int) error {
	q := repo.Of[domain.Product](uow).Unscoped().Query(ctx).Where("id = ?", productID)
	if delta < 0 {
		q = q.Where("stock_quantity >= ?", -delta)
	}
	res := q.UpdateColumns(map[string]any{
		"stock_quantity": gorm.Expr("stock_quantity + ?", delta),
		"sold_count":     gorm.Expr("sold_count - ?", delta),
	})
	if res.Error != nil {
		return result.Wrap(result.CodeDatabaseError, "Failed to update stock.", res.Error)
	}
	if res.RowsAffected == 0 && delta < 0 {
		return result.Errorf(result.CodeInvalidOperation, "Insufficient stock.")
	}
	return nil
}

// moveStatus 只有状态仍为 from 时才更新；并发的第二个请求拿到 InvalidOperation
func moveStatus(ctx context.Context, uow *repo.UnitOfWork, orderID string, from, to domain.OrderStatus) error {
	res := repo.Of[domain.Order](uow).Query(ctx).
		Where("id = ? AND order_status = ?", orderID, from).
		UpdateColumn("order_status", to)
	if res.Error != nil {
		return result.Wrap(result.CodeDatabaseError, "Failed to update order status.", res.Error)
	}
	if res.RowsAffected == 0 {
		return result.Errorf(result.CodeInvalidOperation, "Order status has changed, please reload the order.")
	}
	return nil
}

func useCoupon(ctx context.Context, uow *repo.UnitOfWork, userCouponID, orderID string, now time.Time) error {
	res := repo.Of[domain.UserCoupon](uow).Query(ctx).
		Where("id = ? AND is_used = ?", userCouponID, false).
		UpdateColumns(map[string]any{"is_used": true, "used_at": now, "order_id": orderID})
	if res.Error != nil {
		return result.Wrap(result.CodeDatabaseError, "Failed to apply coupon.", res.Error)
	}
	if res.RowsAffected == 0 {
		return result.Errorf(result.CodeInvalidOperation, "Coupon has already been used.")
	}
	return nil
}

// releaseCoupon 取消订单时退回已用的券
func releaseCoupon(ctx context.Context, uow *repo.UnitOfWork, orderID string) error {
	err := repo.Of[domain.UserCoupon](uow).Query(ctx).
		Where("order_id = ?", orderID).
		UpdateColumns(map[string]any{"is_used": false, "used_at": nil, "order_id": nil}).Error
	if err != nil {
		return result.Wrap(result.CodeDatabaseError, "Failed to release coupon.", err)
	}
	return nil
}
