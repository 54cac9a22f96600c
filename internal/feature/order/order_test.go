package order

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anime-shop/internal/core/mediator"
	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
	"anime-shop/internal/feature"
	"anime-shop/internal/integration/payment"
	"anime-shop/internal/repo"
	"anime-shop/internal/testutil/fixture"
)

const buyer = "buyer-1"

type env struct {
	m   *mediator.Mediator
	d   *feature.Deps
	rec *fixture.AuditRecorder
	ctx context.Context
}

func setup(t *testing.T) env {
	t.Helper()
	d, rec := fixture.NewDeps(t)
	m := mediator.New(nil)
	Register(m, d)
	return env{m: m, d: d, rec: rec, ctx: fixture.AsUser(context.Background(), buyer, domain.RoleCustomer)}
}

func (e env) addToCart(t *testing.T, uid string, p *domain.Product, qty int) {
	t.Helper()
	item := &domain.CartItem{UserID: uid, ProductID: p.ID, Quantity: qty}
	item.Initialize(uid, fixture.Now)
	fixture.Save(t, e.d, item)
}

func (e env) place(t *testing.T, method domain.PaymentMethod, couponID *string) CreateOrderResult {
	t.Helper()
	res := mediator.Send[CreateOrder, CreateOrderResult](e.ctx, e.m, CreateOrder{
		Checkout:        Checkout{ToDistrictID: 1442, ToWardCode: "20109", UserCouponID: couponID},
		RecipientName:   "Nguyen Van A",
		RecipientPhone:  "0900000000",
		ShippingAddress: "1 Le Loi, District 1, HCMC",
		PaymentMethod:   method,
	})
	require.True(t, res.IsSuccess, res.Message)
	return res.Data
}

func (e env) product(t *testing.T, id string) *domain.Product {
	t.Helper()
	p, err := repo.Of[domain.Product](e.d.UoW.New()).GetByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (e env) count(t *testing.T, n func(*repo.UnitOfWork) (int64, error)) int64 {
	t.Helper()
	v, err := n(e.d.UoW.New())
	require.NoError(t, err)
	return v
}

func cartCount(uow *repo.UnitOfWork) (int64, error) {
	return repo.Of[domain.CartItem](uow).Count(context.Background(), nil)
}

func orderCount(uow *repo.UnitOfWork) (int64, error) {
	return repo.Of[domain.Order](uow).Count(context.Background(), nil)
}

func (e env) collect(t *testing.T, c *domain.Coupon) *domain.UserCoupon {
	t.Helper()
	fixture.Save(t, e.d, c)
	uc := &domain.UserCoupon{UserID: buyer, CouponID: c.ID}
	uc.Initialize(buyer, fixture.Now)
	fixture.Save(t, e.d, uc)
	return uc
}

func tenPercent() *domain.Coupon {
	c := &domain.Coupon{
		Code: "TEN", DiscountType: domain.DiscountPercentage, DiscountValue: decimal.NewFromInt(10),
		UsageLimit: 10, CurrentUsage: 1,
		StartsAt: fixture.Now.Add(-time.Hour), ExpiresAt: fixture.Now.Add(time.Hour),
	}
	c.Initialize("admin", fixture.Now)
	return c
}

func TestCreateOrderCOD(t *testing.T) {
	e := setup(t)
	p := fixture.SeedProduct(t, e.d, "Plush", 250000, 5)
	e.addToCart(t, buyer, p, 2)

	out := e.place(t, domain.PaymentCOD, nil)
	assert.Empty(t, out.PaymentURL)
	o := out.Order
	assert.Equal(t, domain.OrderPending, o.OrderStatus)
	assert.Equal(t, domain.PaymentUnpaid, o.PaymentStatus)
	assert.True(t, strings.HasPrefix(o.OrderCode, "ORD-20250601-"))
	assert.True(t, decimal.NewFromInt(500000).Equal(o.Subtotal))
	assert.True(t, decimal.NewFromInt(30000).Equal(o.ShippingFee))
	assert.True(t, decimal.NewFromInt(530000).Equal(o.TotalAmount))
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Plush", o.Items[0].ProductName)

	stored := e.product(t, p.ID)
	assert.Equal(t, 3, stored.StockQuantity)
	assert.Equal(t, 2, stored.SoldCount)
	assert.Zero(t, e.count(t, cartCount))
	assert.Contains(t, e.rec.Actions(), "order.created")

	got := mediator.Send[GetOrderByID, OrderDto](e.ctx, e.m, GetOrderByID{ID: o.ID})
	require.True(t, got.IsSuccess)
	assert.Equal(t, o.OrderCode, got.Data.OrderCode)
	assert.Len(t, got.Data.Items, 1)
}

func TestCreateOrderWithCouponAndVnPay(t *testing.T) {
	e := setup(t)
	p := fixture.SeedProduct(t, e.d, "Figure", 500000, 5)
	e.addToCart(t, buyer, p, 1)
	uc := e.collect(t, tenPercent())

	out := e.place(t, domain.PaymentVnPay, &uc.ID)
	assert.True(t, strings.HasPrefix(out.PaymentURL, "https://pay.test/vpcpay.html?"), out.PaymentURL)
	assert.Contains(t, out.PaymentURL, "vnp_Amount=48000000")
	assert.True(t, decimal.NewFromInt(50000).Equal(out.Order.DiscountAmount))
	assert.True(t, decimal.NewFromInt(480000).Equal(out.Order.TotalAmount))

	stored, err := repo.Of[domain.UserCoupon](e.d.UoW.New()).GetByID(context.Background(), uc.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsUsed)
	require.NotNil(t, stored.OrderID)
	assert.Equal(t, out.Order.ID, *stored.OrderID)
}

func TestCreateOrderRejectsWithoutSideEffects(t *testing.T) {
	e := setup(t)
	p := fixture.SeedProduct(t, e.d, "Figure", 100000, 1)

	empty := mediator.Send[CreateOrder, CreateOrderResult](e.ctx, e.m, CreateOrder{
		RecipientName: "A", RecipientPhone: "0900000000", ShippingAddress: "x", PaymentMethod: domain.PaymentCOD,
	})
	assert.Equal(t, result.CodeInvalidOperation, empty.ErrorCode)
	assert.Equal(t, "Cart is empty.", empty.Message)

	e.addToCart(t, buyer, p, 3)
	short := mediator.Send[CreateOrder, CreateOrderResult](e.ctx, e.m, CreateOrder{
		RecipientName: "A", RecipientPhone: "0900000000", ShippingAddress: "x", PaymentMethod: domain.PaymentCOD,
	})
	assert.Equal(t, result.CodeInvalidOperation, short.ErrorCode)
	assert.Equal(t, 1, e.product(t, p.ID).StockQuantity)
	assert.EqualValues(t, 1, e.count(t, cartCount))
	assert.Zero(t, e.count(t, orderCount))

	anon := mediator.Send[CreateOrder, CreateOrderResult](context.Background(), e.m, CreateOrder{
		RecipientName: "A", RecipientPhone: "0900000000", ShippingAddress: "x", PaymentMethod: domain.PaymentCOD,
	})
	assert.Equal(t, result.CodeUnauthorized, anon.ErrorCode)
}

func TestCouponBelowMinimumIsRejected(t *testing.T) {
	e := setup(t)
	p := fixture.SeedProduct(t, e.d, "Sticker", 10000, 50)
	e.addToCart(t, buyer, p, 1)
	c := tenPercent()
	c.MinOrderAmount = decimal.NewFromInt(100000)
	uc := e.collect(t, c)

	res := mediator.Send[CreateOrder, CreateOrderResult](e.ctx, e.m, CreateOrder{
		Checkout:      Checkout{UserCouponID: &uc.ID},
		RecipientName: "A", RecipientPhone: "0900000000", ShippingAddress: "x", PaymentMethod: domain.PaymentCOD,
	})
	assert.Equal(t, result.CodeInvalidOperation, res.ErrorCode)
	assert.Zero(t, e.count(t, orderCount))
}

func TestCancelOrderRestoresStockAndCoupon(t *testing.T) {
	e := setup(t)
	p := fixture.SeedProduct(t, e.d, "Figure", 500000, 5)
	e.addToCart(t, buyer, p, 2)
	uc := e.collect(t, tenPercent())
	o := e.place(t, domain.PaymentCOD, &uc.ID).Order

	stranger := mediator.Send[CancelOrder, OrderDto](fixture.AsUser(context.Background(), "other"), e.m, CancelOrder{ID: o.ID})
	assert.Equal(t, result.CodeNotFound, stranger.ErrorCode)

	res := mediator.Send[CancelOrder, OrderDto](e.ctx, e.m, CancelOrder{ID: o.ID, Reason: "changed my mind"})
	require.True(t, res.IsSuccess, res.Message)
	assert.Equal(t, domain.OrderCancelled, res.Data.OrderStatus)

	stored := e.product(t, p.ID)
	assert.Equal(t, 5, stored.StockQuantity)
	assert.Zero(t, stored.SoldCount)
	coupon, err := repo.Of[domain.UserCoupon](e.d.UoW.New()).GetByID(context.Background(), uc.ID)
	require.NoError(t, err)
	assert.False(t, coupon.IsUsed)
	assert.Nil(t, coupon.OrderID)

	again := mediator.Send[CancelOrder, OrderDto](e.ctx, e.m, CancelOrder{ID: o.ID})
	assert.Equal(t, result.CodeInvalidOperation, again.ErrorCode)
}

func TestStaleCancelDoesNotRestoreStockTwice(t *testing.T) {
	e := setup(t)
	p := fixture.SeedProduct(t, e.d, "Figure", 500000, 5)
	e.addToCart(t, buyer, p, 2)
	placed := e.place(t, domain.PaymentCOD, nil).Order

	// 两个请求都读到了 Pending
	stale, err := repo.Of[domain.Order](e.d.UoW.New()).GetByID(context.Background(), placed.ID, "Items")
	require.NoError(t, err)

	res := mediator.Send[CancelOrder, OrderDto](e.ctx, e.m, CancelOrder{ID: placed.ID})
	require.True(t, res.IsSuccess, res.Message)
	assert.Equal(t, 5, e.product(t, p.ID).StockQuantity)

	uow := e.d.UoW.New()
	err = uow.InTransaction(context.Background(), func() error {
		return cancelInTx(context.Background(), uow, stale, buyer, fixture.Now)
	})
	assert.Equal(t, result.CodeInvalidOperation, result.CodeOf(err))
	assert.Equal(t, 5, e.product(t, p.ID).StockQuantity)
}

func TestUpdateOrderStatusTransitions(t *testing.T) {
	e := setup(t)
	p := fixture.SeedProduct(t, e.d, "Figure", 100000, 5)
	e.addToCart(t, buyer, p, 1)
	o := e.place(t, domain.PaymentCOD, nil).Order
	staff := fixture.AsUser(context.Background(), "staff-1", domain.RoleStaff)

	forbidden := mediator.Send[UpdateOrderStatus, OrderDto](e.ctx, e.m, UpdateOrderStatus{ID: o.ID, Status: domain.OrderConfirmed})
	assert.Equal(t, result.CodeForbidden, forbidden.ErrorCode)

	skip := mediator.Send[UpdateOrderStatus, OrderDto](staff, e.m, UpdateOrderStatus{ID: o.ID, Status: domain.OrderShipping})
	assert.Equal(t, result.CodeInvalidOperation, skip.ErrorCode)

	for _, next := range []domain.OrderStatus{domain.OrderConfirmed, domain.OrderShipping, domain.OrderDelivered, domain.OrderCompleted} {
		res := mediator.Send[UpdateOrderStatus, OrderDto](staff, e.m, UpdateOrderStatus{ID: o.ID, Status: next})
		require.True(t, res.IsSuccess, "%s: %s", next, res.Message)
	}
	got := mediator.Send[GetOrderByID, OrderDto](staff, e.m, GetOrderByID{ID: o.ID})
	require.True(t, got.IsSuccess)
	assert.Equal(t, domain.OrderCompleted, got.Data.OrderStatus)
	assert.Equal(t, domain.PaymentPaid, got.Data.PaymentStatus)

	late := mediator.Send[UpdateOrderStatus, OrderDto](staff, e.m, UpdateOrderStatus{ID: o.ID, Status: domain.OrderCancelled})
	assert.Equal(t, result.CodeInvalidOperation, late.ErrorCode)
}

// fakeGateway 回调参数 sig=ok 视为验签通过
type fakeGateway struct{}

func (fakeGateway) Method() domain.PaymentMethod { return domain.PaymentVnPay }

func (fakeGateway) CreatePaymentURL(_ context.Context, req payment.Request) (string, error) {
	return "https://pay.test/" + req.OrderCode, nil
}

func (fakeGateway) VerifyCallback(p map[string]string) (*payment.CallbackResult, error) {
	if p["sig"] != "ok" {
		return nil, payment.ErrInvalidSignature
	}
	return &payment.CallbackResult{
		OrderCode: p["order"], TransactionRef: "TX-1",
		Amount: decimal.RequireFromString(p["amount"]), Success: p["status"] == "00",
	}, nil
}

func TestHandlePaymentCallback(t *testing.T) {
	e := setup(t)
	e.d.Payments = payment.NewRegistry(fakeGateway{})
	p := fixture.SeedProduct(t, e.d, "Figure", 100000, 5)
	e.addToCart(t, buyer, p, 1)
	out := e.place(t, domain.PaymentVnPay, nil)
	assert.Equal(t, "https://pay.test/"+out.Order.OrderCode, out.PaymentURL)
	code := out.Order.OrderCode
	callback := func(params map[string]string) result.Result[PaymentCallbackDto] {
		return mediator.Send[HandlePaymentCallback, PaymentCallbackDto](context.Background(), e.m,
			HandlePaymentCallback{Method: domain.PaymentVnPay, Params: params})
	}

	bad := callback(map[string]string{"sig": "forged", "order": code, "amount": "130000", "status": "00"})
	assert.Equal(t, result.CodeInvalidOperation, bad.ErrorCode)

	failed := callback(map[string]string{"sig": "ok", "order": code, "amount": "130000", "status": "24"})
	require.True(t, failed.IsSuccess)
	assert.False(t, failed.Data.Success)
	assert.Equal(t, domain.PaymentUnpaid, failed.Data.PaymentStatus)

	short := callback(map[string]string{"sig": "ok", "order": code, "amount": "1000", "status": "00"})
	assert.Equal(t, result.CodeInvalidOperation, short.ErrorCode)

	paid := callback(map[string]string{"sig": "ok", "order": code, "amount": "130000", "status": "00"})
	require.True(t, paid.IsSuccess, paid.Message)
	assert.Equal(t, domain.PaymentPaid, paid.Data.PaymentStatus)

	again := callback(map[string]string{"sig": "ok", "order": code, "amount": "130000", "status": "00"})
	require.True(t, again.IsSuccess)
	assert.Equal(t, "Payment already processed.", again.Message)
	assert.Contains(t, e.rec.Actions(), "order.paid")

	unknown := callback(map[string]string{"sig": "ok", "order": "ORD-NOPE", "amount": "1", "status": "00"})
	assert.Equal(t, result.CodeNotFound, unknown.ErrorCode)
}

func TestGetMyOrdersOnlyOwn(t *testing.T) {
	e := setup(t)
	p := fixture.SeedProduct(t, e.d, "Figure", 100000, 10)
	e.addToCart(t, buyer, p, 1)
	e.place(t, domain.PaymentCOD, nil)
	e.addToCart(t, "other", p, 1)
	other := env{m: e.m, d: e.d, ctx: fixture.AsUser(context.Background(), "other")}
	other.place(t, domain.PaymentCOD, nil)

	mine := mediator.Send[GetMyOrders, result.Page[OrderDto]](e.ctx, e.m, GetMyOrders{})
	require.True(t, mine.IsSuccess)
	require.Len(t, mine.Data.Items, 1)
	assert.Equal(t, buyer, mine.Data.Items[0].UserID)

	pending := domain.OrderPending
	staff := fixture.AsUser(context.Background(), "staff-1", domain.RoleStaff)
	all := mediator.Send[GetOrders, result.Page[OrderDto]](staff, e.m, GetOrders{OrderFilter: OrderFilter{Status: &pending}})
	require.True(t, all.IsSuccess)
	assert.EqualValues(t, 2, all.Data.TotalCount)

	denied := mediator.Send[GetOrders, result.Page[OrderDto]](e.ctx, e.m, GetOrders{})
	assert.Equal(t, result.CodeForbidden, denied.ErrorCode)
}

func TestCalculateShippingFee(t *testing.T) {
	e := setup(t)
	p := fixture.SeedProduct(t, e.d, "Figure", 100000, 10)
	e.addToCart(t, buyer, p, 5)

	res := mediator.Send[CalculateShippingFee, ShippingQuote](e.ctx, e.m, CalculateShippingFee{})
	require.True(t, res.IsSuccess, res.Message)
	assert.Equal(t, "Flat", res.Data.Provider)
	assert.Equal(t, 2500, res.Data.WeightGrams)
	assert.True(t, decimal.NewFromInt(40000).Equal(res.Data.ShippingFee), res.Data.ShippingFee.String())
	assert.True(t, decimal.NewFromInt(540000).Equal(res.Data.TotalAmount))

	unknown := mediator.Send[CalculateShippingFee, ShippingQuote](e.ctx, e.m, CalculateShippingFee{Checkout{ShippingProvider: "DHL"}})
	assert.Equal(t, result.CodeInvalidOperation, unknown.ErrorCode)
}

func TestGetOrderInvoice(t *testing.T) {
	e := setup(t)
	p := fixture.SeedProduct(t, e.d, "Figure", 1250000, 10)
	e.addToCart(t, buyer, p, 1)
	o := e.place(t, domain.PaymentCOD, nil).Order

	res := mediator.Send[GetOrderInvoice, feature.File](e.ctx, e.m, GetOrderInvoice{ID: o.ID})
	require.True(t, res.IsSuccess, res.Message)
	assert.Equal(t, "application/pdf", res.Data.ContentType)
	assert.True(t, bytes.HasPrefix(res.Data.Content, []byte("%PDF")))

	other := mediator.Send[GetOrderInvoice, feature.File](fixture.AsUser(context.Background(), "other"), e.m, GetOrderInvoice{ID: o.ID})
	assert.Equal(t, result.CodeNotFound, other.ErrorCode)
}

func TestVND(t *testing.T) {
	assert.Equal(t, "1.250.000 VND", vnd("1250000"))
	assert.Equal(t, "500 VND", vnd("500"))
	assert.Equal(t, "-30.000 VND", vnd("-30000"))
}
