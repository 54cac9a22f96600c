// Package coupon 优惠券发放、领取与折扣计算
package coupon

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"anime-shop/internal/core/audit"
	"anime-shop/internal/core/mediator"
	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
	"anime-shop/internal/feature"
	"anime-shop/internal/filter"
	"anime-shop/internal/repo"
)

type CouponDto struct {
	ID                string              `json:"id"`
	Code              string              `json:"code"`
	Description       string              `json:"description"`
	DiscountType      domain.DiscountType `json:"discountType"`
	DiscountValue     decimal.Decimal     `json:"discountValue"`
	MaxDiscountAmount *decimal.Decimal    `json:"maxDiscountAmount,omitempty"`
	MinOrderAmount    decimal.Decimal     `json:"minOrderAmount"`
	UsageLimit        int                 `json:"usageLimit"`
	CurrentUsage      int                 `json:"currentUsage"`
	StartsAt          time.Time           `json:"startsAt"`
	ExpiresAt         time.Time           `json:"expiresAt"`
	Status            domain.Status       `json:"status"`
}

type UserCouponDto struct {
	ID          string     `json:"id"`
	Coupon      CouponDto  `json:"coupon"`
	IsUsed      bool       `json:"isUsed"`
	UsedAt      *time.Time `json:"usedAt,omitempty"`
	CollectedAt time.Time  `json:"collectedAt"`
}

func toCouponDto(c *domain.Coupon) CouponDto {
	return CouponDto{
		ID: c.ID, Code: c.Code, Description: c.Description, DiscountType: c.DiscountType,
		DiscountValue: c.DiscountValue, MaxDiscountAmount: c.MaxDiscountAmount, MinOrderAmount: c.MinOrderAmount,
		UsageLimit: c.UsageLimit, CurrentUsage: c.CurrentUsage, StartsAt: c.StartsAt, ExpiresAt: c.ExpiresAt,
		Status: c.Status,
	}
}

func toUserCouponDto(uc *domain.UserCoupon) UserCouponDto {
	dto := UserCouponDto{ID: uc.ID, IsUsed: uc.IsUsed, UsedAt: uc.UsedAt, CollectedAt: uc.CreatedAt}
	if uc.Coupon != nil {
		dto.Coupon = toCouponDto(uc.Coupon)
	}
	return dto
}

type CreateCoupon struct {
	Code              string              `json:"code"`
	Description       string              `json:"description"`
	DiscountType      domain.DiscountType `json:"discountType"`
	DiscountValue     decimal.Decimal     `json:"discountValue"`
	MaxDiscountAmount *decimal.Decimal    `json:"maxDiscountAmount"`
	MinOrderAmount    decimal.Decimal     `json:"minOrderAmount"`
	UsageLimit        int                 `json:"usageLimit"`
	StartsAt          time.Time           `json:"startsAt"`
	ExpiresAt         time.Time           `json:"expiresAt"`
}

func (r CreateCoupon) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required, validation.Length(3, 64)),
		validation.Field(&r.DiscountType, validation.Required, validation.In(domain.DiscountPercentage, domain.DiscountFixed)),
		validation.Field(&r.DiscountValue, validation.By(func(any) error {
			if !r.DiscountValue.IsPositive() {
				return validation.NewError("validation_positive", "must be greater than 0")
			}
			if r.DiscountType == domain.DiscountPercentage && r.DiscountValue.GreaterThan(hundred) {
				return validation.NewError("validation_percentage", "must not exceed 100")
			}
			return nil
		})),
		validation.Field(&r.MinOrderAmount, validation.By(func(any) error {
			if r.MinOrderAmount.IsNegative() {
				return validation.NewError("validation_min", "must not be negative")
			}
			return nil
		})),
		validation.Field(&r.UsageLimit, validation.Required, validation.Min(1)),
		validation.Field(&r.ExpiresAt, validation.Required, validation.By(func(any) error {
			if !r.ExpiresAt.After(r.StartsAt) {
				return validation.NewError("validation_range", "must be after startsAt")
			}
			return nil
		})),
	)
}

type DeleteCoupon struct {
	ID string `uri:"id"`
}

type CollectCoupon struct {
	CouponID string `uri:"id"`
}

type CouponFilter struct {
	filter.PageRequest
	Keyword      string               `form:"keyword"`
	DiscountType *domain.DiscountType `form:"discountType"`
	ActiveOnly   bool                 `form:"activeOnly"`
}

type MyCouponFilter struct {
	filter.PageRequest
	IsUsed *bool `form:"isUsed"`
}

var couponSort = filter.Sort{
	Columns: map[string]string{
		"code": "code", "expiresat": "expires_at", "createdat": "created_at", "discountvalue": "discount_value",
	},
	Default:     "created_at",
	DefaultDesc: true,
}

func Register(m *mediator.Mediator, d *feature.Deps) {
	h := handlers{d}
	mediator.RegisterFunc(m, h.create)
	mediator.RegisterFunc(m, h.list)
	mediator.RegisterFunc(m, h.collect)
	mediator.RegisterFunc(m, h.mine)
	mediator.RegisterFunc(m, h.delete)
}

type handlers struct{ d *feature.Deps }

func (h handlers) create(ctx context.Context, req CreateCoupon) result.Result[CouponDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[CouponDto](feature.MsgUnauthorized)
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	uow := h.d.UoW.New()
	coupons := repo.Of[domain.Coupon](uow)
	taken, err := coupons.Unscoped().Any(ctx, repo.Eq("code", code))
	if err != nil {
		return feature.Fail[CouponDto](ctx, h.d, "create coupon", err)
	}
	if taken {
		return result.Duplicate[CouponDto]("Coupon code already exists.")
	}
	c := &domain.Coupon{
		Code: code, Description: req.Description, DiscountType: req.DiscountType,
		DiscountValue: req.DiscountValue, MaxDiscountAmount: req.MaxDiscountAmount,
		MinOrderAmount: req.MinOrderAmount, UsageLimit: req.UsageLimit,
		StartsAt: req.StartsAt.UTC(), ExpiresAt: req.ExpiresAt.UTC(),
	}
	c.Initialize(uid, h.d.Now())
	coupons.Add(c)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[CouponDto](ctx, h.d, "create coupon", err)
	}
	return result.Success(toCouponDto(c), "Coupon created successfully.")
}

func (h handlers) list(ctx context.Context, req CouponFilter) result.PaginationResult[CouponDto] {
	b := filter.New().ContainsAny([]string{"code", "description"}, req.Keyword)
	filter.Eq(b, "discount_type", req.DiscountType)
	now := h.d.Now()
	b.When(req.ActiveOnly, func(b *filter.Builder) {
		b.EqValue("status", domain.StatusActive).
			Expr("starts_at <= ? AND expires_at > ? AND current_usage < usage_limit", now, now)
	})
	return feature.Paged(ctx, h.d, repo.Of[domain.Coupon](h.d.UoW.New()), req.PageRequest, b.Build(),
		couponSort.Resolve(req.SortBy, req.SortDirection), toCouponDto)
}

// collect 领取：计数自增与 UserCoupon 写入在同一事务，计数用条件更新防止超发
func (h handlers) collect(ctx context.Context, req CollectCoupon) result.Result[UserCouponDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[UserCouponDto](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	var uc *domain.UserCoupon
	err := uow.InTransaction(ctx, func() error {
		coupons := repo.Of[domain.Coupon](uow)
		c, err := coupons.GetByID(ctx, req.CouponID)
		if err != nil {
			return err
		}
		if c == nil {
			return result.Errorf(result.CodeNotFound, "Coupon not found.")
		}
		now := h.d.Now()
		if !c.ValidAt(now) {
			return result.Errorf(result.CodeInvalidOperation, "Coupon is not active or has expired.")
		}
		if c.Exhausted() {
			return result.Errorf(result.CodeInvalidOperation, "Coupon usage limit has been reached.")
		}
		userCoupons := repo.Of[domain.UserCoupon](uow)
		held, err := userCoupons.Any(ctx, repo.And(repo.Eq("user_id", uid), repo.Eq("coupon_id", c.ID)))
		if err != nil {
			return err
		}
		if held {
			return result.Errorf(result.CodeConflict, "You have already collected this coupon.")
		}

		res := coupons.Query(ctx).
			Where("id = ? AND current_usage < usage_limit", c.ID).
			UpdateColumn("current_usage", gorm.Expr("current_usage + 1"))
		if res.Error != nil {
			return result.Wrap(result.CodeDatabaseError, "Failed to collect coupon.", res.Error)
		}
		if res.RowsAffected == 0 {
			return result.Errorf(result.CodeInvalidOperation, "Coupon usage limit has been reached.")
		}
		c.CurrentUsage++

		uc = &domain.UserCoupon{UserID: uid, CouponID: c.ID, Coupon: c}
		uc.Initialize(uid, now)
		userCoupons.Add(uc)
		_, err = uow.SaveChanges(ctx)
		return err
	})
	if result.CodeOf(err) == result.CodeDuplicateEntry {
		// 并发领取时由唯一索引兜底
		return result.Conflict[UserCouponDto]("You have already collected this coupon.")
	}
	if err != nil {
		return feature.Fail[UserCouponDto](ctx, h.d, "collect coupon", err)
	}
	h.d.Record(ctx, audit.Entry{ActorID: uid, Action: "coupon.collected", EntityType: "Coupon", EntityID: req.CouponID})
	return result.Success(toUserCouponDto(uc), "Coupon collected successfully.")
}

func (h handlers) mine(ctx context.Context, req MyCouponFilter) result.PaginationResult[UserCouponDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[result.Page[UserCouponDto]](feature.MsgUnauthorized)
	}
	b := filter.New().EqValue("user_id", uid)
	filter.Eq(b, "is_used", req.IsUsed)
	return feature.Paged(ctx, h.d, repo.Of[domain.UserCoupon](h.d.UoW.New()), req.PageRequest, b.Build(),
		&repo.Order{Column: "created_at", Desc: true}, toUserCouponDto, "Coupon")
}

func (h handlers) delete(ctx context.Context, req DeleteCoupon) result.Result[result.Empty] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[result.Empty](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	coupons := repo.Of[domain.Coupon](uow)
	c, err := coupons.GetByID(ctx, req.ID)
	if err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "delete coupon", err)
	}
	if c == nil {
		return result.NotFound[result.Empty]("Coupon not found.")
	}
	if c.CurrentUsage > 0 {
		return result.Conflict[result.Empty]("Coupon has already been used and cannot be deleted.")
	}
	if err := c.SoftDelete(uid, h.d.Now()); err != nil {
		return result.Invalid[result.Empty]("Coupon is already deleted.")
	}
	coupons.Update(c)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "delete coupon", err)
	}
	h.d.Record(ctx, audit.Entry{ActorID: uid, Action: "coupon.deleted", EntityType: "Coupon", EntityID: c.ID, Detail: c.Code})
	return result.Success(result.Empty{}, "Coupon deleted successfully.")
}
