// Package badge 商品徽章（新品、热卖、限定……）
package badge

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"anime-shop/internal/core/mediator"
	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
	"anime-shop/internal/feature"
	"anime-shop/internal/filter"
	"anime-shop/internal/repo"
)

type BadgeDto struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Color     string        `json:"color"`
	Status    domain.Status `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}

func toBadgeDto(b *domain.Badge) BadgeDto {
	return BadgeDto{ID: b.ID, Name: b.Name, Color: b.Color, Status: b.Status, CreatedAt: b.CreatedAt}
}

type CreateBadge struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (r CreateBadge) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.Color, is.HexColor),
	)
}

type DeleteBadge struct {
	ID string `uri:"id"`
}

type BadgeFilter struct {
	filter.PageRequest
	Keyword string `form:"keyword"`
}

var badgeSort = filter.Sort{
	Columns: map[string]string{"name": "name", "createdat": "created_at"},
	Default: "name",
}

func Register(m *mediator.Mediator, d *feature.Deps) {
	h := handlers{d}
	mediator.RegisterFunc(m, h.create)
	mediator.RegisterFunc(m, h.list)
	mediator.RegisterFunc(m, h.delete)
}

type handlers struct{ d *feature.Deps }

func (h handlers) create(ctx context.Context, req CreateBadge) result.Result[BadgeDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[BadgeDto](feature.MsgUnauthorized)
	}
	name := strings.TrimSpace(req.Name)
	uow := h.d.UoW.New()
	badges := repo.Of[domain.Badge](uow)
	taken, err := badges.Unscoped().Any(ctx, repo.Eq("name", name))
	if err != nil {
		return feature.Fail[BadgeDto](ctx, h.d, "create badge", err)
	}
	if taken {
		return result.Duplicate[BadgeDto]("A badge with this name already exists.")
	}
	b := &domain.Badge{Name: name, Color: strings.ToUpper(req.Color)}
	b.Initialize(uid, h.d.Now())
	badges.Add(b)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[BadgeDto](ctx, h.d, "create badge", err)
	}
	return result.Success(toBadgeDto(b), "Badge created successfully.")
}

func (h handlers) list(ctx context.Context, req BadgeFilter) result.PaginationResult[BadgeDto] {
	where := filter.New().Contains("name", req.Keyword).Build()
	return feature.Paged(ctx, h.d, repo.Of[domain.Badge](h.d.UoW.New()), req.PageRequest, where,
		badgeSort.Resolve(req.SortBy, req.SortDirection), toBadgeDto)
}

func (h handlers) delete(ctx context.Context, req DeleteBadge) result.Result[result.Empty] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[result.Empty](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	badges := repo.Of[domain.Badge](uow)
	b, err := badges.GetByID(ctx, req.ID)
	if err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "delete badge", err)
	}
	if b == nil {
		return result.NotFound[result.Empty]("Badge not found.")
	}
	attached, err := repo.Of[domain.Product](uow).Any(ctx, filter.New().
		Expr("EXISTS (SELECT 1 FROM product_badges pb WHERE pb.product_id = products.id AND pb.badge_id = ?)", b.ID).
		Build())
	if err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "delete badge", err)
	}
	if attached {
		return result.Conflict[result.Empty]("Badge is attached to products and cannot be deleted.")
	}
	if err := b.SoftDelete(uid, h.d.Now()); err != nil {
		return result.Invalid[result.Empty]("Badge is already deleted.")
	}
	badges.Update(b)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "delete badge", err)
	}
	return result.Success(result.Empty{}, "Badge deleted successfully.")
}
