// Package wishlist 收藏夹
package wishlist

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"anime-shop/internal/core/mediator"
	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
	"anime-shop/internal/feature"
	"anime-shop/internal/filter"
	"anime-shop/internal/repo"
)

type ItemDto struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	ProductSlug string          `json:"productSlug"`
	Price       decimal.Decimal `json:"price"`
	InStock     bool            `json:"inStock"`
	AddedAt     time.Time       `json:"addedAt"`
}

func toItemDto(w *domain.WishlistItem) ItemDto {
	dto := ItemDto{ID: w.ID, ProductID: w.ProductID, AddedAt: w.CreatedAt}
	if p := w.Product; p != nil {
		dto.ProductName, dto.ProductSlug, dto.Price = p.Name, p.Slug, p.Price
		dto.InStock = p.IsActive() && p.StockQuantity > 0
	}
	return dto
}

type AddToWishlist struct {
	ProductID string `json:"productId"`
}

func (r AddToWishlist) Validate() error {
	return validation.ValidateStruct(&r, validation.Field(&r.ProductID, validation.Required))
}

type RemoveFromWishlist struct {
	ProductID string `uri:"productId"`
}

type GetWishlist struct {
	filter.PageRequest
}

func Register(m *mediator.Mediator, d *feature.Deps) {
	h := handlers{d}
	mediator.RegisterFunc(m, h.add)
	mediator.RegisterFunc(m, h.remove)
	mediator.RegisterFunc(m, h.list)
}

type handlers struct{ d *feature.Deps }

func (h handlers) add(ctx context.Context, req AddToWishlist) result.Result[ItemDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[ItemDto](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	p, err := repo.Of[domain.Product](uow).GetByID(ctx, req.ProductID)
	if err != nil {
		return feature.Fail[ItemDto](ctx, h.d, "add to wishlist", err)
	}
	if p == nil {
		return result.NotFound[ItemDto]("Product not found.")
	}
	items := repo.Of[domain.WishlistItem](uow)
	exists, err := items.Any(ctx, repo.And(repo.Eq("user_id", uid), repo.Eq("product_id", p.ID)))
	if err != nil {
		return feature.Fail[ItemDto](ctx, h.d, "add to wishlist", err)
	}
	if exists {
		return result.Conflict[ItemDto]("Product is already in your wishlist.")
	}
	w := &domain.WishlistItem{UserID: uid, ProductID: p.ID}
	w.Initialize(uid, h.d.Now())
	items.Add(w)
	if _, err := uow.SaveChanges(ctx); err != nil {
		if result.CodeOf(err) == result.CodeDuplicateEntry {
			return result.Conflict[ItemDto]("Product is already in your wishlist.")
		}
		return feature.Fail[ItemDto](ctx, h.d, "add to wishlist", err)
	}
	w.Product = p
	return result.Success(toItemDto(w), "Product added to wishlist.")
}

func (h handlers) remove(ctx context.Context, req RemoveFromWishlist) result.Result[result.Empty] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[result.Empty](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	items := repo.Of[domain.WishlistItem](uow)
	w, err := items.GetFirstOrDefault(ctx, repo.And(repo.Eq("user_id", uid), repo.Eq("product_id", req.ProductID)))
	if err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "remove from wishlist", err)
	}
	if w == nil {
		return result.NotFound[result.Empty]("Product is not in your wishlist.")
	}
	items.Delete(w)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "remove from wishlist", err)
	}
	return result.Success(result.Empty{}, "Product removed from wishlist.")
}

func (h handlers) list(ctx context.Context, req GetWishlist) result.PaginationResult[ItemDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[result.Page[ItemDto]](feature.MsgUnauthorized)
	}
	return feature.Paged(ctx, h.d, repo.Of[domain.WishlistItem](h.d.UoW.New()), req.PageRequest,
		repo.Eq("user_id", uid), &repo.Order{Column: "created_at", Desc: true}, toItemDto, "Product")
}
