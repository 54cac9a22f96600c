// Package cart 购物车
package cart

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"

	"anime-shop/internal/core/mediator"
	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
	"anime-shop/internal/feature"
	"anime-shop/internal/repo"
)

const (
	MsgItemRemoved  = "Cart item removed successfully."
	MsgSameQuantity = "Quantity is the same. No changes made."
)

type ItemDto struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"productId"`
	ProductName   string          `json:"productName"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Quantity      int             `json:"quantity"`
	LineTotal     decimal.Decimal `json:"lineTotal"`
	StockQuantity int             `json:"stockQuantity"`
	Available     bool            `json:"available"`
	AddedAt       time.Time       `json:"addedAt"`
}

type CartDto struct {
	Items      []ItemDto       `json:"items"`
	TotalItems int             `json:"totalItems"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

type AddToCart struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (r AddToCart) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProductID, validation.Required),
		validation.Field(&r.Quantity, validation.Required, validation.Min(1)),
	)
}

// UpdateCart Quantity 为 0 时删除该行
type UpdateCart struct {
	CartItemID string `uri:"id" json:"-"`
	Quantity   int    `json:"quantity"`
}

func (r UpdateCart) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CartItemID, validation.Required),
		validation.Field(&r.Quantity, validation.Min(0)),
	)
}

type RemoveCartItem struct {
	CartItemID string `uri:"id"`
}

type GetCart struct{}

func Register(m *mediator.Mediator, d *feature.Deps) {
	h := handlers{d}
	mediator.RegisterFunc(m, h.add)
	mediator.RegisterFunc(m, h.update)
	mediator.RegisterFunc(m, h.remove)
	mediator.RegisterFunc(m, h.get)
}

type handlers struct{ d *feature.Deps }

func toItemDto(c *domain.CartItem) ItemDto {
	dto := ItemDto{ID: c.ID, ProductID: c.ProductID, Quantity: c.Quantity, AddedAt: c.CreatedAt}
	if p := c.Product; p != nil {
		dto.ProductName = p.Name
		dto.UnitPrice = p.Price
		dto.StockQuantity = p.StockQuantity
		dto.LineTotal = p.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
		dto.Available = p.IsActive() && p.StockQuantity >= c.Quantity
	}
	return dto
}

// loadProduct 仅返回可售商品
func loadProduct(ctx context.Context, uow *repo.UnitOfWork, id string) (*domain.Product, error) {
	return repo.Of[domain.Product](uow).GetFirstOrDefault(ctx, repo.And(repo.ByID(id), repo.Eq("status", domain.StatusActive)))
}

func (h handlers) add(ctx context.Context, req AddToCart) result.Result[ItemDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[ItemDto](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	p, err := loadProduct(ctx, uow, req.ProductID)
	if err != nil {
		return feature.Fail[ItemDto](ctx, h.d, "add to cart", err)
	}
	if p == nil {
		return result.NotFound[ItemDto]("Product not found.")
	}

	items := repo.Of[domain.CartItem](uow)
	item, err := items.GetFirstOrDefault(ctx, repo.And(repo.Eq("user_id", uid), repo.Eq("product_id", p.ID)))
	if err != nil {
		return feature.Fail[ItemDto](ctx, h.d, "add to cart", err)
	}
	qty := req.Quantity
	if item != nil {
		qty += item.Quantity
	}
	if qty > p.StockQuantity {
		return result.Invalid[ItemDto]("Requested quantity exceeds available stock.")
	}

	now := h.d.Now()
	if item == nil {
		item = &domain.CartItem{UserID: uid, ProductID: p.ID, Quantity: qty}
		item.Initialize(uid, now)
		items.Add(item)
	} else {
		item.Quantity = qty
		item.MarkUpdated(uid, now)
		items.Update(item)
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[ItemDto](ctx, h.d, "add to cart", err)
	}
	item.Product = p
	return result.Success(toItemDto(item), "Product added to cart successfully.")
}

func (h handlers) owned(ctx context.Context, uow *repo.UnitOfWork, uid, id string) (*domain.CartItem, error) {
	return repo.Of[domain.CartItem](uow).GetFirstOrDefault(ctx, repo.And(repo.ByID(id), repo.Eq("user_id", uid)), "Product")
}

func (h handlers) update(ctx context.Context, req UpdateCart) result.Result[ItemDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[ItemDto](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	item, err := h.owned(ctx, uow, uid, req.CartItemID)
	if err != nil {
		return feature.Fail[ItemDto](ctx, h.d, "update cart", err)
	}
	if item == nil {
		return result.NotFound[ItemDto]("Cart item not found.")
	}

	items := repo.Of[domain.CartItem](uow)
	switch {
	case req.Quantity == 0:
		items.Delete(item)
		if _, err := uow.SaveChanges(ctx); err != nil {
			return feature.Fail[ItemDto](ctx, h.d, "update cart", err)
		}
		item.Quantity = 0
		return result.Success(toItemDto(item), MsgItemRemoved)
	case req.Quantity == item.Quantity:
		return result.Success(toItemDto(item), MsgSameQuantity)
	case item.Product == nil || !item.Product.IsActive():
		return result.Invalid[ItemDto]("Product is no longer available.")
	case req.Quantity > item.Product.StockQuantity:
		return result.Invalid[ItemDto]("Requested quantity exceeds available stock.")
	}

	item.Quantity = req.Quantity
	item.MarkUpdated(uid, h.d.Now())
	items.Update(item)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[ItemDto](ctx, h.d, "update cart", err)
	}
	return result.Success(toItemDto(item), "Cart updated successfully.")
}

func (h handlers) remove(ctx context.Context, req RemoveCartItem) result.Result[result.Empty] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[result.Empty](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	item, err := h.owned(ctx, uow, uid, req.CartItemID)
	if err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "remove cart item", err)
	}
	if item == nil {
		return result.NotFound[result.Empty]("Cart item not found.")
	}
	repo.Of[domain.CartItem](uow).Delete(item)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "remove cart item", err)
	}
	return result.Success(result.Empty{}, MsgItemRemoved)
}

func (h handlers) get(ctx context.Context, _ GetCart) result.Result[CartDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[CartDto](feature.MsgUnauthorized)
	}
	lines, err := Lines(ctx, h.d.UoW.New(), uid)
	if err != nil {
		return feature.Fail[CartDto](ctx, h.d, "get cart", err)
	}
	out := CartDto{Items: make([]ItemDto, 0, len(lines)), Subtotal: decimal.Zero}
	for i := range lines {
		dto := toItemDto(&lines[i])
		out.Items = append(out.Items, dto)
		out.TotalItems += dto.Quantity
		out.Subtotal = out.Subtotal.Add(dto.LineTotal)
	}
	return result.Success(out, "")
}

// Lines 当前用户的购物车行（含商品），按加入时间排序；下单也用它
func Lines(ctx context.Context, uow *repo.UnitOfWork, uid string) ([]domain.CartItem, error) {
	var lines []domain.CartItem
	q := repo.Eq("user_id", uid)(repo.Of[domain.CartItem](uow).Query(ctx)).
		Preload("Product").
		Order(clause.OrderByColumn{Column: repo.Col("created_at")}).
		Order(clause.OrderByColumn{Column: repo.Col("id")})
	if err := q.Find(&lines).Error; err != nil {
		return nil, result.Wrap(result.CodeDatabaseError, "Failed to load cart.", err)
	}
	return lines, nil
}
