// Package review 商品评价：只有已完成订单的买家可以评价，每个商品一次
package review

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

type ReviewDto struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

func toReviewDto(r *domain.Review) ReviewDto {
	dto := ReviewDto{ID: r.ID, ProductID: r.ProductID, UserID: r.UserID, Rating: r.Rating, Comment: r.Comment, CreatedAt: r.CreatedAt}
	if r.User != nil {
		dto.UserName = r.User.FullName
	}
	return dto
}

type CreateReview struct {
	ProductID string `uri:"id" json:"-"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func (r CreateReview) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProductID, validation.Required),
		validation.Field(&r.Rating, validation.Required, validation.Min(1), validation.Max(5)),
		validation.Field(&r.Comment, validation.Length(0, 2048)),
	)
}

type GetProductReviews struct {
	filter.PageRequest
	ProductID string `uri:"id"`
	Rating    *int   `form:"rating"`
}

type DeleteReview struct {
	ID string `uri:"id"`
}

var reviewSort = filter.Sort{
	Columns:     map[string]string{"createdat": "created_at", "rating": "rating"},
	Default:     "created_at",
	DefaultDesc: true,
}

func Register(m *mediator.Mediator, d *feature.Deps) {
	h := handlers{d}
	mediator.RegisterFunc(m, h.create)
	mediator.RegisterFunc(m, h.list)
	mediator.RegisterFunc(m, h.delete)
}

type handlers struct{ d *feature.Deps }

// purchased 用户是否有包含该商品的已完成订单
func purchased(ctx context.Context, uow *repo.UnitOfWork, uid, productID string) (bool, error) {
	return repo.Of[domain.OrderItem](uow).Any(ctx, filter.New().
		EqValue("product_id", productID).
		Expr("EXISTS (SELECT 1 FROM orders o WHERE o.id = order_items.order_id AND o.user_id = ? AND o.order_status = ?)",
			uid, domain.OrderCompleted).
		Build())
}

func (h handlers) create(ctx context.Context, req CreateReview) result.Result[ReviewDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[ReviewDto](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	p, err := repo.Of[domain.Product](uow).GetByID(ctx, req.ProductID)
	if err != nil {
		return feature.Fail[ReviewDto](ctx, h.d, "create review", err)
	}
	if p == nil {
		return result.NotFound[ReviewDto]("Product not found.")
	}
	bought, err := purchased(ctx, uow, uid, p.ID)
	if err != nil {
		return feature.Fail[ReviewDto](ctx, h.d, "create review", err)
	}
	if !bought {
		return result.Invalid[ReviewDto]("You can only review products from your completed orders.")
	}
	reviews := repo.Of[domain.Review](uow)
	done, err := reviews.Any(ctx, repo.And(repo.Eq("user_id", uid), repo.Eq("product_id", p.ID)))
	if err != nil {
		return feature.Fail[ReviewDto](ctx, h.d, "create review", err)
	}
	if done {
		return result.Conflict[ReviewDto]("You have already reviewed this product.")
	}

	r := &domain.Review{UserID: uid, ProductID: p.ID, Rating: req.Rating, Comment: req.Comment}
	r.Initialize(uid, h.d.Now())
	reviews.Add(r)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[ReviewDto](ctx, h.d, "create review", err)
	}
	return result.Success(toReviewDto(r), "Review submitted successfully.")
}

func (h handlers) list(ctx context.Context, req GetProductReviews) result.PaginationResult[ReviewDto] {
	b := filter.New().EqValue("product_id", req.ProductID)
	filter.Eq(b, "rating", req.Rating)
	return feature.Paged(ctx, h.d, repo.Of[domain.Review](h.d.UoW.New()), req.PageRequest, b.Build(),
		reviewSort.Resolve(req.SortBy, req.SortDirection), toReviewDto, "User")
}

func (h handlers) delete(ctx context.Context, req DeleteReview) result.Result[result.Empty] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[result.Empty](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	reviews := repo.Of[domain.Review](uow)
	r, err := reviews.GetByID(ctx, req.ID)
	if err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "delete review", err)
	}
	if r == nil {
		return result.NotFound[result.Empty]("Review not found.")
	}
	if r.UserID != uid && !feature.IsStaff(ctx) {
		return result.Forbidden[result.Empty]("You can only delete your own reviews.")
	}
	if err := r.SoftDelete(uid, h.d.Now()); err != nil {
		return result.Invalid[result.Empty]("Review is already deleted.")
	}
	reviews.Update(r)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "delete review", err)
	}
	if r.UserID != uid {
		h.d.Record(ctx, audit.Entry{ActorID: uid, Action: "review.moderated", EntityType: "Review", EntityID: r.ID})
	}
	return result.Success(result.Empty{}, "Review deleted successfully.")
}
