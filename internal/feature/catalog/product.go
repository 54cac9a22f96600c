package catalog

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"anime-shop/internal/core/audit"
	"anime-shop/internal/core/cache"
	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
	"anime-shop/internal/feature"
	"anime-shop/internal/filter"
	"anime-shop/internal/repo"
	"anime-shop/pkg/utils"
)

var productIncludes = []string{"Category", "AnimeSeries", "Badges", "Images"}

func productCacheKey(id string) string { return "product:" + id }

type ProductInput struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	WeightGrams   int             `json:"weightGrams"`
	CategoryID    string          `json:"categoryId"`
	AnimeSeriesID *string         `json:"animeSeriesId"`
	BadgeIDs      []string        `json:"badgeIds"`
}

func (p *ProductInput) fieldRules() []*validation.FieldRules {
	return []*validation.FieldRules{
		validation.Field(&p.Name, validation.Required, validation.Length(1, 191)),
		validation.Field(&p.Price, validation.By(positiveDecimal)),
		validation.Field(&p.StockQuantity, validation.Min(0)),
		validation.Field(&p.WeightGrams, validation.Min(0)),
		validation.Field(&p.CategoryID, validation.Required),
	}
}

func positiveDecimal(v any) error {
	d, _ := v.(decimal.Decimal)
	if !d.IsPositive() {
		return validation.NewError("validation_positive", "must be greater than 0")
	}
	return nil
}

type CreateProduct struct {
	ProductInput
}

func (r CreateProduct) Validate() error {
	p := r.ProductInput
	return validation.ValidateStruct(&p, p.fieldRules()...)
}

type UpdateProduct struct {
	ID string `uri:"id" json:"-"`
	ProductInput
	Status *domain.Status `json:"status"`
}

func (r UpdateProduct) Validate() error {
	p := r.ProductInput
	if err := validation.ValidateStruct(&p, p.fieldRules()...); err != nil {
		return err
	}
	return validation.Errors{
		"id":     validation.Validate(r.ID, validation.Required),
		"status": validation.Validate(r.Status, validation.By(validStatus)),
	}.Filter()
}

type DeleteProduct struct {
	ID string `uri:"id"`
}

type RestoreProduct struct {
	ID string `uri:"id"`
}

type GetProductByID struct {
	ID string `uri:"id"`
}

type ProductFilter struct {
	filter.PageRequest
	Keyword       string   `form:"keyword"`
	CategoryID    *string  `form:"categoryId"`
	AnimeSeriesID *string  `form:"animeSeriesId"`
	BadgeID       *string  `form:"badgeId"`
	MinPrice      *float64 `form:"minPrice"`
	MaxPrice      *float64 `form:"maxPrice"`
	Status        *string  `form:"status"`
	InStock       *bool    `form:"inStock"`
}

var productSort = filter.Sort{
	Columns: map[string]string{
		"name": "name", "price": "price", "createdat": "created_at", "soldcount": "sold_count",
	},
	Default:     "created_at",
	DefaultDesc: true,
}

func (f ProductFilter) where() repo.Where {
	b := filter.New().ContainsAny([]string{"name", "description"}, f.Keyword)
	filter.Eq(b, "category_id", f.CategoryID)
	filter.Eq(b, "anime_series_id", f.AnimeSeriesID)
	filter.Eq(b, "status", f.Status)
	var min, max *decimal.Decimal
	if f.MinPrice != nil {
		v := decimal.NewFromFloat(*f.MinPrice)
		min = &v
	}
	if f.MaxPrice != nil {
		v := decimal.NewFromFloat(*f.MaxPrice)
		max = &v
	}
	filter.Range(b, "price", min, max)
	if f.BadgeID != nil && *f.BadgeID != "" {
		b.Expr("EXISTS (SELECT 1 FROM product_badges pb WHERE pb.product_id = products.id AND pb.badge_id = ?)", *f.BadgeID)
	}
	if f.InStock != nil {
		if *f.InStock {
			b.Expr("stock_quantity > 0")
		} else {
			b.Expr("stock_quantity <= 0")
		}
	}
	return b.Build()
}

type productHandlers struct{ d *feature.Deps }

// references 校验分类 / 番剧 / 徽章都存在
func (h productHandlers) references(ctx context.Context, uow *repo.UnitOfWork, in ProductInput) ([]domain.Badge, string, error) {
	cat, err := repo.Of[domain.Category](uow).GetByID(ctx, in.CategoryID)
	if err != nil {
		return nil, "", err
	}
	if cat == nil {
		return nil, "Category not found.", nil
	}
	if id := optional(in.AnimeSeriesID); id != nil {
		s, err := repo.Of[domain.AnimeSeries](uow).GetByID(ctx, *id)
		if err != nil {
			return nil, "", err
		}
		if s == nil {
			return nil, "Anime series not found.", nil
		}
	}
	badges := make([]domain.Badge, 0)
	ids := dedupe(in.BadgeIDs)
	if len(ids) > 0 {
		b := filter.New()
		filter.In(b, "id", ids)
		badges, err = repo.Of[domain.Badge](uow).Find(ctx, b.Build())
		if err != nil {
			return nil, "", err
		}
		if len(badges) != len(ids) {
			return nil, "One or more badges were not found.", nil
		}
	}
	return badges, "", nil
}

func optional(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// uniqueSlug 重名时追加短 id
func uniqueSlug(ctx context.Context, r *repo.Repository[domain.Product], name string) (string, error) {
	slug := utils.Slugify(name)
	taken, err := r.Unscoped().Any(ctx, repo.Eq("slug", slug))
	if err != nil || !taken {
		return slug, err
	}
	return slug + "-" + utils.NewID()[:8], nil
}

func (h productHandlers) create(ctx context.Context, req CreateProduct) result.Result[ProductDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[ProductDto](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	badges, missing, err := h.references(ctx, uow, req.ProductInput)
	if err != nil {
		return feature.Fail[ProductDto](ctx, h.d, "create product", err)
	}
	if missing != "" {
		return result.NotFound[ProductDto](missing)
	}
	products := repo.Of[domain.Product](uow)
	slug, err := uniqueSlug(ctx, products, req.Name)
	if err != nil {
		return feature.Fail[ProductDto](ctx, h.d, "create product", err)
	}

	p := &domain.Product{
		Name: req.Name, Slug: slug, Description: req.Description, Price: req.Price,
		StockQuantity: req.StockQuantity, WeightGrams: req.WeightGrams,
		CategoryID: req.CategoryID, AnimeSeriesID: optional(req.AnimeSeriesID),
	}
	p.Initialize(uid, h.d.Now())
	products.Add(p)
	if len(badges) > 0 {
		products.ReplaceAssociation(p, "Badges", badges)
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[ProductDto](ctx, h.d, "create product", err)
	}
	return h.reload(ctx, p.ID, "Product created successfully.")
}

func (h productHandlers) reload(ctx context.Context, id, msg string) result.Result[ProductDto] {
	p, err := repo.Of[domain.Product](h.d.UoW.New()).GetByID(ctx, id, productIncludes...)
	if err != nil {
		return feature.Fail[ProductDto](ctx, h.d, "load product", err)
	}
	if p == nil {
		return result.NotFound[ProductDto]("Product not found.")
	}
	return result.Success(toProductDto(p, h.d.Storage), msg)
}

func (h productHandlers) update(ctx context.Context, req UpdateProduct) result.Result[ProductDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[ProductDto](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	products := repo.Of[domain.Product](uow)
	p, err := products.GetByID(ctx, req.ID)
	if err != nil {
		return feature.Fail[ProductDto](ctx, h.d, "update product", err)
	}
	if p == nil {
		return result.NotFound[ProductDto]("Product not found.")
	}
	badges, missing, err := h.references(ctx, uow, req.ProductInput)
	if err != nil {
		return feature.Fail[ProductDto](ctx, h.d, "update product", err)
	}
	if missing != "" {
		return result.NotFound[ProductDto](missing)
	}
	if req.Name != p.Name {
		if p.Slug, err = uniqueSlug(ctx, products, req.Name); err != nil {
			return feature.Fail[ProductDto](ctx, h.d, "update product", err)
		}
	}
	p.Name, p.Description, p.Price = req.Name, req.Description, req.Price
	p.StockQuantity, p.WeightGrams = req.StockQuantity, req.WeightGrams
	p.CategoryID, p.AnimeSeriesID = req.CategoryID, optional(req.AnimeSeriesID)
	if req.Status != nil {
		p.Status = *req.Status
	}
	p.MarkUpdated(uid, h.d.Now())
	products.Update(p)
	if req.BadgeIDs != nil {
		products.ReplaceAssociation(p, "Badges", badges)
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[ProductDto](ctx, h.d, "update product", err)
	}
	h.d.Invalidate(ctx, productCacheKey(p.ID))
	return h.reload(ctx, p.ID, "Product updated successfully.")
}

// delete 软删与审计在同一事务
func (h productHandlers) delete(ctx context.Context, req DeleteProduct) result.Result[result.Empty] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[result.Empty](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	var notFound bool
	err := uow.InTransaction(ctx, func() error {
		products := repo.Of[domain.Product](uow)
		p, err := products.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if p == nil {
			notFound = true
			return nil
		}
		now := h.d.Now()
		if err := p.SoftDelete(uid, now); err != nil {
			return result.Wrap(result.CodeInvalidOperation, "Product is already deleted.", err)
		}
		products.Update(p)
		repo.Of[domain.UserAction](uow).Add(audit.NewAction(audit.Entry{
			ActorID: uid, Action: "product.deleted", EntityType: "Product", EntityID: p.ID, Detail: p.Name, At: now,
		}))
		_, err = uow.SaveChanges(ctx)
		return err
	})
	if err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "delete product", err)
	}
	if notFound {
		return result.NotFound[result.Empty]("Product not found.")
	}
	h.d.Invalidate(ctx, productCacheKey(req.ID))
	return result.Success(result.Empty{}, "Product deleted successfully.")
}

func (h productHandlers) restore(ctx context.Context, req RestoreProduct) result.Result[ProductDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[ProductDto](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	products := repo.Of[domain.Product](uow).Unscoped()
	p, err := products.GetByID(ctx, req.ID)
	if err != nil {
		return feature.Fail[ProductDto](ctx, h.d, "restore product", err)
	}
	if p == nil {
		return result.NotFound[ProductDto]("Product not found.")
	}
	if err := p.Restore(uid, h.d.Now()); err != nil {
		return result.Invalid[ProductDto]("Product is not deleted.")
	}
	products.Update(p)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[ProductDto](ctx, h.d, "restore product", err)
	}
	h.d.Record(ctx, audit.Entry{ActorID: uid, Action: "product.restored", EntityType: "Product", EntityID: p.ID})
	h.d.Invalidate(ctx, productCacheKey(p.ID))
	return h.reload(ctx, p.ID, "Product restored successfully.")
}

func (h productHandlers) get(ctx context.Context, req GetProductByID) result.Result[ProductDto] {
	load := func(ctx context.Context) (*ProductDto, error) {
		p, err := repo.Of[domain.Product](h.d.UoW.New()).GetByID(ctx, req.ID, productIncludes...)
		if err != nil || p == nil {
			return nil, err
		}
		dto := toProductDto(p, h.d.Storage)
		return &dto, nil
	}
	var (
		dto *ProductDto
		err error
	)
	if h.d.Cache != nil {
		ttl := h.d.CacheTTL
		if ttl <= 0 {
			ttl = 5 * time.Minute
		}
		dto, err = cache.GetOrLoadJSON(h.d.Cache, ctx, productCacheKey(req.ID), ttl, load)
	} else {
		dto, err = load(ctx)
	}
	if err != nil {
		return feature.Fail[ProductDto](ctx, h.d, "get product", err)
	}
	// 缓存里是完整数据，下架商品只对员工可见
	if dto == nil || (dto.Status != domain.StatusActive && !feature.IsStaff(ctx)) {
		return result.NotFound[ProductDto]("Product not found.")
	}
	return result.Success(*dto, "")
}

func (h productHandlers) list(ctx context.Context, req ProductFilter) result.PaginationResult[ProductDto] {
	files := h.d.Storage
	where := req.where()
	if !feature.IsStaff(ctx) {
		where = repo.And(where, repo.Eq("status", domain.StatusActive))
	}
	return feature.Paged(ctx, h.d, repo.Of[domain.Product](h.d.UoW.New()), req.PageRequest, where,
		productSort.Resolve(req.SortBy, req.SortDirection),
		func(p *domain.Product) ProductDto { return toProductDto(p, files) },
		"Category", "Badges", "Images")
}
