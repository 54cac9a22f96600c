package catalog

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
	"anime-shop/internal/feature"
	"anime-shop/internal/filter"
	"anime-shop/internal/repo"
	"anime-shop/pkg/utils"
)

type CreateCategory struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ParentID    *string `json:"parentId"`
}

func (r CreateCategory) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.Description, validation.Length(0, 1024)),
	)
}

type UpdateCategory struct {
	ID          string         `uri:"id" json:"-"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	ParentID    *string        `json:"parentId"`
	Status      *domain.Status `json:"status"`
}

func (r UpdateCategory) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.Status, validation.By(validStatus)),
	)
}

type DeleteCategory struct {
	ID string `uri:"id"`
}

type CategoryFilter struct {
	filter.PageRequest
	Keyword  string  `form:"keyword"`
	Status   *string `form:"status"`
	ParentID *string `form:"parentId"`
}

var categorySort = filter.Sort{
	Columns: map[string]string{"name": "name", "createdat": "created_at"},
	Default: "name",
}

func validStatus(v any) error {
	s, _ := v.(*domain.Status)
	if s != nil && !s.Valid() {
		return validation.NewError("validation_status", "must be Active or Inactive")
	}
	return nil
}

type categoryHandlers struct{ d *feature.Deps }

func (h categoryHandlers) create(ctx context.Context, req CreateCategory) result.Result[CategoryDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[CategoryDto](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	cats := repo.Of[domain.Category](uow)

	slug := utils.Slugify(req.Name)
	taken, err := cats.Unscoped().Any(ctx, repo.Eq("slug", slug))
	if err != nil {
		return feature.Fail[CategoryDto](ctx, h.d, "create category", err)
	}
	if taken {
		return result.Duplicate[CategoryDto]("A category with the same name already exists.")
	}
	if req.ParentID != nil {
		parent, err := cats.GetByID(ctx, *req.ParentID)
		if err != nil {
			return feature.Fail[CategoryDto](ctx, h.d, "create category", err)
		}
		if parent == nil {
			return result.NotFound[CategoryDto]("Parent category not found.")
		}
	}

	c := &domain.Category{Name: req.Name, Slug: slug, Description: req.Description, ParentID: req.ParentID}
	c.Initialize(uid, h.d.Now())
	cats.Add(c)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[CategoryDto](ctx, h.d, "create category", err)
	}
	return result.Success(toCategoryDto(c), "Category created successfully.")
}

func (h categoryHandlers) update(ctx context.Context, req UpdateCategory) result.Result[CategoryDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[CategoryDto](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	cats := repo.Of[domain.Category](uow)
	c, err := cats.GetByID(ctx, req.ID)
	if err != nil {
		return feature.Fail[CategoryDto](ctx, h.d, "update category", err)
	}
	if c == nil {
		return result.NotFound[CategoryDto]("Category not found.")
	}
	if req.ParentID != nil && *req.ParentID == c.ID {
		return result.Invalid[CategoryDto]("A category cannot be its own parent.")
	}

	if slug := utils.Slugify(req.Name); slug != c.Slug {
		taken, err := cats.Unscoped().Any(ctx, repo.Eq("slug", slug))
		if err != nil {
			return feature.Fail[CategoryDto](ctx, h.d, "update category", err)
		}
		if taken {
			return result.Duplicate[CategoryDto]("A category with the same name already exists.")
		}
		c.Slug = slug
	}
	c.Name = req.Name
	c.Description = req.Description
	c.ParentID = req.ParentID
	if req.Status != nil {
		c.Status = *req.Status
	}
	c.MarkUpdated(uid, h.d.Now())
	cats.Update(c)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[CategoryDto](ctx, h.d, "update category", err)
	}
	return result.Success(toCategoryDto(c), "Category updated successfully.")
}

func (h categoryHandlers) delete(ctx context.Context, req DeleteCategory) result.Result[result.Empty] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[result.Empty](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	cats := repo.Of[domain.Category](uow)
	c, err := cats.GetByID(ctx, req.ID)
	if err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "delete category", err)
	}
	if c == nil {
		return result.NotFound[result.Empty]("Category not found.")
	}
	used, err := repo.Of[domain.Product](uow).Any(ctx, repo.Eq("category_id", c.ID))
	if err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "delete category", err)
	}
	if used {
		return result.Conflict[result.Empty]("Category is still used by products.")
	}
	if err := c.SoftDelete(uid, h.d.Now()); err != nil {
		return result.Invalid[result.Empty]("Category is already deleted.")
	}
	cats.Update(c)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "delete category", err)
	}
	return result.Success(result.Empty{}, "Category deleted successfully.")
}

func (h categoryHandlers) list(ctx context.Context, req CategoryFilter) result.PaginationResult[CategoryDto] {
	b := filter.New().Contains("name", req.Keyword)
	filter.Eq(b, "status", req.Status)
	filter.Eq(b, "parent_id", req.ParentID)
	return feature.Paged(ctx, h.d, repo.Of[domain.Category](h.d.UoW.New()), req.PageRequest, b.Build(),
		categorySort.Resolve(req.SortBy, req.SortDirection), toCategoryDto)
}
