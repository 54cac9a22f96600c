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

type SaveAnimeSeries struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Studio      string `json:"studio"`
	ReleaseYear int    `json:"releaseYear"`
}

type CreateAnimeSeries struct {
	SaveAnimeSeries
}

func (r CreateAnimeSeries) Validate() error {
	s := r.SaveAnimeSeries
	return validation.ValidateStruct(&s, s.fieldRules(&s)...)
}

type UpdateAnimeSeries struct {
	ID string `uri:"id" json:"-"`
	SaveAnimeSeries
}

func (r UpdateAnimeSeries) Validate() error {
	if r.ID == "" {
		return validation.Errors{"id": validation.ErrRequired}
	}
	s := r.SaveAnimeSeries
	return validation.ValidateStruct(&s, s.fieldRules(&s)...)
}

// fieldRules ozzo 要求字段指针属于传入的结构体
func (SaveAnimeSeries) fieldRules(s *SaveAnimeSeries) []*validation.FieldRules {
	return []*validation.FieldRules{
		validation.Field(&s.Title, validation.Required, validation.Length(1, 191)),
		validation.Field(&s.Studio, validation.Length(0, 128)),
		validation.Field(&s.ReleaseYear, validation.Min(1900), validation.Max(2100)),
	}
}

type DeleteAnimeSeries struct {
	ID string `uri:"id"`
}

type AnimeSeriesFilter struct {
	filter.PageRequest
	Keyword string `form:"keyword"`
	MinYear *int   `form:"minYear"`
	MaxYear *int   `form:"maxYear"`
}

var seriesSort = filter.Sort{
	Columns: map[string]string{"title": "title", "releaseyear": "release_year", "createdat": "created_at"},
	Default: "title",
}

type seriesHandlers struct{ d *feature.Deps }

func (h seriesHandlers) create(ctx context.Context, req CreateAnimeSeries) result.Result[AnimeSeriesDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[AnimeSeriesDto](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	series := repo.Of[domain.AnimeSeries](uow)
	slug := utils.Slugify(req.Title)
	taken, err := series.Unscoped().Any(ctx, repo.Eq("slug", slug))
	if err != nil {
		return feature.Fail[AnimeSeriesDto](ctx, h.d, "create anime series", err)
	}
	if taken {
		return result.Duplicate[AnimeSeriesDto]("An anime series with the same title already exists.")
	}
	s := &domain.AnimeSeries{
		Title: req.Title, Slug: slug, Description: req.Description,
		Studio: req.Studio, ReleaseYear: req.ReleaseYear,
	}
	s.Initialize(uid, h.d.Now())
	series.Add(s)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[AnimeSeriesDto](ctx, h.d, "create anime series", err)
	}
	return result.Success(toSeriesDto(s), "Anime series created successfully.")
}

func (h seriesHandlers) update(ctx context.Context, req UpdateAnimeSeries) result.Result[AnimeSeriesDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[AnimeSeriesDto](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	series := repo.Of[domain.AnimeSeries](uow)
	s, err := series.GetByID(ctx, req.ID)
	if err != nil {
		return feature.Fail[AnimeSeriesDto](ctx, h.d, "update anime series", err)
	}
	if s == nil {
		return result.NotFound[AnimeSeriesDto]("Anime series not found.")
	}
	if slug := utils.Slugify(req.Title); slug != s.Slug {
		taken, err := series.Unscoped().Any(ctx, repo.Eq("slug", slug))
		if err != nil {
			return feature.Fail[AnimeSeriesDto](ctx, h.d, "update anime series", err)
		}
		if taken {
			return result.Duplicate[AnimeSeriesDto]("An anime series with the same title already exists.")
		}
		s.Slug = slug
	}
	s.Title, s.Description, s.Studio, s.ReleaseYear = req.Title, req.Description, req.Studio, req.ReleaseYear
	s.MarkUpdated(uid, h.d.Now())
	series.Update(s)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[AnimeSeriesDto](ctx, h.d, "update anime series", err)
	}
	return result.Success(toSeriesDto(s), "Anime series updated successfully.")
}

func (h seriesHandlers) delete(ctx context.Context, req DeleteAnimeSeries) result.Result[result.Empty] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[result.Empty](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	series := repo.Of[domain.AnimeSeries](uow)
	s, err := series.GetByID(ctx, req.ID)
	if err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "delete anime series", err)
	}
	if s == nil {
		return result.NotFound[result.Empty]("Anime series not found.")
	}
	used, err := repo.Of[domain.Product](uow).Any(ctx, repo.Eq("anime_series_id", s.ID))
	if err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "delete anime series", err)
	}
	if used {
		return result.Conflict[result.Empty]("Anime series is still used by products.")
	}
	if err := s.SoftDelete(uid, h.d.Now()); err != nil {
		return result.Invalid[result.Empty]("Anime series is already deleted.")
	}
	series.Update(s)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "delete anime series", err)
	}
	return result.Success(result.Empty{}, "Anime series deleted successfully.")
}

func (h seriesHandlers) list(ctx context.Context, req AnimeSeriesFilter) result.PaginationResult[AnimeSeriesDto] {
	b := filter.New().ContainsAny([]string{"title", "studio"}, req.Keyword)
	filter.Range(b, "release_year", req.MinYear, req.MaxYear)
	return feature.Paged(ctx, h.d, repo.Of[domain.AnimeSeries](h.d.UoW.New()), req.PageRequest, b.Build(),
		seriesSort.Resolve(req.SortBy, req.SortDirection), toSeriesDto)
}
