package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"anime-shop/internal/domain"
	"anime-shop/internal/integration/storage"
)

type CategoryDto struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description string        `json:"description"`
	ParentID    *string       `json:"parentId,omitempty"`
	Status      domain.Status `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
}

func toCategoryDto(c *domain.Category) CategoryDto {
	return CategoryDto{
		ID: c.ID, Name: c.Name, Slug: c.Slug, Description: c.Description,
		ParentID: c.ParentID, Status: c.Status, CreatedAt: c.CreatedAt,
	}
}

type AnimeSeriesDto struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Slug        string        `json:"slug"`
	Description string        `json:"description"`
	Studio      string        `json:"studio"`
	ReleaseYear int           `json:"releaseYear"`
	Status      domain.Status `json:"status"`
}

func toSeriesDto(s *domain.AnimeSeries) AnimeSeriesDto {
	return AnimeSeriesDto{
		ID: s.ID, Title: s.Title, Slug: s.Slug, Description: s.Description,
		Studio: s.Studio, ReleaseYear: s.ReleaseYear, Status: s.Status,
	}
}

type BadgeRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type ImageDto struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	SortOrder int    `json:"sortOrder"`
}

type ProductDto struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Slug             string          `json:"slug"`
	Description      string          `json:"description"`
	Price            decimal.Decimal `json:"price"`
	StockQuantity    int             `json:"stockQuantity"`
	SoldCount        int             `json:"soldCount"`
	WeightGrams      int             `json:"weightGrams"`
	Status           domain.Status   `json:"status"`
	CategoryID       string          `json:"categoryId"`
	CategoryName     string          `json:"categoryName,omitempty"`
	AnimeSeriesID    *string         `json:"animeSeriesId,omitempty"`
	AnimeSeriesTitle string          `json:"animeSeriesTitle,omitempty"`
	Badges           []BadgeRef      `json:"badges"`
	Images           []ImageDto      `json:"images"`
	CreatedAt        time.Time       `json:"createdAt"`
}

func toProductDto(p *domain.Product, files storage.Service) ProductDto {
	dto := ProductDto{
		ID: p.ID, Name: p.Name, Slug: p.Slug, Description: p.Description,
		Price: p.Price, StockQuantity: p.StockQuantity, SoldCount: p.SoldCount,
		WeightGrams: p.WeightGrams, Status: p.Status, CategoryID: p.CategoryID,
		AnimeSeriesID: p.AnimeSeriesID, CreatedAt: p.CreatedAt,
		Badges: make([]BadgeRef, 0, len(p.Badges)),
		Images: make([]ImageDto, 0, len(p.Images)),
	}
	if p.Category != nil {
		dto.CategoryName = p.Category.Name
	}
	if p.AnimeSeries != nil {
		dto.AnimeSeriesTitle = p.AnimeSeries.Title
	}
	for _, b := range p.Badges {
		dto.Badges = append(dto.Badges, BadgeRef{ID: b.ID, Name: b.Name, Color: b.Color})
	}
	for _, img := range p.Images {
		dto.Images = append(dto.Images, toImageDto(&img, files))
	}
	return dto
}

func toImageDto(img *domain.ProductImage, files storage.Service) ImageDto {
	return ImageDto{ID: img.ID, URL: files.GetFileURL(img.ObjectKey), SortOrder: img.SortOrder}
}
