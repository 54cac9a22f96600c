package domain

import "github.com/shopspring/decimal"

type Category struct {
	Base
	Name        string  `gorm:"size:128;not null;index" json:"name"`
	Slug        string  `gorm:"size:160;uniqueIndex" json:"slug"`
	Description string  `gorm:"size:1024" json:"description"`
	ParentID    *string `gorm:"size:36;index" json:"parentId,omitempty"`
}

// AnimeSeries 商品可以挂在某部番剧下（周边分类）
type AnimeSeries struct {
	Base
	Title       string `gorm:"size:191;not null;index" json:"title"`
	Slug        string `gorm:"size:191;uniqueIndex" json:"slug"`
	Description string `gorm:"size:2048" json:"description"`
	Studio      string `gorm:"size:128" json:"studio"`
	ReleaseYear int    `gorm:"index" json:"releaseYear"`
}

type Badge struct {
	Base
	Name  string `gorm:"size:64;not null;uniqueIndex" json:"name"`
	Color string `gorm:"size:16" json:"color"`
}

type Product struct {
	Base
	Name          string          `gorm:"size:191;not null;index" json:"name"`
	Slug          string          `gorm:"size:191;uniqueIndex" json:"slug"`
	Description   string          `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"price"`
	StockQuantity int             `gorm:"not null" json:"stockQuantity"`
	SoldCount     int             `gorm:"not null;default:0" json:"soldCount"`
	WeightGrams   int             `gorm:"not null;default:0" json:"weightGrams"`

	CategoryID    string       `gorm:"size:36;not null;index" json:"categoryId"`
	Category      *Category    `json:"category,omitempty"`
	AnimeSeriesID *string      `gorm:"size:36;index" json:"animeSeriesId,omitempty"`
	AnimeSeries   *AnimeSeries `json:"animeSeries,omitempty"`

	Badges []Badge        `gorm:"many2many:product_badges" json:"badges,omitempty"`
	Images []ProductImage `json:"images,omitempty"`
}

type ProductImage struct {
	Base
	ProductID string `gorm:"size:36;not null;index" json:"productId"`
	ObjectKey string `gorm:"size:255;not null" json:"objectKey"`
	SortOrder int    `gorm:"not null;default:0" json:"sortOrder"`
}
