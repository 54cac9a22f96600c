package domain

import "time"

type Review struct {
	Base
	UserID    string `gorm:"size:36;not null;index" json:"userId"`
	User      *User  `json:"user,omitempty"`
	ProductID string `gorm:"size:36;not null;index" json:"productId"`
	Rating    int    `gorm:"not null" json:"rating"`
	Comment   string `gorm:"size:2048" json:"comment"`
}

type BlogPost struct {
	Base
	Title         string     `gorm:"size:191;not null" json:"title"`
	Slug          string     `gorm:"size:191;not null;uniqueIndex" json:"slug"`
	Summary       string     `gorm:"size:512" json:"summary"`
	Content       string     `gorm:"type:text" json:"content"`
	CoverImageKey string     `gorm:"size:255" json:"coverImageKey"`
	AuthorID      string     `gorm:"size:36;not null;index" json:"authorId"`
	IsPublished   bool       `gorm:"not null;default:false;index" json:"isPublished"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
}
