package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Book is the canonical catalog listing. Prices are numeric(6,2) per the
// storefront's two-decimal display convention.
type Book struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title         string          `gorm:"column:title;not null"`
	Description   string          `gorm:"column:description;not null;default:''"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(6,2);not null"`
	AuthorID      uuid.UUID       `gorm:"column:author_id;type:uuid;not null"`
	Author        Author          `gorm:"foreignKey:AuthorID"`
	CoverImageURL string          `gorm:"column:cover_image_url;not null;default:''"`
	Rating        float64         `gorm:"column:rating;type:numeric(3,2);not null;default:0"`
	ReviewCount   int             `gorm:"column:review_count;not null;default:0"`
	Categories    pq.StringArray  `gorm:"column:categories;type:text[];not null;default:ARRAY[]::text[]"`
	Badge         *string         `gorm:"column:badge"`
	IsFeatured    bool            `gorm:"column:is_featured;not null;default:false"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
