package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is one purchased cart line. Book fields are snapshotted at checkout
// time so later catalog edits do not rewrite purchase history.
type Order struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:(gen_random_uuid());primaryKey"`
	BookID     uuid.UUID       `gorm:"column:book_id;type:uuid;not null"`
	BookTitle  string          `gorm:"column:book_title;not null"`
	BookAuthor string          `gorm:"column:book_author;not null;default:''"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(6,2);not null"`
	Quantity   int             `gorm:"column:quantity;not null;default:1"`
	BuyerEmail string          `gorm:"column:buyer_email;not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}
