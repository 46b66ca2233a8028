package orders

import (
	"context"

	"github.com/averyross/bookhaven-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes order persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an orders repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateBatch inserts all order rows at once.
func (r *Repository) CreateBatch(ctx context.Context, rows []models.Order) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// ListByEmail returns the buyer's order history newest-first.
func (r *Repository) ListByEmail(ctx context.Context, email string) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("buyer_email = ?", email).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}
