package catalog

import (
	"context"
	"strings"

	"github.com/averyross/bookhaven-backend/pkg/db/models"
	"github.com/averyross/bookhaven-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListFilters describe the supported filter knobs for the browse endpoint.
type ListFilters struct {
	Category string `json:"category,omitempty"`
	Query    string `json:"q,omitempty"`
}

// Repository wires together book catalog persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads the book with its author preloaded.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).Preload("Author").First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// ListBooks pages the catalog newest-first with keyset pagination.
func (r *Repository) ListBooks(ctx context.Context, filters ListFilters, page pagination.Params) ([]models.Book, string, error) {
	pageSize := pagination.ClampLimit(page.Limit)
	limitWithBuffer := pagination.PeekLimit(page.Limit)

	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).Model(&models.Book{}).Preload("Author")

	if category := strings.TrimSpace(filters.Category); category != "" {
		qb = qb.Where("? = ANY(categories)", category)
	}
	if search := strings.TrimSpace(filters.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where(
			"(LOWER(title) LIKE ? OR EXISTS (SELECT 1 FROM authors a WHERE a.id = books.author_id AND LOWER(a.name) LIKE ?))",
			pattern, pattern,
		)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Book
	if err := qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return rows, nextCursor, nil
}

// ListFeatured returns the curated storefront shelf.
func (r *Repository) ListFeatured(ctx context.Context, limit int) ([]models.Book, error) {
	var rows []models.Book
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("is_featured = ?", true).
		Order("created_at DESC").
		Limit(pagination.ClampLimit(limit)).
		Find(&rows).
		Error
	return rows, err
}

// ListCategories returns the distinct category names across the catalog.
func (r *Repository) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Raw("SELECT DISTINCT unnest(categories) AS category FROM books ORDER BY category").
		Scan(&categories).
		Error
	return categories, err
}

// ListAuthors returns every author ordered alphabetically. The catalog is
// curated and small, so the listing is not paged.
func (r *Repository) ListAuthors(ctx context.Context) ([]models.Author, error) {
	var authors []models.Author
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&authors).
		Error
	return authors, err
}

// FindAuthorByID loads a single author row.
func (r *Repository) FindAuthorByID(ctx context.Context, id uuid.UUID) (*models.Author, error) {
	var author models.Author
	if err := r.db.WithContext(ctx).First(&author, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &author, nil
}

// ListByAuthor returns the author's books newest-first for the author page.
func (r *Repository) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Book, error) {
	var rows []models.Book
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}
