package catalog

import (
	"github.com/averyross/bookhaven-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

// BookSummary is the denormalized book snapshot stored in carts and wishlists
// and returned by listing endpoints. It deliberately duplicates catalog data so
// saved state survives later catalog edits.
type BookSummary struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	CoverImage  string          `json:"coverImage"`
	Price       decimal.Decimal `json:"price"`
	Rating      float64         `json:"rating"`
	ReviewCount int             `json:"reviewCount"`
	Categories  []string        `json:"categories"`
	Badge       *string         `json:"badge,omitempty"`
}

// SummaryFromModel flattens a book row (author preloaded) into a summary.
func SummaryFromModel(book *models.Book) BookSummary {
	return BookSummary{
		ID:          book.ID.String(),
		Title:       book.Title,
		Author:      book.Author.Name,
		CoverImage:  book.CoverImageURL,
		Price:       book.Price,
		Rating:      book.Rating,
		ReviewCount: book.ReviewCount,
		Categories:  append([]string(nil), book.Categories...),
		Badge:       book.Badge,
	}
}
