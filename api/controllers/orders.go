package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/averyross/bookhaven-backend/api/middleware"
	"github.com/averyross/bookhaven-backend/api/responses"
	"github.com/averyross/bookhaven-backend/pkg/db/models"
	pkgerrors "github.com/averyross/bookhaven-backend/pkg/errors"
	"github.com/averyross/bookhaven-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

type ordersLister interface {
	ListByEmail(ctx context.Context, email string) ([]models.Order, error)
}

type orderResponse struct {
	ID          string    `json:"id"`
	BookID      string    `json:"bookId"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	UnitPrice   string    `json:"unitPrice"`
	Quantity    int       `json:"quantity"`
	LineTotal   string    `json:"lineTotal"`
	PurchasedAt time.Time `json:"purchasedAt"`
}

// OrdersList serves the caller's purchase history newest-first. Sits behind
// the Auth middleware, so the buyer email always comes from the session.
func OrdersList(repo ordersLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders repository unavailable"))
			return
		}

		email := middleware.EmailFromContext(r.Context())
		if email == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		rows, err := repo.ListByEmail(r.Context(), email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders"))
			return
		}

		orders := make([]orderResponse, 0, len(rows))
		for i := range rows {
			orders = append(orders, newOrderResponse(&rows[i]))
		}
		responses.WriteSuccess(w, map[string]any{"orders": orders})
	}
}

func newOrderResponse(row *models.Order) orderResponse {
	return orderResponse{
		ID:          row.ID.String(),
		BookID:      row.BookID.String(),
		Title:       row.BookTitle,
		Author:      row.BookAuthor,
		UnitPrice:   row.UnitPrice.StringFixed(2),
		Quantity:    row.Quantity,
		LineTotal:   row.UnitPrice.Mul(decimal.NewFromInt(int64(row.Quantity))).StringFixed(2),
		PurchasedAt: row.CreatedAt,
	}
}
