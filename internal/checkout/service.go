package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/averyross/bookhaven-backend/internal/cart"
	"github.com/averyross/bookhaven-backend/internal/identity"
	"github.com/averyross/bookhaven-backend/internal/orders"
	"github.com/averyross/bookhaven-backend/pkg/db/models"
	pkgerrors "github.com/averyross/bookhaven-backend/pkg/errors"
	"github.com/averyross/bookhaven-backend/pkg/logger"
	"github.com/averyross/bookhaven-backend/pkg/mailer"
	"github.com/averyross/bookhaven-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type controllerProvider interface {
	For(ctx context.Context, id identity.Identity) (*cart.Controller, error)
}

// Request captures one checkout submission.
type Request struct {
	BuyerEmail string `json:"buyer_email" validate:"required,email"`
}

// Result summarizes a placed order.
type Result struct {
	OrderIDs  []uuid.UUID     `json:"order_ids"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

// Service turns a cart into order rows. The cart is cleared only after the
// orders commit; confirmation mail is best-effort.
type Service interface {
	Checkout(ctx context.Context, id identity.Identity, req Request) (*Result, error)
}

// ServiceParams bundles the checkout dependencies.
type ServiceParams struct {
	DB      txRunner
	Carts   controllerProvider
	Mailer  mailer.Mailer
	Metrics *metrics.CartSyncMetrics
	Logger  *logger.Logger
}

type service struct {
	db      txRunner
	carts   controllerProvider
	mail    mailer.Mailer
	metrics *metrics.CartSyncMetrics
	logg    *logger.Logger
}

// NewService constructs the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart provider is required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		db:      params.DB,
		carts:   params.Carts,
		mail:    params.Mailer,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

func (s *service) Checkout(ctx context.Context, id identity.Identity, req Request) (*Result, error) {
	email := strings.ToLower(strings.TrimSpace(req.BuyerEmail))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer email is required")
	}

	ctrl, err := s.carts.For(ctx, id)
	if err != nil {
		s.metrics.IncCheckout("error")
		return nil, err
	}

	doc := ctrl.Snapshot()
	if len(doc.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	rows, err := orderRows(doc.Items, email)
	if err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return orders.NewRepository(tx).CreateBatch(ctx, rows)
	})
	if err != nil {
		s.metrics.IncCheckout("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "placing order")
	}
	s.metrics.IncCheckout("ok")

	// The orders are committed; a failed clear must not fail the checkout.
	if err := ctrl.ClearCart(ctx); err != nil {
		s.logg.Warn(s.logg.WithIdentity(ctx, id.String()),
			fmt.Sprintf("clearing cart after checkout failed: %v", err))
	}

	if err := s.mail.Send(ctx, email, "Your BookHaven order", confirmationBody(doc, rows)); err != nil {
		s.logg.Warn(s.logg.WithIdentity(ctx, id.String()),
			fmt.Sprintf("sending order confirmation failed: %v", err))
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	return &Result{
		OrderIDs:  ids,
		Total:     doc.Total(),
		ItemCount: doc.ItemCount(),
	}, nil
}

func orderRows(items []cart.Item, email string) ([]models.Order, error) {
	rows := make([]models.Order, 0, len(items))
	for _, item := range items {
		bookID, err := uuid.Parse(item.ID)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("invalid book id %q in cart", item.ID))
		}
		rows = append(rows, models.Order{
			ID:         uuid.New(),
			BookID:     bookID,
			BookTitle:  item.Title,
			BookAuthor: item.Author,
			UnitPrice:  item.Price,
			Quantity:   item.Quantity,
			BuyerEmail: email,
		})
	}
	return rows, nil
}

func confirmationBody(doc cart.Document, rows []models.Order) string {
	var b strings.Builder
	b.WriteString("Thanks for your order!\n\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "%d x %s by %s at %s\n", row.Quantity, row.BookTitle, row.BookAuthor, row.UnitPrice.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", doc.Total().StringFixed(2))
	return b.String()
}
