package orders

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/averyross/bookhaven-backend/pkg/config"
	"github.com/averyross/bookhaven-backend/pkg/db"
	"github.com/averyross/bookhaven-backend/pkg/db/models"
	"github.com/averyross/bookhaven-backend/pkg/logger"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	client, err := db.OpenSQLite(context.Background(),
		config.LocalStoreConfig{Path: filepath.Join(t.TempDir(), "orders.db")},
		logg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	if err := client.DB().AutoMigrate(&models.Order{}); err != nil {
		t.Fatalf("migrate orders: %v", err)
	}
	return NewRepository(client.DB())
}

func orderRow(email, title string, createdAt time.Time) models.Order {
	return models.Order{
		ID:         uuid.New(),
		BookID:     uuid.New(),
		BookTitle:  title,
		BookAuthor: "Frank Herbert",
		UnitPrice:  decimal.RequireFromString("10.00"),
		Quantity:   1,
		BuyerEmail: email,
		CreatedAt:  createdAt,
	}
}

func TestListByEmailScopesToBuyer(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	rows := []models.Order{
		orderRow("reader@example.com", "Dune", now.Add(-2*time.Hour)),
		orderRow("reader@example.com", "Hyperion", now),
		orderRow("other@example.com", "Foundation", now),
	}
	if err := repo.CreateBatch(ctx, rows); err != nil {
		t.Fatalf("create batch: %v", err)
	}

	got, err := repo.ListByEmail(ctx, "reader@example.com")
	if err != nil {
		t.Fatalf("list by email: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(got))
	}
	// Newest first.
	if got[0].BookTitle != "Hyperion" || got[1].BookTitle != "Dune" {
		t.Fatalf("unexpected order history %q, %q", got[0].BookTitle, got[1].BookTitle)
	}
}

func TestListByEmailEmptyHistory(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.ListByEmail(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("list by email: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty history, got %d rows", len(got))
	}
}
