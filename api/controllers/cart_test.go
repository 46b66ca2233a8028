package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/averyross/bookhaven-backend/api/middleware"
	cartsvc "github.com/averyross/bookhaven-backend/internal/cart"
	"github.com/averyross/bookhaven-backend/internal/catalog"
	"github.com/averyross/bookhaven-backend/internal/identity"
	pkgerrors "github.com/averyross/bookhaven-backend/pkg/errors"
	"github.com/averyross/bookhaven-backend/pkg/logger"
	"github.com/averyross/bookhaven-backend/pkg/metrics"
	"github.com/averyross/bookhaven-backend/pkg/types"
)

type memStore struct {
	docs map[string]cartsvc.Document
}

func newMemStore() *memStore {
	return &memStore{docs: map[string]cartsvc.Document{}}
}

func (s *memStore) Load(ctx context.Context, id identity.Identity) (cartsvc.Document, error) {
	doc, ok := s.docs[id.Subject()]
	if !ok {
		return cartsvc.Document{}, cartsvc.ErrNotFound
	}
	return doc.Clone(), nil
}

func (s *memStore) Save(ctx context.Context, id identity.Identity, doc cartsvc.Document, field cartsvc.Field) error {
	s.docs[id.Subject()] = doc.Clone()
	return nil
}

func (s *memStore) EnsureExists(ctx context.Context, id identity.Identity) error {
	if _, ok := s.docs[id.Subject()]; !ok {
		s.docs[id.Subject()] = cartsvc.Document{}
	}
	return nil
}

type stubBooks struct {
	books map[uuid.UUID]catalog.BookDetail
}

func (s *stubBooks) GetBook(_ context.Context, id uuid.UUID) (*catalog.BookDetail, error) {
	if detail, ok := s.books[id]; ok {
		return &detail, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func testRegistry(t *testing.T) *cartsvc.Registry {
	t.Helper()
	reg, err := cartsvc.NewRegistry(
		cartsvc.Selector{Local: newMemStore(), Remote: newMemStore()},
		metrics.NewCartSyncMetrics(nil),
		testLogger(),
	)
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	return reg
}

func testBook(id uuid.UUID, price string) catalog.BookDetail {
	return catalog.BookDetail{
		BookSummary: catalog.BookSummary{
			ID:     id.String(),
			Title:  "The Left Hand of Darkness",
			Author: "Ursula K. Le Guin",
			Price:  decimal.RequireFromString(price),
		},
	}
}

func withDeviceIdentity(req *http.Request, deviceID string) *http.Request {
	ctx := middleware.WithIdentity(req.Context(), identity.Anonymous(deviceID))
	return req.WithContext(ctx)
}

func decodeCart(t *testing.T, resp *httptest.ResponseRecorder) cartResponse {
	t.Helper()
	var envelope struct {
		Data cartResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding cart response: %v", err)
	}
	return envelope.Data
}

func TestCartAddItemResolvesBookFromCatalog(t *testing.T) {
	reg := testRegistry(t)
	bookID := uuid.New()
	books := &stubBooks{books: map[uuid.UUID]catalog.BookDetail{bookID: testBook(bookID, "12.50")}}

	handler := CartAddItem(reg, books, testLogger())
	body := `{"book_id":"` + bookID.String() + `","quantity":2}`
	req := withDeviceIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body)), "device-1")
	resp := httptest.NewRecorder()
	handler(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	cart := decodeCart(t, resp)
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 2 {
		t.Fatalf("unexpected cart items %+v", cart.Items)
	}
	if cart.Total != "25.00" {
		t.Fatalf("expected total 25.00 got %s", cart.Total)
	}
	if cart.ItemCount != 2 {
		t.Fatalf("expected item count 2 got %d", cart.ItemCount)
	}
}

func TestCartAddItemUnknownBook(t *testing.T) {
	reg := testRegistry(t)
	books := &stubBooks{books: map[uuid.UUID]catalog.BookDetail{}}

	handler := CartAddItem(reg, books, testLogger())
	body := `{"book_id":"` + uuid.NewString() + `","quantity":1}`
	req := withDeviceIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body)), "device-1")
	resp := httptest.NewRecorder()
	handler(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCartAddItemRejectsZeroQuantity(t *testing.T) {
	reg := testRegistry(t)
	bookID := uuid.New()
	books := &stubBooks{books: map[uuid.UUID]catalog.BookDetail{bookID: testBook(bookID, "12.50")}}

	handler := CartAddItem(reg, books, testLogger())
	body := `{"book_id":"` + bookID.String() + `","quantity":0}`
	req := withDeviceIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body)), "device-1")
	resp := httptest.NewRecorder()
	handler(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartLifecycleAcrossRequests(t *testing.T) {
	reg := testRegistry(t)
	bookID := uuid.New()
	books := &stubBooks{books: map[uuid.UUID]catalog.BookDetail{bookID: testBook(bookID, "9.99")}}
	logg := testLogger()

	add := CartAddItem(reg, books, logg)
	body := `{"book_id":"` + bookID.String() + `","quantity":1}`
	req := withDeviceIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body)), "device-7")
	resp := httptest.NewRecorder()
	add(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("add: expected 200 got %d", resp.Code)
	}

	// A later request for the same device sees the same cart.
	get := CartGet(reg, logg)
	req = withDeviceIdentity(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), "device-7")
	resp = httptest.NewRecorder()
	get(resp, req)
	cart := decodeCart(t, resp)
	if len(cart.Items) != 1 {
		t.Fatalf("expected persisted cart, got %+v", cart.Items)
	}

	// A different device gets an empty cart.
	req = withDeviceIdentity(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), "device-8")
	resp = httptest.NewRecorder()
	get(resp, req)
	cart = decodeCart(t, resp)
	if len(cart.Items) != 0 {
		t.Fatalf("expected empty cart for new device, got %+v", cart.Items)
	}

	clearCart := CartClear(reg, logg)
	req = withDeviceIdentity(httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil), "device-7")
	resp = httptest.NewRecorder()
	clearCart(resp, req)
	cart = decodeCart(t, resp)
	if len(cart.Items) != 0 || cart.Total != "0.00" {
		t.Fatalf("expected cleared cart, got %+v total %s", cart.Items, cart.Total)
	}
}

func TestCartGetWithoutIdentityFails(t *testing.T) {
	reg := testRegistry(t)
	handler := CartGet(reg, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding error envelope: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
}
