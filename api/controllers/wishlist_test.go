package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/averyross/bookhaven-backend/internal/catalog"
)

func TestWishlistToggleFlipsMembership(t *testing.T) {
	reg := testRegistry(t)
	bookID := uuid.New()
	books := &stubBooks{books: map[uuid.UUID]catalog.BookDetail{bookID: testBook(bookID, "15.00")}}
	logg := testLogger()

	handler := WishlistToggle(reg, books, logg)
	send := func() (int, bool, int) {
		body := `{"book_id":"` + bookID.String() + `"}`
		req := withDeviceIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/wishlist/toggle", strings.NewReader(body)), "device-1")
		resp := httptest.NewRecorder()
		handler(resp, req)

		var envelope struct {
			Data struct {
				InWishlist bool                  `json:"inWishlist"`
				Books      []catalog.BookSummary `json:"books"`
			} `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		return resp.Code, envelope.Data.InWishlist, len(envelope.Data.Books)
	}

	code, in, count := send()
	if code != http.StatusOK || !in || count != 1 {
		t.Fatalf("first toggle: code=%d in=%v count=%d", code, in, count)
	}

	code, in, count = send()
	if code != http.StatusOK || in || count != 0 {
		t.Fatalf("second toggle: code=%d in=%v count=%d", code, in, count)
	}
}

func TestWishlistAddIsIdempotent(t *testing.T) {
	reg := testRegistry(t)
	bookID := uuid.New()
	books := &stubBooks{books: map[uuid.UUID]catalog.BookDetail{bookID: testBook(bookID, "15.00")}}

	handler := WishlistAdd(reg, books, testLogger())
	for i := 0; i < 2; i++ {
		body := `{"book_id":"` + bookID.String() + `"}`
		req := withDeviceIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/wishlist", strings.NewReader(body)), "device-1")
		resp := httptest.NewRecorder()
		handler(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200 got %d", i+1, resp.Code)
		}
	}

	get := WishlistGet(reg, testLogger())
	req := withDeviceIdentity(httptest.NewRequest(http.MethodGet, "/api/v1/wishlist", nil), "device-1")
	resp := httptest.NewRecorder()
	get(resp, req)

	var envelope struct {
		Data wishlistResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(envelope.Data.Books) != 1 {
		t.Fatalf("expected one wishlist entry, got %d", len(envelope.Data.Books))
	}
}
