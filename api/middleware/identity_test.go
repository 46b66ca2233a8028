package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/averyross/bookhaven-backend/internal/identity"
)

func identityHandler(captured *identity.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := IdentityFromContext(r.Context()); ok {
			*captured = id
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestIdentityResolvesAuthenticatedFromBearer(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	token := mintTestToken(t, cfg, userID)

	var captured identity.Identity
	handler := Identity(cfg, stubSessionChecker{ok: true}, nil)(identityHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.IsAnonymous() {
		t.Fatal("expected authenticated identity")
	}
	if captured.Subject() != userID.String() {
		t.Fatalf("expected subject %s got %s", userID, captured.Subject())
	}
}

func TestIdentityResolvesAnonymousFromDeviceHeader(t *testing.T) {
	var captured identity.Identity
	handler := Identity(testJWTConfig(), nil, nil)(identityHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("X-Device-Id", "device-42")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !captured.IsAnonymous() {
		t.Fatal("expected anonymous identity")
	}
	if captured.Subject() != "device-42" {
		t.Fatalf("unexpected subject %s", captured.Subject())
	}
}

func TestIdentityRequiresDeviceHeaderWithoutToken(t *testing.T) {
	var captured identity.Identity
	handler := Identity(testJWTConfig(), nil, nil)(identityHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestIdentityRejectsInvalidTokenInsteadOfDowngrading(t *testing.T) {
	var captured identity.Identity
	handler := Identity(testJWTConfig(), nil, nil)(identityHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	req.Header.Set("X-Device-Id", "device-42")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if !captured.IsZero() {
		t.Fatalf("handler should not run, got identity %s", captured)
	}
}
