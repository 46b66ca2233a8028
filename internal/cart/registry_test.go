package cart

import (
	"context"
	"testing"
	"time"

	"github.com/averyross/bookhaven-backend/internal/identity"
	"github.com/averyross/bookhaven-backend/pkg/metrics"
)

func newTestRegistry(t *testing.T) (*Registry, *stubStore, *stubStore) {
	t.Helper()
	local := newStubStore()
	remote := newStubStore()
	reg, err := NewRegistry(Selector{Local: local, Remote: remote}, metrics.NewCartSyncMetrics(nil), testLogger())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return reg, local, remote
}

func TestRegistryReturnsSameControllerPerIdentity(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	ctx := context.Background()
	id := identity.Anonymous("device-1")

	first, err := reg.For(ctx, id)
	if err != nil {
		t.Fatalf("first For: %v", err)
	}
	second, err := reg.For(ctx, id)
	if err != nil {
		t.Fatalf("second For: %v", err)
	}
	if first != second {
		t.Fatal("expected the same controller instance for one identity")
	}

	other, err := reg.For(ctx, identity.Anonymous("device-2"))
	if err != nil {
		t.Fatalf("other For: %v", err)
	}
	if other == first {
		t.Fatal("expected distinct controllers for distinct identities")
	}
}

func TestRegistryEvictForcesReload(t *testing.T) {
	reg, local, _ := newTestRegistry(t)
	ctx := context.Background()
	id := identity.Anonymous("device-1")

	ctrl, err := reg.For(ctx, id)
	if err != nil {
		t.Fatalf("For: %v", err)
	}
	if err := ctrl.AddToCart(ctx, book("b1", "2.00"), 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	reg.Evict(id)

	reloaded, err := reg.For(ctx, id)
	if err != nil {
		t.Fatalf("For after evict: %v", err)
	}
	if reloaded == ctrl {
		t.Fatal("expected a fresh controller after evict")
	}
	// Persisted state survives eviction.
	if got := reloaded.CartItemCount(); got != 1 {
		t.Fatalf("expected reloaded count 1, got %d", got)
	}
	if local.ensureCalls != 0 {
		t.Fatalf("expected no EnsureExists calls for a device identity, got %d", local.ensureCalls)
	}
}

func TestRegistrySweepsIdleAnonymousControllers(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	ctx := context.Background()

	clock := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return clock }

	idle := identity.Anonymous("device-idle")
	user := identity.Authenticated("user-1")
	if _, err := reg.For(ctx, idle); err != nil {
		t.Fatalf("For idle: %v", err)
	}
	if _, err := reg.For(ctx, user); err != nil {
		t.Fatalf("For user: %v", err)
	}

	// A request from any shopper past the TTL drives the sweep.
	clock = clock.Add(anonymousIdleTTL + time.Minute)
	if _, err := reg.For(ctx, identity.Anonymous("device-fresh")); err != nil {
		t.Fatalf("For fresh: %v", err)
	}

	reg.mu.Lock()
	_, idleKept := reg.controllers[idle.String()]
	_, userKept := reg.controllers[user.String()]
	_, freshKept := reg.controllers[identity.Anonymous("device-fresh").String()]
	reg.mu.Unlock()

	if idleKept {
		t.Fatal("expected the idle anonymous controller to be swept")
	}
	if !userKept {
		t.Fatal("expected the authenticated controller to survive the sweep")
	}
	if !freshKept {
		t.Fatal("expected the just-seen controller to survive the sweep")
	}
}

func TestRegistrySweepRefreshesActiveControllers(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	ctx := context.Background()

	clock := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return clock }

	active := identity.Anonymous("device-active")
	first, err := reg.For(ctx, active)
	if err != nil {
		t.Fatalf("For: %v", err)
	}

	// Touch the controller just inside the TTL, then cross it.
	clock = clock.Add(anonymousIdleTTL - time.Minute)
	if _, err := reg.For(ctx, active); err != nil {
		t.Fatalf("For refresh: %v", err)
	}
	clock = clock.Add(anonymousIdleTTL - time.Minute)
	again, err := reg.For(ctx, active)
	if err != nil {
		t.Fatalf("For after refresh: %v", err)
	}

	if again != first {
		t.Fatal("expected a recently used controller to keep its instance")
	}
}
