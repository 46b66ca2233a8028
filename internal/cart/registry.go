package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/averyross/bookhaven-backend/internal/identity"
	"github.com/averyross/bookhaven-backend/pkg/logger"
	"github.com/averyross/bookhaven-backend/pkg/metrics"
)

// anonymousIdleTTL bounds how long an untouched anonymous controller stays in
// memory. Authenticated controllers are evicted explicitly on logout, but
// device ids arrive from the outside world and would otherwise accumulate one
// map entry each forever.
const anonymousIdleTTL = 30 * time.Minute

// sweepInterval caps how often For scans the map for stale entries.
const sweepInterval = time.Minute

type registryEntry struct {
	ctrl     *Controller
	lastSeen time.Time
}

// Registry hands out one controller per identity so all requests for the same
// shopper share in-memory state and its mutex.
type Registry struct {
	mu          sync.Mutex
	controllers map[string]*registryEntry
	lastSweep   time.Time

	stores  Selector
	metrics *metrics.CartSyncMetrics
	logg    *logger.Logger

	idleTTL time.Duration
	now     func() time.Time
}

// NewRegistry builds an empty registry.
func NewRegistry(stores Selector, m *metrics.CartSyncMetrics, logg *logger.Logger) (*Registry, error) {
	if stores.Local == nil || stores.Remote == nil {
		return nil, fmt.Errorf("both stores are required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Registry{
		controllers: make(map[string]*registryEntry),
		stores:      stores,
		metrics:     m,
		logg:        logg,
		idleTTL:     anonymousIdleTTL,
		now:         time.Now,
	}, nil
}

// For returns the controller owning the identity's state, creating and loading
// it on first use.
func (r *Registry) For(ctx context.Context, id identity.Identity) (*Controller, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	key := id.String()

	r.mu.Lock()
	now := r.now()
	r.sweepLocked(now)

	entry, ok := r.controllers[key]
	if !ok {
		ctrl, err := NewController(r.stores, r.metrics, r.logg)
		if err != nil {
			r.mu.Unlock()
			return nil, err
		}
		entry = &registryEntry{ctrl: ctrl}
		r.controllers[key] = entry
	}
	entry.lastSeen = now
	r.mu.Unlock()

	if entry.ctrl.State() != StateReady {
		if err := entry.ctrl.SetIdentity(ctx, id); err != nil {
			return nil, err
		}
	}
	return entry.ctrl, nil
}

// Evict drops the controller for the identity, forcing a fresh load on the
// next request. Called on logout so anonymous and authenticated state never
// bleed together.
func (r *Registry) Evict(id identity.Identity) {
	r.mu.Lock()
	delete(r.controllers, id.String())
	r.mu.Unlock()
}

// sweepLocked drops anonymous controllers that have sat idle past the TTL.
// Anything they persisted stays in the local store and reloads on the next
// request from that device. Caller holds r.mu.
func (r *Registry) sweepLocked(now time.Time) {
	if now.Sub(r.lastSweep) < sweepInterval {
		return
	}
	r.lastSweep = now

	for key, entry := range r.controllers {
		if now.Sub(entry.lastSeen) < r.idleTTL {
			continue
		}
		if entry.ctrl.Identity().IsAnonymous() {
			delete(r.controllers, key)
		}
	}
}
