package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/averyross/bookhaven-backend/internal/catalog"
	"github.com/averyross/bookhaven-backend/internal/identity"
	pkgerrors "github.com/averyross/bookhaven-backend/pkg/errors"
	"github.com/averyross/bookhaven-backend/pkg/logger"
	"github.com/averyross/bookhaven-backend/pkg/metrics"
	"github.com/shopspring/decimal"
)

// State tracks whether the controller has loaded persisted state yet.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
)

// Selector picks the persistence backend for an identity.
type Selector struct {
	Local  Store
	Remote Store
}

// ForIdentity returns the backend and its metrics label for the identity.
func (s Selector) ForIdentity(id identity.Identity) (Store, string) {
	if id.IsAnonymous() {
		return s.Local, "local"
	}
	return s.Remote, "remote"
}

// Controller owns the in-memory cart and wishlist for one identity. Mutations
// update memory first and then persist; a failed save is reported to the
// caller but never rolls the memory back. All methods are safe for concurrent
// use.
type Controller struct {
	mu    sync.Mutex
	state State
	ident identity.Identity
	doc   Document

	stores  Selector
	metrics *metrics.CartSyncMetrics
	logg    *logger.Logger
}

// NewController builds a controller in the Uninitialized state.
func NewController(stores Selector, m *metrics.CartSyncMetrics, logg *logger.Logger) (*Controller, error) {
	if stores.Local == nil {
		return nil, fmt.Errorf("local store is required")
	}
	if stores.Remote == nil {
		return nil, fmt.Errorf("remote store is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Controller{
		state:   StateUninitialized,
		doc:     Document{Items: []Item{}, Wishlist: []catalog.BookSummary{}},
		stores:  stores,
		metrics: m,
		logg:    logg,
	}, nil
}

// SetIdentity switches the controller to a new identity and reloads persisted
// state for it, replacing memory wholesale. Nothing is merged from the prior
// identity. Load failures leave the controller Ready with empty state so the
// shopper is never blocked.
func (c *Controller) SetIdentity(ctx context.Context, id identity.Identity) error {
	if err := id.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid identity")
	}

	c.mu.Lock()
	c.state = StateLoading
	c.ident = id
	c.mu.Unlock()

	store, backend := c.stores.ForIdentity(id)

	start := time.Now()
	doc, err := store.Load(ctx, id)
	c.metrics.ObserveLoadDuration(backend, time.Since(start))

	switch {
	case err == nil:
		c.metrics.IncLoad(backend, "ok")

	case err == ErrNotFound:
		c.metrics.IncLoad(backend, "not_found")
		doc = Document{}
		// Anonymous shoppers get no placeholder document. Their state is
		// only ever persisted once a mutation happens, so an empty blob
		// here would turn every later NotFound into a false hit.
		if !id.IsAnonymous() {
			if ensureErr := store.EnsureExists(ctx, id); ensureErr != nil {
				c.logg.Warn(c.logg.WithIdentity(ctx, id.String()),
					fmt.Sprintf("failed to initialize %s document: %v", backend, ensureErr))
			}
		}

	default:
		// Fail open: an unreachable backend must not block the shopper.
		c.metrics.IncLoad(backend, "error")
		c.logg.Error(c.logg.WithIdentity(ctx, id.String()), "loading persisted state failed, starting empty", err)
		doc = Document{}
	}

	doc.Normalize()

	c.mu.Lock()
	// A concurrent SetIdentity may have switched identities while this load
	// was in flight. Only install the result if we still own the identity.
	if c.ident == id {
		c.doc = doc
		c.state = StateReady
	}
	c.mu.Unlock()
	return nil
}

// Identity returns the identity the controller currently serves.
func (c *Controller) Identity() identity.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ident
}

// State returns the load state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a deep copy of the in-memory document.
func (c *Controller) Snapshot() Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.Clone()
}

// AddToCart adds qty copies of the book, incrementing the existing line when
// the book is already present.
func (c *Controller) AddToCart(ctx context.Context, book catalog.BookSummary, qty int) error {
	if book.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}
	if qty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	return c.mutate(ctx, FieldItems, func(doc *Document) {
		for i := range doc.Items {
			if doc.Items[i].ID == book.ID {
				doc.Items[i].Quantity += qty
				return
			}
		}
		doc.Items = append(doc.Items, Item{BookSummary: book, Quantity: qty})
	})
}

// RemoveFromCart removes the line for the book id. Removing an absent id is a
// no-op.
func (c *Controller) RemoveFromCart(ctx context.Context, bookID string) error {
	if bookID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}

	return c.mutate(ctx, FieldItems, func(doc *Document) {
		kept := doc.Items[:0]
		for _, item := range doc.Items {
			if item.ID != bookID {
				kept = append(kept, item)
			}
		}
		doc.Items = kept
	})
}

// UpdateQuantity sets the quantity of the matching line. Quantities below one
// are rejected; use RemoveFromCart to drop a line.
func (c *Controller) UpdateQuantity(ctx context.Context, bookID string, qty int) error {
	if bookID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}
	if qty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	return c.mutate(ctx, FieldItems, func(doc *Document) {
		for i := range doc.Items {
			if doc.Items[i].ID == bookID {
				doc.Items[i].Quantity = qty
				return
			}
		}
	})
}

// ClearCart empties the cart. The wishlist is untouched.
func (c *Controller) ClearCart(ctx context.Context) error {
	return c.mutate(ctx, FieldItems, func(doc *Document) {
		doc.Items = []Item{}
	})
}

// AddToWishlist inserts the book when absent. Adding twice keeps one entry.
func (c *Controller) AddToWishlist(ctx context.Context, book catalog.BookSummary) error {
	if book.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}

	return c.mutate(ctx, FieldWishlist, func(doc *Document) {
		for _, entry := range doc.Wishlist {
			if entry.ID == book.ID {
				return
			}
		}
		doc.Wishlist = append(doc.Wishlist, book)
	})
}

// RemoveFromWishlist removes the entry for the book id if present.
func (c *Controller) RemoveFromWishlist(ctx context.Context, bookID string) error {
	if bookID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}

	return c.mutate(ctx, FieldWishlist, func(doc *Document) {
		kept := doc.Wishlist[:0]
		for _, entry := range doc.Wishlist {
			if entry.ID != bookID {
				kept = append(kept, entry)
			}
		}
		doc.Wishlist = kept
	})
}

// ToggleWishlist adds the book when absent and removes it when present,
// returning whether the book is wishlisted afterwards. The presence check
// and the flip happen inside one mutation so concurrent toggles always
// observe each other.
func (c *Controller) ToggleWishlist(ctx context.Context, book catalog.BookSummary) (bool, error) {
	if book.ID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}

	var added bool
	err := c.mutate(ctx, FieldWishlist, func(doc *Document) {
		kept := doc.Wishlist[:0]
		for _, entry := range doc.Wishlist {
			if entry.ID != book.ID {
				kept = append(kept, entry)
			}
		}
		if len(kept) == len(doc.Wishlist) {
			kept = append(kept, book)
			added = true
		}
		doc.Wishlist = kept
	})
	return added, err
}

// IsInWishlist reports whether the book id is currently wishlisted.
func (c *Controller) IsInWishlist(bookID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range c.doc.Wishlist {
		if entry.ID == bookID {
			return true
		}
	}
	return false
}

// CartTotal returns the sum of price times quantity over all lines. Derived on
// every call, never persisted.
func (c *Controller) CartTotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.Total()
}

// CartItemCount returns the sum of quantities over all lines.
func (c *Controller) CartItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.ItemCount()
}

// mutate applies fn to the in-memory document under the lock, then persists
// the affected field. The memory update always sticks; only the save result is
// returned.
func (c *Controller) mutate(ctx context.Context, field Field, fn func(doc *Document)) error {
	c.mu.Lock()
	if c.state != StateReady {
		c.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeConflict, "cart is not initialized")
	}
	fn(&c.doc)
	c.doc.Normalize()
	id := c.ident
	snapshot := c.doc.Clone()
	c.mu.Unlock()

	store, backend := c.stores.ForIdentity(id)
	if err := store.Save(ctx, id, snapshot, field); err != nil {
		c.metrics.IncSave(backend, "error")
		c.logg.Error(c.logg.WithIdentity(ctx, id.String()), "persisting cart state failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving cart state")
	}
	c.metrics.IncSave(backend, "ok")
	return nil
}
