package cart

import (
	"context"
	"errors"

	"github.com/averyross/bookhaven-backend/internal/catalog"
	"github.com/averyross/bookhaven-backend/internal/identity"
	"github.com/shopspring/decimal"
)

// ErrNotFound signals that no document exists yet for the identity. Stores
// must return it instead of an empty document so callers can distinguish a
// first visit from an emptied cart.
var ErrNotFound = errors.New("cart document not found")

// Item is a cart line: a book snapshot plus how many copies the shopper wants.
type Item struct {
	catalog.BookSummary
	Quantity int `json:"quantity"`
}

// Document is the unit of persistence. Cart and wishlist always travel
// together in one document per identity.
type Document struct {
	Items    []Item                `json:"items"`
	Wishlist []catalog.BookSummary `json:"wishlist"`
}

// Field selects which portion of the document a save should write.
type Field string

const (
	FieldItems    Field = "items"
	FieldWishlist Field = "wishlist"
	FieldAll      Field = "all"
)

// Store persists cart documents for one backend. Local implementations scope
// documents to a device, remote ones to a user account.
type Store interface {
	// Load fetches the document for the identity, returning ErrNotFound when
	// none has ever been written.
	Load(ctx context.Context, id identity.Identity) (Document, error)

	// Save writes the selected field of the document, replacing whatever the
	// backend held for that field.
	Save(ctx context.Context, id identity.Identity, doc Document, field Field) error

	// EnsureExists creates an empty document for the identity when none is
	// present, so later partial saves have a target.
	EnsureExists(ctx context.Context, id identity.Identity) error
}

// Clone returns a deep copy so callers can hand the document across goroutine
// boundaries without sharing slices.
func (d Document) Clone() Document {
	out := Document{}
	if d.Items != nil {
		out.Items = make([]Item, len(d.Items))
		copy(out.Items, d.Items)
		for i := range out.Items {
			out.Items[i].Categories = append([]string(nil), out.Items[i].Categories...)
		}
	}
	if d.Wishlist != nil {
		out.Wishlist = make([]catalog.BookSummary, len(d.Wishlist))
		copy(out.Wishlist, d.Wishlist)
		for i := range out.Wishlist {
			out.Wishlist[i].Categories = append([]string(nil), out.Wishlist[i].Categories...)
		}
	}
	return out
}

// Normalize replaces nil slices with empty ones so serialized documents always
// carry both fields.
func (d *Document) Normalize() {
	if d.Items == nil {
		d.Items = []Item{}
	}
	if d.Wishlist == nil {
		d.Wishlist = []catalog.BookSummary{}
	}
}

// Total sums price times quantity across all cart lines.
func (d Document) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range d.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// ItemCount sums quantities across all cart lines.
func (d Document) ItemCount() int {
	count := 0
	for _, item := range d.Items {
		count += item.Quantity
	}
	return count
}
