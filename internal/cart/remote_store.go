package cart

import (
	"context"
	"fmt"

	fs "cloud.google.com/go/firestore"
	"github.com/averyross/bookhaven-backend/internal/catalog"
	"github.com/averyross/bookhaven-backend/internal/identity"
	"github.com/averyross/bookhaven-backend/pkg/firestore"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RemoteStore persists user-scoped documents in Firestore, one document per
// user under the carts collection.
type RemoteStore struct {
	client *firestore.Client
}

// NewRemoteStore builds the user-scoped store.
func NewRemoteStore(client *firestore.Client) (*RemoteStore, error) {
	if client == nil {
		return nil, fmt.Errorf("firestore client is required")
	}
	return &RemoteStore{client: client}, nil
}

// Prices travel as strings on the wire because Firestore has no decimal type
// and floats would reintroduce rounding.
type wireBook struct {
	ID          string   `firestore:"id"`
	Title       string   `firestore:"title"`
	Author      string   `firestore:"author"`
	CoverImage  string   `firestore:"coverImage"`
	Price       string   `firestore:"price"`
	Rating      float64  `firestore:"rating"`
	ReviewCount int      `firestore:"reviewCount"`
	Categories  []string `firestore:"categories"`
	Badge       *string  `firestore:"badge,omitempty"`
}

type wireItem struct {
	wireBook
	Quantity int `firestore:"quantity"`
}

type wireDocument struct {
	Items    []wireItem `firestore:"items"`
	Wishlist []wireBook `firestore:"wishlist"`
}

func (s *RemoteStore) Load(ctx context.Context, id identity.Identity) (Document, error) {
	if err := id.Validate(); err != nil {
		return Document{}, err
	}

	snap, err := s.client.CartDoc(id.Subject()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("loading remote state: %w", err)
	}

	var wire wireDocument
	if err := snap.DataTo(&wire); err != nil {
		return Document{}, fmt.Errorf("decoding remote state: %w", err)
	}
	return fromWire(wire)
}

func (s *RemoteStore) Save(ctx context.Context, id identity.Identity, doc Document, field Field) error {
	if err := id.Validate(); err != nil {
		return err
	}
	doc.Normalize()
	wire := toWire(doc)
	ref := s.client.CartDoc(id.Subject())

	var err error
	switch field {
	case FieldItems:
		_, err = ref.Update(ctx, []fs.Update{{Path: "items", Value: wire.Items}})
	case FieldWishlist:
		_, err = ref.Update(ctx, []fs.Update{{Path: "wishlist", Value: wire.Wishlist}})
	case FieldAll:
		_, err = ref.Set(ctx, wire)
	default:
		return fmt.Errorf("unknown save field %q", field)
	}
	if err != nil {
		return fmt.Errorf("saving remote state: %w", err)
	}
	return nil
}

func (s *RemoteStore) EnsureExists(ctx context.Context, id identity.Identity) error {
	if err := id.Validate(); err != nil {
		return err
	}

	ref := s.client.CartDoc(id.Subject())
	_, err := ref.Get(ctx)
	if err == nil {
		return nil
	}
	if status.Code(err) != codes.NotFound {
		return fmt.Errorf("checking remote state: %w", err)
	}

	if _, err := ref.Set(ctx, wireDocument{Items: []wireItem{}, Wishlist: []wireBook{}}); err != nil {
		return fmt.Errorf("initializing remote state: %w", err)
	}
	return nil
}

func toWire(doc Document) wireDocument {
	out := wireDocument{
		Items:    make([]wireItem, 0, len(doc.Items)),
		Wishlist: make([]wireBook, 0, len(doc.Wishlist)),
	}
	for _, item := range doc.Items {
		out.Items = append(out.Items, wireItem{
			wireBook: bookToWire(item.BookSummary),
			Quantity: item.Quantity,
		})
	}
	for _, book := range doc.Wishlist {
		out.Wishlist = append(out.Wishlist, bookToWire(book))
	}
	return out
}

func fromWire(wire wireDocument) (Document, error) {
	doc := Document{
		Items:    make([]Item, 0, len(wire.Items)),
		Wishlist: make([]catalog.BookSummary, 0, len(wire.Wishlist)),
	}
	for _, item := range wire.Items {
		book, err := bookFromWire(item.wireBook)
		if err != nil {
			return Document{}, err
		}
		doc.Items = append(doc.Items, Item{BookSummary: book, Quantity: item.Quantity})
	}
	for _, entry := range wire.Wishlist {
		book, err := bookFromWire(entry)
		if err != nil {
			return Document{}, err
		}
		doc.Wishlist = append(doc.Wishlist, book)
	}
	return doc, nil
}

func bookToWire(book catalog.BookSummary) wireBook {
	return wireBook{
		ID:          book.ID,
		Title:       book.Title,
		Author:      book.Author,
		CoverImage:  book.CoverImage,
		Price:       book.Price.StringFixed(2),
		Rating:      book.Rating,
		ReviewCount: book.ReviewCount,
		Categories:  book.Categories,
		Badge:       book.Badge,
	}
}

func bookFromWire(wire wireBook) (catalog.BookSummary, error) {
	price, err := decimal.NewFromString(wire.Price)
	if err != nil {
		return catalog.BookSummary{}, fmt.Errorf("invalid price %q for book %s: %w", wire.Price, wire.ID, err)
	}
	return catalog.BookSummary{
		ID:          wire.ID,
		Title:       wire.Title,
		Author:      wire.Author,
		CoverImage:  wire.CoverImage,
		Price:       price,
		Rating:      wire.Rating,
		ReviewCount: wire.ReviewCount,
		Categories:  wire.Categories,
		Badge:       wire.Badge,
	}, nil
}

var _ Store = (*RemoteStore)(nil)
