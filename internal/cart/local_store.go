package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/averyross/bookhaven-backend/internal/identity"
	"github.com/averyross/bookhaven-backend/pkg/db"
	"github.com/averyross/bookhaven-backend/pkg/db/models"
	"gorm.io/gorm/clause"
)

const (
	localKeyCart     = "cart"
	localKeyWishlist = "wishlist"
)

// LocalStore persists device-scoped documents as JSON blobs in sqlite, one row
// per fixed key.
type LocalStore struct {
	client *db.Client
}

// NewLocalStore builds the device-scoped store and creates its table when
// missing.
func NewLocalStore(client *db.Client) (*LocalStore, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if err := client.DB().AutoMigrate(&models.StateBlob{}); err != nil {
		return nil, fmt.Errorf("migrating state blobs: %w", err)
	}
	return &LocalStore{client: client}, nil
}

func (s *LocalStore) Load(ctx context.Context, id identity.Identity) (Document, error) {
	if err := id.Validate(); err != nil {
		return Document{}, err
	}

	var blobs []models.StateBlob
	err := s.client.DB().WithContext(ctx).
		Where("device_id = ? AND key IN ?", id.Subject(), []string{localKeyCart, localKeyWishlist}).
		Find(&blobs).Error
	if err != nil {
		return Document{}, fmt.Errorf("loading local state: %w", err)
	}
	if len(blobs) == 0 {
		return Document{}, ErrNotFound
	}

	doc := Document{}
	for _, blob := range blobs {
		switch blob.Key {
		case localKeyCart:
			if err := json.Unmarshal(blob.Payload, &doc.Items); err != nil {
				return Document{}, fmt.Errorf("decoding cart blob: %w", err)
			}
		case localKeyWishlist:
			if err := json.Unmarshal(blob.Payload, &doc.Wishlist); err != nil {
				return Document{}, fmt.Errorf("decoding wishlist blob: %w", err)
			}
		}
	}
	doc.Normalize()
	return doc, nil
}

func (s *LocalStore) Save(ctx context.Context, id identity.Identity, doc Document, field Field) error {
	if err := id.Validate(); err != nil {
		return err
	}
	doc.Normalize()

	blobs := make([]models.StateBlob, 0, 2)
	if field == FieldItems || field == FieldAll {
		payload, err := json.Marshal(doc.Items)
		if err != nil {
			return fmt.Errorf("encoding cart blob: %w", err)
		}
		blobs = append(blobs, models.StateBlob{DeviceID: id.Subject(), Key: localKeyCart, Payload: payload})
	}
	if field == FieldWishlist || field == FieldAll {
		payload, err := json.Marshal(doc.Wishlist)
		if err != nil {
			return fmt.Errorf("encoding wishlist blob: %w", err)
		}
		blobs = append(blobs, models.StateBlob{DeviceID: id.Subject(), Key: localKeyWishlist, Payload: payload})
	}
	if len(blobs) == 0 {
		return fmt.Errorf("unknown save field %q", field)
	}

	err := s.client.DB().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "device_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&blobs).Error
	if err != nil {
		return fmt.Errorf("saving local state: %w", err)
	}
	return nil
}

// EnsureExists is a no-op for device-scoped state. Rows are written lazily on
// the first mutation; materializing empty blobs up front would make Load
// report a document for devices that never touched their cart.
func (s *LocalStore) EnsureExists(ctx context.Context, id identity.Identity) error {
	return id.Validate()
}

var _ Store = (*LocalStore)(nil)
