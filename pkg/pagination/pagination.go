// Package pagination implements the opaque keyset cursors used by the
// catalog listing endpoints. A cursor pins the reader to a position in the
// newest-first ordering so browsing stays stable while new books are
// published underneath it.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit is the page size used when the client does not send one.
	DefaultLimit = 25
	// MaxLimit bounds a single catalog page regardless of what was requested.
	MaxLimit = 100
)

// Params carries the paging inputs parsed off a catalog listing request.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor is the decoded keyset position: the publication timestamp and id of
// the last book on the previous page.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// ClampLimit folds a client-supplied limit into the allowed page-size range.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// PeekLimit returns the clamped limit plus one row, so a catalog query can
// tell whether another page exists without a separate count.
func PeekLimit(limit int) int {
	return ClampLimit(limit) + 1
}

// EncodeCursor serializes a position into the opaque token handed to clients.
func EncodeCursor(c Cursor) string {
	raw := fmt.Sprintf("%s|%s", c.CreatedAt.UTC().Format(time.RFC3339Nano), c.ID.String())
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// ParseCursor reverses EncodeCursor. An empty token means the first page and
// yields a nil cursor with no error.
func ParseCursor(token string) (*Cursor, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	stamp, rawID, ok := strings.Cut(string(decoded), "|")
	if !ok {
		return nil, fmt.Errorf("malformed cursor token")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	return &Cursor{CreatedAt: createdAt, ID: id}, nil
}
