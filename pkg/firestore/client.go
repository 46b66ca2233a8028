package firestore

import (
	"context"
	"fmt"

	fs "cloud.google.com/go/firestore"
	"github.com/averyross/bookhaven-backend/pkg/config"
	"github.com/averyross/bookhaven-backend/pkg/logger"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Client wraps the Firestore SDK client with project configuration.
type Client struct {
	fs             *fs.Client
	cartCollection string
}

// New connects to Firestore using the configured project and optional credentials.
func New(ctx context.Context, cfg config.FirestoreConfig, logg *logger.Logger) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firestore project id is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}

	client, err := fs.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to firestore (project=%s): %w", cfg.ProjectID, err)
	}

	logg.Info(logg.WithField(ctx, "project_id", cfg.ProjectID), "firestore connected")

	return &Client{
		fs:             client,
		cartCollection: cfg.CartCollection,
	}, nil
}

// CartDoc returns the document ref holding the cart state for the given user.
func (c *Client) CartDoc(userID string) *fs.DocumentRef {
	return c.fs.Collection(c.cartCollection).Doc(userID)
}

// Ping verifies connectivity by fetching a known document. A NotFound response
// still proves the backend is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.fs.Collection(c.cartCollection).Doc("__ping__").Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("firestore ping: %w", err)
	}
	return nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	return c.fs.Close()
}
