// Package firestore stores visits and visit-code counters in Cloud Firestore.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/evcraddock/trackmate/internal/apperrors"
	"github.com/evcraddock/trackmate/internal/config"
)

// New creates a Firestore client using credentials from cfg (base64 or file).
// It returns the client and a description of which credential source was used.
func New(ctx context.Context, cfg config.FirestoreConfig) (*firestore.Client, string, error) {
	creds, source, err := cfg.CredentialsJSON()
	if err != nil {
		return nil, "", err
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, option.WithCredentialsJSON(creds))
	if err != nil {
		return nil, "", fmt.Errorf("init firestore client: %w", err)
	}
	return client, source, nil
}

// Ping performs a lightweight check by attempting to iterate collections.
func Ping(ctx context.Context, client *firestore.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	iter := client.Collections(ctx)
	_, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil
	}
	return err
}

// classify maps gRPC status codes onto the shared sentinel errors.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %w", apperrors.ErrNotFound, err)
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %w", apperrors.ErrDuplicate, err)
	case codes.Aborted, codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %w", apperrors.ErrBusy, err)
	default:
		return err
	}
}
