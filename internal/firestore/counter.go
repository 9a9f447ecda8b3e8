package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/evcraddock/trackmate/internal/visitcode"
)

// CounterCollection holds one document per code series.
const CounterCollection = "visitCodes"

// Counter keeps the last issued code of each series in a document field.
type Counter struct {
	client *firestore.Client
}

// NewCounter creates a transactional visit-code counter.
func NewCounter(client *firestore.Client) *Counter {
	return &Counter{client: client}
}

var _ visitcode.Counter = (*Counter)(nil)

// Advance implements visitcode.Counter in a Firestore transaction.
// fn may run more than once if the transaction is retried.
func (c *Counter) Advance(ctx context.Context, key string, fn func(last string) string) (string, error) {
	ref := c.client.Collection(CounterCollection).Doc(key)

	var next string
	err := c.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		last, err := readLast(tx.Get(ref))
		if err != nil {
			return err
		}
		next = fn(last)
		return tx.Set(ref, map[string]interface{}{
			"visitCode": next,
			"updatedAt": firestore.ServerTimestamp,
		})
	})
	if err != nil {
		return "", fmt.Errorf("advance %s: %w", key, classify(err))
	}
	return next, nil
}

// Last implements visitcode.Counter.
func (c *Counter) Last(ctx context.Context, key string) (string, error) {
	last, err := readLast(c.client.Collection(CounterCollection).Doc(key).Get(ctx))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, classify(err))
	}
	return last, nil
}

func readLast(snap *firestore.DocumentSnapshot, err error) (string, error) {
	if status.Code(err) == codes.NotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	code, _ := snap.Data()["visitCode"].(string)
	return code, nil
}
