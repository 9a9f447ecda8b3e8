package visit

import "context"

// Store persists visit records. List returns store order; callers own sorting.
type Store interface {
	Add(ctx context.Context, v *Visit) (*Visit, error)
	List(ctx context.Context, c Category) ([]Visit, error)
	Get(ctx context.Context, id string) (*Visit, error)
}
