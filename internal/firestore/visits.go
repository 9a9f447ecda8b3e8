package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/evcraddock/trackmate/internal/apperrors"
	"github.com/evcraddock/trackmate/internal/visit"
)

// Collections holding each category's visits, keyed by visit code.
var collections = map[visit.Category]string{
	visit.Sales:     "salesVisits",
	visit.Placement: "placementVisits",
}

// VisitStore keeps visits in the source document shape.
type VisitStore struct {
	client *firestore.Client
}

// NewVisitStore creates a visit store.
func NewVisitStore(client *firestore.Client) *VisitStore {
	return &VisitStore{client: client}
}

var _ visit.Store = (*VisitStore)(nil)

func collectionFor(c visit.Category) (string, error) {
	name, ok := collections[c]
	if !ok {
		return "", fmt.Errorf("%w: invalid category %q", apperrors.ErrValidation, c)
	}
	return name, nil
}

// Add creates the document for v. The document ID is v.ID, or the visit
// code when ID is empty. Existing documents are never overwritten.
func (s *VisitStore) Add(ctx context.Context, v *visit.Visit) (*visit.Visit, error) {
	coll, err := collectionFor(v.Category)
	if err != nil {
		return nil, err
	}
	if v.VisitCode == "" {
		return nil, fmt.Errorf("%w: visit code is required", apperrors.ErrValidation)
	}
	id := v.ID
	if id == "" {
		id = v.VisitCode
	}

	ref := s.client.Collection(coll).Doc(id)
	if _, err := ref.Create(ctx, visit.ToRaw(*v)); err != nil {
		return nil, fmt.Errorf("create visit %s: %w", id, classify(err))
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read back visit %s: %w", id, classify(err))
	}
	out := fromSnapshot(v.Category, snap)
	return &out, nil
}

// List returns every visit of category c in document order.
func (s *VisitStore) List(ctx context.Context, c visit.Category) ([]visit.Visit, error) {
	if c == "" {
		var all []visit.Visit
		for _, cat := range visit.ValidCategories {
			part, err := s.List(ctx, cat)
			if err != nil {
				return nil, err
			}
			all = append(all, part...)
		}
		if all == nil {
			all = []visit.Visit{}
		}
		return all, nil
	}

	coll, err := collectionFor(c)
	if err != nil {
		return nil, err
	}

	iter := s.client.Collection(coll).Documents(ctx)
	defer iter.Stop()

	visits := []visit.Visit{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", coll, classify(err))
		}
		visits = append(visits, fromSnapshot(c, snap))
	}
	return visits, nil
}

// Get looks id up in every category collection.
func (s *VisitStore) Get(ctx context.Context, id string) (*visit.Visit, error) {
	for _, c := range visit.ValidCategories {
		snap, err := s.client.Collection(collections[c]).Doc(id).Get(ctx)
		if status.Code(err) == codes.NotFound {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get visit %s: %w", id, classify(err))
		}
		v := fromSnapshot(c, snap)
		return &v, nil
	}
	return nil, fmt.Errorf("visit %s: %w", id, apperrors.ErrNotFound)
}

func fromSnapshot(c visit.Category, snap *firestore.DocumentSnapshot) visit.Visit {
	v := visit.FromRaw(c, snap.Ref.ID, snap.Data())
	v.CreatedAt = snap.CreateTime
	return v
}
