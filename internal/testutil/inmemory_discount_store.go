package testutil

import (
	"context"
	"time"

	"github.com/drawcard/drawcard/internal/domain/discount"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/samber/lo"
)

// InMemoryDiscountStore implements discount.Repository with the same
// serialised queue-position assignment and activate-once behavior as the
// real store.
type InMemoryDiscountStore struct {
	*InMemoryStore[*discount.Grant]
}

// NewInMemoryDiscountStore creates a new in-memory discount grant store
func NewInMemoryDiscountStore() *InMemoryDiscountStore {
	return &InMemoryDiscountStore{
		InMemoryStore: NewInMemoryStore[*discount.Grant](),
	}
}

func copyGrant(g *discount.Grant) *discount.Grant {
	if g == nil {
		return nil
	}
	copied := *g
	if g.StartDate != nil {
		start := *g.StartDate
		copied.StartDate = &start
	}
	if g.EndDate != nil {
		end := *g.EndDate
		copied.EndDate = &end
	}
	return &copied
}

func (s *InMemoryDiscountStore) Enqueue(ctx context.Context, grant *discount.Grant) error {
	if err := grant.Validate(); err != nil {
		return err
	}

	return s.InMemoryStore.WithLock(func(items map[string]*discount.Grant) error {
		if _, exists := items[grant.ID]; exists {
			return ierr.NewError("discount grant already exists").
				WithReportableDetails(map[string]interface{}{"grant_id": grant.ID}).
				Mark(ierr.ErrAlreadyExists)
		}
		var maxPosition int64
		for _, g := range items {
			if g.AccountID == grant.AccountID && g.QueuePosition > maxPosition {
				maxPosition = g.QueuePosition
			}
		}
		grant.QueuePosition = maxPosition + 1
		items[grant.ID] = copyGrant(grant)
		return nil
	})
}

func (s *InMemoryDiscountStore) Get(ctx context.Context, id string) (*discount.Grant, error) {
	g, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("discount grant not found").
			WithReportableDetails(map[string]interface{}{"grant_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return copyGrant(g), nil
}

func (s *InMemoryDiscountStore) ListByAccount(ctx context.Context, accountID string) ([]*discount.Grant, error) {
	grants, err := s.InMemoryStore.List(ctx, nil,
		func(ctx context.Context, g *discount.Grant, _ interface{}) bool {
			return g.AccountID == accountID
		},
		func(i, j *discount.Grant) bool {
			return i.QueuePosition < j.QueuePosition
		})
	if err != nil {
		return nil, err
	}
	return lo.Map(grants, func(g *discount.Grant, _ int) *discount.Grant {
		return copyGrant(g)
	}), nil
}

func (s *InMemoryDiscountStore) Activate(ctx context.Context, id string, start, end time.Time) (bool, error) {
	activated := false
	err := s.InMemoryStore.WithLock(func(items map[string]*discount.Grant) error {
		g, exists := items[id]
		if !exists {
			return ierr.NewError("discount grant not found").
				WithReportableDetails(map[string]interface{}{"grant_id": id}).
				Mark(ierr.ErrNotFound)
		}
		if g.StartDate != nil {
			return nil
		}
		g.StartDate = &start
		g.EndDate = &end
		activated = true
		return nil
	})
	return activated, err
}
