package testutil

import (
	"context"
	"time"

	"github.com/drawcard/drawcard/internal/domain/promotion"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/types"
)

// InMemoryPromotionStore implements promotion.Repository
type InMemoryPromotionStore struct {
	*InMemoryStore[*promotion.Promotion]
}

// NewInMemoryPromotionStore creates a new in-memory promotion store
func NewInMemoryPromotionStore() *InMemoryPromotionStore {
	return &InMemoryPromotionStore{
		InMemoryStore: NewInMemoryStore[*promotion.Promotion](),
	}
}

func copyPromotion(p *promotion.Promotion) *promotion.Promotion {
	if p == nil {
		return nil
	}
	copied := *p
	return &copied
}

func (s *InMemoryPromotionStore) Create(ctx context.Context, promo *promotion.Promotion) error {
	if err := promo.Validate(); err != nil {
		return err
	}
	return s.InMemoryStore.Create(ctx, promo.ID, copyPromotion(promo))
}

func (s *InMemoryPromotionStore) Get(ctx context.Context, id string) (*promotion.Promotion, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("promotion not found").
			WithReportableDetails(map[string]interface{}{"promotion_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return copyPromotion(p), nil
}

func (s *InMemoryPromotionStore) GetActiveForCategory(ctx context.Context, category types.PackageType, at time.Time) (*promotion.Promotion, error) {
	promos, err := s.InMemoryStore.List(ctx, nil,
		func(ctx context.Context, p *promotion.Promotion, _ interface{}) bool {
			return p.Category == category && p.IsActiveAt(at)
		},
		func(i, j *promotion.Promotion) bool {
			return i.StartAt.After(j.StartAt)
		})
	if err != nil {
		return nil, err
	}
	if len(promos) == 0 {
		return nil, nil
	}
	return copyPromotion(promos[0]), nil
}
