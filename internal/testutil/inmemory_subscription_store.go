package testutil

import (
	"context"

	"github.com/drawcard/drawcard/internal/domain/subscription"
	ierr "github.com/drawcard/drawcard/internal/errors"
)

// InMemorySubscriptionStore implements subscription.Repository
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
}

// NewInMemorySubscriptionStore creates a new in-memory subscription store
func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
	}
}

func copySubscription(sub *subscription.Subscription) *subscription.Subscription {
	if sub == nil {
		return nil
	}
	copied := *sub
	if sub.PendingChange.PreviousBenefits != nil {
		snapshot := *sub.PendingChange.PreviousBenefits
		copied.PendingChange.PreviousBenefits = &snapshot
	}
	if sub.PendingChange.EffectiveUntil != nil {
		until := *sub.PendingChange.EffectiveUntil
		copied.PendingChange.EffectiveUntil = &until
	}
	return &copied
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	return s.InMemoryStore.Create(ctx, sub.ID, copySubscription(sub))
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("subscription not found").
			WithReportableDetails(map[string]interface{}{"subscription_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return copySubscription(sub), nil
}

func (s *InMemorySubscriptionStore) GetByAccount(ctx context.Context, accountID string) (*subscription.Subscription, error) {
	subs, err := s.InMemoryStore.List(ctx, nil,
		func(ctx context.Context, sub *subscription.Subscription, _ interface{}) bool {
			return sub.AccountID == accountID
		},
		func(i, j *subscription.Subscription) bool {
			return i.CreatedAt.After(j.CreatedAt)
		})
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, nil
	}
	return copySubscription(subs[0]), nil
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	return s.InMemoryStore.Update(ctx, sub.ID, copySubscription(sub))
}
