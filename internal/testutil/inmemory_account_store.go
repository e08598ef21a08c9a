package testutil

import (
	"context"

	"github.com/drawcard/drawcard/internal/domain/account"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// InMemoryAccountStore implements account.Repository
type InMemoryAccountStore struct {
	*InMemoryStore[*account.Account]
}

// NewInMemoryAccountStore creates a new in-memory account store
func NewInMemoryAccountStore() *InMemoryAccountStore {
	return &InMemoryAccountStore{
		InMemoryStore: NewInMemoryStore[*account.Account](),
	}
}

func copyAccount(a *account.Account) *account.Account {
	if a == nil {
		return nil
	}
	copied := *a
	copied.OneTimePackages = append([]account.PurchaseRecord(nil), a.OneTimePackages...)
	copied.MiniDrawPackages = append([]account.PurchaseRecord(nil), a.MiniDrawPackages...)
	return &copied
}

func (s *InMemoryAccountStore) Create(ctx context.Context, a *account.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return s.InMemoryStore.Create(ctx, a.ID, copyAccount(a))
}

func (s *InMemoryAccountStore) Get(ctx context.Context, id string) (*account.Account, error) {
	a, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("account not found").
			WithReportableDetails(map[string]interface{}{"account_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return copyAccount(a), nil
}

func (s *InMemoryAccountStore) IncrementBalances(ctx context.Context, id string, entries int64, points decimal.Decimal) error {
	return s.InMemoryStore.WithLock(func(items map[string]*account.Account) error {
		a, exists := items[id]
		if !exists {
			return ierr.NewError("account not found").
				WithReportableDetails(map[string]interface{}{"account_id": id}).
				Mark(ierr.ErrNotFound)
		}
		a.Entries += entries
		a.Points = a.Points.Add(points)
		return nil
	})
}

func (s *InMemoryAccountStore) AppendPurchase(ctx context.Context, id string, record account.PurchaseRecord) error {
	return s.InMemoryStore.WithLock(func(items map[string]*account.Account) error {
		a, exists := items[id]
		if !exists {
			return ierr.NewError("account not found").
				WithReportableDetails(map[string]interface{}{"account_id": id}).
				Mark(ierr.ErrNotFound)
		}
		if record.PackageType == types.PackageTypeMiniDraw {
			a.MiniDrawPackages = append(a.MiniDrawPackages, record)
		} else {
			a.OneTimePackages = append(a.OneTimePackages, record)
		}
		return nil
	})
}

func (s *InMemoryAccountStore) SetSubscriptionID(ctx context.Context, id string, subscriptionID string) error {
	return s.InMemoryStore.WithLock(func(items map[string]*account.Account) error {
		a, exists := items[id]
		if !exists {
			return ierr.NewError("account not found").
				WithReportableDetails(map[string]interface{}{"account_id": id}).
				Mark(ierr.ErrNotFound)
		}
		a.SubscriptionID = subscriptionID
		return nil
	})
}

func (s *InMemoryAccountStore) List(ctx context.Context, filter *account.Filter) ([]*account.Account, error) {
	accounts, err := s.InMemoryStore.List(ctx, filter,
		func(ctx context.Context, a *account.Account, f interface{}) bool {
			filter, ok := f.(*account.Filter)
			if !ok || filter == nil {
				return true
			}
			if len(filter.AccountIDs) > 0 && !lo.Contains(filter.AccountIDs, a.ID) {
				return false
			}
			if len(filter.Statuses) > 0 && !lo.Contains(filter.Statuses, a.Status) {
				return false
			}
			return true
		},
		func(i, j *account.Account) bool {
			return i.CreatedAt.After(j.CreatedAt)
		})
	if err != nil {
		return nil, err
	}
	return lo.Map(accounts, func(a *account.Account, _ int) *account.Account {
		return copyAccount(a)
	}), nil
}
