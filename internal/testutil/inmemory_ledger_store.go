package testutil

import (
	"context"

	"github.com/drawcard/drawcard/internal/domain/ledger"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/types"
	"github.com/samber/lo"
)

// InMemoryLedgerStore implements ledger.Repository
type InMemoryLedgerStore struct {
	*InMemoryStore[*ledger.ProcessedEvent]
}

// NewInMemoryLedgerStore creates a new in-memory event ledger
func NewInMemoryLedgerStore() *InMemoryLedgerStore {
	return &InMemoryLedgerStore{
		InMemoryStore: NewInMemoryStore[*ledger.ProcessedEvent](),
	}
}

func ledgerKey(transactionID string, eventKind types.PaymentEventKind) string {
	return transactionID + "/" + string(eventKind)
}

func copyProcessedEvent(e *ledger.ProcessedEvent) *ledger.ProcessedEvent {
	if e == nil {
		return nil
	}
	copied := *e
	copied.Outcome = lo.Assign(map[string]interface{}{}, e.Outcome)
	return &copied
}

// Admit mirrors the unique-insert admission gate: the first writer of a
// (transaction_id, event_kind) key wins, every later writer gets
// admitted=false with no error.
func (s *InMemoryLedgerStore) Admit(ctx context.Context, event *ledger.ProcessedEvent) (bool, error) {
	if err := event.Validate(); err != nil {
		return false, err
	}

	key := ledgerKey(event.TransactionID, event.EventKind)
	admitted := false
	err := s.InMemoryStore.WithLock(func(items map[string]*ledger.ProcessedEvent) error {
		if _, exists := items[key]; exists {
			return nil
		}
		items[key] = copyProcessedEvent(event)
		admitted = true
		return nil
	})
	return admitted, err
}

func (s *InMemoryLedgerStore) Get(ctx context.Context, transactionID string, eventKind types.PaymentEventKind) (*ledger.ProcessedEvent, error) {
	event, err := s.InMemoryStore.Get(ctx, ledgerKey(transactionID, eventKind))
	if err != nil {
		return nil, ierr.NewError("ledger row not found").
			WithReportableDetails(map[string]interface{}{
				"transaction_id": transactionID,
				"event_kind":     eventKind,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copyProcessedEvent(event), nil
}

func (s *InMemoryLedgerStore) ListByAccount(ctx context.Context, accountID string, limit int) ([]*ledger.ProcessedEvent, error) {
	events, err := s.InMemoryStore.List(ctx, nil,
		func(ctx context.Context, e *ledger.ProcessedEvent, _ interface{}) bool {
			return e.AccountID == accountID
		},
		func(i, j *ledger.ProcessedEvent) bool {
			return i.ProcessedAt.After(j.ProcessedAt)
		})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return lo.Map(events, func(e *ledger.ProcessedEvent, _ int) *ledger.ProcessedEvent {
		return copyProcessedEvent(e)
	}), nil
}
