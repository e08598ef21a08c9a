package testutil

import (
	"context"
	"time"

	"github.com/drawcard/drawcard/internal/domain/draw"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/types"
	"github.com/samber/lo"
)

// InMemoryDrawStore implements draw.Repository, enforcing the same
// conditional-update semantics as the real store: threshold-aware credits and
// a single-shot winner slot.
type InMemoryDrawStore struct {
	*InMemoryStore[*draw.Draw]
	participations *InMemoryStore[*draw.Participation]
}

// NewInMemoryDrawStore creates a new in-memory draw store
func NewInMemoryDrawStore() *InMemoryDrawStore {
	return &InMemoryDrawStore{
		InMemoryStore:  NewInMemoryStore[*draw.Draw](),
		participations: NewInMemoryStore[*draw.Participation](),
	}
}

func copyDraw(d *draw.Draw) *draw.Draw {
	if d == nil {
		return nil
	}
	copied := *d
	if d.Winner != nil {
		winner := *d.Winner
		copied.Winner = &winner
	}
	return &copied
}

func participationKey(drawID, accountID string) string {
	return drawID + "/" + accountID
}

func (s *InMemoryDrawStore) Create(ctx context.Context, d *draw.Draw) error {
	if err := d.Validate(); err != nil {
		return err
	}
	return s.InMemoryStore.Create(ctx, d.ID, copyDraw(d))
}

func (s *InMemoryDrawStore) Get(ctx context.Context, id string) (*draw.Draw, error) {
	d, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("draw not found").
			WithReportableDetails(map[string]interface{}{"draw_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return copyDraw(d), nil
}

func (s *InMemoryDrawStore) List(ctx context.Context, filter *draw.Filter) ([]*draw.Draw, error) {
	draws, err := s.InMemoryStore.List(ctx, filter,
		func(ctx context.Context, d *draw.Draw, f interface{}) bool {
			filter, ok := f.(*draw.Filter)
			if !ok || filter == nil {
				return true
			}
			if len(filter.DrawIDs) > 0 && !lo.Contains(filter.DrawIDs, d.ID) {
				return false
			}
			if len(filter.Types) > 0 && !lo.Contains(filter.Types, d.Type) {
				return false
			}
			if len(filter.Statuses) > 0 && !lo.Contains(filter.Statuses, d.Status) {
				return false
			}
			return true
		},
		func(i, j *draw.Draw) bool {
			return i.CreatedAt.After(j.CreatedAt)
		})
	if err != nil {
		return nil, err
	}
	return lo.Map(draws, func(d *draw.Draw, _ int) *draw.Draw {
		return copyDraw(d)
	}), nil
}

func (s *InMemoryDrawStore) UpdateStatus(ctx context.Context, id string, status types.DrawStatus) error {
	return s.InMemoryStore.WithLock(func(items map[string]*draw.Draw) error {
		d, exists := items[id]
		if !exists {
			return ierr.NewError("draw not found").
				WithReportableDetails(map[string]interface{}{"draw_id": id}).
				Mark(ierr.ErrNotFound)
		}
		d.Status = status
		return nil
	})
}

func (s *InMemoryDrawStore) CreditEntries(ctx context.Context, drawID, accountID string, entries int64) error {
	err := s.InMemoryStore.WithLock(func(items map[string]*draw.Draw) error {
		d, exists := items[drawID]
		if !exists {
			return ierr.NewError("draw not found").
				WithReportableDetails(map[string]interface{}{"draw_id": drawID}).
				Mark(ierr.ErrNotFound)
		}
		if err := d.CanAcceptEntries(entries); err != nil {
			return err
		}
		d.TotalEntries += entries
		return nil
	})
	if err != nil {
		return err
	}

	key := participationKey(drawID, accountID)
	return s.participations.WithLock(func(items map[string]*draw.Participation) error {
		p, exists := items[key]
		if !exists {
			items[key] = &draw.Participation{
				DrawID:    drawID,
				AccountID: accountID,
				Entries:   entries,
				UpdatedAt: time.Now().UTC(),
			}
			return nil
		}
		p.Entries += entries
		p.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func (s *InMemoryDrawStore) RecordWinner(ctx context.Context, drawID string, winner *draw.Winner) error {
	return s.InMemoryStore.WithLock(func(items map[string]*draw.Draw) error {
		d, exists := items[drawID]
		if !exists {
			return ierr.NewError("draw not found").
				WithReportableDetails(map[string]interface{}{"draw_id": drawID}).
				Mark(ierr.ErrNotFound)
		}
		if err := d.CanRecordWinner(); err != nil {
			return err
		}
		w := *winner
		d.Winner = &w
		d.Status = types.DrawStatusCompleted
		return nil
	})
}

func (s *InMemoryDrawStore) GetParticipation(ctx context.Context, drawID, accountID string) (*draw.Participation, error) {
	p, err := s.participations.Get(ctx, participationKey(drawID, accountID))
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	copied := *p
	return &copied, nil
}

func (s *InMemoryDrawStore) ListParticipants(ctx context.Context, drawID string) ([]*draw.Participation, error) {
	participants, err := s.participations.List(ctx, nil,
		func(ctx context.Context, p *draw.Participation, _ interface{}) bool {
			return p.DrawID == drawID
		},
		func(i, j *draw.Participation) bool {
			if i.Entries != j.Entries {
				return i.Entries > j.Entries
			}
			return i.AccountID < j.AccountID
		})
	if err != nil {
		return nil, err
	}
	return lo.Map(participants, func(p *draw.Participation, _ int) *draw.Participation {
		copied := *p
		return &copied
	}), nil
}

func (s *InMemoryDrawStore) FindActiveMiniDraw(ctx context.Context) (*draw.Draw, error) {
	draws, err := s.List(ctx, &draw.Filter{
		Types:    []types.DrawType{types.DrawTypeMini},
		Statuses: []types.DrawStatus{types.DrawStatusActive},
	})
	if err != nil {
		return nil, err
	}
	if len(draws) == 0 {
		return nil, nil
	}
	return draws[0], nil
}

// Clear clears the draw store and its participation rows
func (s *InMemoryDrawStore) Clear() {
	s.InMemoryStore.Clear()
	s.participations.Clear()
}
