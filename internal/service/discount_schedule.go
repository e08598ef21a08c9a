package service

import (
	"context"
	"time"

	"github.com/drawcard/drawcard/internal/api/dto"
	"github.com/drawcard/drawcard/internal/domain/discount"
	"github.com/drawcard/drawcard/internal/types"
	"github.com/samber/lo"
)

// DiscountScheduleService maintains each account's FIFO queue of purchased
// partner-discount grants and derives the currently-active period on read.
type DiscountScheduleService interface {
	// Enqueue appends a grant at the next queue position for the account.
	// Always permitted, never rejected.
	Enqueue(ctx context.Context, req *dto.EnqueueGrantRequest) (*discount.Grant, error)

	// CurrentState derives the schedule as of now.
	CurrentState(ctx context.Context, accountID string) (*dto.DiscountScheduleResponse, error)

	// CurrentStateAt derives the schedule at an explicit instant.
	CurrentStateAt(ctx context.Context, accountID string, now time.Time) (*dto.DiscountScheduleResponse, error)
}

type discountScheduleService struct {
	ServiceParams
}

// NewDiscountScheduleService creates a new discount period scheduler.
func NewDiscountScheduleService(params ServiceParams) DiscountScheduleService {
	return &discountScheduleService{ServiceParams: params}
}

func (s *discountScheduleService) Enqueue(ctx context.Context, req *dto.EnqueueGrantRequest) (*discount.Grant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	grant := &discount.Grant{
		ID:            types.GenerateUUIDWithPrefix(types.UUIDPrefixDiscountGrant),
		AccountID:     req.AccountID,
		PackageID:     req.PackageID,
		PackageName:   req.PackageName,
		PackageType:   req.PackageType,
		DurationDays:  req.DurationDays,
		DurationHours: req.DurationHours,
		PurchasedAt:   req.PurchasedAt,
		EnvironmentID: types.GetEnvironmentID(ctx),
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
	if grant.PurchasedAt.IsZero() {
		grant.PurchasedAt = time.Now().UTC()
	}
	if err := grant.Validate(); err != nil {
		return nil, err
	}

	// Queue position assignment is serialised by the repository.
	if err := s.DiscountRepo.Enqueue(ctx, grant); err != nil {
		return nil, err
	}

	s.Logger.Infow("discount grant enqueued",
		"account_id", grant.AccountID,
		"grant_id", grant.ID,
		"queue_position", grant.QueuePosition,
		"duration_days", grant.DurationDays,
	)
	return grant, nil
}

func (s *discountScheduleService) CurrentState(ctx context.Context, accountID string) (*dto.DiscountScheduleResponse, error) {
	return s.CurrentStateAt(ctx, accountID, time.Now().UTC())
}

func (s *discountScheduleService) CurrentStateAt(ctx context.Context, accountID string, now time.Time) (*dto.DiscountScheduleResponse, error) {
	grants, err := s.DiscountRepo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	// An active subscription provides open-ended partner access and takes
	// precedence: purchased grants are suspended, not consumed. The queue
	// resumes from where it left off once the subscription ends.
	sub, err := s.SubRepo.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if sub != nil && sub.Active {
		resp := s.buildResponse(nil, s.queuedGrants(grants))
		pkg, err := s.CatalogRepo.Get(ctx, sub.PackageID)
		if err != nil {
			return nil, err
		}
		start := sub.StartDate
		resp.ActivePeriod = &dto.ActivePeriodResponse{
			Source:          types.DiscountSourceSubscription,
			PackageID:       pkg.ID,
			PackageName:     pkg.Name,
			DiscountPercent: lo.ToPtr(pkg.DiscountPercent),
			StartDate:       &start,
		}
		return resp, nil
	}

	// A grant whose window covers now is the active period.
	if active, ok := lo.Find(grants, func(g *discount.Grant) bool {
		return g.IsActiveAt(now)
	}); ok {
		return s.buildResponse(active, s.queuedGrants(grants)), nil
	}

	// Nothing running: activate the lowest queue position still unactivated.
	queued := s.queuedGrants(grants)
	if len(queued) == 0 {
		return s.buildResponse(nil, nil), nil
	}

	next := queued[0]
	start := now
	end := now.Add(next.Duration())
	activated, err := s.DiscountRepo.Activate(ctx, next.ID, start, end)
	if err != nil {
		return nil, err
	}
	if !activated {
		// A concurrent reader won the activation; re-read for its window.
		refreshed, err := s.DiscountRepo.Get(ctx, next.ID)
		if err != nil {
			return nil, err
		}
		next = refreshed
	} else {
		next.StartDate = &start
		next.EndDate = &end
	}

	return s.buildResponse(next, queued[1:]), nil
}

// queuedGrants filters to unactivated grants, already in ascending queue
// position order from the repository.
func (s *discountScheduleService) queuedGrants(grants []*discount.Grant) []*discount.Grant {
	return lo.Filter(grants, func(g *discount.Grant, _ int) bool {
		return g.StartDate == nil
	})
}

func (s *discountScheduleService) buildResponse(active *discount.Grant, queued []*discount.Grant) *dto.DiscountScheduleResponse {
	resp := &dto.DiscountScheduleResponse{
		Queued: lo.Map(queued, func(g *discount.Grant, _ int) dto.QueuedGrantResponse {
			return dto.NewQueuedGrantResponse(g)
		}),
	}

	for _, g := range queued {
		resp.Totals.QueuedCount++
		resp.Totals.QueuedDays += g.DurationDays
		resp.Totals.QueuedHours += g.DurationHours
	}

	if active != nil {
		pos := active.QueuePosition
		resp.ActivePeriod = &dto.ActivePeriodResponse{
			Source:        types.DiscountSourceGrant,
			PackageID:     active.PackageID,
			PackageName:   active.PackageName,
			StartDate:     active.StartDate,
			EndDate:       active.EndDate,
			QueuePosition: &pos,
		}
	}

	return resp
}
