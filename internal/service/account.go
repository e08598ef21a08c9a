package service

import (
	"context"
	"time"

	"github.com/drawcard/drawcard/internal/api/dto"
	"github.com/drawcard/drawcard/internal/domain/account"
	ierr "github.com/drawcard/drawcard/internal/errors"
)

// AccountService exposes an account's full benefit state in one read:
// balances, purchase history, the derived discount schedule and the effective
// subscription benefits.
type AccountService interface {
	CurrentState(ctx context.Context, accountID string) (*dto.AccountStateResponse, error)
}

type accountService struct {
	ServiceParams
	schedule DiscountScheduleService
	changes  SubscriptionChangeService
}

// NewAccountService creates a new account state reader.
func NewAccountService(params ServiceParams) AccountService {
	return &accountService{
		ServiceParams: params,
		schedule:      NewDiscountScheduleService(params),
		changes:       NewSubscriptionChangeService(params),
	}
}

func (s *accountService) CurrentState(ctx context.Context, accountID string) (*dto.AccountStateResponse, error) {
	if accountID == "" {
		return nil, ierr.NewError("account_id is required").Mark(ierr.ErrValidation)
	}

	acct, err := s.AccountRepo.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	schedule, err := s.schedule.CurrentStateAt(ctx, accountID, now)
	if err != nil {
		return nil, err
	}

	resp := &dto.AccountStateResponse{
		ID:               acct.ID,
		Entries:          acct.Entries,
		Points:           acct.Points,
		OneTimePackages:  purchaseResponses(acct.OneTimePackages),
		MiniDrawPackages: purchaseResponses(acct.MiniDrawPackages),
		DiscountSchedule: schedule,
	}

	sub, err := s.SubRepo.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if sub != nil && sub.Active {
		resp.Subscription = dto.NewSubscriptionResponse(sub)

		benefits, err := s.changes.EffectiveBenefits(ctx, accountID, now)
		if err != nil {
			return nil, err
		}
		if benefits != nil {
			resp.EffectiveBenefits = &dto.BenefitSnapshotResponse{
				PackageID:       benefits.PackageID,
				PackageName:     benefits.PackageName,
				Price:           benefits.Price,
				EntriesPerMonth: benefits.EntriesPerMonth,
				DiscountPercent: benefits.DiscountPercent,
			}
		}
	}

	return resp, nil
}

func purchaseResponses(records []account.PurchaseRecord) []dto.PurchaseRecordResponse {
	out := make([]dto.PurchaseRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, dto.NewPurchaseRecordResponse(r))
	}
	return out
}
