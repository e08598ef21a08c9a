package service

import (
	"context"
	"time"

	"github.com/drawcard/drawcard/internal/api/dto"
	"github.com/drawcard/drawcard/internal/domain/account"
	"github.com/drawcard/drawcard/internal/domain/ledger"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/idempotency"
	"github.com/drawcard/drawcard/internal/marketing"
	"github.com/drawcard/drawcard/internal/types"
)

// ProcessPaymentRequest is one gateway webhook delivery, normalised.
type ProcessPaymentRequest struct {
	TransactionID string                 `json:"transaction_id"`
	EventKind     types.PaymentEventKind `json:"event_kind"`
	AccountID     string                 `json:"account_id"`
	PackageType   types.PackageType      `json:"package_type"`
	PackageID     string                 `json:"package_id"`
	// DrawID carries the originating draw for mini_draw and upsell purchases.
	DrawID string `json:"draw_id,omitempty"`
}

// Validate validates the request
func (r *ProcessPaymentRequest) Validate() error {
	if r.TransactionID == "" {
		return ierr.NewError("transaction_id is required").Mark(ierr.ErrValidation)
	}
	if r.EventKind == "" {
		return ierr.NewError("event_kind is required").Mark(ierr.ErrValidation)
	}
	if r.AccountID == "" {
		return ierr.NewError("account_id is required").Mark(ierr.ErrValidation)
	}
	if r.PackageID == "" {
		return ierr.NewError("package_id is required").Mark(ierr.ErrValidation)
	}
	return r.PackageType.Validate()
}

// ProcessPaymentResult reports what one delivery did.
type ProcessPaymentResult struct {
	// Duplicate: the ledger had already admitted this (transaction, kind)
	// pair; nothing was mutated. A successful no-op, not an error.
	Duplicate bool `json:"duplicate"`
	// Ignored: the event kind does not grant benefits.
	Ignored bool `json:"ignored"`

	Grant           *BenefitGrant `json:"grant,omitempty"`
	CreditedDraws   []string      `json:"credited_draws,omitempty"`
	DiscountGrantID string        `json:"discount_grant_id,omitempty"`
}

// GrantService is the benefit granting engine: it turns one admitted payment
// event into durable account state exactly once.
type GrantService interface {
	ProcessPayment(ctx context.Context, req *ProcessPaymentRequest) (*ProcessPaymentResult, error)
}

type grantService struct {
	ServiceParams
	benefits BenefitService
	schedule DiscountScheduleService
	draws    DrawService
}

// NewGrantService creates a new benefit granting engine.
func NewGrantService(params ServiceParams) GrantService {
	return &grantService{
		ServiceParams: params,
		benefits:      NewBenefitService(params),
		schedule:      NewDiscountScheduleService(params),
		draws:         NewDrawService(params),
	}
}

func (s *grantService) ProcessPayment(ctx context.Context, req *ProcessPaymentRequest) (*ProcessPaymentResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if !req.EventKind.GrantsBenefits() {
		s.Logger.Debugw("ignoring non-settling payment event",
			"transaction_id", req.TransactionID,
			"event_kind", req.EventKind,
		)
		return &ProcessPaymentResult{Ignored: true}, nil
	}

	now := time.Now().UTC()

	// Resolve first: benefit resolution is pure and the capacity pre-check
	// below needs the entry count. Failures here happen before admission and
	// are safely retried by the gateway.
	grant, err := s.benefits.Resolve(ctx, req.PackageType, req.PackageID, now)
	if err != nil {
		return nil, err
	}

	targetDraws, err := s.targetDraws(ctx, req, grant)
	if err != nil {
		return nil, err
	}

	// Pre-admission check: reject a mini-draw overflow while the event can
	// still be failed cleanly. The credit itself re-checks atomically.
	for _, drawID := range targetDraws {
		d, err := s.DrawRepo.Get(ctx, drawID)
		if err != nil {
			return nil, err
		}
		if err := d.CanAcceptEntries(grant.Entries); err != nil {
			return nil, err
		}
	}

	// Admission gate. The unique insert is the only synchronisation
	// primitive: everything below is reachable at most once per
	// (transaction, kind) across all processes.
	admitted, err := s.LedgerRepo.Admit(ctx, &ledger.ProcessedEvent{
		ID:            types.GenerateUUIDWithPrefix(types.UUIDPrefixProcessedEvent),
		TransactionID: req.TransactionID,
		EventKind:     req.EventKind,
		AccountID:     req.AccountID,
		PackageID:     req.PackageID,
		PackageType:   req.PackageType,
		Outcome: map[string]interface{}{
			"entries":       grant.Entries,
			"points":        grant.Points.String(),
			"discount_days": grant.DiscountDays,
		},
		ProcessedAt:   now,
		EnvironmentID: types.GetEnvironmentID(ctx),
		BaseModel:     types.GetDefaultBaseModel(ctx),
	})
	if err != nil {
		return nil, err
	}
	if !admitted {
		s.Logger.Infow("duplicate payment event, skipping",
			"transaction_id", req.TransactionID,
			"event_kind", req.EventKind,
		)
		return &ProcessPaymentResult{Duplicate: true}, nil
	}

	result := &ProcessPaymentResult{Grant: grant}

	// Past this point the ledger swallows any redelivery of this event, so a
	// failure cannot be retried: it becomes a reconciliation case instead.
	if err := s.applyBenefits(ctx, req, grant, targetDraws, now, result); err != nil {
		s.Sentry.CaptureReconciliation(ctx, err, req.TransactionID, string(req.EventKind), req.AccountID)
		return nil, ierr.WithError(err).
			WithHint("Event was admitted but downstream credits failed; manual reconciliation required").
			WithReportableDetails(map[string]interface{}{
				"transaction_id": req.TransactionID,
				"event_kind":     req.EventKind,
				"account_id":     req.AccountID,
			}).
			Mark(ierr.ErrReconciliationRequired)
	}

	s.track(ctx, req, grant)

	s.Logger.Infow("payment event processed",
		"transaction_id", req.TransactionID,
		"account_id", req.AccountID,
		"package_id", req.PackageID,
		"package_type", req.PackageType,
		"entries", grant.Entries,
		"points", grant.Points,
		"credited_draws", result.CreditedDraws,
	)
	return result, nil
}

// targetDraws resolves which draw(s) this purchase credits.
func (s *grantService) targetDraws(ctx context.Context, req *ProcessPaymentRequest, grant *BenefitGrant) ([]string, error) {
	if grant.Entries == 0 {
		return nil, nil
	}

	switch req.PackageType {
	case types.PackageTypeSubscription:
		// Subscriptions credit the current major draw and, if one is
		// running, the active mini draw.
		draws := []string{}
		if s.Config.Benefits.MajorDrawID != "" {
			draws = append(draws, s.Config.Benefits.MajorDrawID)
		}
		mini, err := s.DrawRepo.FindActiveMiniDraw(ctx)
		if err != nil {
			return nil, err
		}
		if mini != nil {
			draws = append(draws, mini.ID)
		}
		return draws, nil

	case types.PackageTypeOneTime:
		// One-time packages credit their named draw, defaulting to the
		// current major draw.
		if grant.DrawID != "" {
			return []string{grant.DrawID}, nil
		}
		if s.Config.Benefits.MajorDrawID != "" {
			return []string{s.Config.Benefits.MajorDrawID}, nil
		}
		return nil, nil

	case types.PackageTypeMiniDraw:
		drawID := grant.DrawID
		if req.DrawID != "" {
			drawID = req.DrawID
		}
		if drawID == "" {
			return nil, ierr.NewError("mini draw purchase names no draw").
				Mark(ierr.ErrValidation)
		}
		return []string{drawID}, nil

	case types.PackageTypeUpsell:
		// Upsells credit the draw implied by the originating purchase.
		if req.DrawID == "" {
			return nil, ierr.NewError("upsell purchase carries no originating draw").
				Mark(ierr.ErrValidation)
		}
		return []string{req.DrawID}, nil
	}

	return nil, nil
}

// applyBenefits runs steps 2-6 of the granting algorithm. Called only after
// admission; any error is escalated to a reconciliation case by the caller.
func (s *grantService) applyBenefits(
	ctx context.Context,
	req *ProcessPaymentRequest,
	grant *BenefitGrant,
	targetDraws []string,
	now time.Time,
	result *ProcessPaymentResult,
) error {
	for _, drawID := range targetDraws {
		if err := s.draws.Credit(ctx, drawID, req.AccountID, grant.Entries); err != nil {
			return err
		}
		result.CreditedDraws = append(result.CreditedDraws, drawID)
	}

	if grant.DiscountDays > 0 || grant.DiscountHours > 0 {
		dg, err := s.schedule.Enqueue(ctx, &dto.EnqueueGrantRequest{
			AccountID:     req.AccountID,
			PackageID:     grant.PackageID,
			PackageName:   grant.PackageName,
			PackageType:   grant.PackageType,
			DurationDays:  grant.DiscountDays,
			DurationHours: grant.DiscountHours,
			PurchasedAt:   now,
		})
		if err != nil {
			return err
		}
		result.DiscountGrantID = dg.ID
	}

	if err := s.AccountRepo.IncrementBalances(ctx, req.AccountID, grant.Entries, grant.Points); err != nil {
		return err
	}

	switch req.PackageType {
	case types.PackageTypeOneTime, types.PackageTypeMiniDraw:
		record := account.PurchaseRecord{
			PackageID:     grant.PackageID,
			PackageName:   grant.PackageName,
			PackageType:   grant.PackageType,
			TransactionID: req.TransactionID,
			Entries:       grant.Entries,
			Points:        grant.Points,
			PurchasedAt:   now,
		}
		if err := s.AccountRepo.AppendPurchase(ctx, req.AccountID, record); err != nil {
			return err
		}
	}

	return nil
}

// track emits the fire-and-forget marketing events for a successful grant.
func (s *grantService) track(ctx context.Context, req *ProcessPaymentRequest, grant *BenefitGrant) {
	if s.Tracker == nil {
		return
	}

	key := s.IdempotencyGen.GenerateKey(idempotency.ScopeMarketingEvent, map[string]interface{}{
		"transaction_id": req.TransactionID,
		"event_kind":     req.EventKind,
	})

	purchased := marketing.NewEvent(marketing.EventPackagePurchased, req.AccountID, map[string]interface{}{
		"package_id":   grant.PackageID,
		"package_name": grant.PackageName,
		"package_type": grant.PackageType,
	})
	purchased.IdempotencyKey = key
	s.Tracker.Track(ctx, purchased)

	if grant.Entries > 0 {
		added := marketing.NewEvent(marketing.EventEntriesAdded, req.AccountID, map[string]interface{}{
			"entries":    grant.Entries,
			"package_id": grant.PackageID,
			"multiplier": grant.Multiplier,
		})
		added.IdempotencyKey = key + ":entries"
		s.Tracker.Track(ctx, added)
	}
}
