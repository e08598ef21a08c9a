package service

import (
	"context"
	"fmt"
	"time"

	"github.com/drawcard/drawcard/internal/api/dto"
	"github.com/drawcard/drawcard/internal/domain/catalog"
	"github.com/drawcard/drawcard/internal/domain/subscription"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/gateway"
	"github.com/drawcard/drawcard/internal/idempotency"
	"github.com/drawcard/drawcard/internal/marketing"
	"github.com/drawcard/drawcard/internal/types"
	"github.com/shopspring/decimal"
)

// SubscriptionChangeService orchestrates upgrades and downgrades. Upgrades
// are charged and effective immediately; downgrades defer both billing and
// benefit cutover to the end of the current cycle.
type SubscriptionChangeService interface {
	// Upgrade moves to a strictly more expensive package: the prorated
	// difference is charged now and the new benefits apply from this moment.
	Upgrade(ctx context.Context, accountID string, req *dto.ChangeSubscriptionRequest) (*dto.SubscriptionResponse, error)

	// Downgrade moves to a strictly cheaper package at the next billing
	// date, preserving the old package's benefits until the cycle ends.
	Downgrade(ctx context.Context, accountID string, req *dto.ChangeSubscriptionRequest) (*dto.SubscriptionResponse, error)

	// EffectiveBenefits resolves the benefits that apply to the account right
	// now, consulting the downgrade preservation snapshot first.
	EffectiveBenefits(ctx context.Context, accountID string, now time.Time) (*subscription.BenefitSnapshot, error)
}

type subscriptionChangeService struct {
	ServiceParams
}

// NewSubscriptionChangeService creates a new subscription change orchestrator.
func NewSubscriptionChangeService(params ServiceParams) SubscriptionChangeService {
	return &subscriptionChangeService{ServiceParams: params}
}

func (s *subscriptionChangeService) Upgrade(ctx context.Context, accountID string, req *dto.ChangeSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, current, target, err := s.loadChangeContext(ctx, accountID, req.TargetPackageID)
	if err != nil {
		return nil, err
	}

	if !target.Price.GreaterThan(current.Price) {
		return nil, ierr.NewError("target package is not an upgrade").
			WithHint("Upgrades require a strictly more expensive package").
			WithReportableDetails(map[string]interface{}{
				"current_price": current.Price,
				"target_price":  target.Price,
			}).
			Mark(ierr.ErrValidation)
	}

	now := time.Now().UTC()
	charge := s.prorate(target.Price.Sub(current.Price), sub, now)

	// Charge before any state change: a declined proration leaves the
	// subscription exactly as it was.
	if charge.IsPositive() {
		key := s.IdempotencyGen.GenerateKey(idempotency.ScopeProrationCharge, map[string]interface{}{
			"subscription_id": sub.ID,
			"target_package":  target.ID,
			"period_end":      sub.CurrentPeriodEnd.Unix(),
		})
		_, err := s.Gateway.ChargeProration(ctx, gateway.ProrationChargeRequest{
			AccountID:         accountID,
			GatewayCustomerID: sub.GatewayCustomerID,
			Amount:            charge,
			Currency:          target.Currency,
			Description:       fmt.Sprintf("Upgrade to %s (prorated)", target.Name),
			IdempotencyKey:    key,
		})
		if err != nil {
			return nil, err
		}
	}

	sub.PackageID = target.ID
	sub.PendingChange = subscription.PendingChange{Kind: types.PendingChangeNone}
	sub.UpdatedAt = now
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		// The charge has settled; losing the swap is a reconciliation case.
		s.Sentry.CaptureReconciliation(ctx, err, sub.ID, "subscription_upgrade", accountID)
		return nil, ierr.WithError(err).
			WithHint("Proration was charged but the package swap failed; manual reconciliation required").
			Mark(ierr.ErrReconciliationRequired)
	}

	s.trackChange(ctx, accountID, "upgrade", current, target)
	s.Logger.Infow("subscription upgraded",
		"account_id", accountID,
		"subscription_id", sub.ID,
		"from_package", current.ID,
		"to_package", target.ID,
		"prorated_charge", charge,
	)
	return dto.NewSubscriptionResponse(sub), nil
}

func (s *subscriptionChangeService) Downgrade(ctx context.Context, accountID string, req *dto.ChangeSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, current, target, err := s.loadChangeContext(ctx, accountID, req.TargetPackageID)
	if err != nil {
		return nil, err
	}

	if !target.Price.LessThan(current.Price) {
		return nil, ierr.NewError("target package is not a downgrade").
			WithHint("Downgrades require a strictly cheaper package").
			WithReportableDetails(map[string]interface{}{
				"current_price": current.Price,
				"target_price":  target.Price,
			}).
			Mark(ierr.ErrInvalidDowngrade)
	}

	now := time.Now().UTC()
	effectiveUntil := sub.CurrentPeriodEnd

	// No immediate charge and no change of billing anchor: the billing
	// system starts charging the new price at the next natural billing date.
	// Until then the old package's benefits are preserved in the snapshot.
	sub.PackageID = target.ID
	sub.PendingChange = subscription.PendingChange{
		Kind:            types.PendingChangeDowngrade,
		TargetPackageID: target.ID,
		PreviousBenefits: &subscription.BenefitSnapshot{
			PackageID:       current.ID,
			PackageName:     current.Name,
			Price:           current.Price,
			EntriesPerMonth: current.EntriesPerMonth,
			DiscountPercent: current.DiscountPercent,
		},
		EffectiveUntil: &effectiveUntil,
	}
	sub.UpdatedAt = now

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.trackChange(ctx, accountID, "downgrade", current, target)
	s.Logger.Infow("subscription downgrade scheduled",
		"account_id", accountID,
		"subscription_id", sub.ID,
		"from_package", current.ID,
		"to_package", target.ID,
		"benefits_preserved_until", effectiveUntil,
	)
	return dto.NewSubscriptionResponse(sub), nil
}

func (s *subscriptionChangeService) EffectiveBenefits(ctx context.Context, accountID string, now time.Time) (*subscription.BenefitSnapshot, error) {
	sub, err := s.SubRepo.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if sub == nil || !sub.Active {
		return nil, nil
	}

	// A downgrade preservation window wins over the live package.
	if preserved := sub.EffectiveBenefits(now); preserved != nil {
		return preserved, nil
	}

	pkg, err := s.CatalogRepo.Get(ctx, sub.PackageID)
	if err != nil {
		return nil, err
	}
	return &subscription.BenefitSnapshot{
		PackageID:       pkg.ID,
		PackageName:     pkg.Name,
		Price:           pkg.Price,
		EntriesPerMonth: pkg.EntriesPerMonth,
		DiscountPercent: pkg.DiscountPercent,
	}, nil
}

// loadChangeContext validates the shared preconditions of both transitions:
// an active subscription, no change already in flight, a known target package
// distinct from the current one.
func (s *subscriptionChangeService) loadChangeContext(ctx context.Context, accountID, targetPackageID string) (*subscription.Subscription, *catalog.Package, *catalog.Package, error) {
	sub, err := s.SubRepo.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, nil, nil, err
	}
	if sub == nil || !sub.Active {
		return nil, nil, nil, ierr.NewError("account has no active subscription").
			WithReportableDetails(map[string]interface{}{
				"account_id": accountID,
			}).
			Mark(ierr.ErrInvalidState)
	}

	// A downgrade that already took effect at the cycle boundary no longer
	// blocks changes. Clear it here; the next subscription write persists the
	// cleared state.
	if sub.PendingChange.Expired(time.Now().UTC()) {
		sub.PendingChange = subscription.PendingChange{Kind: types.PendingChangeNone}
	}

	if !sub.PendingChange.None() {
		return nil, nil, nil, ierr.NewError("a subscription change is already in flight").
			WithHint("Wait for the pending change to take effect before requesting another").
			WithReportableDetails(map[string]interface{}{
				"account_id": accountID,
				"kind":       sub.PendingChange.Kind,
			}).
			Mark(ierr.ErrPendingChangeExists)
	}

	if sub.PackageID == targetPackageID {
		return nil, nil, nil, ierr.NewError("target package equals the current package").
			Mark(ierr.ErrValidation)
	}

	current, err := s.CatalogRepo.Get(ctx, sub.PackageID)
	if err != nil {
		return nil, nil, nil, err
	}
	target, err := s.CatalogRepo.Get(ctx, targetPackageID)
	if err != nil {
		return nil, nil, nil, err
	}
	if target.Type != types.PackageTypeSubscription {
		return nil, nil, nil, ierr.NewError("target package is not a subscription").
			Mark(ierr.ErrValidation)
	}

	return sub, current, target, nil
}

// prorate scales a monthly price difference by the fraction of the current
// billing cycle remaining, rounded to cents.
func (s *subscriptionChangeService) prorate(diff decimal.Decimal, sub *subscription.Subscription, now time.Time) decimal.Decimal {
	total := sub.CurrentPeriodEnd.Sub(sub.CurrentPeriodStart)
	remaining := sub.CurrentPeriodEnd.Sub(now)
	if total <= 0 || remaining <= 0 {
		return decimal.Zero
	}
	if remaining > total {
		remaining = total
	}
	fraction := decimal.NewFromFloat(remaining.Seconds()).Div(decimal.NewFromFloat(total.Seconds()))
	return diff.Mul(fraction).Round(2)
}

func (s *subscriptionChangeService) trackChange(ctx context.Context, accountID, change string, from, to *catalog.Package) {
	if s.Tracker == nil {
		return
	}
	s.Tracker.Track(ctx, marketing.NewEvent(marketing.EventSubscriptionChanged, accountID, map[string]interface{}{
		"change":       change,
		"from_package": from.ID,
		"to_package":   to.ID,
	}))
}
