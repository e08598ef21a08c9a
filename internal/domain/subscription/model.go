package subscription

import (
	"time"

	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/types"
	"github.com/shopspring/decimal"
)

// Subscription is the account's membership state. PendingChange is an
// explicit tagged variant: either nothing, an upgrade being charged, or a
// downgrade's benefit-preservation window. Never both.
type Subscription struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`

	// PackageID is the live package for billing display. During a downgrade
	// preservation window the effective benefits still come from
	// PendingChange.PreviousBenefits until EffectiveUntil passes.
	PackageID string `json:"package_id"`

	StartDate          time.Time           `json:"start_date"`
	CurrentPeriodStart time.Time           `json:"current_period_start"`
	CurrentPeriodEnd   time.Time           `json:"current_period_end"`
	AutoRenew          bool                `json:"auto_renew"`
	BillingStatus      types.BillingStatus `json:"billing_status"`
	Active             bool                `json:"active"`

	// Gateway-side identifiers used for proration charges.
	GatewayCustomerID     string `json:"gateway_customer_id,omitempty"`
	GatewaySubscriptionID string `json:"gateway_subscription_id,omitempty"`

	PendingChange PendingChange `json:"pending_change"`

	EnvironmentID string `json:"environment_id"`
	types.BaseModel
}

// PendingChange is the tagged in-flight change. Kind none means both payloads
// are zero.
type PendingChange struct {
	Kind types.PendingChangeKind `json:"kind"`

	// TargetPackageID is the package the subscription is moving to.
	TargetPackageID string `json:"target_package_id,omitempty"`

	// PreviousBenefits snapshots the outgoing package's benefits during a
	// downgrade preservation window.
	PreviousBenefits *BenefitSnapshot `json:"previous_benefits,omitempty"`

	// EffectiveUntil is the end of a downgrade's preservation window: the
	// current billing-cycle end at the time the downgrade was requested.
	EffectiveUntil *time.Time `json:"effective_until,omitempty"`
}

// BenefitSnapshot freezes a package's benefits at the moment of a change.
type BenefitSnapshot struct {
	PackageID       string          `json:"package_id"`
	PackageName     string          `json:"package_name"`
	Price           decimal.Decimal `json:"price"`
	EntriesPerMonth int64           `json:"entries_per_month"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// None reports whether no change is in flight.
func (p PendingChange) None() bool {
	return p.Kind == "" || p.Kind == types.PendingChangeNone
}

// Expired reports whether the change is a downgrade whose preservation window
// has already passed. An expired downgrade is settled, not in flight.
func (p PendingChange) Expired(now time.Time) bool {
	return p.Kind == types.PendingChangeDowngrade &&
		p.EffectiveUntil != nil &&
		!now.Before(*p.EffectiveUntil)
}

// EffectiveBenefits returns the benefit snapshot that applies right now: the
// preserved previous package during an unexpired downgrade window, otherwise
// nil (meaning: evaluate the live package).
func (s *Subscription) EffectiveBenefits(now time.Time) *BenefitSnapshot {
	if s.PendingChange.Kind != types.PendingChangeDowngrade {
		return nil
	}
	if s.PendingChange.EffectiveUntil == nil || !now.Before(*s.PendingChange.EffectiveUntil) {
		return nil
	}
	return s.PendingChange.PreviousBenefits
}

// Validate validates the subscription
func (s *Subscription) Validate() error {
	if s.AccountID == "" {
		return ierr.NewError("account_id is required").Mark(ierr.ErrValidation)
	}
	if s.PackageID == "" {
		return ierr.NewError("package_id is required").Mark(ierr.ErrValidation)
	}
	switch s.PendingChange.Kind {
	case "", types.PendingChangeNone:
	case types.PendingChangeUpgrade:
		if s.PendingChange.TargetPackageID == "" {
			return ierr.NewError("upgrade requires a target package").Mark(ierr.ErrValidation)
		}
	case types.PendingChangeDowngrade:
		if s.PendingChange.PreviousBenefits == nil || s.PendingChange.EffectiveUntil == nil {
			return ierr.NewError("downgrade requires a benefit snapshot and end date").
				Mark(ierr.ErrValidation)
		}
	default:
		return ierr.NewErrorf("invalid pending change kind: %s", s.PendingChange.Kind).
			Mark(ierr.ErrValidation)
	}
	return nil
}
