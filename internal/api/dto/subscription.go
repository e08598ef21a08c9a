package dto

import (
	"time"

	"github.com/drawcard/drawcard/internal/domain/subscription"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/types"
	"github.com/shopspring/decimal"
)

// ChangeSubscriptionRequest asks to move the account's subscription to a
// different package.
type ChangeSubscriptionRequest struct {
	TargetPackageID string `json:"target_package_id" binding:"required"`
}

// Validate validates the request
func (r *ChangeSubscriptionRequest) Validate() error {
	if r.TargetPackageID == "" {
		return ierr.NewError("target_package_id is required").Mark(ierr.ErrValidation)
	}
	return nil
}

// PendingChangeResponse is the API shape of an in-flight change.
type PendingChangeResponse struct {
	Kind            types.PendingChangeKind  `json:"kind"`
	TargetPackageID string                   `json:"target_package_id,omitempty"`
	EffectiveUntil  *time.Time               `json:"effective_until,omitempty"`
	PreviousPackage *BenefitSnapshotResponse `json:"previous_package,omitempty"`
}

// BenefitSnapshotResponse is a frozen package benefit set.
type BenefitSnapshotResponse struct {
	PackageID       string          `json:"package_id"`
	PackageName     string          `json:"package_name"`
	Price           decimal.Decimal `json:"price"`
	EntriesPerMonth int64           `json:"entries_per_month"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// SubscriptionResponse is the API shape of a subscription.
type SubscriptionResponse struct {
	ID                 string                 `json:"id"`
	AccountID          string                 `json:"account_id"`
	PackageID          string                 `json:"package_id"`
	StartDate          time.Time              `json:"start_date"`
	CurrentPeriodStart time.Time              `json:"current_period_start"`
	CurrentPeriodEnd   time.Time              `json:"current_period_end"`
	AutoRenew          bool                   `json:"auto_renew"`
	BillingStatus      types.BillingStatus    `json:"billing_status"`
	Active             bool                   `json:"active"`
	PendingChange      *PendingChangeResponse `json:"pending_change,omitempty"`
}

// NewSubscriptionResponse converts a domain subscription to its API shape.
func NewSubscriptionResponse(sub *subscription.Subscription) *SubscriptionResponse {
	resp := &SubscriptionResponse{
		ID:                 sub.ID,
		AccountID:          sub.AccountID,
		PackageID:          sub.PackageID,
		StartDate:          sub.StartDate,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		AutoRenew:          sub.AutoRenew,
		BillingStatus:      sub.BillingStatus,
		Active:             sub.Active,
	}
	if !sub.PendingChange.None() {
		pc := &PendingChangeResponse{
			Kind:            sub.PendingChange.Kind,
			TargetPackageID: sub.PendingChange.TargetPackageID,
			EffectiveUntil:  sub.PendingChange.EffectiveUntil,
		}
		if prev := sub.PendingChange.PreviousBenefits; prev != nil {
			pc.PreviousPackage = &BenefitSnapshotResponse{
				PackageID:       prev.PackageID,
				PackageName:     prev.PackageName,
				Price:           prev.Price,
				EntriesPerMonth: prev.EntriesPerMonth,
				DiscountPercent: prev.DiscountPercent,
			}
		}
		resp.PendingChange = pc
	}
	return resp
}
