package catalog

import (
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/types"
	"github.com/shopspring/decimal"
)

// Package is the tagged union of everything purchasable. Type discriminates;
// consumers read the fields meaningful for that type and never coerce one
// shape into another.
type Package struct {
	ID   string            `json:"id"`
	Name string            `json:"name"`
	Type types.PackageType `json:"type"`

	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`

	// Entries per purchase (one_time, mini_draw, upsell).
	Entries int64 `json:"entries,omitempty"`
	// EntriesPerMonth for subscriptions.
	EntriesPerMonth int64 `json:"entries_per_month,omitempty"`

	// Partner-discount grant carried by the package.
	DiscountDays  int `json:"discount_days,omitempty"`
	DiscountHours int `json:"discount_hours,omitempty"`

	// DiscountPercent is the open-ended partner discount a subscription
	// provides while active.
	DiscountPercent decimal.Decimal `json:"discount_percent,omitempty"`

	// DrawID ties a mini_draw package to its draw.
	DrawID string `json:"draw_id,omitempty"`

	EnvironmentID string `json:"environment_id"`
	types.BaseModel
}

// EntriesForPurchase returns the entry count one purchase of this package
// yields before promotion multipliers.
func (p *Package) EntriesForPurchase() int64 {
	if p.Type == types.PackageTypeSubscription {
		return p.EntriesPerMonth
	}
	return p.Entries
}

// Validate validates the package
func (p *Package) Validate() error {
	if p.Name == "" {
		return ierr.NewError("package name is required").Mark(ierr.ErrValidation)
	}
	if err := p.Type.Validate(); err != nil {
		return err
	}
	if p.Price.IsNegative() {
		return ierr.NewError("package price cannot be negative").Mark(ierr.ErrValidation)
	}
	if p.Type == types.PackageTypeMiniDraw && p.DrawID == "" {
		return ierr.NewError("mini draw packages must reference a draw").
			Mark(ierr.ErrValidation)
	}
	return nil
}
