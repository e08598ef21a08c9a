package types

import (
	ierr "github.com/drawcard/drawcard/internal/errors"
)

// PackageType discriminates the tagged Package union. Every purchasable item
// is exactly one of these; call sites never coerce one shape into another.
type PackageType string

const (
	PackageTypeSubscription PackageType = "subscription"
	PackageTypeOneTime      PackageType = "one_time"
	PackageTypeMiniDraw     PackageType = "mini_draw"
	PackageTypeUpsell       PackageType = "upsell"
)

func (t PackageType) String() string {
	return string(t)
}

// Validate checks the package type is a known member of the union.
func (t PackageType) Validate() error {
	switch t {
	case PackageTypeSubscription, PackageTypeOneTime, PackageTypeMiniDraw, PackageTypeUpsell:
		return nil
	default:
		return ierr.NewErrorf("invalid package type: %s", t).
			WithHint("Package type must be one of subscription, one_time, mini_draw, upsell").
			Mark(ierr.ErrValidation)
	}
}

// PromotionEligible reports whether packages of this type participate in
// promotional multipliers. Subscriptions and upsells never do.
func (t PackageType) PromotionEligible() bool {
	return t == PackageTypeOneTime || t == PackageTypeMiniDraw
}
