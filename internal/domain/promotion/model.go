package promotion

import (
	"time"

	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/types"
	"github.com/samber/lo"
)

// Allowed promotional entry multipliers. Entries only ever scale by an
// integer factor.
var allowedMultipliers = []int64{2, 3, 5, 10}

// Promotion is a time-boxed entry multiplier applied to one package category.
// Subscriptions and upsells are never promotion-eligible.
type Promotion struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Category is the package type this promotion applies to: one_time or
	// mini_draw.
	Category types.PackageType `json:"category"`

	Multiplier int64 `json:"multiplier"`

	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`

	EnvironmentID string `json:"environment_id"`
	types.BaseModel
}

// IsActiveAt reports whether the promotion window covers the given instant.
func (p *Promotion) IsActiveAt(now time.Time) bool {
	return !now.Before(p.StartAt) && now.Before(p.EndAt)
}

// Validate validates the promotion
func (p *Promotion) Validate() error {
	if p.Name == "" {
		return ierr.NewError("promotion name is required").Mark(ierr.ErrValidation)
	}
	if !p.Category.PromotionEligible() {
		return ierr.NewErrorf("package category %s is not promotion eligible", p.Category).
			WithHint("Promotions apply only to one_time and mini_draw packages").
			Mark(ierr.ErrValidation)
	}
	if !lo.Contains(allowedMultipliers, p.Multiplier) {
		return ierr.NewErrorf("invalid promotion multiplier: %d", p.Multiplier).
			WithHint("Multiplier must be one of 2, 3, 5, 10").
			Mark(ierr.ErrValidation)
	}
	if !p.EndAt.After(p.StartAt) {
		return ierr.NewError("promotion end must be after start").Mark(ierr.ErrValidation)
	}
	return nil
}
