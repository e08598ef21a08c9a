package discount

import (
	"time"

	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/types"
)

// Grant is one purchased block of partner-discount access. Grants queue FIFO
// per account: the position is assigned at insertion and activation windows
// are populated only when a grant becomes active, so windows never overlap
// and order is independent of duration.
type Grant struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`

	PackageID   string            `json:"package_id"`
	PackageName string            `json:"package_name"`
	PackageType types.PackageType `json:"package_type"`

	DurationDays  int `json:"duration_days"`
	DurationHours int `json:"duration_hours,omitempty"`

	// QueuePosition is monotonically increasing per account, assigned at
	// insertion, never reordered.
	QueuePosition int64 `json:"queue_position"`

	PurchasedAt time.Time `json:"purchased_at"`

	// Activation window, populated once the grant becomes active.
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	EnvironmentID string `json:"environment_id"`
	types.BaseModel
}

// Duration returns the total granted window length.
func (g *Grant) Duration() time.Duration {
	return time.Duration(g.DurationDays)*24*time.Hour +
		time.Duration(g.DurationHours)*time.Hour
}

// StatusAt derives the lifecycle status at the given instant.
func (g *Grant) StatusAt(now time.Time) types.DiscountGrantStatus {
	if g.StartDate == nil || g.EndDate == nil {
		return types.DiscountGrantStatusQueued
	}
	if now.Before(*g.EndDate) {
		return types.DiscountGrantStatusActive
	}
	return types.DiscountGrantStatusExpired
}

// IsActiveAt reports whether the grant's window covers the given instant.
func (g *Grant) IsActiveAt(now time.Time) bool {
	return g.StatusAt(now) == types.DiscountGrantStatusActive
}

// Validate validates the grant
func (g *Grant) Validate() error {
	if g.AccountID == "" {
		return ierr.NewError("account_id is required").Mark(ierr.ErrValidation)
	}
	if g.PackageID == "" {
		return ierr.NewError("package_id is required").Mark(ierr.ErrValidation)
	}
	if g.DurationDays < 0 || g.DurationHours < 0 {
		return ierr.NewError("grant duration cannot be negative").Mark(ierr.ErrValidation)
	}
	if g.DurationDays == 0 && g.DurationHours == 0 {
		return ierr.NewError("grant duration is required").Mark(ierr.ErrValidation)
	}
	return nil
}
