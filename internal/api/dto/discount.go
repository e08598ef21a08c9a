package dto

import (
	"time"

	"github.com/drawcard/drawcard/internal/domain/discount"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/types"
	"github.com/shopspring/decimal"
)

// ActivePeriodResponse describes what backs partner-discount access right
// now: an open-ended subscription period or a purchased grant window.
type ActivePeriodResponse struct {
	Source      types.DiscountSourceKind `json:"source"`
	PackageID   string                   `json:"package_id"`
	PackageName string                   `json:"package_name"`

	// DiscountPercent is set for subscription-backed periods.
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`

	// Window; EndDate is nil for open-ended subscription periods.
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	// QueuePosition is set for grant-backed periods.
	QueuePosition *int64 `json:"queue_position,omitempty"`
}

// QueuedGrantResponse is one grant waiting its turn, position preserved for
// display.
type QueuedGrantResponse struct {
	GrantID       string    `json:"grant_id"`
	PackageID     string    `json:"package_id"`
	PackageName   string    `json:"package_name"`
	QueuePosition int64     `json:"queue_position"`
	DurationDays  int       `json:"duration_days"`
	DurationHours int       `json:"duration_hours,omitempty"`
	PurchasedAt   time.Time `json:"purchased_at"`
}

// ScheduleTotals summarises the backlog.
type ScheduleTotals struct {
	QueuedCount int `json:"queued_count"`
	QueuedDays  int `json:"queued_days"`
	QueuedHours int `json:"queued_hours"`
}

// DiscountScheduleResponse is the account-facing discount schedule state.
type DiscountScheduleResponse struct {
	ActivePeriod *ActivePeriodResponse `json:"active_period,omitempty"`
	Queued       []QueuedGrantResponse `json:"queued"`
	Totals       ScheduleTotals        `json:"totals"`
}

// NewQueuedGrantResponse converts a domain grant to its display shape.
func NewQueuedGrantResponse(g *discount.Grant) QueuedGrantResponse {
	return QueuedGrantResponse{
		GrantID:       g.ID,
		PackageID:     g.PackageID,
		PackageName:   g.PackageName,
		QueuePosition: g.QueuePosition,
		DurationDays:  g.DurationDays,
		DurationHours: g.DurationHours,
		PurchasedAt:   g.PurchasedAt,
	}
}

// EnqueueGrantRequest is the internal input for enqueueing a discount grant.
type EnqueueGrantRequest struct {
	AccountID     string            `json:"account_id"`
	PackageID     string            `json:"package_id"`
	PackageName   string            `json:"package_name"`
	PackageType   types.PackageType `json:"package_type"`
	DurationDays  int               `json:"duration_days"`
	DurationHours int               `json:"duration_hours"`
	PurchasedAt   time.Time         `json:"purchased_at"`
}

// Validate validates the request
func (r *EnqueueGrantRequest) Validate() error {
	if r.AccountID == "" {
		return ierr.NewError("account_id is required").Mark(ierr.ErrValidation)
	}
	if r.PackageID == "" {
		return ierr.NewError("package_id is required").Mark(ierr.ErrValidation)
	}
	if r.DurationDays <= 0 && r.DurationHours <= 0 {
		return ierr.NewError("grant duration is required").Mark(ierr.ErrValidation)
	}
	return nil
}
