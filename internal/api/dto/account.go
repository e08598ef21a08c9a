package dto

import (
	"time"

	"github.com/drawcard/drawcard/internal/domain/account"
	"github.com/shopspring/decimal"
)

// PurchaseRecordResponse is one entry of an account's purchase history.
type PurchaseRecordResponse struct {
	PackageID     string          `json:"package_id"`
	PackageName   string          `json:"package_name"`
	PackageType   string          `json:"package_type"`
	TransactionID string          `json:"transaction_id"`
	Entries       int64           `json:"entries"`
	Points        decimal.Decimal `json:"points"`
	PurchasedAt   time.Time       `json:"purchased_at"`
}

// AccountStateResponse is the account's full benefit state: balances,
// purchase history, the current discount schedule and the effective
// subscription benefits.
type AccountStateResponse struct {
	ID      string          `json:"id"`
	Entries int64           `json:"entries"`
	Points  decimal.Decimal `json:"points"`

	OneTimePackages  []PurchaseRecordResponse `json:"one_time_packages"`
	MiniDrawPackages []PurchaseRecordResponse `json:"mini_draw_packages"`

	DiscountSchedule *DiscountScheduleResponse `json:"discount_schedule"`
	Subscription     *SubscriptionResponse     `json:"subscription,omitempty"`

	// EffectiveBenefits reflects the downgrade preservation window when one
	// is in force; otherwise the live package's benefits.
	EffectiveBenefits *BenefitSnapshotResponse `json:"effective_benefits,omitempty"`
}

// NewPurchaseRecordResponse converts a domain purchase record.
func NewPurchaseRecordResponse(r account.PurchaseRecord) PurchaseRecordResponse {
	return PurchaseRecordResponse{
		PackageID:     r.PackageID,
		PackageName:   r.PackageName,
		PackageType:   string(r.PackageType),
		TransactionID: r.TransactionID,
		Entries:       r.Entries,
		Points:        r.Points,
		PurchasedAt:   r.PurchasedAt,
	}
}
