package account

import (
	"time"

	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/types"
	"github.com/shopspring/decimal"
)

// Account holds a user's durable benefit balances. Balances only ever grow
// here; decrements happen through redemption or admin correction elsewhere.
type Account struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id,omitempty"`
	Email      string `json:"email,omitempty"`

	// Entries is the accumulated sweepstake entry wallet.
	Entries int64 `json:"entries"`
	// Points is the reward point balance.
	Points decimal.Decimal `json:"points"`

	// SubscriptionID links the current subscription, if any.
	SubscriptionID string `json:"subscription_id,omitempty"`

	// Purchase history, ordered by purchase time. Kept for audit and future
	// claim-eligibility checks.
	OneTimePackages  []PurchaseRecord `json:"one_time_packages,omitempty"`
	MiniDrawPackages []PurchaseRecord `json:"mini_draw_packages,omitempty"`

	EnvironmentID string `json:"environment_id"`
	types.BaseModel
}

// PurchaseRecord is one package purchase appended to an account's history.
type PurchaseRecord struct {
	PackageID     string            `json:"package_id"`
	PackageName   string            `json:"package_name"`
	PackageType   types.PackageType `json:"package_type"`
	TransactionID string            `json:"transaction_id"`
	Entries       int64             `json:"entries"`
	Points        decimal.Decimal   `json:"points"`
	PurchasedAt   time.Time         `json:"purchased_at"`
}

// Validate validates the account
func (a *Account) Validate() error {
	if a.ID == "" {
		return ierr.NewError("account id is required").Mark(ierr.ErrValidation)
	}
	if a.Entries < 0 {
		return ierr.NewError("entries cannot be negative").Mark(ierr.ErrValidation)
	}
	if a.Points.IsNegative() {
		return ierr.NewError("points cannot be negative").Mark(ierr.ErrValidation)
	}
	return nil
}
