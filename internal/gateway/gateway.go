package gateway

import (
	"context"

	"github.com/drawcard/drawcard/internal/types"
	"github.com/shopspring/decimal"
)

// PaymentEvent is a gateway webhook normalised to what the benefit core
// needs: a unique transaction identifier, the event kind, and the purchase
// metadata attached at checkout time.
type PaymentEvent struct {
	TransactionID string                 `json:"transaction_id"`
	Kind          types.PaymentEventKind `json:"kind"`
	Amount        decimal.Decimal        `json:"amount"`
	Currency      string                 `json:"currency"`
	Metadata      PaymentMetadata        `json:"metadata"`
}

// PaymentMetadata identifies what was purchased. For mini-draw and upsell
// purchases DrawID carries the originating draw/offer identifier.
type PaymentMetadata struct {
	AccountID   string            `json:"account_id"`
	PackageType types.PackageType `json:"package_type"`
	PackageID   string            `json:"package_id"`
	DrawID      string            `json:"draw_id,omitempty"`
}

// ProrationChargeRequest is an immediate off-session charge for the prorated
// difference of a subscription upgrade.
type ProrationChargeRequest struct {
	AccountID         string
	GatewayCustomerID string
	Amount            decimal.Decimal
	Currency          string
	Description       string
	// IdempotencyKey prevents a retried upgrade request from double-charging.
	IdempotencyKey string
}

// ProrationCharge is the settled result of a proration charge.
type ProrationCharge struct {
	TransactionID string
	Amount        decimal.Decimal
	Currency      string
}

// Gateway abstracts the payment provider. The provider itself is an external
// collaborator; only webhook parsing and the upgrade proration charge are
// consumed here.
type Gateway interface {
	// ParseWebhookEvent verifies the payload signature and normalises the
	// event. Unknown event types return (nil, nil): acknowledged, ignored.
	ParseWebhookEvent(payload []byte, signature string) (*PaymentEvent, error)

	// ChargeProration performs an immediate off-session charge. A decline is
	// returned marked ErrPaymentRequired.
	ChargeProration(ctx context.Context, req ProrationChargeRequest) (*ProrationCharge, error)
}
