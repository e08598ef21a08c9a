package gateway

import (
	"context"
	"encoding/json"

	"github.com/drawcard/drawcard/internal/config"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/logger"
	"github.com/drawcard/drawcard/internal/types"
	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/webhook"
)

// stripeGateway implements Gateway on Stripe payment intents.
type stripeGateway struct {
	cfg *config.Configuration
	log *logger.Logger
}

// NewStripeGateway creates a Stripe-backed gateway.
func NewStripeGateway(cfg *config.Configuration, log *logger.Logger) Gateway {
	stripe.Key = cfg.Stripe.SecretKey
	return &stripeGateway{cfg: cfg, log: log}
}

// eventKinds maps Stripe payment intent event types onto the ledger's event
// kinds. Anything absent here is acknowledged and ignored.
var eventKinds = map[stripe.EventType]types.PaymentEventKind{
	stripe.EventTypePaymentIntentSucceeded:      types.PaymentEventSucceeded,
	stripe.EventTypePaymentIntentProcessing:     types.PaymentEventProcessing,
	stripe.EventTypePaymentIntentRequiresAction: types.PaymentEventRequiresAction,
	stripe.EventTypePaymentIntentPaymentFailed:  types.PaymentEventFailed,
}

func (g *stripeGateway) ParseWebhookEvent(payload []byte, signature string) (*PaymentEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.cfg.Stripe.WebhookSecret)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Webhook signature verification failed").
			Mark(ierr.ErrPermissionDenied)
	}

	kind, ok := eventKinds[event.Type]
	if !ok {
		g.log.Debugw("ignoring unhandled gateway event type", "type", event.Type)
		return nil, nil
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Malformed payment intent payload").
			Mark(ierr.ErrValidation)
	}

	meta := PaymentMetadata{
		AccountID:   intent.Metadata["account_id"],
		PackageType: types.PackageType(intent.Metadata["package_type"]),
		PackageID:   intent.Metadata["package_id"],
		DrawID:      intent.Metadata["draw_id"],
	}

	return &PaymentEvent{
		TransactionID: intent.ID,
		Kind:          kind,
		Amount:        decimal.NewFromInt(intent.Amount).Div(decimal.NewFromInt(100)),
		Currency:      string(intent.Currency),
		Metadata:      meta,
	}, nil
}

func (g *stripeGateway) ChargeProration(ctx context.Context, req ProrationChargeRequest) (*ProrationCharge, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(req.Amount.Mul(decimal.NewFromInt(100)).IntPart()),
		Currency:    stripe.String(req.Currency),
		Customer:    stripe.String(req.GatewayCustomerID),
		Description: stripe.String(req.Description),
		Confirm:     stripe.Bool(true),
		OffSession:  stripe.Bool(true),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("The proration charge was declined by the payment provider").
			WithReportableDetails(map[string]interface{}{
				"account_id": req.AccountID,
				"amount":     req.Amount.String(),
			}).
			Mark(ierr.ErrPaymentRequired)
	}

	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, ierr.NewErrorf("proration charge did not settle: %s", intent.Status).
			WithHint("The proration charge requires further action and cannot be completed off-session").
			WithReportableDetails(map[string]interface{}{
				"account_id": req.AccountID,
				"intent_id":  intent.ID,
				"status":     intent.Status,
			}).
			Mark(ierr.ErrPaymentRequired)
	}

	return &ProrationCharge{
		TransactionID: intent.ID,
		Amount:        req.Amount,
		Currency:      req.Currency,
	}, nil
}
