package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/gateway"
)

// FakeGateway implements gateway.Gateway for service tests. Webhook payloads
// are plain JSON-encoded PaymentEvents; proration charges are recorded and
// deduplicated by idempotency key, and can be scripted to decline.
type FakeGateway struct {
	mu sync.Mutex

	// DeclineCharges makes ChargeProration fail with ErrPaymentRequired.
	DeclineCharges bool
	// FailCharges makes ChargeProration fail with ErrHTTPClient, simulating a
	// gateway outage rather than a decline.
	FailCharges bool

	charges       []gateway.ProrationChargeRequest
	chargesByKey  map[string]*gateway.ProrationCharge
	chargeCounter int
}

// NewFakeGateway creates a new fake payment gateway
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		chargesByKey: make(map[string]*gateway.ProrationCharge),
	}
}

func (g *FakeGateway) ParseWebhookEvent(payload []byte, signature string) (*gateway.PaymentEvent, error) {
	var event gateway.PaymentEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Webhook payload could not be parsed").
			Mark(ierr.ErrValidation)
	}
	if event.Kind == "" {
		return nil, nil
	}
	return &event, nil
}

func (g *FakeGateway) ChargeProration(ctx context.Context, req gateway.ProrationChargeRequest) (*gateway.ProrationCharge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.FailCharges {
		return nil, ierr.NewError("gateway unreachable").
			Mark(ierr.ErrHTTPClient)
	}
	if g.DeclineCharges {
		return nil, ierr.NewError("card declined").
			WithHint("The proration charge was declined by the payment provider").
			Mark(ierr.ErrPaymentRequired)
	}

	if req.IdempotencyKey != "" {
		if existing, ok := g.chargesByKey[req.IdempotencyKey]; ok {
			return existing, nil
		}
	}

	g.chargeCounter++
	charge := &gateway.ProrationCharge{
		TransactionID: fmt.Sprintf("txn_fake_%d", g.chargeCounter),
		Amount:        req.Amount,
		Currency:      req.Currency,
	}
	g.charges = append(g.charges, req)
	if req.IdempotencyKey != "" {
		g.chargesByKey[req.IdempotencyKey] = charge
	}
	return charge, nil
}

// Charges returns the charge requests recorded so far.
func (g *FakeGateway) Charges() []gateway.ProrationChargeRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gateway.ProrationChargeRequest(nil), g.charges...)
}

// Reset clears recorded charges and scripted behavior.
func (g *FakeGateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.DeclineCharges = false
	g.FailCharges = false
	g.charges = nil
	g.chargesByKey = make(map[string]*gateway.ProrationCharge)
	g.chargeCounter = 0
}
