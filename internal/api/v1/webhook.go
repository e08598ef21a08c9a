package v1

import (
	"io"
	"net/http"

	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/gateway"
	"github.com/drawcard/drawcard/internal/logger"
	"github.com/drawcard/drawcard/internal/service"
	"github.com/gin-gonic/gin"
)

// WebhookHandler receives payment gateway webhooks. Responses follow the
// gateway retry contract: 2xx acknowledges, anything else is redelivered.
type WebhookHandler struct {
	gateway gateway.Gateway
	grants  service.GrantService
	log     *logger.Logger
}

func NewWebhookHandler(gw gateway.Gateway, grants service.GrantService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{gateway: gw, grants: grants, log: log}
}

// HandlePaymentEvent verifies, parses and processes one webhook delivery.
// Duplicates acknowledge with 200 and mutate nothing. Failures before ledger
// admission return 5xx so the gateway redelivers; failures after admission
// return 200 because a redelivery would be swallowed by the ledger, and the
// reconciliation alert has already fired.
func (h *WebhookHandler) HandlePaymentEvent(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Could not read webhook payload").
			Mark(ierr.ErrValidation))
		return
	}

	event, err := h.gateway.ParseWebhookEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.log.Warnw("webhook signature verification failed", "error", err)
		c.Error(err)
		return
	}
	if event == nil {
		// Unknown event type: acknowledge and ignore.
		c.JSON(http.StatusOK, gin.H{"ignored": true})
		return
	}

	result, err := h.grants.ProcessPayment(c.Request.Context(), &service.ProcessPaymentRequest{
		TransactionID: event.TransactionID,
		EventKind:     event.Kind,
		AccountID:     event.Metadata.AccountID,
		PackageType:   event.Metadata.PackageType,
		PackageID:     event.Metadata.PackageID,
		DrawID:        event.Metadata.DrawID,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}
