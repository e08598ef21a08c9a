package marketing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/drawcard/drawcard/internal/config"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/hashicorp/go-retryablehttp"
)

// crmSink posts track events to the CRM's HTTP track endpoint.
type crmSink struct {
	client   *retryablehttp.Client
	endpoint string
	apiKey   string
}

// NewCRMSink builds the CRM HTTP sink.
func NewCRMSink(cfg *config.Configuration) Sink {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = 5 * time.Second
	// retryablehttp logs through its own interface; the tracker already logs
	// the final outcome, so silence the per-attempt noise.
	client.Logger = nil

	return &crmSink{
		client:   client,
		endpoint: cfg.CRM.Endpoint,
		apiKey:   cfg.CRM.APIKey,
	}
}

func (s *crmSink) Name() string {
	return "crm"
}

func (s *crmSink) Deliver(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))
	if event.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", event.IdempotencyKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return ierr.WithError(err).
			WithHint("CRM track endpoint unreachable").
			Mark(ierr.ErrHTTPClient)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return ierr.NewErrorf("crm track endpoint returned %d", resp.StatusCode).
			Mark(ierr.ErrHTTPClient)
	}
	return nil
}
