package sentry

import (
	"context"
	"time"

	"github.com/drawcard/drawcard/internal/config"
	"github.com/drawcard/drawcard/internal/logger"
	"github.com/getsentry/sentry-go"
)

// Service wraps the sentry client. When disabled it degrades to logging only,
// so call sites never branch on configuration.
type Service struct {
	cfg *config.Configuration
	log *logger.Logger
}

// NewService initialises sentry from configuration.
func NewService(cfg *config.Configuration, log *logger.Logger) (*Service, error) {
	s := &Service{cfg: cfg, log: log}
	if !cfg.Sentry.Enabled {
		return s, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		Environment:      cfg.Sentry.Environment,
		SampleRate:       cfg.Sentry.SampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CaptureException reports an error with tags.
func (s *Service) CaptureException(ctx context.Context, err error, tags map[string]string) {
	if !s.cfg.Sentry.Enabled {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

// CaptureReconciliation raises the fatal-severity alert for an event that was
// admitted by the ledger but whose downstream credits failed. These must be
// reconciled manually: retrying the webhook is swallowed by the ledger.
func (s *Service) CaptureReconciliation(ctx context.Context, err error, transactionID string, eventKind string, accountID string) {
	s.log.Errorw("RECONCILIATION_REQUIRED: admitted event failed downstream",
		"error", err,
		"transaction_id", transactionID,
		"event_kind", eventKind,
		"account_id", accountID,
	)
	if !s.cfg.Sentry.Enabled {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelFatal)
		scope.SetTag("alert", "reconciliation_required")
		scope.SetTag("transaction_id", transactionID)
		scope.SetTag("event_kind", eventKind)
		scope.SetTag("account_id", accountID)
		sentry.CaptureException(err)
	})
}

// Flush drains buffered events; call on shutdown.
func (s *Service) Flush(timeout time.Duration) {
	if s.cfg.Sentry.Enabled {
		sentry.Flush(timeout)
	}
}
