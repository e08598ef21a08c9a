package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/drawcard/drawcard/internal/domain/ledger"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/logger"
	"github.com/drawcard/drawcard/internal/postgres"
	"github.com/drawcard/drawcard/internal/types"
)

type ledgerRepository struct {
	client *postgres.Client
	log    *logger.Logger
}

// NewLedgerRepository creates a postgres-backed event ledger.
func NewLedgerRepository(client *postgres.Client, log *logger.Logger) ledger.Repository {
	return &ledgerRepository{client: client, log: log}
}

// Admit relies on the unique index over (transaction_id, event_kind):
// ON CONFLICT DO NOTHING turns a duplicate delivery into zero affected rows
// without an error, across all processes.
func (r *ledgerRepository) Admit(ctx context.Context, event *ledger.ProcessedEvent) (bool, error) {
	if err := event.Validate(); err != nil {
		return false, err
	}

	outcome, err := json.Marshal(event.Outcome)
	if err != nil {
		return false, ierr.WithError(err).Mark(ierr.ErrValidation)
	}

	res, err := r.client.Conn(ctx).ExecContext(ctx, `
		INSERT INTO processed_events (
			id, transaction_id, event_kind, account_id, package_id,
			package_type, outcome, processed_at, environment_id,
			tenant_id, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (transaction_id, event_kind) DO NOTHING
	`,
		event.ID, event.TransactionID, event.EventKind, event.AccountID,
		event.PackageID, event.PackageType, outcome, event.ProcessedAt,
		event.EnvironmentID, event.TenantID, event.Status,
		event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to write event ledger").
			WithReportableDetails(map[string]interface{}{
				"transaction_id": event.TransactionID,
				"event_kind":     event.EventKind,
			}).
			Mark(ierr.ErrDatabase)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return affected == 1, nil
}

func (r *ledgerRepository) Get(ctx context.Context, transactionID string, eventKind types.PaymentEventKind) (*ledger.ProcessedEvent, error) {
	row := r.client.Conn(ctx).QueryRowContext(ctx, `
		SELECT id, transaction_id, event_kind, account_id, package_id,
		       package_type, outcome, processed_at, environment_id,
		       tenant_id, status, created_at, updated_at
		FROM processed_events
		WHERE transaction_id = $1 AND event_kind = $2
	`, transactionID, eventKind)

	event, err := scanProcessedEvent(row)
	if err == sql.ErrNoRows {
		return nil, ierr.NewError("event not found").
			WithReportableDetails(map[string]interface{}{
				"transaction_id": transactionID,
				"event_kind":     eventKind,
			}).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return event, nil
}

func (r *ledgerRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*ledger.ProcessedEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.client.Conn(ctx).QueryContext(ctx, `
		SELECT id, transaction_id, event_kind, account_id, package_id,
		       package_type, outcome, processed_at, environment_id,
		       tenant_id, status, created_at, updated_at
		FROM processed_events
		WHERE account_id = $1
		ORDER BY processed_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var events []*ledger.ProcessedEvent
	for rows.Next() {
		event, err := scanProcessedEvent(rows)
		if err != nil {
			return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProcessedEvent(row rowScanner) (*ledger.ProcessedEvent, error) {
	var event ledger.ProcessedEvent
	var outcome []byte
	err := row.Scan(
		&event.ID, &event.TransactionID, &event.EventKind, &event.AccountID,
		&event.PackageID, &event.PackageType, &outcome, &event.ProcessedAt,
		&event.EnvironmentID, &event.TenantID, &event.Status,
		&event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(outcome) > 0 {
		if err := json.Unmarshal(outcome, &event.Outcome); err != nil {
			return nil, err
		}
	}
	return &event, nil
}
