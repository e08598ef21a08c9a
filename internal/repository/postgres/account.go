package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/drawcard/drawcard/internal/domain/account"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/logger"
	"github.com/drawcard/drawcard/internal/postgres"
	"github.com/drawcard/drawcard/internal/types"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type accountRepository struct {
	client *postgres.Client
	log    *logger.Logger
}

// NewAccountRepository creates a postgres-backed account store.
func NewAccountRepository(client *postgres.Client, log *logger.Logger) account.Repository {
	return &accountRepository{client: client, log: log}
}

func (r *accountRepository) Create(ctx context.Context, a *account.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}

	_, err := r.client.Conn(ctx).ExecContext(ctx, `
		INSERT INTO accounts (
			id, external_id, email, entries, points, subscription_id,
			one_time_packages, mini_draw_packages, environment_id,
			tenant_id, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, '[]'::jsonb, '[]'::jsonb, $7, $8, $9, $10, $11)
	`,
		a.ID, a.ExternalID, a.Email, a.Entries, a.Points, a.SubscriptionID,
		a.EnvironmentID, a.TenantID, a.Status, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("An account with this ID already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *accountRepository) Get(ctx context.Context, id string) (*account.Account, error) {
	var a account.Account
	var oneTime, miniDraw []byte
	var subscriptionID sql.NullString

	err := r.client.Conn(ctx).QueryRowContext(ctx, `
		SELECT id, external_id, email, entries, points, subscription_id,
		       one_time_packages, mini_draw_packages, environment_id,
		       tenant_id, status, created_at, updated_at
		FROM accounts WHERE id = $1
	`, id).Scan(
		&a.ID, &a.ExternalID, &a.Email, &a.Entries, &a.Points, &subscriptionID,
		&oneTime, &miniDraw, &a.EnvironmentID,
		&a.TenantID, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ierr.NewError("account not found").
			WithReportableDetails(map[string]interface{}{"account_id": id}).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}

	a.SubscriptionID = subscriptionID.String
	if err := json.Unmarshal(oneTime, &a.OneTimePackages); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	if err := json.Unmarshal(miniDraw, &a.MiniDrawPackages); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return &a, nil
}

// IncrementBalances is a storage-level increment: concurrent events for the
// same account serialise on the row instead of losing updates.
func (r *accountRepository) IncrementBalances(ctx context.Context, id string, entries int64, points decimal.Decimal) error {
	res, err := r.client.Conn(ctx).ExecContext(ctx, `
		UPDATE accounts
		SET entries = entries + $2,
		    points = points + $3,
		    updated_at = now()
		WHERE id = $1
	`, id, entries, points)
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return requireOneRow(res, "account", id)
}

// AppendPurchase appends to the jsonb history list matching the record's
// package type, atomically at the storage layer.
func (r *accountRepository) AppendPurchase(ctx context.Context, id string, record account.PurchaseRecord) error {
	column := "one_time_packages"
	if record.PackageType == types.PackageTypeMiniDraw {
		column = "mini_draw_packages"
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrValidation)
	}

	res, err := r.client.Conn(ctx).ExecContext(ctx, `
		UPDATE accounts
		SET `+column+` = `+column+` || $2::jsonb,
		    updated_at = now()
		WHERE id = $1
	`, id, payload)
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return requireOneRow(res, "account", id)
}

func (r *accountRepository) SetSubscriptionID(ctx context.Context, id string, subscriptionID string) error {
	res, err := r.client.Conn(ctx).ExecContext(ctx, `
		UPDATE accounts
		SET subscription_id = NULLIF($2, ''),
		    updated_at = now()
		WHERE id = $1
	`, id, subscriptionID)
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return requireOneRow(res, "account", id)
}

func (r *accountRepository) List(ctx context.Context, filter *account.Filter) ([]*account.Account, error) {
	if filter == nil {
		filter = &account.Filter{}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.client.Conn(ctx).QueryContext(ctx, `
		SELECT id FROM accounts
		WHERE ($1::text[] IS NULL OR id = ANY($1))
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, nullableArray(filter.AccountIDs), limit, filter.Offset)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}

	accounts := make([]*account.Account, 0, len(ids))
	for _, id := range ids {
		a, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

func nullableArray(items []string) interface{} {
	if len(items) == 0 {
		return nil
	}
	return pq.Array(items)
}

func requireOneRow(res sql.Result, entity, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewErrorf("%s not found", entity).
			WithReportableDetails(map[string]interface{}{"id": id}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
