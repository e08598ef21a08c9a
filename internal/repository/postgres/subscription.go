package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/drawcard/drawcard/internal/domain/subscription"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/logger"
	"github.com/drawcard/drawcard/internal/postgres"
)

type subscriptionRepository struct {
	client *postgres.Client
	log    *logger.Logger
}

// NewSubscriptionRepository creates a postgres-backed subscription store.
func NewSubscriptionRepository(client *postgres.Client, log *logger.Logger) subscription.Repository {
	return &subscriptionRepository{client: client, log: log}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	pendingChange, err := json.Marshal(sub.PendingChange)
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrValidation)
	}

	_, err = r.client.Conn(ctx).ExecContext(ctx, `
		INSERT INTO subscriptions (
			id, account_id, package_id, start_date,
			current_period_start, current_period_end, auto_renew,
			billing_status, active, gateway_customer_id,
			gateway_subscription_id, pending_change, environment_id,
			tenant_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		sub.ID, sub.AccountID, sub.PackageID, sub.StartDate,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.AutoRenew,
		sub.BillingStatus, sub.Active, sub.GatewayCustomerID,
		sub.GatewaySubscriptionID, pendingChange, sub.EnvironmentID,
		sub.TenantID, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A subscription with this ID already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return nil
}

const subscriptionColumns = `
	id, account_id, package_id, start_date,
	current_period_start, current_period_end, auto_renew,
	billing_status, active, gateway_customer_id,
	gateway_subscription_id, pending_change, environment_id,
	tenant_id, created_at, updated_at`

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	row := r.client.Conn(ctx).QueryRowContext(ctx,
		`SELECT`+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)

	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, ierr.NewError("subscription not found").
			WithReportableDetails(map[string]interface{}{"subscription_id": id}).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return sub, nil
}

func (r *subscriptionRepository) GetByAccount(ctx context.Context, accountID string) (*subscription.Subscription, error) {
	row := r.client.Conn(ctx).QueryRowContext(ctx, `
		SELECT`+subscriptionColumns+`
		FROM subscriptions
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, accountID)

	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return sub, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	pendingChange, err := json.Marshal(sub.PendingChange)
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrValidation)
	}

	res, err := r.client.Conn(ctx).ExecContext(ctx, `
		UPDATE subscriptions
		SET package_id = $2,
		    current_period_start = $3,
		    current_period_end = $4,
		    auto_renew = $5,
		    billing_status = $6,
		    active = $7,
		    gateway_customer_id = $8,
		    gateway_subscription_id = $9,
		    pending_change = $10,
		    updated_at = now()
		WHERE id = $1
	`,
		sub.ID, sub.PackageID, sub.CurrentPeriodStart, sub.CurrentPeriodEnd,
		sub.AutoRenew, sub.BillingStatus, sub.Active, sub.GatewayCustomerID,
		sub.GatewaySubscriptionID, pendingChange,
	)
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return requireOneRow(res, "subscription", sub.ID)
}

func scanSubscription(row rowScanner) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	var pendingChange []byte
	var gatewayCustomerID, gatewaySubscriptionID sql.NullString

	err := row.Scan(
		&sub.ID, &sub.AccountID, &sub.PackageID, &sub.StartDate,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.AutoRenew,
		&sub.BillingStatus, &sub.Active, &gatewayCustomerID,
		&gatewaySubscriptionID, &pendingChange, &sub.EnvironmentID,
		&sub.TenantID, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	sub.GatewayCustomerID = gatewayCustomerID.String
	sub.GatewaySubscriptionID = gatewaySubscriptionID.String
	if err := json.Unmarshal(pendingChange, &sub.PendingChange); err != nil {
		return nil, err
	}
	return &sub, nil
}
