package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/drawcard/drawcard/internal/domain/discount"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/logger"
	"github.com/drawcard/drawcard/internal/postgres"
	"github.com/drawcard/drawcard/internal/types"
)

type discountRepository struct {
	client *postgres.Client
	log    *logger.Logger
}

// NewDiscountRepository creates a postgres-backed discount grant store.
func NewDiscountRepository(client *postgres.Client, log *logger.Logger) discount.Repository {
	return &discountRepository{client: client, log: log}
}

// Enqueue assigns the next queue position under a per-account advisory lock,
// so two concurrent purchases for one account cannot claim the same position.
func (r *discountRepository) Enqueue(ctx context.Context, grant *discount.Grant) error {
	if err := grant.Validate(); err != nil {
		return err
	}

	return r.client.WithTx(ctx, func(ctx context.Context) error {
		lockKey := types.GenerateLockKey(ctx, types.LockScopeDiscountQueue, map[string]interface{}{
			"account_id": grant.AccountID,
		})
		if err := r.client.LockKey(ctx, types.LockRequest{Key: lockKey}); err != nil {
			return ierr.WithError(err).
				WithHint("Could not serialise discount queue insertion").
				Mark(ierr.ErrDatabase)
		}

		err := r.client.Conn(ctx).QueryRowContext(ctx, `
			SELECT COALESCE(MAX(queue_position), 0) + 1
			FROM discount_grants
			WHERE account_id = $1
		`, grant.AccountID).Scan(&grant.QueuePosition)
		if err != nil {
			return ierr.WithError(err).Mark(ierr.ErrDatabase)
		}

		_, err = r.client.Conn(ctx).ExecContext(ctx, `
			INSERT INTO discount_grants (
				id, account_id, package_id, package_name, package_type,
				duration_days, duration_hours, queue_position, purchased_at,
				start_date, end_date, environment_id,
				tenant_id, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		`,
			grant.ID, grant.AccountID, grant.PackageID, grant.PackageName, grant.PackageType,
			grant.DurationDays, grant.DurationHours, grant.QueuePosition, grant.PurchasedAt,
			grant.StartDate, grant.EndDate, grant.EnvironmentID,
			grant.TenantID, grant.CreatedAt, grant.UpdatedAt,
		)
		if err != nil {
			if postgres.IsUniqueViolation(err) {
				return ierr.WithError(err).
					WithHint("A discount grant with this ID already exists").
					Mark(ierr.ErrAlreadyExists)
			}
			return ierr.WithError(err).Mark(ierr.ErrDatabase)
		}
		return nil
	})
}

const discountColumns = `
	id, account_id, package_id, package_name, package_type,
	duration_days, duration_hours, queue_position, purchased_at,
	start_date, end_date, environment_id, tenant_id, created_at, updated_at`

func (r *discountRepository) Get(ctx context.Context, id string) (*discount.Grant, error) {
	row := r.client.Conn(ctx).QueryRowContext(ctx,
		`SELECT`+discountColumns+` FROM discount_grants WHERE id = $1`, id)

	g, err := scanGrant(row)
	if err == sql.ErrNoRows {
		return nil, ierr.NewError("discount grant not found").
			WithReportableDetails(map[string]interface{}{"grant_id": id}).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return g, nil
}

func (r *discountRepository) ListByAccount(ctx context.Context, accountID string) ([]*discount.Grant, error) {
	rows, err := r.client.Conn(ctx).QueryContext(ctx, `
		SELECT`+discountColumns+`
		FROM discount_grants
		WHERE account_id = $1
		ORDER BY queue_position ASC
	`, accountID)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var grants []*discount.Grant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return grants, nil
}

// Activate writes the window conditionally on it still being absent. The
// zero-row case means another reader activated the grant in between; the
// caller re-reads instead of clobbering the established window.
func (r *discountRepository) Activate(ctx context.Context, id string, start, end time.Time) (bool, error) {
	res, err := r.client.Conn(ctx).ExecContext(ctx, `
		UPDATE discount_grants
		SET start_date = $2,
		    end_date = $3,
		    updated_at = now()
		WHERE id = $1 AND start_date IS NULL
	`, id, start, end)
	if err != nil {
		return false, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return affected == 1, nil
}

func scanGrant(row rowScanner) (*discount.Grant, error) {
	var g discount.Grant
	err := row.Scan(
		&g.ID, &g.AccountID, &g.PackageID, &g.PackageName, &g.PackageType,
		&g.DurationDays, &g.DurationHours, &g.QueuePosition, &g.PurchasedAt,
		&g.StartDate, &g.EndDate, &g.EnvironmentID,
		&g.TenantID, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
