package postgres

import (
	"context"
	"database/sql"

	"github.com/drawcard/drawcard/internal/domain/catalog"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/logger"
	"github.com/drawcard/drawcard/internal/postgres"
	"github.com/drawcard/drawcard/internal/types"
)

type catalogRepository struct {
	client *postgres.Client
	log    *logger.Logger
}

// NewCatalogRepository creates a read-only postgres catalog lookup.
func NewCatalogRepository(client *postgres.Client, log *logger.Logger) catalog.Repository {
	return &catalogRepository{client: client, log: log}
}

const packageColumns = `
	id, name, type, price, currency, entries, entries_per_month,
	discount_days, discount_hours, discount_percent, draw_id,
	environment_id, tenant_id, status, created_at, updated_at`

func (r *catalogRepository) Get(ctx context.Context, id string) (*catalog.Package, error) {
	row := r.client.Conn(ctx).QueryRowContext(ctx,
		`SELECT`+packageColumns+` FROM packages WHERE id = $1`, id)

	p, err := scanPackage(row)
	if err == sql.ErrNoRows {
		return nil, ierr.NewError("package not found").
			WithReportableDetails(map[string]interface{}{"package_id": id}).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return p, nil
}

func (r *catalogRepository) List(ctx context.Context) ([]*catalog.Package, error) {
	rows, err := r.client.Conn(ctx).QueryContext(ctx, `
		SELECT`+packageColumns+`
		FROM packages
		WHERE status = $1
		ORDER BY created_at ASC
	`, types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var packages []*catalog.Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
		}
		packages = append(packages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return packages, nil
}

func scanPackage(row rowScanner) (*catalog.Package, error) {
	var p catalog.Package
	var drawID sql.NullString

	err := row.Scan(
		&p.ID, &p.Name, &p.Type, &p.Price, &p.Currency,
		&p.Entries, &p.EntriesPerMonth,
		&p.DiscountDays, &p.DiscountHours, &p.DiscountPercent, &drawID,
		&p.EnvironmentID, &p.TenantID, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.DrawID = drawID.String
	return &p, nil
}
