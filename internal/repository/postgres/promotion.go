package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/drawcard/drawcard/internal/domain/promotion"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/logger"
	"github.com/drawcard/drawcard/internal/postgres"
	"github.com/drawcard/drawcard/internal/types"
)

type promotionRepository struct {
	client *postgres.Client
	log    *logger.Logger
}

// NewPromotionRepository creates a postgres-backed promotion store.
func NewPromotionRepository(client *postgres.Client, log *logger.Logger) promotion.Repository {
	return &promotionRepository{client: client, log: log}
}

func (r *promotionRepository) Create(ctx context.Context, promo *promotion.Promotion) error {
	if err := promo.Validate(); err != nil {
		return err
	}

	_, err := r.client.Conn(ctx).ExecContext(ctx, `
		INSERT INTO promotions (
			id, name, category, multiplier, start_at, end_at,
			environment_id, tenant_id, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		promo.ID, promo.Name, promo.Category, promo.Multiplier,
		promo.StartAt, promo.EndAt, promo.EnvironmentID,
		promo.TenantID, promo.Status, promo.CreatedAt, promo.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A promotion with this ID already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return nil
}

const promotionColumns = `
	id, name, category, multiplier, start_at, end_at,
	environment_id, tenant_id, status, created_at, updated_at`

func (r *promotionRepository) Get(ctx context.Context, id string) (*promotion.Promotion, error) {
	row := r.client.Conn(ctx).QueryRowContext(ctx,
		`SELECT`+promotionColumns+` FROM promotions WHERE id = $1`, id)

	p, err := scanPromotion(row)
	if err == sql.ErrNoRows {
		return nil, ierr.NewError("promotion not found").
			WithReportableDetails(map[string]interface{}{"promotion_id": id}).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return p, nil
}

func (r *promotionRepository) GetActiveForCategory(ctx context.Context, category types.PackageType, at time.Time) (*promotion.Promotion, error) {
	row := r.client.Conn(ctx).QueryRowContext(ctx, `
		SELECT`+promotionColumns+`
		FROM promotions
		WHERE category = $1
		  AND start_at <= $2
		  AND end_at > $2
		  AND status = $3
		ORDER BY start_at DESC
		LIMIT 1
	`, category, at, types.StatusPublished)

	p, err := scanPromotion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return p, nil
}

func scanPromotion(row rowScanner) (*promotion.Promotion, error) {
	var p promotion.Promotion
	err := row.Scan(
		&p.ID, &p.Name, &p.Category, &p.Multiplier, &p.StartAt, &p.EndAt,
		&p.EnvironmentID, &p.TenantID, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
