package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/drawcard/drawcard/internal/domain/draw"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/logger"
	"github.com/drawcard/drawcard/internal/postgres"
	"github.com/drawcard/drawcard/internal/types"
	"github.com/lib/pq"
)

type drawRepository struct {
	client *postgres.Client
	log    *logger.Logger
}

// NewDrawRepository creates a postgres-backed draw store.
func NewDrawRepository(client *postgres.Client, log *logger.Logger) draw.Repository {
	return &drawRepository{client: client, log: log}
}

func (r *drawRepository) Create(ctx context.Context, d *draw.Draw) error {
	if err := d.Validate(); err != nil {
		return err
	}

	_, err := r.client.Conn(ctx).ExecContext(ctx, `
		INSERT INTO draws (
			id, name, type, status, total_entries, min_entries,
			starts_at, ends_at, environment_id,
			tenant_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		d.ID, d.Name, d.Type, d.Status, d.TotalEntries, d.MinEntries,
		d.StartsAt, d.EndsAt, d.EnvironmentID,
		d.TenantID, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A draw with this ID already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return nil
}

const drawColumns = `
	id, name, type, status, total_entries, min_entries,
	winner_account_id, winner_entry_number, winner_method,
	winner_selected_by, winner_selected_at,
	starts_at, ends_at, environment_id, tenant_id, created_at, updated_at`

func (r *drawRepository) Get(ctx context.Context, id string) (*draw.Draw, error) {
	row := r.client.Conn(ctx).QueryRowContext(ctx,
		`SELECT`+drawColumns+` FROM draws WHERE id = $1`, id)

	d, err := scanDraw(row)
	if err == sql.ErrNoRows {
		return nil, ierr.NewError("draw not found").
			WithReportableDetails(map[string]interface{}{"draw_id": id}).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return d, nil
}

func (r *drawRepository) List(ctx context.Context, filter *draw.Filter) ([]*draw.Draw, error) {
	if filter == nil {
		filter = &draw.Filter{}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	typeNames := make([]string, 0, len(filter.Types))
	for _, t := range filter.Types {
		typeNames = append(typeNames, string(t))
	}
	statusNames := make([]string, 0, len(filter.Statuses))
	for _, s := range filter.Statuses {
		statusNames = append(statusNames, string(s))
	}

	rows, err := r.client.Conn(ctx).QueryContext(ctx, `
		SELECT`+drawColumns+`
		FROM draws
		WHERE ($1::text[] IS NULL OR id = ANY($1))
		  AND ($2::text[] IS NULL OR type = ANY($2))
		  AND ($3::text[] IS NULL OR status = ANY($3))
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`, nullableArray(filter.DrawIDs), nullableArray(typeNames), nullableArray(statusNames), limit, filter.Offset)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var draws []*draw.Draw
	for rows.Next() {
		d, err := scanDraw(rows)
		if err != nil {
			return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
		}
		draws = append(draws, d)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return draws, nil
}

func (r *drawRepository) UpdateStatus(ctx context.Context, id string, status types.DrawStatus) error {
	res, err := r.client.Conn(ctx).ExecContext(ctx, `
		UPDATE draws SET status = $2, updated_at = now() WHERE id = $1
	`, id, status)
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return requireOneRow(res, "draw", id)
}

// CreditEntries applies the state and threshold checks inside the UPDATE's
// WHERE clause. Two concurrent credits against a nearly-full mini draw then
// serialise on the row and the loser matches zero rows instead of
// overshooting the threshold.
func (r *drawRepository) CreditEntries(ctx context.Context, drawID, accountID string, entries int64) error {
	return r.client.WithTx(ctx, func(ctx context.Context) error {
		res, err := r.client.Conn(ctx).ExecContext(ctx, `
			UPDATE draws
			SET total_entries = total_entries + $2,
			    updated_at = now()
			WHERE id = $1
			  AND status = $3
			  AND (type = $4 OR total_entries + $2 <= min_entries)
		`, drawID, entries, types.DrawStatusActive, types.DrawTypeMajor)
		if err != nil {
			return ierr.WithError(err).Mark(ierr.ErrDatabase)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return ierr.WithError(err).Mark(ierr.ErrDatabase)
		}
		if affected == 0 {
			// Re-read to tell apart the rejection reasons.
			d, err := r.Get(ctx, drawID)
			if err != nil {
				return err
			}
			return d.CanAcceptEntries(entries)
		}

		_, err = r.client.Conn(ctx).ExecContext(ctx, `
			INSERT INTO draw_participations (draw_id, account_id, entries, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (draw_id, account_id)
			DO UPDATE SET entries = draw_participations.entries + $3, updated_at = now()
		`, drawID, accountID, entries)
		if err != nil {
			return ierr.WithError(err).Mark(ierr.ErrDatabase)
		}
		return nil
	})
}

// RecordWinner is a single-shot conditional update: the WHERE clause requires
// the winner slot to be empty, so a concurrent second decision matches zero
// rows and is rejected.
func (r *drawRepository) RecordWinner(ctx context.Context, drawID string, winner *draw.Winner) error {
	res, err := r.client.Conn(ctx).ExecContext(ctx, `
		UPDATE draws
		SET winner_account_id = $2,
		    winner_entry_number = $3,
		    winner_method = $4,
		    winner_selected_by = $5,
		    winner_selected_at = $6,
		    status = $7,
		    updated_at = now()
		WHERE id = $1
		  AND winner_account_id IS NULL
		  AND status IN ($8, $9)
	`,
		drawID, winner.AccountID, winner.EntryNumber, winner.Method,
		winner.SelectedBy, winner.SelectedAt, types.DrawStatusCompleted,
		types.DrawStatusFrozen, types.DrawStatusCompleted,
	)
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		d, err := r.Get(ctx, drawID)
		if err != nil {
			return err
		}
		return d.CanRecordWinner()
	}
	return nil
}

func (r *drawRepository) GetParticipation(ctx context.Context, drawID, accountID string) (*draw.Participation, error) {
	var p draw.Participation
	err := r.client.Conn(ctx).QueryRowContext(ctx, `
		SELECT draw_id, account_id, entries, updated_at
		FROM draw_participations
		WHERE draw_id = $1 AND account_id = $2
	`, drawID, accountID).Scan(&p.DrawID, &p.AccountID, &p.Entries, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *drawRepository) ListParticipants(ctx context.Context, drawID string) ([]*draw.Participation, error) {
	rows, err := r.client.Conn(ctx).QueryContext(ctx, `
		SELECT draw_id, account_id, entries, updated_at
		FROM draw_participations
		WHERE draw_id = $1
		ORDER BY entries DESC, account_id ASC
	`, drawID)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var participants []*draw.Participation
	for rows.Next() {
		var p draw.Participation
		if err := rows.Scan(&p.DrawID, &p.AccountID, &p.Entries, &p.UpdatedAt); err != nil {
			return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
		}
		participants = append(participants, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return participants, nil
}

func (r *drawRepository) FindActiveMiniDraw(ctx context.Context) (*draw.Draw, error) {
	row := r.client.Conn(ctx).QueryRowContext(ctx, `
		SELECT`+drawColumns+`
		FROM draws
		WHERE type = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, types.DrawTypeMini, types.DrawStatusActive)

	d, err := scanDraw(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return d, nil
}

func scanDraw(row rowScanner) (*draw.Draw, error) {
	var d draw.Draw
	var winnerAccountID, winnerMethod, winnerSelectedBy sql.NullString
	var winnerEntryNumber sql.NullInt64
	var winnerSelectedAt pq.NullTime

	err := row.Scan(
		&d.ID, &d.Name, &d.Type, &d.Status, &d.TotalEntries, &d.MinEntries,
		&winnerAccountID, &winnerEntryNumber, &winnerMethod,
		&winnerSelectedBy, &winnerSelectedAt,
		&d.StartsAt, &d.EndsAt, &d.EnvironmentID, &d.TenantID,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if winnerAccountID.Valid {
		var selectedAt time.Time
		if winnerSelectedAt.Valid {
			selectedAt = winnerSelectedAt.Time
		}
		d.Winner = &draw.Winner{
			AccountID:   winnerAccountID.String,
			EntryNumber: winnerEntryNumber.Int64,
			Method:      types.WinnerSelectionMethod(winnerMethod.String),
			SelectedBy:  winnerSelectedBy.String,
			SelectedAt:  selectedAt,
		}
	}
	return &d, nil
}
