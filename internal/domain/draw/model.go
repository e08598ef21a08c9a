package draw

import (
	"time"

	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/types"
)

// Draw is a sweepstake: the recurring major draw or a one-off, threshold
// capped mini draw. Draws are created and time-activated by an external
// scheduling process; this component only credits entries and records the
// externally-chosen winner.
type Draw struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Type   types.DrawType   `json:"type"`
	Status types.DrawStatus `json:"status"`

	// TotalEntries is the ledger's accumulated entry count. Entry numbers are
	// a logical 1..TotalEntries range over this value.
	TotalEntries int64 `json:"total_entries"`

	// MinEntries is the mini-draw threshold: credits that would push
	// TotalEntries past it are rejected wholesale. Zero for major draws.
	MinEntries int64 `json:"min_entries,omitempty"`

	// Winner is written exactly once, by an administrative action, while the
	// draw is frozen or completed.
	Winner *Winner `json:"winner,omitempty"`

	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`

	EnvironmentID string `json:"environment_id"`
	types.BaseModel
}

// Winner records the outcome of the externally-audited draw.
type Winner struct {
	AccountID   string                      `json:"account_id"`
	EntryNumber int64                       `json:"entry_number"`
	Method      types.WinnerSelectionMethod `json:"method"`
	SelectedBy  string                      `json:"selected_by"`
	SelectedAt  time.Time                   `json:"selected_at"`
}

// Participation is one account's accumulated entries in one draw.
type Participation struct {
	DrawID    string    `json:"draw_id"`
	AccountID string    `json:"account_id"`
	Entries   int64     `json:"entries"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate validates the draw
func (d *Draw) Validate() error {
	if d.Name == "" {
		return ierr.NewError("draw name is required").Mark(ierr.ErrValidation)
	}
	if err := d.Status.Validate(); err != nil {
		return err
	}
	if d.Type == types.DrawTypeMini && d.MinEntries <= 0 {
		return ierr.NewError("mini draws require a positive entry threshold").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CanAcceptEntries reports whether crediting n entries is permitted by the
// draw's current state and, for mini draws, its threshold.
func (d *Draw) CanAcceptEntries(n int64) error {
	if d.Status != types.DrawStatusActive {
		return ierr.NewError("draw is not active").
			WithHint("Entries can only be credited while the draw is active").
			WithReportableDetails(map[string]interface{}{
				"draw_id": d.ID,
				"status":  d.Status,
			}).
			Mark(ierr.ErrInvalidState)
	}
	if d.Type == types.DrawTypeMini && d.TotalEntries+n > d.MinEntries {
		return ierr.NewError("draw entry threshold would be exceeded").
			WithHint("The purchase would push the mini draw past its target; reject the whole purchase").
			WithReportableDetails(map[string]interface{}{
				"draw_id":       d.ID,
				"total_entries": d.TotalEntries,
				"min_entries":   d.MinEntries,
				"requested":     n,
			}).
			Mark(ierr.ErrCapacityExceeded)
	}
	return nil
}

// CanRecordWinner reports whether a winner may be recorded now.
func (d *Draw) CanRecordWinner() error {
	if d.Status != types.DrawStatusFrozen && d.Status != types.DrawStatusCompleted {
		return ierr.NewError("draw is not frozen or completed").
			WithHint("A winner can only be recorded after entries are frozen").
			WithReportableDetails(map[string]interface{}{
				"draw_id": d.ID,
				"status":  d.Status,
			}).
			Mark(ierr.ErrInvalidState)
	}
	if d.Winner != nil {
		return ierr.NewError("winner already recorded").
			WithReportableDetails(map[string]interface{}{
				"draw_id": d.ID,
			}).
			Mark(ierr.ErrAlreadyDecided)
	}
	return nil
}
