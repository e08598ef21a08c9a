package dto

import (
	"time"

	"github.com/drawcard/drawcard/internal/domain/draw"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/types"
)

// SelectWinnerRequest records the externally-chosen winning entry. The random
// draw itself happens outside this system; only the result is recorded here.
type SelectWinnerRequest struct {
	AccountID   string                      `json:"account_id" binding:"required"`
	EntryNumber int64                       `json:"entry_number" binding:"required"`
	Method      types.WinnerSelectionMethod `json:"method" binding:"required"`
}

// Validate validates the request
func (r *SelectWinnerRequest) Validate() error {
	if r.AccountID == "" {
		return ierr.NewError("account_id is required").Mark(ierr.ErrValidation)
	}
	if r.EntryNumber <= 0 {
		return ierr.NewError("entry_number must be positive").Mark(ierr.ErrOutOfRange)
	}
	return r.Method.Validate()
}

// WinnerResponse is the recorded winner of a draw.
type WinnerResponse struct {
	AccountID   string                      `json:"account_id"`
	EntryNumber int64                       `json:"entry_number"`
	Method      types.WinnerSelectionMethod `json:"method"`
	SelectedBy  string                      `json:"selected_by,omitempty"`
	SelectedAt  time.Time                   `json:"selected_at"`
}

// DrawResponse is the API shape of a draw.
type DrawResponse struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Type         types.DrawType   `json:"type"`
	Status       types.DrawStatus `json:"status"`
	TotalEntries int64            `json:"total_entries"`
	MinEntries   int64            `json:"min_entries,omitempty"`
	Winner       *WinnerResponse  `json:"winner,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// NewDrawResponse converts a domain draw to its API shape.
func NewDrawResponse(d *draw.Draw) *DrawResponse {
	resp := &DrawResponse{
		ID:           d.ID,
		Name:         d.Name,
		Type:         d.Type,
		Status:       d.Status,
		TotalEntries: d.TotalEntries,
		MinEntries:   d.MinEntries,
		CreatedAt:    d.CreatedAt,
	}
	if d.Winner != nil {
		resp.Winner = &WinnerResponse{
			AccountID:   d.Winner.AccountID,
			EntryNumber: d.Winner.EntryNumber,
			Method:      d.Winner.Method,
			SelectedBy:  d.Winner.SelectedBy,
			SelectedAt:  d.Winner.SelectedAt,
		}
	}
	return resp
}

// ParticipantResponse is one account's entries in a draw.
type ParticipantResponse struct {
	AccountID string `json:"account_id"`
	Entries   int64  `json:"entries"`
}

// ListParticipantsResponse is the admin participant export.
type ListParticipantsResponse struct {
	DrawID       string                `json:"draw_id"`
	TotalEntries int64                 `json:"total_entries"`
	Participants []ParticipantResponse `json:"participants"`
}

// ListDrawsResponse is the draw history listing.
type ListDrawsResponse struct {
	Items []*DrawResponse `json:"items"`
	Total int             `json:"total"`
}
