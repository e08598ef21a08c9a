package service

import (
	"context"
	"time"

	"github.com/drawcard/drawcard/internal/api/dto"
	"github.com/drawcard/drawcard/internal/domain/draw"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/types"
	"github.com/samber/lo"
)

// DrawService is the draw ledger: entry credits, the winner single-shot, and
// the admin read surface. Draw creation and time-based activation/freezing
// are driven by an external scheduling process through UpdateStatus.
type DrawService interface {
	// Credit adds entries to a draw for an account. Fails with InvalidState
	// unless the draw is active; for mini draws, fails with CapacityExceeded
	// when the credit would pass the entry threshold.
	Credit(ctx context.Context, drawID, accountID string, entries int64) error

	// SelectWinner validates and records the externally-chosen entry number,
	// then forces the draw to completed. At most one winner ever.
	SelectWinner(ctx context.Context, drawID string, req *dto.SelectWinnerRequest) (*dto.DrawResponse, error)

	// GetDraw returns one draw.
	GetDraw(ctx context.Context, drawID string) (*dto.DrawResponse, error)

	// GetDrawHistory lists past and present draws, newest first.
	GetDrawHistory(ctx context.Context, filter *draw.Filter) (*dto.ListDrawsResponse, error)

	// ExportParticipants lists every participant of a draw with entry counts.
	ExportParticipants(ctx context.Context, drawID string) (*dto.ListParticipantsResponse, error)

	// UpdateStatus applies an externally-driven lifecycle transition.
	UpdateStatus(ctx context.Context, drawID string, status types.DrawStatus) (*dto.DrawResponse, error)
}

type drawService struct {
	ServiceParams
}

// NewDrawService creates a new draw ledger service.
func NewDrawService(params ServiceParams) DrawService {
	return &drawService{ServiceParams: params}
}

func (s *drawService) Credit(ctx context.Context, drawID, accountID string, entries int64) error {
	if entries <= 0 {
		return ierr.NewError("entries must be positive").
			WithReportableDetails(map[string]interface{}{
				"draw_id": drawID,
				"entries": entries,
			}).
			Mark(ierr.ErrValidation)
	}

	d, err := s.DrawRepo.Get(ctx, drawID)
	if err != nil {
		return err
	}
	if err := d.CanAcceptEntries(entries); err != nil {
		return err
	}

	// The repository re-checks state and threshold inside its conditional
	// increment, so a concurrent credit cannot overshoot between our check
	// and the write.
	if err := s.DrawRepo.CreditEntries(ctx, drawID, accountID, entries); err != nil {
		return err
	}

	s.Logger.Infow("draw entries credited",
		"draw_id", drawID,
		"account_id", accountID,
		"entries", entries,
	)
	return nil
}

func (s *drawService) SelectWinner(ctx context.Context, drawID string, req *dto.SelectWinnerRequest) (*dto.DrawResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	d, err := s.DrawRepo.Get(ctx, drawID)
	if err != nil {
		return nil, err
	}
	if err := d.CanRecordWinner(); err != nil {
		return nil, err
	}

	participation, err := s.DrawRepo.GetParticipation(ctx, drawID, req.AccountID)
	if err != nil {
		return nil, err
	}
	if participation == nil || participation.Entries == 0 {
		return nil, ierr.NewError("account holds no entries in this draw").
			WithReportableDetails(map[string]interface{}{
				"draw_id":    drawID,
				"account_id": req.AccountID,
			}).
			Mark(ierr.ErrNotAParticipant)
	}

	if req.EntryNumber < 1 || req.EntryNumber > d.TotalEntries {
		return nil, ierr.NewError("entry number outside the draw's entry range").
			WithHintf("Entry number must be within [1, %d]", d.TotalEntries).
			WithReportableDetails(map[string]interface{}{
				"draw_id":       drawID,
				"entry_number":  req.EntryNumber,
				"total_entries": d.TotalEntries,
			}).
			Mark(ierr.ErrOutOfRange)
	}

	winner := &draw.Winner{
		AccountID:   req.AccountID,
		EntryNumber: req.EntryNumber,
		Method:      req.Method,
		SelectedBy:  types.GetUserID(ctx),
		SelectedAt:  time.Now().UTC(),
	}

	// Single-writer, single-shot: the repository applies the write
	// conditionally on no winner existing, so two concurrent admin calls
	// cannot both succeed.
	if err := s.DrawRepo.RecordWinner(ctx, drawID, winner); err != nil {
		return nil, err
	}

	s.Logger.Infow("draw winner recorded",
		"draw_id", drawID,
		"account_id", winner.AccountID,
		"entry_number", winner.EntryNumber,
		"method", winner.Method,
		"selected_by", winner.SelectedBy,
	)

	updated, err := s.DrawRepo.Get(ctx, drawID)
	if err != nil {
		return nil, err
	}
	return dto.NewDrawResponse(updated), nil
}

func (s *drawService) GetDraw(ctx context.Context, drawID string) (*dto.DrawResponse, error) {
	d, err := s.DrawRepo.Get(ctx, drawID)
	if err != nil {
		return nil, err
	}
	return dto.NewDrawResponse(d), nil
}

func (s *drawService) GetDrawHistory(ctx context.Context, filter *draw.Filter) (*dto.ListDrawsResponse, error) {
	if filter == nil {
		filter = &draw.Filter{}
	}
	draws, err := s.DrawRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.ListDrawsResponse{
		Items: lo.Map(draws, func(d *draw.Draw, _ int) *dto.DrawResponse {
			return dto.NewDrawResponse(d)
		}),
		Total: len(draws),
	}, nil
}

func (s *drawService) ExportParticipants(ctx context.Context, drawID string) (*dto.ListParticipantsResponse, error) {
	d, err := s.DrawRepo.Get(ctx, drawID)
	if err != nil {
		return nil, err
	}

	participants, err := s.DrawRepo.ListParticipants(ctx, drawID)
	if err != nil {
		return nil, err
	}

	return &dto.ListParticipantsResponse{
		DrawID:       d.ID,
		TotalEntries: d.TotalEntries,
		Participants: lo.Map(participants, func(p *draw.Participation, _ int) dto.ParticipantResponse {
			return dto.ParticipantResponse{AccountID: p.AccountID, Entries: p.Entries}
		}),
	}, nil
}

func (s *drawService) UpdateStatus(ctx context.Context, drawID string, status types.DrawStatus) (*dto.DrawResponse, error) {
	if err := status.Validate(); err != nil {
		return nil, err
	}

	d, err := s.DrawRepo.Get(ctx, drawID)
	if err != nil {
		return nil, err
	}
	if !d.Status.CanTransitionTo(status) {
		return nil, ierr.NewErrorf("cannot transition draw from %s to %s", d.Status, status).
			WithReportableDetails(map[string]interface{}{
				"draw_id": drawID,
				"from":    d.Status,
				"to":      status,
			}).
			Mark(ierr.ErrInvalidState)
	}

	if err := s.DrawRepo.UpdateStatus(ctx, drawID, status); err != nil {
		return nil, err
	}

	d.Status = status
	return dto.NewDrawResponse(d), nil
}
