package service

import (
	"errors"
	"testing"

	"github.com/drawcard/drawcard/internal/api/dto"
	"github.com/drawcard/drawcard/internal/domain/draw"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/testutil"
	"github.com/drawcard/drawcard/internal/types"
	"github.com/stretchr/testify/suite"
)

type DrawServiceSuite struct {
	testutil.BaseServiceTestSuite
	service DrawService
	params  ServiceParams
}

func TestDrawService(t *testing.T) {
	suite.Run(t, new(DrawServiceSuite))
}

func (s *DrawServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.params = ServiceParams{
		Logger:         s.GetLogger(),
		Config:         s.GetConfig(),
		LedgerRepo:     s.GetStores().LedgerRepo,
		AccountRepo:    s.GetStores().AccountRepo,
		DrawRepo:       s.GetStores().DrawRepo,
		DiscountRepo:   s.GetStores().DiscountRepo,
		SubRepo:        s.GetStores().SubRepo,
		CatalogRepo:    s.GetStores().CatalogRepo,
		PromotionRepo:  s.GetStores().PromotionRepo,
		Gateway:        s.GetGateway(),
		Tracker:        s.GetTracker(),
		Sentry:         s.GetSentry(),
		IdempotencyGen: s.GetIdempotencyGenerator(),
	}
	s.service = NewDrawService(s.params)
}

func (s *DrawServiceSuite) seedDraw(d *draw.Draw) *draw.Draw {
	d.BaseModel = types.GetDefaultBaseModel(s.GetContext())
	s.NoError(s.GetStores().DrawRepo.Create(s.GetContext(), d))
	return d
}

func (s *DrawServiceSuite) TestCreditAccumulatesEntriesAndParticipation() {
	s.seedDraw(&draw.Draw{
		ID:     "draw_1",
		Name:   "Major",
		Type:   types.DrawTypeMajor,
		Status: types.DrawStatusActive,
	})

	s.NoError(s.service.Credit(s.GetContext(), "draw_1", "acct_1", 10))
	s.NoError(s.service.Credit(s.GetContext(), "draw_1", "acct_1", 5))
	s.NoError(s.service.Credit(s.GetContext(), "draw_1", "acct_2", 3))

	d, err := s.GetStores().DrawRepo.Get(s.GetContext(), "draw_1")
	s.NoError(err)
	s.Equal(int64(18), d.TotalEntries)

	p, err := s.GetStores().DrawRepo.GetParticipation(s.GetContext(), "draw_1", "acct_1")
	s.NoError(err)
	s.Equal(int64(15), p.Entries)
}

func (s *DrawServiceSuite) TestCreditRejectsNonPositiveEntries() {
	err := s.service.Credit(s.GetContext(), "draw_1", "acct_1", 0)
	s.True(ierr.IsValidation(err))
}

func (s *DrawServiceSuite) TestCreditRequiresActiveDraw() {
	for _, status := range []types.DrawStatus{
		types.DrawStatusQueued,
		types.DrawStatusFrozen,
		types.DrawStatusCompleted,
		types.DrawStatusCancelled,
	} {
		id := "draw_" + string(status)
		s.seedDraw(&draw.Draw{ID: id, Name: "D", Type: types.DrawTypeMajor, Status: status})

		err := s.service.Credit(s.GetContext(), id, "acct_1", 1)
		s.Error(err)
		s.True(ierr.IsInvalidState(err), "status %s must reject credits", status)
	}
}

func (s *DrawServiceSuite) TestMiniDrawThresholdRejectsWholesale() {
	s.seedDraw(&draw.Draw{
		ID:           "draw_mini",
		Name:         "Mini",
		Type:         types.DrawTypeMini,
		Status:       types.DrawStatusActive,
		TotalEntries: 98,
		MinEntries:   100,
	})

	// 98 + 5 > 100: the whole credit is rejected, no partial fill.
	err := s.service.Credit(s.GetContext(), "draw_mini", "acct_1", 5)
	s.True(errors.Is(err, ierr.ErrCapacityExceeded))

	d, err := s.GetStores().DrawRepo.Get(s.GetContext(), "draw_mini")
	s.NoError(err)
	s.Equal(int64(98), d.TotalEntries)

	// An exact fill is accepted.
	s.NoError(s.service.Credit(s.GetContext(), "draw_mini", "acct_1", 2))
}

func (s *DrawServiceSuite) TestMajorDrawIgnoresThreshold() {
	s.seedDraw(&draw.Draw{
		ID:           "draw_major",
		Name:         "Major",
		Type:         types.DrawTypeMajor,
		Status:       types.DrawStatusActive,
		TotalEntries: 1_000_000,
	})
	s.NoError(s.service.Credit(s.GetContext(), "draw_major", "acct_1", 500))
}

func (s *DrawServiceSuite) frozenDrawWithEntries() {
	s.seedDraw(&draw.Draw{
		ID:     "draw_f",
		Name:   "Frozen",
		Type:   types.DrawTypeMajor,
		Status: types.DrawStatusActive,
	})
	s.NoError(s.service.Credit(s.GetContext(), "draw_f", "acct_1", 10))
	s.NoError(s.service.Credit(s.GetContext(), "draw_f", "acct_2", 10))
	_, err := s.service.UpdateStatus(s.GetContext(), "draw_f", types.DrawStatusFrozen)
	s.NoError(err)
}

func (s *DrawServiceSuite) TestSelectWinnerIsSingleShot() {
	s.frozenDrawWithEntries()

	resp, err := s.service.SelectWinner(s.GetContext(), "draw_f", &dto.SelectWinnerRequest{
		AccountID:   "acct_1",
		EntryNumber: 7,
		Method:      types.WinnerSelectionMethodRegulatorDraw,
	})
	s.NoError(err)
	s.Equal(types.DrawStatusCompleted, resp.Status)
	s.Require().NotNil(resp.Winner)
	s.Equal("acct_1", resp.Winner.AccountID)
	s.Equal(int64(7), resp.Winner.EntryNumber)

	_, err = s.service.SelectWinner(s.GetContext(), "draw_f", &dto.SelectWinnerRequest{
		AccountID:   "acct_2",
		EntryNumber: 12,
		Method:      types.WinnerSelectionMethodManual,
	})
	s.True(errors.Is(err, ierr.ErrAlreadyDecided))
}

func (s *DrawServiceSuite) TestSelectWinnerRequiresFrozenOrCompleted() {
	s.seedDraw(&draw.Draw{
		ID:           "draw_live",
		Name:         "Live",
		Type:         types.DrawTypeMajor,
		Status:       types.DrawStatusActive,
		TotalEntries: 10,
	})

	_, err := s.service.SelectWinner(s.GetContext(), "draw_live", &dto.SelectWinnerRequest{
		AccountID:   "acct_1",
		EntryNumber: 1,
		Method:      types.WinnerSelectionMethodManual,
	})
	s.True(ierr.IsInvalidState(err))
}

func (s *DrawServiceSuite) TestSelectWinnerRejectsNonParticipant() {
	s.frozenDrawWithEntries()

	_, err := s.service.SelectWinner(s.GetContext(), "draw_f", &dto.SelectWinnerRequest{
		AccountID:   "acct_stranger",
		EntryNumber: 3,
		Method:      types.WinnerSelectionMethodManual,
	})
	s.True(errors.Is(err, ierr.ErrNotAParticipant))
}

func (s *DrawServiceSuite) TestSelectWinnerRejectsOutOfRangeEntry() {
	s.frozenDrawWithEntries()

	for _, n := range []int64{0, -1, 21} {
		_, err := s.service.SelectWinner(s.GetContext(), "draw_f", &dto.SelectWinnerRequest{
			AccountID:   "acct_1",
			EntryNumber: n,
			Method:      types.WinnerSelectionMethodManual,
		})
		s.True(errors.Is(err, ierr.ErrOutOfRange), "entry %d must be out of range", n)
	}
}

func (s *DrawServiceSuite) TestUpdateStatusEnforcesTransitions() {
	s.seedDraw(&draw.Draw{ID: "draw_q", Name: "Q", Type: types.DrawTypeMajor, Status: types.DrawStatusQueued})

	// queued cannot jump straight to frozen.
	_, err := s.service.UpdateStatus(s.GetContext(), "draw_q", types.DrawStatusFrozen)
	s.True(ierr.IsInvalidState(err))

	resp, err := s.service.UpdateStatus(s.GetContext(), "draw_q", types.DrawStatusActive)
	s.NoError(err)
	s.Equal(types.DrawStatusActive, resp.Status)

	resp, err = s.service.UpdateStatus(s.GetContext(), "draw_q", types.DrawStatusFrozen)
	s.NoError(err)
	s.Equal(types.DrawStatusFrozen, resp.Status)

	// completed is terminal.
	_, err = s.service.UpdateStatus(s.GetContext(), "draw_q", types.DrawStatusCompleted)
	s.NoError(err)
	_, err = s.service.UpdateStatus(s.GetContext(), "draw_q", types.DrawStatusActive)
	s.True(ierr.IsInvalidState(err))
}

func (s *DrawServiceSuite) TestExportParticipants() {
	s.frozenDrawWithEntries()

	resp, err := s.service.ExportParticipants(s.GetContext(), "draw_f")
	s.NoError(err)
	s.Equal("draw_f", resp.DrawID)
	s.Equal(int64(20), resp.TotalEntries)
	s.Len(resp.Participants, 2)
}

func (s *DrawServiceSuite) TestGetDrawHistoryFilters() {
	s.seedDraw(&draw.Draw{ID: "d1", Name: "A", Type: types.DrawTypeMajor, Status: types.DrawStatusActive})
	s.seedDraw(&draw.Draw{ID: "d2", Name: "B", Type: types.DrawTypeMini, Status: types.DrawStatusActive, MinEntries: 10})
	s.seedDraw(&draw.Draw{ID: "d3", Name: "C", Type: types.DrawTypeMini, Status: types.DrawStatusCompleted, MinEntries: 10})

	all, err := s.service.GetDrawHistory(s.GetContext(), nil)
	s.NoError(err)
	s.Equal(3, all.Total)

	minis, err := s.service.GetDrawHistory(s.GetContext(), &draw.Filter{Types: []types.DrawType{types.DrawTypeMini}})
	s.NoError(err)
	s.Equal(2, minis.Total)

	done, err := s.service.GetDrawHistory(s.GetContext(), &draw.Filter{Statuses: []types.DrawStatus{types.DrawStatusCompleted}})
	s.NoError(err)
	s.Equal(1, done.Total)
}
