package service

import (
	"testing"
	"time"

	"github.com/drawcard/drawcard/internal/api/dto"
	"github.com/drawcard/drawcard/internal/domain/catalog"
	"github.com/drawcard/drawcard/internal/domain/subscription"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/testutil"
	"github.com/drawcard/drawcard/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type DiscountScheduleServiceSuite struct {
	testutil.BaseServiceTestSuite
	service DiscountScheduleService
	params  ServiceParams
}

func TestDiscountScheduleService(t *testing.T) {
	suite.Run(t, new(DiscountScheduleServiceSuite))
}

func (s *DiscountScheduleServiceSuite) SetupTest() {
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
	s.service = NewDiscountScheduleService(s.params)
}

func (s *DiscountScheduleServiceSuite) enqueue(accountID string, days, hours int) *dto.EnqueueGrantRequest {
	req := &dto.EnqueueGrantRequest{
		AccountID:     accountID,
		PackageID:     "pkg_discounted",
		PackageName:   "Pack With Perks",
		PackageType:   types.PackageTypeOneTime,
		DurationDays:  days,
		DurationHours: hours,
	}
	_, err := s.service.Enqueue(s.GetContext(), req)
	s.NoError(err)
	return req
}

func (s *DiscountScheduleServiceSuite) TestQueuePositionsAreMonotonic() {
	s.enqueue("acct_1", 3, 0)
	s.enqueue("acct_1", 5, 0)
	s.enqueue("acct_2", 1, 0)

	grants, err := s.GetStores().DiscountRepo.ListByAccount(s.GetContext(), "acct_1")
	s.NoError(err)
	s.Len(grants, 2)
	s.Equal(int64(1), grants[0].QueuePosition)
	s.Equal(int64(2), grants[1].QueuePosition)

	// Positions are per account.
	other, err := s.GetStores().DiscountRepo.ListByAccount(s.GetContext(), "acct_2")
	s.NoError(err)
	s.Equal(int64(1), other[0].QueuePosition)
}

func (s *DiscountScheduleServiceSuite) TestEnqueueRejectsZeroDuration() {
	_, err := s.service.Enqueue(s.GetContext(), &dto.EnqueueGrantRequest{
		AccountID:   "acct_1",
		PackageID:   "pkg_x",
		PackageType: types.PackageTypeOneTime,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *DiscountScheduleServiceSuite) TestFifoActivationWindowsNeverOverlap() {
	s.enqueue("acct_1", 3, 0)
	s.enqueue("acct_1", 5, 0)

	now := time.Now().UTC()

	// First read activates the head of the queue with a window starting now.
	resp, err := s.service.CurrentStateAt(s.GetContext(), "acct_1", now)
	s.NoError(err)
	s.Require().NotNil(resp.ActivePeriod)
	s.Equal(types.DiscountSourceGrant, resp.ActivePeriod.Source)
	s.Require().NotNil(resp.ActivePeriod.StartDate)
	s.True(resp.ActivePeriod.StartDate.Equal(now))
	s.True(resp.ActivePeriod.EndDate.Equal(now.Add(3 * 24 * time.Hour)))
	s.Equal(int64(1), *resp.ActivePeriod.QueuePosition)

	s.Len(resp.Queued, 1)
	s.Equal(1, resp.Totals.QueuedCount)
	s.Equal(5, resp.Totals.QueuedDays)

	// Still inside the first window: the second grant stays queued.
	resp, err = s.service.CurrentStateAt(s.GetContext(), "acct_1", now.Add(48*time.Hour))
	s.NoError(err)
	s.Require().NotNil(resp.ActivePeriod)
	s.Equal(int64(1), *resp.ActivePeriod.QueuePosition)
	s.Len(resp.Queued, 1)

	// Past expiry the second grant activates from the read instant, not from
	// the first window's end.
	later := now.Add(4 * 24 * time.Hour)
	resp, err = s.service.CurrentStateAt(s.GetContext(), "acct_1", later)
	s.NoError(err)
	s.Require().NotNil(resp.ActivePeriod)
	s.Equal(int64(2), *resp.ActivePeriod.QueuePosition)
	s.True(resp.ActivePeriod.StartDate.Equal(later))
	s.True(resp.ActivePeriod.EndDate.Equal(later.Add(5 * 24 * time.Hour)))
	s.Empty(resp.Queued)

	// The first window was persisted and is disjoint from the second.
	grants, err := s.GetStores().DiscountRepo.ListByAccount(s.GetContext(), "acct_1")
	s.NoError(err)
	s.True(grants[0].EndDate.Before(*grants[1].StartDate) || grants[0].EndDate.Equal(*grants[1].StartDate))
}

func (s *DiscountScheduleServiceSuite) TestHourGrantsActivateWithHourWindows() {
	s.enqueue("acct_1", 0, 6)

	now := time.Now().UTC()
	resp, err := s.service.CurrentStateAt(s.GetContext(), "acct_1", now)
	s.NoError(err)
	s.Require().NotNil(resp.ActivePeriod)
	s.True(resp.ActivePeriod.EndDate.Equal(now.Add(6 * time.Hour)))
}

func (s *DiscountScheduleServiceSuite) TestEmptyScheduleHasNoActivePeriod() {
	resp, err := s.service.CurrentState(s.GetContext(), "acct_1")
	s.NoError(err)
	s.Nil(resp.ActivePeriod)
	s.Empty(resp.Queued)
	s.Equal(0, resp.Totals.QueuedCount)
}

func (s *DiscountScheduleServiceSuite) TestActiveSubscriptionSuspendsQueue() {
	ctx := s.GetContext()
	s.NoError(s.GetStores().CatalogRepo.Create(ctx, &catalog.Package{
		ID:              "pkg_gold",
		Name:            "Gold Membership",
		Type:            types.PackageTypeSubscription,
		Price:           decimal.NewFromInt(50),
		Currency:        "usd",
		DiscountPercent: decimal.NewFromInt(20),
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}))

	start := time.Now().UTC().Add(-30 * 24 * time.Hour)
	s.NoError(s.GetStores().SubRepo.Create(ctx, &subscription.Subscription{
		ID:            "sub_1",
		AccountID:     "acct_1",
		PackageID:     "pkg_gold",
		Active:        true,
		BillingStatus: types.BillingStatusActive,
		StartDate:     start,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}))

	s.enqueue("acct_1", 3, 0)

	resp, err := s.service.CurrentState(ctx, "acct_1")
	s.NoError(err)
	s.Require().NotNil(resp.ActivePeriod)
	s.Equal(types.DiscountSourceSubscription, resp.ActivePeriod.Source)
	s.Equal("pkg_gold", resp.ActivePeriod.PackageID)
	s.True(resp.ActivePeriod.DiscountPercent.Equal(decimal.NewFromInt(20)))
	s.Nil(resp.ActivePeriod.EndDate)

	// The purchased grant is suspended, not consumed: still queued with no
	// activation window.
	s.Len(resp.Queued, 1)
	grants, err := s.GetStores().DiscountRepo.ListByAccount(ctx, "acct_1")
	s.NoError(err)
	s.Nil(grants[0].StartDate)
}

func (s *DiscountScheduleServiceSuite) TestQueueResumesAfterSubscriptionEnds() {
	ctx := s.GetContext()
	s.NoError(s.GetStores().CatalogRepo.Create(ctx, &catalog.Package{
		ID:        "pkg_gold",
		Name:      "Gold Membership",
		Type:      types.PackageTypeSubscription,
		Price:     decimal.NewFromInt(50),
		Currency:  "usd",
		BaseModel: types.GetDefaultBaseModel(ctx),
	}))
	s.NoError(s.GetStores().SubRepo.Create(ctx, &subscription.Subscription{
		ID:            "sub_1",
		AccountID:     "acct_1",
		PackageID:     "pkg_gold",
		Active:        false,
		BillingStatus: types.BillingStatusCanceled,
		StartDate:     time.Now().UTC().Add(-60 * 24 * time.Hour),
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}))

	s.enqueue("acct_1", 2, 0)

	resp, err := s.service.CurrentState(ctx, "acct_1")
	s.NoError(err)
	s.Require().NotNil(resp.ActivePeriod)
	s.Equal(types.DiscountSourceGrant, resp.ActivePeriod.Source)
}
