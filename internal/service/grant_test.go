package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/drawcard/drawcard/internal/domain/account"
	"github.com/drawcard/drawcard/internal/domain/catalog"
	"github.com/drawcard/drawcard/internal/domain/draw"
	"github.com/drawcard/drawcard/internal/domain/promotion"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/testutil"
	"github.com/drawcard/drawcard/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type GrantServiceSuite struct {
	testutil.BaseServiceTestSuite
	service GrantService
	params  ServiceParams
}

func TestGrantService(t *testing.T) {
	suite.Run(t, new(GrantServiceSuite))
}

func (s *GrantServiceSuite) SetupTest() {
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
	s.service = NewGrantService(s.params)

	s.seedFixtures()
}

func (s *GrantServiceSuite) seedFixtures() {
	ctx := s.GetContext()

	s.NoError(s.GetStores().AccountRepo.Create(ctx, &account.Account{
		ID:        "acct_1",
		Points:    decimal.Zero,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}))

	// The recurring major draw configured for subscription credits.
	s.NoError(s.GetStores().DrawRepo.Create(ctx, &draw.Draw{
		ID:        s.GetConfig().Benefits.MajorDrawID,
		Name:      "Monthly Major",
		Type:      types.DrawTypeMajor,
		Status:    types.DrawStatusActive,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}))

	s.NoError(s.GetStores().CatalogRepo.Create(ctx, &catalog.Package{
		ID:        "pkg_onetime",
		Name:      "Starter Pack",
		Type:      types.PackageTypeOneTime,
		Price:     decimal.NewFromInt(25),
		Currency:  "usd",
		Entries:   10,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}))
}

func (s *GrantServiceSuite) process(transactionID string) (*ProcessPaymentResult, error) {
	return s.service.ProcessPayment(s.GetContext(), &ProcessPaymentRequest{
		TransactionID: transactionID,
		EventKind:     types.PaymentEventSucceeded,
		AccountID:     "acct_1",
		PackageType:   types.PackageTypeOneTime,
		PackageID:     "pkg_onetime",
	})
}

func (s *GrantServiceSuite) TestProcessPaymentGrantsBenefits() {
	result, err := s.process("txn_1")
	s.NoError(err)
	s.False(result.Duplicate)
	s.False(result.Ignored)
	s.Equal(int64(10), result.Grant.Entries)
	s.True(result.Grant.Points.Equal(decimal.NewFromInt(25)))
	s.Equal([]string{s.GetConfig().Benefits.MajorDrawID}, result.CreditedDraws)

	acct, err := s.GetStores().AccountRepo.Get(s.GetContext(), "acct_1")
	s.NoError(err)
	s.Equal(int64(10), acct.Entries)
	s.True(acct.Points.Equal(decimal.NewFromInt(25)))
	s.Len(acct.OneTimePackages, 1)
	s.Equal("txn_1", acct.OneTimePackages[0].TransactionID)

	d, err := s.GetStores().DrawRepo.Get(s.GetContext(), s.GetConfig().Benefits.MajorDrawID)
	s.NoError(err)
	s.Equal(int64(10), d.TotalEntries)

	row, err := s.GetStores().LedgerRepo.Get(s.GetContext(), "txn_1", types.PaymentEventSucceeded)
	s.NoError(err)
	s.Equal("acct_1", row.AccountID)
}

func (s *GrantServiceSuite) TestDuplicateDeliveryIsNoOp() {
	_, err := s.process("txn_dup")
	s.NoError(err)

	result, err := s.process("txn_dup")
	s.NoError(err)
	s.True(result.Duplicate)

	acct, err := s.GetStores().AccountRepo.Get(s.GetContext(), "acct_1")
	s.NoError(err)
	s.Equal(int64(10), acct.Entries)
	s.Len(acct.OneTimePackages, 1)
}

func (s *GrantServiceSuite) TestConcurrentDuplicateDelivery() {
	const deliveries = 8

	var wg sync.WaitGroup
	results := make([]*ProcessPaymentResult, deliveries)
	errs := make([]error, deliveries)

	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.process("txn_race")
		}(i)
	}
	wg.Wait()

	granted := 0
	for i := 0; i < deliveries; i++ {
		s.NoError(errs[i])
		if !results[i].Duplicate {
			granted++
		}
	}
	s.Equal(1, granted)

	acct, err := s.GetStores().AccountRepo.Get(s.GetContext(), "acct_1")
	s.NoError(err)
	s.Equal(int64(10), acct.Entries)
}

func (s *GrantServiceSuite) TestNonSettlingKindsAreIgnored() {
	for _, kind := range []types.PaymentEventKind{
		types.PaymentEventProcessing,
		types.PaymentEventRequiresAction,
		types.PaymentEventFailed,
	} {
		result, err := s.service.ProcessPayment(s.GetContext(), &ProcessPaymentRequest{
			TransactionID: fmt.Sprintf("txn_%s", kind),
			EventKind:     kind,
			AccountID:     "acct_1",
			PackageType:   types.PackageTypeOneTime,
			PackageID:     "pkg_onetime",
		})
		s.NoError(err)
		s.True(result.Ignored, "kind %s must not grant benefits", kind)
	}

	acct, err := s.GetStores().AccountRepo.Get(s.GetContext(), "acct_1")
	s.NoError(err)
	s.Equal(int64(0), acct.Entries)
}

func (s *GrantServiceSuite) TestFailedAndSucceededAreDistinctLedgerRows() {
	// A failed event is ignored without touching the ledger, so the later
	// succeeded event for the same transaction still grants.
	_, err := s.service.ProcessPayment(s.GetContext(), &ProcessPaymentRequest{
		TransactionID: "txn_retry",
		EventKind:     types.PaymentEventFailed,
		AccountID:     "acct_1",
		PackageType:   types.PackageTypeOneTime,
		PackageID:     "pkg_onetime",
	})
	s.NoError(err)

	result, err := s.process("txn_retry")
	s.NoError(err)
	s.False(result.Duplicate)
	s.False(result.Ignored)
}

func (s *GrantServiceSuite) TestPromotionMultipliesEntriesOnly() {
	ctx := s.GetContext()
	now := time.Now().UTC()
	s.NoError(s.GetStores().PromotionRepo.Create(ctx, &promotion.Promotion{
		ID:         "promo_2x",
		Name:       "Double Entries Weekend",
		Category:   types.PackageTypeOneTime,
		Multiplier: 2,
		StartAt:    now.Add(-time.Hour),
		EndAt:      now.Add(time.Hour),
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}))

	result, err := s.process("txn_promo")
	s.NoError(err)
	s.Equal(int64(20), result.Grant.Entries)
	s.Equal(int64(2), result.Grant.Multiplier)
	s.Equal("promo_2x", result.Grant.PromotionID)
	// Points follow price, not the multiplier.
	s.True(result.Grant.Points.Equal(decimal.NewFromInt(25)))

	acct, err := s.GetStores().AccountRepo.Get(ctx, "acct_1")
	s.NoError(err)
	s.Equal(int64(20), acct.Entries)
}

func (s *GrantServiceSuite) TestMiniDrawOverflowRejectsWholePurchase() {
	ctx := s.GetContext()
	s.NoError(s.GetStores().DrawRepo.Create(ctx, &draw.Draw{
		ID:           "draw_mini",
		Name:         "Flash Mini",
		Type:         types.DrawTypeMini,
		Status:       types.DrawStatusActive,
		TotalEntries: 95,
		MinEntries:   100,
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}))
	s.NoError(s.GetStores().CatalogRepo.Create(ctx, &catalog.Package{
		ID:        "pkg_mini",
		Name:      "Mini Bundle",
		Type:      types.PackageTypeMiniDraw,
		Price:     decimal.NewFromInt(10),
		Currency:  "usd",
		Entries:   10,
		DrawID:    "draw_mini",
		BaseModel: types.GetDefaultBaseModel(ctx),
	}))

	_, err := s.service.ProcessPayment(ctx, &ProcessPaymentRequest{
		TransactionID: "txn_overflow",
		EventKind:     types.PaymentEventSucceeded,
		AccountID:     "acct_1",
		PackageType:   types.PackageTypeMiniDraw,
		PackageID:     "pkg_mini",
	})
	s.Error(err)
	s.True(errors.Is(err, ierr.ErrCapacityExceeded))

	// Rejected before admission: nothing was granted and the event is
	// retryable.
	_, err = s.GetStores().LedgerRepo.Get(ctx, "txn_overflow", types.PaymentEventSucceeded)
	s.True(ierr.IsNotFound(err))

	acct, err := s.GetStores().AccountRepo.Get(ctx, "acct_1")
	s.NoError(err)
	s.Equal(int64(0), acct.Entries)
}

func (s *GrantServiceSuite) TestSubscriptionCreditsMajorAndActiveMiniDraw() {
	ctx := s.GetContext()
	s.NoError(s.GetStores().DrawRepo.Create(ctx, &draw.Draw{
		ID:         "draw_mini_live",
		Name:       "Live Mini",
		Type:       types.DrawTypeMini,
		Status:     types.DrawStatusActive,
		MinEntries: 1000,
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}))
	s.NoError(s.GetStores().CatalogRepo.Create(ctx, &catalog.Package{
		ID:              "pkg_sub",
		Name:            "Gold Membership",
		Type:            types.PackageTypeSubscription,
		Price:           decimal.NewFromInt(50),
		Currency:        "usd",
		EntriesPerMonth: 40,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}))

	result, err := s.service.ProcessPayment(ctx, &ProcessPaymentRequest{
		TransactionID: "txn_sub",
		EventKind:     types.PaymentEventSucceeded,
		AccountID:     "acct_1",
		PackageType:   types.PackageTypeSubscription,
		PackageID:     "pkg_sub",
	})
	s.NoError(err)
	s.ElementsMatch([]string{s.GetConfig().Benefits.MajorDrawID, "draw_mini_live"}, result.CreditedDraws)

	acct, err := s.GetStores().AccountRepo.Get(ctx, "acct_1")
	s.NoError(err)
	s.Equal(int64(40), acct.Entries)
	// Subscription payments do not append to the purchase history lists.
	s.Empty(acct.OneTimePackages)
	s.Empty(acct.MiniDrawPackages)
}

func (s *GrantServiceSuite) TestDiscountGrantEnqueuedFromPackage() {
	ctx := s.GetContext()
	s.NoError(s.GetStores().CatalogRepo.Create(ctx, &catalog.Package{
		ID:           "pkg_discounted",
		Name:         "Pack With Perks",
		Type:         types.PackageTypeOneTime,
		Price:        decimal.NewFromInt(30),
		Currency:     "usd",
		Entries:      5,
		DiscountDays: 3,
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}))

	result, err := s.service.ProcessPayment(ctx, &ProcessPaymentRequest{
		TransactionID: "txn_disc",
		EventKind:     types.PaymentEventSucceeded,
		AccountID:     "acct_1",
		PackageType:   types.PackageTypeOneTime,
		PackageID:     "pkg_discounted",
	})
	s.NoError(err)
	s.NotEmpty(result.DiscountGrantID)

	grants, err := s.GetStores().DiscountRepo.ListByAccount(ctx, "acct_1")
	s.NoError(err)
	s.Len(grants, 1)
	s.Equal(3, grants[0].DurationDays)
	s.Equal(int64(1), grants[0].QueuePosition)
	s.Nil(grants[0].StartDate)
}

func (s *GrantServiceSuite) TestUpsellRequiresOriginatingDraw() {
	ctx := s.GetContext()
	s.NoError(s.GetStores().CatalogRepo.Create(ctx, &catalog.Package{
		ID:        "pkg_upsell",
		Name:      "Entry Booster",
		Type:      types.PackageTypeUpsell,
		Price:     decimal.NewFromInt(5),
		Currency:  "usd",
		Entries:   3,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}))

	_, err := s.service.ProcessPayment(ctx, &ProcessPaymentRequest{
		TransactionID: "txn_upsell",
		EventKind:     types.PaymentEventSucceeded,
		AccountID:     "acct_1",
		PackageType:   types.PackageTypeUpsell,
		PackageID:     "pkg_upsell",
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))

	result, err := s.service.ProcessPayment(ctx, &ProcessPaymentRequest{
		TransactionID: "txn_upsell",
		EventKind:     types.PaymentEventSucceeded,
		AccountID:     "acct_1",
		PackageType:   types.PackageTypeUpsell,
		PackageID:     "pkg_upsell",
		DrawID:        s.GetConfig().Benefits.MajorDrawID,
	})
	s.NoError(err)
	s.Equal([]string{s.GetConfig().Benefits.MajorDrawID}, result.CreditedDraws)
}
