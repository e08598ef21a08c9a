package service

import (
	"testing"
	"time"

	"github.com/drawcard/drawcard/internal/domain/catalog"
	"github.com/drawcard/drawcard/internal/domain/promotion"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/testutil"
	"github.com/drawcard/drawcard/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type BenefitServiceSuite struct {
	testutil.BaseServiceTestSuite
	service BenefitService
	params  ServiceParams
}

func TestBenefitService(t *testing.T) {
	suite.Run(t, new(BenefitServiceSuite))
}

func (s *BenefitServiceSuite) SetupTest() {
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
	s.service = NewBenefitService(s.params)
}

func (s *BenefitServiceSuite) seedPackage(pkg *catalog.Package) {
	pkg.BaseModel = types.GetDefaultBaseModel(s.GetContext())
	s.NoError(s.GetStores().CatalogRepo.Create(s.GetContext(), pkg))
}

func (s *BenefitServiceSuite) seedPromotion(category types.PackageType, multiplier int64, now time.Time) {
	ctx := s.GetContext()
	s.NoError(s.GetStores().PromotionRepo.Create(ctx, &promotion.Promotion{
		ID:         "promo_" + string(category),
		Name:       "Promo",
		Category:   category,
		Multiplier: multiplier,
		StartAt:    now.Add(-time.Hour),
		EndAt:      now.Add(time.Hour),
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}))
}

func (s *BenefitServiceSuite) TestResolveOneTimePackage() {
	s.seedPackage(&catalog.Package{
		ID:       "pkg_1",
		Name:     "Starter Pack",
		Type:     types.PackageTypeOneTime,
		Price:    decimal.RequireFromString("24.99"),
		Currency: "usd",
		Entries:  10,
	})

	grant, err := s.service.Resolve(s.GetContext(), types.PackageTypeOneTime, "pkg_1", time.Now().UTC())
	s.NoError(err)
	s.Equal(int64(10), grant.Entries)
	// Points are the floored price times the configured ratio.
	s.True(grant.Points.Equal(decimal.NewFromInt(24)))
	s.Zero(grant.DiscountDays)
	s.Empty(grant.PromotionID)
}

func (s *BenefitServiceSuite) TestResolveSubscriptionUsesMonthlyEntries() {
	s.seedPackage(&catalog.Package{
		ID:              "pkg_sub",
		Name:            "Gold Membership",
		Type:            types.PackageTypeSubscription,
		Price:           decimal.NewFromInt(50),
		Currency:        "usd",
		EntriesPerMonth: 40,
	})

	grant, err := s.service.Resolve(s.GetContext(), types.PackageTypeSubscription, "pkg_sub", time.Now().UTC())
	s.NoError(err)
	s.Equal(int64(40), grant.Entries)
	s.True(grant.Points.Equal(decimal.NewFromInt(50)))
}

func (s *BenefitServiceSuite) TestResolveRejectsTypeMismatch() {
	s.seedPackage(&catalog.Package{
		ID:       "pkg_1",
		Name:     "Starter Pack",
		Type:     types.PackageTypeOneTime,
		Price:    decimal.NewFromInt(25),
		Currency: "usd",
		Entries:  10,
	})

	_, err := s.service.Resolve(s.GetContext(), types.PackageTypeSubscription, "pkg_1", time.Now().UTC())
	s.True(ierr.IsValidation(err))
}

func (s *BenefitServiceSuite) TestResolveUnknownPackage() {
	_, err := s.service.Resolve(s.GetContext(), types.PackageTypeOneTime, "pkg_missing", time.Now().UTC())
	s.True(ierr.IsNotFound(err))
}

func (s *BenefitServiceSuite) TestPromotionScalesEntriesNotPoints() {
	now := time.Now().UTC()
	s.seedPackage(&catalog.Package{
		ID:       "pkg_1",
		Name:     "Starter Pack",
		Type:     types.PackageTypeOneTime,
		Price:    decimal.NewFromInt(25),
		Currency: "usd",
		Entries:  10,
	})
	s.seedPromotion(types.PackageTypeOneTime, 3, now)

	grant, err := s.service.Resolve(s.GetContext(), types.PackageTypeOneTime, "pkg_1", now)
	s.NoError(err)
	s.Equal(int64(30), grant.Entries)
	s.Equal(int64(3), grant.Multiplier)
	s.True(grant.Points.Equal(decimal.NewFromInt(25)))
}

func (s *BenefitServiceSuite) TestPromotionAppliesOnlyInsideWindow() {
	now := time.Now().UTC()
	s.seedPackage(&catalog.Package{
		ID:       "pkg_1",
		Name:     "Starter Pack",
		Type:     types.PackageTypeOneTime,
		Price:    decimal.NewFromInt(25),
		Currency: "usd",
		Entries:  10,
	})
	s.seedPromotion(types.PackageTypeOneTime, 2, now)

	grant, err := s.service.Resolve(s.GetContext(), types.PackageTypeOneTime, "pkg_1", now.Add(2*time.Hour))
	s.NoError(err)
	s.Equal(int64(10), grant.Entries)
	s.Empty(grant.PromotionID)
}

func (s *BenefitServiceSuite) TestSubscriptionsAreNeverPromoted() {
	now := time.Now().UTC()
	s.seedPackage(&catalog.Package{
		ID:              "pkg_sub",
		Name:            "Gold Membership",
		Type:            types.PackageTypeSubscription,
		Price:           decimal.NewFromInt(50),
		Currency:        "usd",
		EntriesPerMonth: 40,
	})
	s.seedPromotion(types.PackageTypeOneTime, 10, now)

	grant, err := s.service.Resolve(s.GetContext(), types.PackageTypeSubscription, "pkg_sub", now)
	s.NoError(err)
	s.Equal(int64(40), grant.Entries)
	s.Empty(grant.PromotionID)
}

func (s *BenefitServiceSuite) TestMiniDrawPackageCarriesDrawAndDiscount() {
	s.seedPackage(&catalog.Package{
		ID:           "pkg_mini",
		Name:         "Mini Bundle",
		Type:         types.PackageTypeMiniDraw,
		Price:        decimal.NewFromInt(10),
		Currency:     "usd",
		Entries:      5,
		DrawID:       "draw_mini",
		DiscountDays: 2,
	})

	grant, err := s.service.Resolve(s.GetContext(), types.PackageTypeMiniDraw, "pkg_mini", time.Now().UTC())
	s.NoError(err)
	s.Equal("draw_mini", grant.DrawID)
	s.Equal(2, grant.DiscountDays)
}
