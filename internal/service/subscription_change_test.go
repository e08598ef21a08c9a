package service

import (
	"errors"
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

type SubscriptionChangeServiceSuite struct {
	testutil.BaseServiceTestSuite
	service SubscriptionChangeService
	params  ServiceParams
}

func TestSubscriptionChangeService(t *testing.T) {
	suite.Run(t, new(SubscriptionChangeServiceSuite))
}

func (s *SubscriptionChangeServiceSuite) SetupTest() {
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
	s.service = NewSubscriptionChangeService(s.params)

	s.seedCatalog()
}

func (s *SubscriptionChangeServiceSuite) seedCatalog() {
	ctx := s.GetContext()
	packages := []*catalog.Package{
		{
			ID:              "pkg_silver",
			Name:            "Silver Membership",
			Type:            types.PackageTypeSubscription,
			Price:           decimal.NewFromInt(20),
			Currency:        "usd",
			EntriesPerMonth: 15,
			DiscountPercent: decimal.NewFromInt(10),
		},
		{
			ID:              "pkg_gold",
			Name:            "Gold Membership",
			Type:            types.PackageTypeSubscription,
			Price:           decimal.NewFromInt(50),
			Currency:        "usd",
			EntriesPerMonth: 40,
			DiscountPercent: decimal.NewFromInt(20),
		},
		{
			ID:       "pkg_onetime",
			Name:     "Starter Pack",
			Type:     types.PackageTypeOneTime,
			Price:    decimal.NewFromInt(25),
			Currency: "usd",
			Entries:  10,
		},
	}
	for _, pkg := range packages {
		pkg.BaseModel = types.GetDefaultBaseModel(ctx)
		s.NoError(s.GetStores().CatalogRepo.Create(ctx, pkg))
	}
}

// seedSubscription creates an active subscription on the given package with
// half of a 30-day billing cycle remaining.
func (s *SubscriptionChangeServiceSuite) seedSubscription(packageID string) *subscription.Subscription {
	ctx := s.GetContext()
	now := time.Now().UTC()
	sub := &subscription.Subscription{
		ID:                 "sub_1",
		AccountID:          "acct_1",
		PackageID:          packageID,
		StartDate:          now.Add(-90 * 24 * time.Hour),
		CurrentPeriodStart: now.Add(-15 * 24 * time.Hour),
		CurrentPeriodEnd:   now.Add(15 * 24 * time.Hour),
		AutoRenew:          true,
		BillingStatus:      types.BillingStatusActive,
		Active:             true,
		GatewayCustomerID:  "cus_fake_1",
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().SubRepo.Create(ctx, sub))
	return sub
}

func (s *SubscriptionChangeServiceSuite) TestUpgradeChargesProrationAndSwapsImmediately() {
	s.seedSubscription("pkg_silver")

	resp, err := s.service.Upgrade(s.GetContext(), "acct_1", &dto.ChangeSubscriptionRequest{
		TargetPackageID: "pkg_gold",
	})
	s.NoError(err)
	s.Equal("pkg_gold", resp.PackageID)
	s.Nil(resp.PendingChange)

	charges := s.GetGateway().Charges()
	s.Require().Len(charges, 1)
	s.Equal("cus_fake_1", charges[0].GatewayCustomerID)
	s.Equal("usd", charges[0].Currency)
	s.NotEmpty(charges[0].IdempotencyKey)

	// Half the cycle remains, so the charge is half the price difference.
	expected := decimal.NewFromInt(15)
	s.True(charges[0].Amount.Sub(expected).Abs().LessThanOrEqual(decimal.NewFromFloat(0.01)),
		"expected ~%s, charged %s", expected, charges[0].Amount)

	sub, err := s.GetStores().SubRepo.GetByAccount(s.GetContext(), "acct_1")
	s.NoError(err)
	s.Equal("pkg_gold", sub.PackageID)
	s.True(sub.PendingChange.None())
}

func (s *SubscriptionChangeServiceSuite) TestUpgradeGrantsNewBenefitsImmediately() {
	s.seedSubscription("pkg_silver")

	_, err := s.service.Upgrade(s.GetContext(), "acct_1", &dto.ChangeSubscriptionRequest{
		TargetPackageID: "pkg_gold",
	})
	s.NoError(err)

	benefits, err := s.service.EffectiveBenefits(s.GetContext(), "acct_1", time.Now().UTC())
	s.NoError(err)
	s.Require().NotNil(benefits)
	s.Equal("pkg_gold", benefits.PackageID)
	s.Equal(int64(40), benefits.EntriesPerMonth)
}

func (s *SubscriptionChangeServiceSuite) TestUpgradeDeclinedChargeLeavesSubscriptionUnchanged() {
	s.seedSubscription("pkg_silver")
	s.GetGateway().DeclineCharges = true

	_, err := s.service.Upgrade(s.GetContext(), "acct_1", &dto.ChangeSubscriptionRequest{
		TargetPackageID: "pkg_gold",
	})
	s.True(errors.Is(err, ierr.ErrPaymentRequired))

	sub, err := s.GetStores().SubRepo.GetByAccount(s.GetContext(), "acct_1")
	s.NoError(err)
	s.Equal("pkg_silver", sub.PackageID)
	s.True(sub.PendingChange.None())
}

func (s *SubscriptionChangeServiceSuite) TestUpgradeRejectsCheaperTarget() {
	s.seedSubscription("pkg_gold")

	_, err := s.service.Upgrade(s.GetContext(), "acct_1", &dto.ChangeSubscriptionRequest{
		TargetPackageID: "pkg_silver",
	})
	s.True(ierr.IsValidation(err))
	s.Empty(s.GetGateway().Charges())
}

func (s *SubscriptionChangeServiceSuite) TestDowngradeDefersAndPreservesBenefits() {
	sub := s.seedSubscription("pkg_gold")

	resp, err := s.service.Downgrade(s.GetContext(), "acct_1", &dto.ChangeSubscriptionRequest{
		TargetPackageID: "pkg_silver",
	})
	s.NoError(err)

	// Billing display moves immediately, no proration charge is made.
	s.Equal("pkg_silver", resp.PackageID)
	s.Empty(s.GetGateway().Charges())

	s.Require().NotNil(resp.PendingChange)
	s.Equal(types.PendingChangeDowngrade, resp.PendingChange.Kind)
	s.Require().NotNil(resp.PendingChange.EffectiveUntil)
	s.True(resp.PendingChange.EffectiveUntil.Equal(sub.CurrentPeriodEnd))
	s.Require().NotNil(resp.PendingChange.PreviousPackage)
	s.Equal("pkg_gold", resp.PendingChange.PreviousPackage.PackageID)

	// Benefits stay on the old package until the cycle ends.
	before, err := s.service.EffectiveBenefits(s.GetContext(), "acct_1", time.Now().UTC())
	s.NoError(err)
	s.Require().NotNil(before)
	s.Equal("pkg_gold", before.PackageID)
	s.Equal(int64(40), before.EntriesPerMonth)
	s.True(before.DiscountPercent.Equal(decimal.NewFromInt(20)))

	// After the cycle end the live package rules.
	after, err := s.service.EffectiveBenefits(s.GetContext(), "acct_1", sub.CurrentPeriodEnd.Add(time.Minute))
	s.NoError(err)
	s.Require().NotNil(after)
	s.Equal("pkg_silver", after.PackageID)
	s.Equal(int64(15), after.EntriesPerMonth)
}

func (s *SubscriptionChangeServiceSuite) TestDowngradeRejectsMoreExpensiveTarget() {
	s.seedSubscription("pkg_silver")

	_, err := s.service.Downgrade(s.GetContext(), "acct_1", &dto.ChangeSubscriptionRequest{
		TargetPackageID: "pkg_gold",
	})
	s.True(errors.Is(err, ierr.ErrInvalidDowngrade))
}

func (s *SubscriptionChangeServiceSuite) TestPendingChangeBlocksFurtherChanges() {
	s.seedSubscription("pkg_gold")

	_, err := s.service.Downgrade(s.GetContext(), "acct_1", &dto.ChangeSubscriptionRequest{
		TargetPackageID: "pkg_silver",
	})
	s.NoError(err)

	_, err = s.service.Upgrade(s.GetContext(), "acct_1", &dto.ChangeSubscriptionRequest{
		TargetPackageID: "pkg_gold",
	})
	s.True(errors.Is(err, ierr.ErrPendingChangeExists))
}

func (s *SubscriptionChangeServiceSuite) TestExpiredDowngradeWindowAllowsNewChanges() {
	ctx := s.GetContext()
	sub := s.seedSubscription("pkg_silver")

	// A downgrade from gold that took effect ten days ago: the snapshot is
	// stale and must not block further changes.
	effectiveUntil := time.Now().UTC().Add(-10 * 24 * time.Hour)
	sub.PendingChange = subscription.PendingChange{
		Kind:            types.PendingChangeDowngrade,
		TargetPackageID: "pkg_silver",
		PreviousBenefits: &subscription.BenefitSnapshot{
			PackageID:       "pkg_gold",
			PackageName:     "Gold Membership",
			Price:           decimal.NewFromInt(50),
			EntriesPerMonth: 40,
			DiscountPercent: decimal.NewFromInt(20),
		},
		EffectiveUntil: &effectiveUntil,
	}
	s.NoError(s.GetStores().SubRepo.Update(ctx, sub))

	// The expired snapshot no longer drives benefits.
	benefits, err := s.service.EffectiveBenefits(ctx, "acct_1", time.Now().UTC())
	s.NoError(err)
	s.Require().NotNil(benefits)
	s.Equal("pkg_silver", benefits.PackageID)

	resp, err := s.service.Upgrade(ctx, "acct_1", &dto.ChangeSubscriptionRequest{
		TargetPackageID: "pkg_gold",
	})
	s.NoError(err)
	s.Equal("pkg_gold", resp.PackageID)
	s.Nil(resp.PendingChange)

	// The cleared state was persisted by the upgrade's write.
	stored, err := s.GetStores().SubRepo.GetByAccount(ctx, "acct_1")
	s.NoError(err)
	s.True(stored.PendingChange.None())
}

func (s *SubscriptionChangeServiceSuite) TestUnexpiredDowngradeStillBlocksChanges() {
	sub := s.seedSubscription("pkg_silver")
	effectiveUntil := time.Now().UTC().Add(5 * 24 * time.Hour)
	sub.PendingChange = subscription.PendingChange{
		Kind:            types.PendingChangeDowngrade,
		TargetPackageID: "pkg_silver",
		EffectiveUntil:  &effectiveUntil,
	}
	s.NoError(s.GetStores().SubRepo.Update(s.GetContext(), sub))

	_, err := s.service.Upgrade(s.GetContext(), "acct_1", &dto.ChangeSubscriptionRequest{
		TargetPackageID: "pkg_gold",
	})
	s.True(errors.Is(err, ierr.ErrPendingChangeExists))
}

func (s *SubscriptionChangeServiceSuite) TestChangeRequiresActiveSubscription() {
	_, err := s.service.Upgrade(s.GetContext(), "acct_nobody", &dto.ChangeSubscriptionRequest{
		TargetPackageID: "pkg_gold",
	})
	s.True(ierr.IsInvalidState(err))
}

func (s *SubscriptionChangeServiceSuite) TestChangeRejectsSamePackage() {
	s.seedSubscription("pkg_gold")

	_, err := s.service.Upgrade(s.GetContext(), "acct_1", &dto.ChangeSubscriptionRequest{
		TargetPackageID: "pkg_gold",
	})
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionChangeServiceSuite) TestChangeRejectsNonSubscriptionTarget() {
	s.seedSubscription("pkg_silver")

	_, err := s.service.Upgrade(s.GetContext(), "acct_1", &dto.ChangeSubscriptionRequest{
		TargetPackageID: "pkg_onetime",
	})
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionChangeServiceSuite) TestEffectiveBenefitsNilWithoutSubscription() {
	benefits, err := s.service.EffectiveBenefits(s.GetContext(), "acct_1", time.Now().UTC())
	s.NoError(err)
	s.Nil(benefits)
}
