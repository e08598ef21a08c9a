package service

import (
	"context"
	"time"

	"github.com/drawcard/drawcard/internal/domain/catalog"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/types"
	"github.com/shopspring/decimal"
)

// BenefitGrant is the resolved benefit of one purchase: entries, points and
// a partner-discount window, after any promotional multiplier.
type BenefitGrant struct {
	PackageID   string            `json:"package_id"`
	PackageName string            `json:"package_name"`
	PackageType types.PackageType `json:"package_type"`

	Entries       int64           `json:"entries"`
	Points        decimal.Decimal `json:"points"`
	DiscountDays  int             `json:"discount_days"`
	DiscountHours int             `json:"discount_hours"`

	// DrawID is the draw the package is tied to, when it names one.
	DrawID string `json:"draw_id,omitempty"`

	// PromotionID records the applied multiplier's source, if any.
	PromotionID string `json:"promotion_id,omitempty"`
	Multiplier  int64  `json:"multiplier,omitempty"`
}

// BenefitService resolves the benefits of a package purchase. Pure lookup:
// no side effects, safe to call repeatedly.
type BenefitService interface {
	// Resolve computes the benefit grant for one purchase of the package at
	// the given instant.
	Resolve(ctx context.Context, packageType types.PackageType, packageID string, at time.Time) (*BenefitGrant, error)
}

type benefitService struct {
	ServiceParams
}

// NewBenefitService creates a new benefit rule resolver.
func NewBenefitService(params ServiceParams) BenefitService {
	return &benefitService{ServiceParams: params}
}

func (s *benefitService) Resolve(ctx context.Context, packageType types.PackageType, packageID string, at time.Time) (*BenefitGrant, error) {
	if err := packageType.Validate(); err != nil {
		return nil, err
	}

	pkg, err := s.CatalogRepo.Get(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if pkg.Type != packageType {
		return nil, ierr.NewError("package type mismatch").
			WithHint("The purchase metadata does not match the catalog entry").
			WithReportableDetails(map[string]interface{}{
				"package_id":   packageID,
				"claimed_type": packageType,
				"catalog_type": pkg.Type,
			}).
			Mark(ierr.ErrValidation)
	}

	grant := &BenefitGrant{
		PackageID:     pkg.ID,
		PackageName:   pkg.Name,
		PackageType:   pkg.Type,
		Entries:       pkg.EntriesForPurchase(),
		Points:        s.pointsForPrice(pkg),
		DiscountDays:  pkg.DiscountDays,
		DiscountHours: pkg.DiscountHours,
		DrawID:        pkg.DrawID,
	}

	// Promotions scale entries by an integer multiplier only; points and
	// discount windows are never multiplied.
	if pkg.Type.PromotionEligible() {
		promo, err := s.PromotionRepo.GetActiveForCategory(ctx, pkg.Type, at)
		if err != nil {
			return nil, err
		}
		if promo != nil && promo.IsActiveAt(at) {
			grant.Entries *= promo.Multiplier
			grant.PromotionID = promo.ID
			grant.Multiplier = promo.Multiplier
		}
	}

	return grant, nil
}

// pointsForPrice derives reward points from package price: price floor times
// the configured ratio.
func (s *benefitService) pointsForPrice(pkg *catalog.Package) decimal.Decimal {
	ratio := decimal.NewFromInt(s.Config.Benefits.PointsRatio)
	return pkg.Price.Floor().Mul(ratio)
}
