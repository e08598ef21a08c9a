package service

import (
	"github.com/drawcard/drawcard/internal/config"
	"github.com/drawcard/drawcard/internal/domain/account"
	"github.com/drawcard/drawcard/internal/domain/catalog"
	"github.com/drawcard/drawcard/internal/domain/discount"
	"github.com/drawcard/drawcard/internal/domain/draw"
	"github.com/drawcard/drawcard/internal/domain/ledger"
	"github.com/drawcard/drawcard/internal/domain/promotion"
	"github.com/drawcard/drawcard/internal/domain/subscription"
	"github.com/drawcard/drawcard/internal/gateway"
	"github.com/drawcard/drawcard/internal/idempotency"
	"github.com/drawcard/drawcard/internal/logger"
	"github.com/drawcard/drawcard/internal/marketing"
	"github.com/drawcard/drawcard/internal/sentry"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration

	// Repositories
	LedgerRepo    ledger.Repository
	AccountRepo   account.Repository
	DrawRepo      draw.Repository
	DiscountRepo  discount.Repository
	SubRepo       subscription.Repository
	CatalogRepo   catalog.Repository
	PromotionRepo promotion.Repository

	// External collaborators
	Gateway        gateway.Gateway
	Tracker        marketing.Tracker
	Sentry         *sentry.Service
	IdempotencyGen idempotency.Generator
}
