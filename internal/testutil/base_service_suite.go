package testutil

import (
	"context"

	"github.com/drawcard/drawcard/internal/config"
	"github.com/drawcard/drawcard/internal/idempotency"
	"github.com/drawcard/drawcard/internal/logger"
	"github.com/drawcard/drawcard/internal/marketing"
	"github.com/drawcard/drawcard/internal/sentry"
	"github.com/drawcard/drawcard/internal/types"
	"github.com/stretchr/testify/suite"
)

// Stores holds the in-memory repository fakes for a test run.
type Stores struct {
	LedgerRepo    *InMemoryLedgerStore
	AccountRepo   *InMemoryAccountStore
	DrawRepo      *InMemoryDrawStore
	DiscountRepo  *InMemoryDiscountStore
	SubRepo       *InMemorySubscriptionStore
	CatalogRepo   *InMemoryCatalogStore
	PromotionRepo *InMemoryPromotionStore
}

// BaseServiceTestSuite provides common setup for service tests: a tenant and
// environment scoped context, in-memory stores, a fake gateway and a no-op
// tracker.
type BaseServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	cfg     *config.Configuration
	logger  *logger.Logger
	stores  Stores
	gateway *FakeGateway
	tracker marketing.Tracker
	sentry  *sentry.Service
	idemGen idempotency.Generator
}

// SetupTest runs before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupConfig()
	s.setupStores()
}

// TearDownTest runs after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.ClearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	ctx := context.Background()
	ctx = context.WithValue(ctx, types.CtxTenantID, types.DefaultTenantID)
	ctx = context.WithValue(ctx, types.CtxUserID, "user_test")
	ctx = context.WithValue(ctx, types.CtxEnvironmentID, "env_test")
	s.ctx = ctx
}

func (s *BaseServiceTestSuite) setupConfig() {
	s.logger = logger.NewNoOpLogger()
	s.cfg = &config.Configuration{}
	s.cfg.Benefits.PointsRatio = 1
	s.cfg.Benefits.MajorDrawID = "draw_major_test"

	var err error
	s.sentry, err = sentry.NewService(s.cfg, s.logger)
	s.Require().NoError(err)
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		LedgerRepo:    NewInMemoryLedgerStore(),
		AccountRepo:   NewInMemoryAccountStore(),
		DrawRepo:      NewInMemoryDrawStore(),
		DiscountRepo:  NewInMemoryDiscountStore(),
		SubRepo:       NewInMemorySubscriptionStore(),
		CatalogRepo:   NewInMemoryCatalogStore(),
		PromotionRepo: NewInMemoryPromotionStore(),
	}
	s.gateway = NewFakeGateway()
	s.tracker = marketing.NoopTracker{}
	s.idemGen = idempotency.NewGenerator()
}

// ClearStores resets all in-memory stores and the fake gateway.
func (s *BaseServiceTestSuite) ClearStores() {
	s.stores.LedgerRepo.Clear()
	s.stores.AccountRepo.Clear()
	s.stores.DrawRepo.Clear()
	s.stores.DiscountRepo.Clear()
	s.stores.SubRepo.Clear()
	s.stores.CatalogRepo.Clear()
	s.stores.PromotionRepo.Clear()
	s.gateway.Reset()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.cfg
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetStores returns the in-memory stores
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetGateway returns the fake payment gateway
func (s *BaseServiceTestSuite) GetGateway() *FakeGateway {
	return s.gateway
}

// GetTracker returns the no-op marketing tracker
func (s *BaseServiceTestSuite) GetTracker() marketing.Tracker {
	return s.tracker
}

// GetSentry returns the disabled sentry service
func (s *BaseServiceTestSuite) GetSentry() *sentry.Service {
	return s.sentry
}

// GetIdempotencyGenerator returns the deterministic key generator
func (s *BaseServiceTestSuite) GetIdempotencyGenerator() idempotency.Generator {
	return s.idemGen
}
