package main

import (
	"context"
	"net/http"
	"time"

	"github.com/Shopify/sarama"
	"github.com/drawcard/drawcard/internal/api"
	v1 "github.com/drawcard/drawcard/internal/api/v1"
	"github.com/drawcard/drawcard/internal/cache"
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
	"github.com/drawcard/drawcard/internal/kafka"
	"github.com/drawcard/drawcard/internal/logger"
	"github.com/drawcard/drawcard/internal/marketing"
	"github.com/drawcard/drawcard/internal/postgres"
	"github.com/drawcard/drawcard/internal/ratelimit"
	pgrepo "github.com/drawcard/drawcard/internal/repository/postgres"
	"github.com/drawcard/drawcard/internal/sentry"
	"github.com/drawcard/drawcard/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fx.Provide(
			config.NewConfig,
			logger.NewLogger,
			sentry.NewService,
			postgres.NewClient,
			kafka.NewSyncProducer,

			newRepositories,
			newTracker,
			gateway.NewStripeGateway,
			idempotency.NewGenerator,
			ratelimit.NewRedisLimiter,

			newServiceParams,
			service.NewGrantService,
			service.NewDrawService,
			service.NewDiscountScheduleService,
			service.NewSubscriptionChangeService,
			service.NewAccountService,

			newHandlers,
			api.NewRouter,
		),
		fx.Invoke(startServer),
	).Run()
}

type repositories struct {
	fx.Out

	Ledger    ledger.Repository
	Account   account.Repository
	Draw      draw.Repository
	Discount  discount.Repository
	Sub       subscription.Repository
	Catalog   catalog.Repository
	Promotion promotion.Repository
}

func newRepositories(client *postgres.Client, log *logger.Logger) repositories {
	return repositories{
		Ledger:    pgrepo.NewLedgerRepository(client, log),
		Account:   pgrepo.NewAccountRepository(client, log),
		Draw:      pgrepo.NewDrawRepository(client, log),
		Discount:  pgrepo.NewDiscountRepository(client, log),
		Sub:       pgrepo.NewSubscriptionRepository(client, log),
		Catalog:   cache.NewCatalogCache(pgrepo.NewCatalogRepository(client, log)),
		Promotion: pgrepo.NewPromotionRepository(client, log),
	}
}

func newTracker(cfg *config.Configuration, log *logger.Logger, producer sarama.SyncProducer) marketing.Tracker {
	var sinks []marketing.Sink
	if cfg.Kafka.Enabled && producer != nil {
		sinks = append(sinks, marketing.NewKafkaSink(cfg, producer))
	}
	if cfg.CRM.Enabled {
		sinks = append(sinks, marketing.NewCRMSink(cfg))
	}
	if len(sinks) == 0 {
		return marketing.NoopTracker{}
	}
	return marketing.NewTracker(log, sinks...)
}

func newServiceParams(
	cfg *config.Configuration,
	log *logger.Logger,
	repos repositoriesIn,
	gw gateway.Gateway,
	tracker marketing.Tracker,
	sentrySvc *sentry.Service,
	idemGen idempotency.Generator,
) service.ServiceParams {
	return service.ServiceParams{
		Logger:         log,
		Config:         cfg,
		LedgerRepo:     repos.Ledger,
		AccountRepo:    repos.Account,
		DrawRepo:       repos.Draw,
		DiscountRepo:   repos.Discount,
		SubRepo:        repos.Sub,
		CatalogRepo:    repos.Catalog,
		PromotionRepo:  repos.Promotion,
		Gateway:        gw,
		Tracker:        tracker,
		Sentry:         sentrySvc,
		IdempotencyGen: idemGen,
	}
}

type repositoriesIn struct {
	fx.In

	Ledger    ledger.Repository
	Account   account.Repository
	Draw      draw.Repository
	Discount  discount.Repository
	Sub       subscription.Repository
	Catalog   catalog.Repository
	Promotion promotion.Repository
}

func newHandlers(
	cfg *config.Configuration,
	log *logger.Logger,
	gw gateway.Gateway,
	grants service.GrantService,
	draws service.DrawService,
	schedule service.DiscountScheduleService,
	changes service.SubscriptionChangeService,
	accounts service.AccountService,
) api.Handlers {
	return api.Handlers{
		Webhook:      v1.NewWebhookHandler(gw, grants, log),
		Account:      v1.NewAccountHandler(accounts, schedule, log),
		Draw:         v1.NewDrawHandler(draws, log),
		Subscription: v1.NewSubscriptionHandler(changes, log),
	}
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	router *gin.Engine,
	log *logger.Logger,
	sentrySvc *sentry.Service,
	tracker marketing.Tracker,
) {
	if cfg.Deployment.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting server", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalw("server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("shutting down server")
			if err := tracker.Close(); err != nil {
				log.Errorw("failed to flush marketing tracker", "error", err)
			}
			sentrySvc.Flush(2 * time.Second)
			return srv.Shutdown(ctx)
		},
	})
}
