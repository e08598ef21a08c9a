package api

import (
	v1 "github.com/drawcard/drawcard/internal/api/v1"
	"github.com/drawcard/drawcard/internal/auth"
	"github.com/drawcard/drawcard/internal/config"
	"github.com/drawcard/drawcard/internal/logger"
	"github.com/drawcard/drawcard/internal/ratelimit"
	"github.com/drawcard/drawcard/internal/rest/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers bundles every HTTP handler for router construction.
type Handlers struct {
	Webhook      *v1.WebhookHandler
	Account      *v1.AccountHandler
	Draw         *v1.DrawHandler
	Subscription *v1.SubscriptionHandler
}

// NewRouter builds the gin engine with the full middleware chain and route
// table. The webhook route is unauthenticated (the signature check happens in
// the gateway layer); draw administration requires an admin token.
func NewRouter(handlers Handlers, cfg *config.Configuration, log *logger.Logger, limiter ratelimit.Limiter) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.LoggingMiddleware(log),
		middleware.ErrorHandler(log),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	router.POST("/webhooks/payment", handlers.Webhook.HandlePaymentEvent)

	apiV1 := router.Group("/v1")
	apiV1.Use(middleware.RateLimitMiddleware(limiter))
	{
		accounts := apiV1.Group("/accounts")
		{
			accounts.GET("/:id", handlers.Account.GetState)
			accounts.GET("/:id/discounts", handlers.Account.GetDiscountSchedule)
			accounts.POST("/:id/subscription/upgrade", handlers.Subscription.Upgrade)
			accounts.POST("/:id/subscription/downgrade", handlers.Subscription.Downgrade)
		}

		draws := apiV1.Group("/draws")
		{
			draws.GET("", handlers.Draw.ListDraws)
			draws.GET("/:id", handlers.Draw.GetDraw)

			admin := draws.Group("")
			admin.Use(auth.AdminMiddleware(cfg))
			{
				admin.POST("/:id/winner", handlers.Draw.SelectWinner)
				admin.GET("/:id/participants", handlers.Draw.ExportParticipants)
				admin.PUT("/:id/status", handlers.Draw.UpdateStatus)
			}
		}
	}

	return router
}
