package router

import (
	"time"

	"fundify/config"
	"fundify/internal/domain"
	"fundify/internal/handler"
	"fundify/internal/middleware"
	"fundify/internal/repository"
	"fundify/internal/service"
	"fundify/internal/ws"
	"fundify/pkg/cloudinary"
	"fundify/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps carries the long-lived components the router wires into handlers. The
// sweeper is constructed by the caller so it can own the start/stop lifecycle.
type Deps struct {
	DB    *gorm.DB
	Cloud cloudinary.Client
}

func Setup(cfg *config.Config, deps Deps) (*gin.Engine, *service.CampaignSweeper) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Gateway callbacks are exempt from rate limiting: a redelivery burst
	// after an outage must not be throttled into another outage.
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second),
		"/api/v1/webhooks/cardpay",
		"/api/v1/payments/aamarpay/success",
		"/api/v1/payments/aamarpay/fail",
		"/api/v1/payments/aamarpay/cancel",
	))

	// Repositories
	userRepo := repository.NewUserRepository(deps.DB)
	campaignRepo := repository.NewCampaignRepository(deps.DB)
	auditRepo := repository.NewAuditLogRepository(deps.DB)
	anomalyRepo := repository.NewPaymentAnomalyRepository(deps.DB)

	feedHub := ws.NewFeedHub()

	// Gateway clients
	cardpay := payment.NewCardpayClient(cfg.Cardpay.BaseURL, cfg.Cardpay.SecretKey, cfg.Cardpay.Timeout)
	aamarpay := payment.NewAamarpayClient(cfg.Aamarpay.BaseURL, cfg.Aamarpay.VerifyURL,
		cfg.Aamarpay.StoreID, cfg.Aamarpay.SignatureKey, cfg.Aamarpay.Timeout)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	reconcileSvc := service.NewReconcileService(campaignRepo, anomalyRepo, auditRepo, feedHub)
	sweeper := service.NewCampaignSweeper(campaignRepo, cfg.Sweeper.Interval)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc)
	meHandler := handler.NewMeHandler(userRepo, campaignRepo, deps.Cloud)
	campaignHandler := handler.NewCampaignHandler(campaignRepo, userRepo, auditRepo)
	intentHandler := handler.NewPaymentIntentHandler(cardpay, campaignRepo, cfg.Cardpay.Currency)
	webhookHandler := handler.NewPaymentWebhookHandler(cfg.Cardpay.WebhookSecret, reconcileSvc, auditRepo)
	redirectHandler := handler.NewRedirectPaymentHandler(aamarpay, campaignRepo, userRepo,
		reconcileSvc, auditRepo, &cfg.Aamarpay, cfg.Frontend.BaseURL)
	uploadHandler := handler.NewUploadHandler(deps.Cloud)
	adminHandler := handler.NewAdminHandler(anomalyRepo, campaignRepo, auditRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)
	optAuthMw := middleware.OptionalAuth(&cfg.JWT)
	privilegedMw := middleware.RequireRole(domain.RoleAdmin, domain.RoleModerator)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
			authGroup.POST("/google/token", googleOAuthHandler.Token)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/profile", meHandler.Profile)
			me.PATCH("/profile", meHandler.UpdateProfile)
			me.POST("/avatar", meHandler.UploadAvatar)
			me.GET("/donations", meHandler.Donations)
		}

		campaigns := api.Group("/campaigns")
		{
			campaigns.GET("", campaignHandler.List)
			campaigns.GET("/:id", campaignHandler.Get)
			campaigns.POST("", authMw, campaignHandler.Create)
			campaigns.PATCH("/:id", authMw, campaignHandler.Update)
			campaigns.DELETE("/:id", authMw, campaignHandler.Delete)
			campaigns.POST("/:id/complete", authMw, campaignHandler.Complete)
			campaigns.POST("/:id/suspend", authMw, privilegedMw, campaignHandler.Suspend)
			campaigns.POST("/:id/updates", authMw, campaignHandler.PostUpdate)
		}

		api.POST("/uploads/image", authMw, uploadHandler.UploadCampaignImage)

		payments := api.Group("/payments")
		{
			payments.POST("/intent", optAuthMw, intentHandler.CreateIntent)
			payments.POST("/aamarpay/initiate", optAuthMw, redirectHandler.Initiate)
			payments.POST("/aamarpay/success", redirectHandler.Success)
			payments.POST("/aamarpay/fail", redirectHandler.Fail)
			payments.POST("/aamarpay/cancel", redirectHandler.Cancel)
			payments.GET("/user-donations", authMw, meHandler.Donations)
		}

		api.POST("/webhooks/cardpay", webhookHandler.HandleCardpay)

		admin := api.Group("/admin")
		admin.Use(authMw, privilegedMw)
		{
			admin.GET("/anomalies", adminHandler.ListAnomalies)
			admin.POST("/anomalies/:id/resolve", adminHandler.ResolveAnomaly)
			admin.GET("/donations/flagged", adminHandler.ListFlaggedDonations)
			admin.GET("/audit", adminHandler.AuditTrail)
		}
	}

	r.GET("/ws/feed", ws.UpgradeFeedWS(feedHub))

	return r, sweeper
}
