package handler

import (
	"walletbridge/internal/adapter/http/middleware"
	"walletbridge/internal/core/ports"
	"walletbridge/internal/registry"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WalletSvc      ports.WalletService
	MarketSvc      ports.MarketService
	SweepSvc       ports.ConsolidationService
	Ingestor       ports.Ingestor
	Registry       *registry.Registry
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep, verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Provider webhooks. Outside /api/v1: the path shape is part of the
	// callback contract registered with backends.
	webhookHandler := NewWebhookHandler(deps.Ingestor, deps.Logger)
	r.POST("/webhook/coin/:identifier", webhookHandler.Receive)

	// API v1 routes
	v1 := r.Group("/api/v1")

	walletHandler := NewWalletHandler(deps.WalletSvc)
	wallets := v1.Group("/wallets")
	{
		wallets.POST("", walletHandler.CreateWallet)
		wallets.GET("/:id", walletHandler.GetWallet)
		wallets.POST("/:id/addresses", walletHandler.CreateAddress)
		wallets.POST("/:id/send", walletHandler.Send)
		wallets.POST("/:id/deposits", walletHandler.CreateDepositIntent)
	}

	coinHandler := NewCoinHandler(deps.Registry, deps.MarketSvc, deps.SweepSvc)
	coins := v1.Group("/coins")
	{
		coins.GET("", coinHandler.ListCoins)
		coins.GET("/:identifier/price", coinHandler.Price)
		coins.GET("/:identifier/price-change", coinHandler.PriceChange)
		coins.GET("/:identifier/chart", coinHandler.Chart)
		coins.POST("/:identifier/sweep", coinHandler.Sweep)
	}

	return r
}
