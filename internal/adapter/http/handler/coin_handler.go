package handler

import (
	"walletbridge/internal/adapter/http/dto"
	"walletbridge/internal/core/ports"
	"walletbridge/internal/registry"
	"walletbridge/pkg/apperror"
	"walletbridge/pkg/response"

	"github.com/gin-gonic/gin"
)

// CoinHandler serves the configured coin catalogue, market data and the
// operator-triggered consolidation sweep.
type CoinHandler struct {
	registry  *registry.Registry
	marketSvc ports.MarketService
	sweepSvc  ports.ConsolidationService
}

// NewCoinHandler creates a new CoinHandler.
func NewCoinHandler(reg *registry.Registry, marketSvc ports.MarketService, sweepSvc ports.ConsolidationService) *CoinHandler {
	return &CoinHandler{registry: reg, marketSvc: marketSvc, sweepSvc: sweepSvc}
}

// ListCoins handles GET /api/v1/coins.
func (h *CoinHandler) ListCoins(c *gin.Context) {
	adapters := h.registry.All()
	coins := make([]dto.CoinResponse, 0, len(adapters))
	for _, adapter := range adapters {
		coins = append(coins, dto.ToCoinResponse(
			adapter.Identity(),
			adapter.MinimumTransferable(),
			adapter.MaximumTransferable(),
		))
	}
	response.OK(c, coins)
}

// Price handles GET /api/v1/coins/:identifier/price.
func (h *CoinHandler) Price(c *gin.Context) {
	coinID := c.Param("identifier")
	price, err := h.marketSvc.Price(c.Request.Context(), coinID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.PriceResponse{CoinID: coinID, Price: price})
}

// PriceChange handles GET /api/v1/coins/:identifier/price-change.
func (h *CoinHandler) PriceChange(c *gin.Context) {
	coinID := c.Param("identifier")
	change, err := h.marketSvc.PriceChange(c.Request.Context(), coinID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.PriceChangeResponse{CoinID: coinID, Change: change})
}

// Sweep handles POST /api/v1/coins/:identifier/sweep. It consolidates every
// sweepable deposit-address balance of the coin into its wallet's primary
// holding.
func (h *CoinHandler) Sweep(c *gin.Context) {
	var req dto.SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	coinID := c.Param("identifier")
	if err := h.sweepSvc.SweepCoin(c.Request.Context(), coinID, req.Passphrase); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"coin_id": coinID, "status": "swept"})
}

// Chart handles GET /api/v1/coins/:identifier/chart?interval=24h.
func (h *CoinHandler) Chart(c *gin.Context) {
	coinID := c.Param("identifier")
	interval := c.DefaultQuery("interval", "24h")

	points, err := h.marketSvc.Chart(c.Request.Context(), coinID, interval)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ChartResponse{CoinID: coinID, Interval: interval, Points: points})
}
