package handler

import (
	"io"

	"walletbridge/internal/core/ports"
	"walletbridge/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// WebhookHandler receives provider notifications. It acknowledges fast and
// unconditionally for anything short of an infrastructure fault; the heavy
// lifting happens in the worker pool.
type WebhookHandler struct {
	ingestor ports.Ingestor
	log      zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(ingestor ports.Ingestor, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{ingestor: ingestor, log: log}
}

// Receive handles POST /webhook/coin/:identifier?wallet=<uuid>.
// The wallet query parameter comes from the callback URL this service
// registered at wallet creation.
func (h *WebhookHandler) Receive(c *gin.Context) {
	coinID := c.Param("identifier")
	walletID := c.Query("wallet")

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Warn().Err(err).Str("coin", coinID).Msg("webhook body unreadable")
		response.Accepted(c)
		return
	}

	if err := h.ingestor.HandleWebhook(c.Request.Context(), coinID, walletID, payload); err != nil {
		// Infrastructure fault: let the provider redeliver.
		response.Error(c, err)
		return
	}
	response.Accepted(c)
}
