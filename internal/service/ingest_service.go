package service

import (
	"context"
	"fmt"

	"walletbridge/internal/core/ports"
	"walletbridge/internal/registry"
	"walletbridge/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// IngestServiceImpl implements ports.Ingestor. Webhook handling must always
// look successful to the provider: every resolution failure short of an
// internal fault is logged and swallowed so the provider does not retry
// payloads we will never accept.
type IngestServiceImpl struct {
	registry   *registry.Registry
	walletRepo ports.WalletRepository
	queue      ports.JobQueue
	log        zerolog.Logger
}

// NewIngestService creates a new IngestServiceImpl.
func NewIngestService(
	reg *registry.Registry,
	walletRepo ports.WalletRepository,
	queue ports.JobQueue,
	log zerolog.Logger,
) *IngestServiceImpl {
	return &IngestServiceImpl{
		registry:   reg,
		walletRepo: walletRepo,
		queue:      queue,
		log:        log,
	}
}

// HandleWebhook resolves the payload through the coin adapter and enqueues
// exactly one reconcile job. Heavy work happens in the worker pool; this path
// only validates, converts and enqueues.
func (s *IngestServiceImpl) HandleWebhook(ctx context.Context, coinID, walletID string, payload []byte) error {
	adapter, err := s.registry.Resolve(coinID)
	if err != nil {
		s.log.Warn().Str("coin", coinID).Msg("webhook for unknown coin dropped")
		return nil
	}

	wid, err := uuid.Parse(walletID)
	if err != nil {
		s.log.Warn().Str("coin", coinID).Str("wallet", walletID).Msg("webhook with malformed wallet id dropped")
		return nil
	}

	w, err := s.walletRepo.GetByID(ctx, wid)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("load wallet for webhook: %w", err))
	}
	if w == nil {
		s.log.Warn().Str("coin", coinID).Str("wallet_id", wid.String()).Msg("webhook for unknown wallet dropped")
		return nil
	}

	t, err := adapter.HandleTransactionWebhook(ctx, w, payload)
	if err != nil {
		// Malformed or unauthenticated payloads are dropped; retrying them
		// will never produce a different outcome.
		s.log.Warn().Err(err).Str("coin", coinID).Str("wallet_id", wid.String()).Msg("webhook payload rejected")
		return nil
	}
	if t == nil {
		// Valid payload, not about this wallet.
		return nil
	}

	if err := s.queue.Enqueue(ctx, ports.Job{Kind: ports.JobReconcile, Transaction: t}); err != nil {
		// Surface queue failures: the provider retry is our redelivery path.
		return apperror.InternalError(fmt.Errorf("enqueue reconcile job for %s: %w", t.Key(), err))
	}

	s.log.Info().
		Str("coin", coinID).
		Str("tx_id", t.TxID).
		Str("direction", string(t.Direction)).
		Int64("confirmations", t.Confirmations).
		Msg("webhook accepted")
	return nil
}
