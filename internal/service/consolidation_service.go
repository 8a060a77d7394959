package service

import (
	"context"
	"fmt"

	"walletbridge/internal/core/ports"
	"walletbridge/internal/registry"
	"walletbridge/pkg/apperror"

	"github.com/rs/zerolog"
)

// ConsolidationServiceImpl implements ports.ConsolidationService. Sweeping is
// an optional adapter capability; coins without it reject the operation.
type ConsolidationServiceImpl struct {
	registry   *registry.Registry
	walletRepo ports.WalletRepository
	addrRepo   ports.AddressRepository
	log        zerolog.Logger
}

// NewConsolidationService creates a new ConsolidationServiceImpl.
func NewConsolidationService(
	reg *registry.Registry,
	walletRepo ports.WalletRepository,
	addrRepo ports.AddressRepository,
	log zerolog.Logger,
) *ConsolidationServiceImpl {
	return &ConsolidationServiceImpl{
		registry:   reg,
		walletRepo: walletRepo,
		addrRepo:   addrRepo,
		log:        log,
	}
}

// SweepCoin sweeps every sweepable address of the coin into its wallet's
// primary holding. Individual address failures are logged and skipped so one
// dusty address cannot stall the batch.
func (s *ConsolidationServiceImpl) SweepCoin(ctx context.Context, coinID, passphrase string) error {
	adapter, err := s.registry.Resolve(coinID)
	if err != nil {
		return err
	}
	consolidator, ok := adapter.(ports.Consolidator)
	if !ok {
		return apperror.Validation(fmt.Sprintf("coin %q does not support consolidation", coinID))
	}

	addrs, err := s.addrRepo.ListSweepable(ctx, coinID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("list sweepable addresses: %w", err))
	}

	var swept, skipped int
	for i := range addrs {
		addr := &addrs[i]
		if ctx.Err() != nil {
			return ctx.Err()
		}

		w, err := s.walletRepo.GetByID(ctx, addr.WalletID)
		if err != nil {
			return apperror.ErrDatabaseError(fmt.Errorf("load wallet %s: %w", addr.WalletID, err))
		}
		if w == nil {
			s.log.Warn().Str("address", addr.Address).Msg("sweepable address references missing wallet")
			skipped++
			continue
		}

		if err := consolidator.Consolidate(ctx, w, addr, passphrase); err != nil {
			// Typically the balance does not cover the sweep fee yet.
			s.log.Warn().Err(err).Str("address", addr.Address).Msg("address sweep skipped")
			skipped++
			continue
		}
		if err := s.addrRepo.MarkSwept(ctx, addr.ID); err != nil {
			return apperror.ErrDatabaseError(fmt.Errorf("mark address swept: %w", err))
		}
		swept++
	}

	s.log.Info().
		Str("coin", coinID).
		Int("swept", swept).
		Int("skipped", skipped).
		Msg("consolidation pass finished")
	return nil
}
