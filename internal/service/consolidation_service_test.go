package service

import (
	"context"
	"errors"
	"testing"

	"walletbridge/internal/core/domain"
	"walletbridge/internal/registry"
	"walletbridge/pkg/apperror"
	"walletbridge/pkg/money"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsolidation_SweepsAllSweepableAddresses(t *testing.T) {
	adapter := &stubConsolidator{stubAdapter: stubAdapter{coin: btcCoin}}
	reg := registry.New()
	require.NoError(t, reg.Register(adapter))

	walletRepo := newFakeWalletRepo()
	addrRepo := newFakeAddressRepo()
	svc := NewConsolidationService(reg, walletRepo, addrRepo, zerolog.Nop())
	ctx := context.Background()

	w := &domain.Wallet{ID: uuid.New(), OwnerID: uuid.New(), CoinID: "btc", Balance: money.Zero("BTC")}
	require.NoError(t, walletRepo.Create(ctx, w))
	for _, a := range []string{"bc1qone", "bc1qtwo", "bc1qthree"} {
		require.NoError(t, addrRepo.Create(ctx, &domain.Address{
			ID: uuid.New(), WalletID: w.ID, CoinID: "btc", Address: a,
		}))
	}

	require.NoError(t, svc.SweepCoin(ctx, "btc", "passphrase"))
	assert.Len(t, adapter.swept, 3)

	remaining, err := addrRepo.ListSweepable(ctx, "btc")
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestConsolidation_DustyAddressSkippedNotFatal(t *testing.T) {
	adapter := &stubConsolidator{
		stubAdapter: stubAdapter{coin: btcCoin},
		consolidateErrs: map[string]error{
			"bc1qdusty": apperror.ErrInsufficientFunds(),
		},
	}
	reg := registry.New()
	require.NoError(t, reg.Register(adapter))

	walletRepo := newFakeWalletRepo()
	addrRepo := newFakeAddressRepo()
	svc := NewConsolidationService(reg, walletRepo, addrRepo, zerolog.Nop())
	ctx := context.Background()

	w := &domain.Wallet{ID: uuid.New(), OwnerID: uuid.New(), CoinID: "btc", Balance: money.Zero("BTC")}
	require.NoError(t, walletRepo.Create(ctx, w))
	for _, a := range []string{"bc1qdusty", "bc1qfunded"} {
		require.NoError(t, addrRepo.Create(ctx, &domain.Address{
			ID: uuid.New(), WalletID: w.ID, CoinID: "btc", Address: a,
		}))
	}

	require.NoError(t, svc.SweepCoin(ctx, "btc", "passphrase"))
	assert.Equal(t, []string{"bc1qfunded"}, adapter.swept)

	// The dusty address stays sweepable for the next pass.
	remaining, err := addrRepo.ListSweepable(ctx, "btc")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "bc1qdusty", remaining[0].Address)
}

func TestConsolidation_UnsupportedCoinRejected(t *testing.T) {
	// Plain adapter without the Consolidator capability.
	reg := registry.New()
	require.NoError(t, reg.Register(&stubAdapter{coin: btcCoin}))

	svc := NewConsolidationService(reg, newFakeWalletRepo(), newFakeAddressRepo(), zerolog.Nop())

	err := svc.SweepCoin(context.Background(), "btc", "passphrase")
	require.Error(t, err)
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "VAL_001", appErr.Code)
}
