package service

import (
	"context"
	"fmt"
	"time"

	"walletbridge/internal/core/domain"
	"walletbridge/internal/core/ports"
	"walletbridge/internal/registry"
	"walletbridge/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// defaultWithdrawalExpiry bounds how long an outbound transfer may stay
// unconfirmed before the expiry scanner flags it.
const defaultWithdrawalExpiry = 24 * time.Hour

// WalletServiceImpl implements ports.WalletService.
type WalletServiceImpl struct {
	registry   *registry.Registry
	walletRepo ports.WalletRepository
	addrRepo   ports.AddressRepository
	recordRepo ports.RecordRepository
	publisher  ports.EventPublisher
	webhookURL string // public base URL registered with backends
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	reg *registry.Registry,
	walletRepo ports.WalletRepository,
	addrRepo ports.AddressRepository,
	recordRepo ports.RecordRepository,
	publisher ports.EventPublisher,
	webhookURL string,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		registry:   reg,
		walletRepo: walletRepo,
		addrRepo:   addrRepo,
		recordRepo: recordRepo,
		publisher:  publisher,
		webhookURL: webhookURL,
		log:        log,
	}
}

// CreateWallet provisions a wallet and registers its webhook channel.
func (s *WalletServiceImpl) CreateWallet(ctx context.Context, req ports.CreateWalletRequest) (*domain.Wallet, error) {
	adapter, err := s.registry.Resolve(req.CoinID)
	if err != nil {
		return nil, err
	}

	existing, err := s.walletRepo.GetByOwnerAndCoin(ctx, req.OwnerID, req.CoinID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("check existing wallet: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrAlreadyExists("wallet")
	}

	w, err := adapter.CreateWallet(ctx, req.OwnerID, req.Passphrase)
	if err != nil {
		return nil, err
	}
	if err := s.walletRepo.Create(ctx, w); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create wallet: %w", err))
	}

	coin := adapter.Identity()
	callback := s.callbackURL(coin.Identifier, w.ID)
	if err := adapter.SetTransactionWebhook(ctx, w, callback, coin.MinConfirmations); err != nil {
		// The wallet exists; webhook registration can be re-driven later.
		s.log.Warn().Err(err).Str("wallet_id", w.ID.String()).Msg("webhook registration failed")
	}

	s.publish(ctx, domain.WalletAccountSaved{AccountID: w.ID, OwnerID: w.OwnerID})

	s.log.Info().
		Str("wallet_id", w.ID.String()).
		Str("coin", coin.Identifier).
		Msg("wallet created")
	return w, nil
}

// CreateAddress derives and persists a fresh receiving address.
func (s *WalletServiceImpl) CreateAddress(ctx context.Context, req ports.CreateAddressRequest) (*domain.Address, error) {
	w, adapter, err := s.resolveWallet(ctx, req.WalletID)
	if err != nil {
		return nil, err
	}

	addr, err := adapter.CreateAddress(ctx, w, req.Passphrase, req.Label)
	if err != nil {
		return nil, err
	}
	if err := s.addrRepo.Create(ctx, addr); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create address: %w", err))
	}

	s.log.Info().
		Str("wallet_id", w.ID.String()).
		Str("address", addr.Address).
		Msg("address created")
	return addr, nil
}

// Send initiates an outbound transfer and opens the pending withdrawal that
// tracks it. The balance debit happens at reconciliation, exactly once, when
// the backend confirms the transaction.
func (s *WalletServiceImpl) Send(ctx context.Context, req ports.SendRequest) (*domain.PendingRecord, error) {
	w, adapter, err := s.resolveWallet(ctx, req.WalletID)
	if err != nil {
		return nil, err
	}

	// Funds check up front; bounds checks live inside the adapter so they
	// are enforced for every caller.
	if enough, err := req.Amount.GreaterThan(w.Balance); err != nil {
		return nil, apperror.Validation(err.Error())
	} else if enough {
		return nil, apperror.ErrInsufficientFunds()
	}

	t, err := adapter.Send(ctx, w, req.Address, req.Amount, req.Passphrase)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &domain.PendingRecord{
		ID:        uuid.New(),
		Kind:      domain.RecordKindWithdrawal,
		WalletID:  w.ID,
		CoinID:    w.CoinID,
		Address:   req.Address,
		TxID:      t.TxID,
		Amount:    req.Amount,
		Status:    domain.RecordStatusPending,
		ExpiresAt: now.Add(defaultWithdrawalExpiry),
		CreatedAt: now,
	}
	if err := s.recordRepo.Create(ctx, rec); err != nil {
		// The transfer is broadcast; losing the record is an operator
		// problem, not something a retry can undo.
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create withdrawal record for %s: %w", t.TxID, err))
	}

	s.publish(ctx, domain.TransactionRecordSaved{RecordID: rec.ID, OwnerID: w.OwnerID, Address: rec.Address})

	s.log.Info().
		Str("record_id", rec.ID.String()).
		Str("tx_id", t.TxID).
		Str("coin", w.CoinID).
		Msg("withdrawal initiated")
	return rec, nil
}

// CreateDepositIntent opens a pending deposit bound to one of the wallet's
// addresses. The intent expires after the coin's deposit window.
func (s *WalletServiceImpl) CreateDepositIntent(ctx context.Context, req ports.DepositIntentRequest) (*domain.PendingRecord, error) {
	w, adapter, err := s.resolveWallet(ctx, req.WalletID)
	if err != nil {
		return nil, err
	}

	addrs, err := s.addrRepo.ListByWallet(ctx, w.ID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list addresses: %w", err))
	}
	var addr *domain.Address
	for i := range addrs {
		if addrs[i].ID == req.AddressID {
			addr = &addrs[i]
			break
		}
	}
	if addr == nil {
		return nil, apperror.ErrNotFound("address")
	}

	open, err := s.recordRepo.GetOpenByAddress(ctx, w.CoinID, addr.Address)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("check open deposit: %w", err))
	}
	if open != nil {
		return nil, apperror.ErrAlreadyExists("deposit intent for address")
	}

	now := time.Now().UTC()
	rec := &domain.PendingRecord{
		ID:        uuid.New(),
		Kind:      domain.RecordKindDeposit,
		WalletID:  w.ID,
		CoinID:    w.CoinID,
		Address:   addr.Address,
		Amount:    req.Amount,
		Status:    domain.RecordStatusPending,
		ExpiresAt: now.Add(adapter.Identity().DepositExpiry),
		CreatedAt: now,
	}
	if err := s.recordRepo.Create(ctx, rec); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create deposit record: %w", err))
	}

	s.publish(ctx, domain.TransactionRecordSaved{RecordID: rec.ID, OwnerID: w.OwnerID, Address: rec.Address})

	s.log.Info().
		Str("record_id", rec.ID.String()).
		Str("address", addr.Address).
		Msg("deposit intent opened")
	return rec, nil
}

// GetWallet fetches one wallet.
func (s *WalletServiceImpl) GetWallet(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error) {
	w, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get wallet: %w", err))
	}
	if w == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return w, nil
}

func (s *WalletServiceImpl) resolveWallet(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, ports.CoinAdapter, error) {
	w, err := s.GetWallet(ctx, walletID)
	if err != nil {
		return nil, nil, err
	}
	adapter, err := s.registry.Resolve(w.CoinID)
	if err != nil {
		return nil, nil, err
	}
	return w, adapter, nil
}

func (s *WalletServiceImpl) callbackURL(coinID string, walletID uuid.UUID) string {
	return fmt.Sprintf("%s/webhook/coin/%s?wallet=%s", s.webhookURL, coinID, walletID)
}

// publish broadcasts best-effort; event delivery never fails a request.
func (s *WalletServiceImpl) publish(ctx context.Context, event domain.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("event", event.Name()).Msg("event publish failed")
	}
}
