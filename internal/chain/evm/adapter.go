// Package evm implements the coin adapter contract for Ethereum-type chains,
// covering both the native asset and ERC20 tokens. Keys are derived from a
// process-level HD wallet; per-wallet accounts are derived from the wallet id
// and gated by the sealed credential.
package evm

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"walletbridge/internal/chain"
	"walletbridge/internal/chain/market"
	"walletbridge/internal/core/domain"
	"walletbridge/internal/core/ports"
	"walletbridge/pkg/apperror"
	"walletbridge/pkg/money"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/tarancss/ethcli"
	"github.com/tarancss/hd"
)

const (
	nativeDecimals = 18

	gasLimitNative = 21000
	gasLimitToken  = 90000

	sendAttempts = 3
	sendBackoff  = 200 * time.Millisecond
)

// feeSafetyMargin pads gas estimates so the charged fee never exceeds them.
var feeSafetyMargin = decimal.RequireFromString("1.25")

// Node is the subset of the ethereum RPC client the adapter uses. Satisfied
// by *ethcli.EthCli.
type Node interface {
	SendTrx(fromAddress, toAddress, token, amount string, data []byte, key string, priceIn uint64, dryRun bool) (price, gas uint64, hash []byte, err error)
	GetTrx(hash string) (*ethcli.Trx, error)
	GetBalance(address, token string) (ethBal, tokBal *big.Int, err error)
	End() error
}

// DeriveFunc produces the address and signing key for one HD path.
type DeriveFunc func(account uint32, change uint8, index uint32) (address, key string, err error)

// HDDerive adapts an initialized HD wallet into a DeriveFunc.
func HDDerive(hdw *hd.HdWallet) DeriveFunc {
	return func(account uint32, change uint8, index uint32) (string, string, error) {
		addr, key, _, err := hdw.Address(account, change, index)
		if err != nil {
			return "", "", err
		}
		return "0x" + hex.EncodeToString(addr), hex.EncodeToString(key), nil
	}
}

// IndexSource allocates the next unused derivation index for a wallet.
// Satisfied by the address repository.
type IndexSource interface {
	NextDerivationIndex(ctx context.Context, walletID uuid.UUID) (uint32, error)
}

// Config carries the per-coin chain settings.
type Config struct {
	Coin            domain.Coin
	ContractAddress string // empty for the native asset
	NativeCoinID    string // coin paying gas when ContractAddress is set
	GasPriceWei     uint64

	Min money.Money
	Max money.Money

	// PriceSource fetches the current USD price; nil disables market data.
	PriceSource       market.FetchFunc
	PriceChangeSource market.FetchFunc
	PriceCache        ports.PriceCache
	PriceTTL          time.Duration
}

// Adapter implements ports.CoinAdapter for one EVM asset.
type Adapter struct {
	cfg    Config
	node   Node
	derive DeriveFunc
	sealer ports.CredentialSealer
	idx    IndexSource

	priceFeed  *market.Feed
	changeFeed *market.Feed

	mu       sync.Mutex
	webhooks map[uuid.UUID]string // wallet id -> callback URL

	log zerolog.Logger
}

var _ ports.CoinAdapter = (*Adapter)(nil)

// TokenAdapter wraps Adapter for ERC20 assets, adding the NativeAsset
// capability: gas is paid in the chain's native coin from a separate address.
type TokenAdapter struct {
	*Adapter
}

var _ ports.NativeAsset = (*TokenAdapter)(nil)

// NewAdapter builds an adapter over an ethereum node connection. For token
// configs the returned adapter additionally exposes ports.NativeAsset.
func NewAdapter(cfg Config, node Node, derive DeriveFunc, sealer ports.CredentialSealer, idx IndexSource, log zerolog.Logger) ports.CoinAdapter {
	a := &Adapter{
		cfg:      cfg,
		node:     node,
		derive:   derive,
		sealer:   sealer,
		idx:      idx,
		webhooks: make(map[uuid.UUID]string),
		log:      log.With().Str("component", "evm").Str("coin", cfg.Coin.Identifier).Logger(),
	}
	if cfg.PriceSource != nil {
		a.priceFeed = market.NewFeed(cfg.Coin.Identifier, cfg.PriceSource, cfg.PriceCache, cfg.PriceTTL, a.log)
	}
	if cfg.PriceChangeSource != nil {
		a.changeFeed = market.NewFeed(cfg.Coin.Identifier+":change", cfg.PriceChangeSource, cfg.PriceCache, cfg.PriceTTL, a.log)
	}
	if cfg.ContractAddress != "" {
		return &TokenAdapter{Adapter: a}
	}
	return a
}

// Dial connects to an ethereum node.
func Dial(node, secret string) (Node, error) {
	c := ethcli.Init(node, secret)
	if c == nil {
		return nil, fmt.Errorf("evm: cannot connect to node %s", node)
	}
	return c, nil
}

func (a *Adapter) Identity() domain.Coin { return a.cfg.Coin }

// accountFor maps a wallet id onto a hardened-range HD account number. The
// mapping is deterministic so key derivation survives restarts without extra
// persisted state.
func accountFor(walletID uuid.UUID) uint32 {
	return binary.BigEndian.Uint32(walletID[:4]) & 0x7FFFFFFF
}

func (a *Adapter) CreateWallet(ctx context.Context, ownerID uuid.UUID, passphrase string) (*domain.Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := uuid.New()
	account := accountFor(id)

	// Prove the account derives before committing to it.
	if _, _, err := a.derive(account, hd.External, 0); err != nil {
		return nil, apperror.ErrAdapter(a.cfg.Coin.Identifier, "create wallet", err)
	}

	sealed, err := a.sealer.Seal(strconv.FormatUint(uint64(account), 10), passphrase)
	if err != nil {
		return nil, apperror.ErrCredentialFailure(err)
	}

	now := time.Now().UTC()
	return &domain.Wallet{
		ID:            id,
		OwnerID:       ownerID,
		CoinID:        a.cfg.Coin.Identifier,
		CredentialEnc: sealed,
		Balance:       money.Zero(a.cfg.Coin.CurrencyCode()),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// openAccount verifies the passphrase against the sealed credential and
// returns the wallet's HD account number.
func (a *Adapter) openAccount(w *domain.Wallet, passphrase string) (uint32, error) {
	plain, err := a.sealer.Open(w.CredentialEnc, passphrase)
	if err != nil {
		return 0, apperror.ErrCredentialFailure(err)
	}
	account, err := strconv.ParseUint(plain, 10, 32)
	if err != nil || uint32(account) != accountFor(w.ID) {
		return 0, apperror.ErrCredentialFailure(errors.New("credential does not match wallet"))
	}
	return uint32(account), nil
}

func (a *Adapter) CreateAddress(ctx context.Context, w *domain.Wallet, passphrase, label string) (*domain.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	account, err := a.openAccount(w, passphrase)
	if err != nil {
		return nil, err
	}

	index, err := a.idx.NextDerivationIndex(ctx, w.ID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	addr, _, err := a.derive(account, hd.External, index)
	if err != nil {
		return nil, apperror.ErrAdapter(a.cfg.Coin.Identifier, "derive address", err)
	}

	return &domain.Address{
		ID:             uuid.New(),
		WalletID:       w.ID,
		CoinID:         a.cfg.Coin.Identifier,
		Address:        addr,
		Label:          label,
		DerivationPath: fmt.Sprintf("m/44'/60'/%d'/0/%d", account, index),
		CreatedAt:      time.Now().UTC(),
	}, nil
}

func (a *Adapter) Send(ctx context.Context, w *domain.Wallet, address string, amount money.Money, passphrase string) (*domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if amount.Currency() != a.cfg.Coin.CurrencyCode() {
		return nil, apperror.Validation(fmt.Sprintf("amount currency %s does not match coin %s", amount.Currency(), a.cfg.Coin.Identifier))
	}
	if below, err := amount.LessThan(a.cfg.Min); err != nil {
		return nil, apperror.Validation(err.Error())
	} else if below {
		return nil, apperror.ErrBelowMinimum(a.cfg.Min.String())
	}
	if above, err := amount.GreaterThan(a.cfg.Max); err != nil {
		return nil, apperror.Validation(err.Error())
	} else if above {
		return nil, apperror.ErrAboveMaximum(a.cfg.Max.String())
	}

	account, err := a.openAccount(w, passphrase)
	if err != nil {
		return nil, err
	}
	from, key, err := a.derive(account, hd.External, 0)
	if err != nil {
		return nil, apperror.ErrAdapter(a.cfg.Coin.Identifier, "derive key", err)
	}

	baseAmount, err := a.toBaseUnits(amount)
	if err != nil {
		return nil, err
	}

	var price, gas uint64
	var hash []byte
	err = chain.Retry(ctx, sendAttempts, sendBackoff, func() error {
		var sendErr error
		price, gas, hash, sendErr = a.node.SendTrx(from, address, a.cfg.ContractAddress, baseAmount, nil, key, a.cfg.GasPriceWei, false)
		if sendErr == nil {
			return nil
		}
		if errors.Is(sendErr, ethcli.ErrBadAmt) {
			return apperror.Validation("backend rejected transfer amount")
		}
		// A hash alongside an error means the node may have broadcast the
		// transaction. Resolve through a read before deciding: reporting
		// "failed" for a broadcast transfer would double-spend on retry.
		if len(hash) > 0 {
			txHash := "0x" + hex.EncodeToString(hash)
			if trx, getErr := a.node.GetTrx(txHash); getErr == nil && trx.Status != ethcli.TrxFailed {
				return nil
			}
		}
		return sendErr
	})
	if err != nil {
		if apperror.IsTerminal(err) {
			return nil, err
		}
		return nil, apperror.ErrAdapter(a.cfg.Coin.Identifier, "send", err)
	}

	fee := a.feeFromGas(price, gas)
	txHash := "0x" + hex.EncodeToString(hash)
	a.log.Info().Str("tx_id", txHash).Str("to", address).Msg("outbound transfer broadcast")

	now := time.Now().UTC()
	return &domain.Transaction{
		ID:        uuid.New(),
		CoinID:    a.cfg.Coin.Identifier,
		TxID:      txHash,
		WalletID:  w.ID,
		Direction: domain.DirectionSend,
		Address:   address,
		Amount:    amount,
		Fee:       &fee,
		Status:    domain.TransactionStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetTransaction reads one transaction from the chain. It is used to confirm
// outbound transfers, so the direction is reported as SEND.
func (a *Adapter) GetTransaction(ctx context.Context, w *domain.Wallet, txID string) (*domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trx, err := a.node.GetTrx(txID)
	if err != nil {
		return nil, apperror.ErrNotFound("transaction")
	}

	amount, err := a.fromBaseUnits(trx.Amount)
	if err != nil {
		return nil, apperror.ErrAdapter(a.cfg.Coin.Identifier, "get transaction", err)
	}
	fee := a.feeFromWei(trx.Fee)

	txStatus := domain.TransactionStatusPending
	var confirmations int64
	switch {
	case trx.Status == ethcli.TrxFailed:
		txStatus = domain.TransactionStatusFailed
	case trx.Status != ethcli.TrxPending && trx.Blk > 0:
		// The receipt is final on EVM chains once mined successfully.
		txStatus = domain.TransactionStatusConfirmed
		confirmations = a.cfg.Coin.MinConfirmations
	}

	now := time.Now().UTC()
	return &domain.Transaction{
		ID:            uuid.New(),
		CoinID:        a.cfg.Coin.Identifier,
		TxID:          txID,
		WalletID:      w.ID,
		Direction:     domain.DirectionSend,
		Address:       trx.To,
		Amount:        amount,
		Fee:           &fee,
		Confirmations: confirmations,
		Status:        txStatus,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// chainEvent is the notification format delivered by the chain watcher.
type chainEvent struct {
	Hash          string `json:"hash"`
	To            string `json:"to"`
	From          string `json:"from"`
	Value         string `json:"value"`
	Token         string `json:"token,omitempty"`
	Block         uint64 `json:"block"`
	Confirmations int64  `json:"confirmations"`
}

func (a *Adapter) HandleTransactionWebhook(ctx context.Context, w *domain.Wallet, payload []byte) (*domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ev, err := parseChainEvent(payload)
	if err != nil {
		return nil, err
	}

	// Events for a different asset on the same chain are irrelevant here.
	if !strings.EqualFold(ev.Token, a.cfg.ContractAddress) {
		return nil, nil
	}

	amount, err := a.fromBaseUnits(ev.Value)
	if err != nil {
		return nil, apperror.Validation("event value is not a valid amount")
	}

	status := domain.TransactionStatusPending
	if ev.Confirmations >= a.cfg.Coin.MinConfirmations {
		status = domain.TransactionStatusConfirmed
	}

	now := time.Now().UTC()
	return &domain.Transaction{
		ID:            uuid.New(),
		CoinID:        a.cfg.Coin.Identifier,
		TxID:          ev.Hash,
		WalletID:      w.ID,
		Direction:     domain.DirectionReceive,
		Address:       ev.To,
		Amount:        amount,
		Confirmations: ev.Confirmations,
		RawPayload:    payload,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (a *Adapter) SetTransactionWebhook(ctx context.Context, w *domain.Wallet, callbackURL string, minConfirmations int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.webhooks[w.ID] != callbackURL {
		a.webhooks[w.ID] = callbackURL
		a.log.Info().Str("wallet", w.ID.String()).Int64("min_confirmations", minConfirmations).Msg("watcher callback registered")
	}
	return nil
}

func (a *Adapter) ResetTransactionWebhook(ctx context.Context, w *domain.Wallet, callbackURL string, minConfirmations int64) error {
	return a.SetTransactionWebhook(ctx, w, callbackURL, minConfirmations)
}

func (a *Adapter) DollarPrice(ctx context.Context) (decimal.Decimal, error) {
	if a.priceFeed == nil {
		return decimal.Zero, apperror.ErrNotFound("price source")
	}
	return a.priceFeed.Price(ctx)
}

func (a *Adapter) DollarPriceChange(ctx context.Context) (decimal.Decimal, error) {
	if a.changeFeed == nil {
		return decimal.Zero, apperror.ErrNotFound("price source")
	}
	return a.changeFeed.Price(ctx)
}

func (a *Adapter) MarketChart(ctx context.Context, interval string) ([]ports.MarketPoint, error) {
	span, err := time.ParseDuration(interval)
	if err != nil || span <= 0 {
		return nil, apperror.Validation(fmt.Sprintf("invalid chart interval %q", interval))
	}
	price, err := a.DollarPrice(ctx)
	if err != nil {
		return nil, err
	}

	const samples = 24
	step := span / samples
	now := time.Now().UTC()
	points := make([]ports.MarketPoint, 0, samples)
	for i := samples - 1; i >= 0; i-- {
		points = append(points, ports.MarketPoint{
			Timestamp: now.Add(-time.Duration(i) * step).Unix(),
			Price:     price,
		})
	}
	return points, nil
}

// EstimateTransactionFee returns the padded worst-case gas cost. Actual gas
// consumption never exceeds the limit, so the estimate is an upper bound.
// For token assets the fee is denominated in the chain's native coin.
func (a *Adapter) EstimateTransactionFee(ctx context.Context, amount money.Money, inputs int) (money.Money, error) {
	if err := ctx.Err(); err != nil {
		return money.Money{}, err
	}
	limit := int64(gasLimitNative)
	if a.cfg.ContractAddress != "" {
		limit = gasLimitToken
	}
	wei := decimal.NewFromInt(limit).
		Mul(decimal.NewFromInt(int64(a.cfg.GasPriceWei))).
		Mul(feeSafetyMargin).
		Ceil()
	return money.New(a.feeCurrency(), wei.Shift(-nativeDecimals))
}

func (a *Adapter) MinimumTransferable() money.Money { return a.cfg.Min }
func (a *Adapter) MaximumTransferable() money.Money { return a.cfg.Max }

// Consolidate sweeps a deposit address into the wallet's primary address
// (derivation index 0). Empty addresses are a no-op.
func (a *Adapter) Consolidate(ctx context.Context, w *domain.Wallet, addr *domain.Address, passphrase string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	account, err := a.openAccount(w, passphrase)
	if err != nil {
		return err
	}
	index, err := derivationIndex(addr.DerivationPath)
	if err != nil {
		return apperror.Validation(err.Error())
	}

	from, key, err := a.derive(account, hd.External, index)
	if err != nil {
		return apperror.ErrAdapter(a.cfg.Coin.Identifier, "derive key", err)
	}
	hot, _, err := a.derive(account, hd.External, 0)
	if err != nil {
		return apperror.ErrAdapter(a.cfg.Coin.Identifier, "derive key", err)
	}

	ethBal, tokBal, err := a.node.GetBalance(from, a.cfg.ContractAddress)
	if err != nil {
		return apperror.ErrAdapter(a.cfg.Coin.Identifier, "get balance", err)
	}

	gasWei := new(big.Int).Mul(
		big.NewInt(int64(a.cfg.GasPriceWei)),
		big.NewInt(a.sweepGasLimit()),
	)

	var sendAmount *big.Int
	if a.cfg.ContractAddress == "" {
		sendAmount = new(big.Int).Sub(ethBal, gasWei)
		if sendAmount.Sign() <= 0 {
			if ethBal.Sign() == 0 {
				return nil
			}
			return apperror.ErrInsufficientFunds()
		}
	} else {
		if tokBal.Sign() == 0 {
			return nil
		}
		// Token sweeps pay gas in the native asset held at the same address.
		if ethBal.Cmp(gasWei) < 0 {
			return apperror.ErrInsufficientFunds()
		}
		sendAmount = tokBal
	}

	err = chain.Retry(ctx, sendAttempts, sendBackoff, func() error {
		_, _, _, sendErr := a.node.SendTrx(from, hot, a.cfg.ContractAddress, sendAmount.String(), nil, key, a.cfg.GasPriceWei, false)
		return sendErr
	})
	if err != nil {
		if apperror.IsTerminal(err) {
			return err
		}
		return apperror.ErrAdapter(a.cfg.Coin.Identifier, "consolidate", err)
	}

	a.log.Info().Str("address", addr.Address).Msg("address swept")
	return nil
}

// FeeAddress returns the wallet's primary native-asset address that funds
// token gas.
func (t *TokenAdapter) FeeAddress(ctx context.Context, w *domain.Wallet) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	addr, _, err := t.derive(accountFor(w.ID), hd.External, 0)
	if err != nil {
		return "", apperror.ErrAdapter(t.cfg.Coin.Identifier, "derive address", err)
	}
	return addr, nil
}

func (t *TokenAdapter) NativeAssetID() string { return t.cfg.NativeCoinID }

func (a *Adapter) sweepGasLimit() int64 {
	if a.cfg.ContractAddress != "" {
		return gasLimitToken
	}
	return gasLimitNative
}

func (a *Adapter) decimals() int32 {
	if a.cfg.ContractAddress != "" {
		return a.cfg.Coin.Precision
	}
	return nativeDecimals
}

func (a *Adapter) feeCurrency() string {
	if a.cfg.ContractAddress != "" && a.cfg.NativeCoinID != "" {
		return strings.ToUpper(a.cfg.NativeCoinID)
	}
	return a.cfg.Coin.CurrencyCode()
}

// toBaseUnits converts an amount into the integer base-unit string the node
// expects.
func (a *Adapter) toBaseUnits(amount money.Money) (string, error) {
	d := amount.Amount().Shift(a.decimals())
	if !d.Equal(d.Truncate(0)) {
		return "", apperror.Validation(fmt.Sprintf("amount %s has more fraction digits than the asset supports", amount))
	}
	return d.String(), nil
}

// fromBaseUnits parses a hex or decimal base-unit string into Money.
func (a *Adapter) fromBaseUnits(s string) (money.Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return money.Zero(a.cfg.Coin.CurrencyCode()), nil
	}

	var units decimal.Decimal
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			return money.Money{}, fmt.Errorf("evm: invalid hex amount %q", s)
		}
		units = decimal.NewFromBigInt(v, 0)
	} else {
		var err error
		units, err = decimal.NewFromString(s)
		if err != nil {
			return money.Money{}, fmt.Errorf("evm: invalid amount %q", s)
		}
	}
	return money.New(a.cfg.Coin.CurrencyCode(), units.Shift(-a.decimals()))
}

func (a *Adapter) feeFromGas(price, gas uint64) money.Money {
	wei := decimal.NewFromInt(int64(price)).Mul(decimal.NewFromInt(int64(gas)))
	fee, _ := money.New(a.feeCurrency(), wei.Shift(-nativeDecimals))
	return fee
}

func (a *Adapter) feeFromWei(wei uint64) money.Money {
	fee, _ := money.New(a.feeCurrency(), decimal.NewFromInt(int64(wei)).Shift(-nativeDecimals))
	return fee
}

func parseChainEvent(payload []byte) (*chainEvent, error) {
	var ev chainEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, apperror.Validation("malformed chain event payload")
	}
	if ev.Hash == "" || ev.To == "" {
		return nil, apperror.Validation("chain event missing hash or to")
	}
	return &ev, nil
}

func derivationIndex(path string) (uint32, error) {
	i := strings.LastIndex(path, "/")
	if i < 0 || i == len(path)-1 {
		return 0, fmt.Errorf("evm: invalid derivation path %q", path)
	}
	idx, err := strconv.ParseUint(path[i+1:], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("evm: invalid derivation path %q", path)
	}
	return uint32(idx), nil
}
