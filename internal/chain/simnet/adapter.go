// Package simnet implements the coin adapter contract against an in-process
// simulated chain backend. It is the reference adapter used in development
// and in service-level tests.
package simnet

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"walletbridge/internal/core/domain"
	"walletbridge/internal/core/ports"
	"walletbridge/pkg/apperror"
	"walletbridge/pkg/money"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// feeSafetyMargin pads fee estimates so the charged fee never exceeds them.
var feeSafetyMargin = decimal.RequireFromString("1.25")

// webhookPayload is the provider-side notification format of the simulated
// backend.
type webhookPayload struct {
	TxID          string `json:"tx_id"`
	Address       string `json:"address"`
	Amount        string `json:"amount"`
	Confirmations int64  `json:"confirmations"`
}

// Adapter implements ports.CoinAdapter and ports.Consolidator over a Backend.
type Adapter struct {
	coin    domain.Coin
	backend *Backend
	sealer  ports.CredentialSealer

	min money.Money
	max money.Money

	price       decimal.Decimal
	priceChange decimal.Decimal

	log zerolog.Logger
}

var (
	_ ports.CoinAdapter  = (*Adapter)(nil)
	_ ports.Consolidator = (*Adapter)(nil)
)

// NewAdapter builds a simnet adapter for one coin.
func NewAdapter(coin domain.Coin, backend *Backend, sealer ports.CredentialSealer, min, max money.Money, price decimal.Decimal, log zerolog.Logger) *Adapter {
	return &Adapter{
		coin:        coin,
		backend:     backend,
		sealer:      sealer,
		min:         min,
		max:         max,
		price:       price,
		priceChange: decimal.RequireFromString("0.42"),
		log:         log.With().Str("component", "simnet").Str("coin", coin.Identifier).Logger(),
	}
}

func (a *Adapter) Identity() domain.Coin { return a.coin }

func (a *Adapter) CreateWallet(ctx context.Context, ownerID uuid.UUID, passphrase string) (*domain.Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, apperror.ErrCredentialFailure(err)
	}
	sealed, err := a.sealer.Seal(hex.EncodeToString(secret), passphrase)
	if err != nil {
		return nil, apperror.ErrCredentialFailure(err)
	}

	now := time.Now().UTC()
	return &domain.Wallet{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		CoinID:        a.coin.Identifier,
		CredentialEnc: sealed,
		Balance:       money.Zero(a.coin.CurrencyCode()),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (a *Adapter) CreateAddress(ctx context.Context, w *domain.Wallet, passphrase, label string) (*domain.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := a.sealer.Open(w.CredentialEnc, passphrase); err != nil {
		return nil, apperror.ErrCredentialFailure(err)
	}

	addr, idx := a.backend.deriveAddress(w.ID)
	return &domain.Address{
		ID:             uuid.New(),
		WalletID:       w.ID,
		CoinID:         a.coin.Identifier,
		Address:        addr,
		Label:          label,
		DerivationPath: fmt.Sprintf("sim/0/%d", idx),
		CreatedAt:      time.Now().UTC(),
	}, nil
}

func (a *Adapter) Send(ctx context.Context, w *domain.Wallet, address string, amount money.Money, passphrase string) (*domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if amount.Currency() != a.coin.CurrencyCode() {
		return nil, apperror.Validation(fmt.Sprintf("amount currency %s does not match coin %s", amount.Currency(), a.coin.Identifier))
	}

	// Transfer bounds are enforced before the backend is contacted.
	if below, err := amount.LessThan(a.min); err != nil {
		return nil, apperror.Validation(err.Error())
	} else if below {
		return nil, apperror.ErrBelowMinimum(a.min.String())
	}
	if above, err := amount.GreaterThan(a.max); err != nil {
		return nil, apperror.Validation(err.Error())
	} else if above {
		return nil, apperror.ErrAboveMaximum(a.max.String())
	}

	if _, err := a.sealer.Open(w.CredentialEnc, passphrase); err != nil {
		return nil, apperror.ErrCredentialFailure(err)
	}

	btx, err := a.backend.send(w.ID, address, amount.Amount())
	if err != nil {
		if errors.Is(err, errInsufficientFunds) {
			return nil, apperror.ErrInsufficientFunds()
		}
		return nil, apperror.ErrAdapter(a.coin.Identifier, "send", err)
	}

	a.log.Info().Str("tx_id", btx.id).Str("to", address).Msg("outbound transfer accepted")
	return a.toTransaction(w.ID, *btx), nil
}

func (a *Adapter) GetTransaction(ctx context.Context, w *domain.Wallet, txID string) (*domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	btx, err := a.backend.transaction(txID)
	if err != nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	return a.toTransaction(w.ID, btx), nil
}

func (a *Adapter) HandleTransactionWebhook(ctx context.Context, w *domain.Wallet, payload []byte) (*domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var p webhookPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, apperror.Validation("malformed webhook payload")
	}
	if p.TxID == "" || p.Address == "" {
		return nil, apperror.Validation("webhook payload missing tx_id or address")
	}

	// Notifications for addresses this wallet does not own are irrelevant,
	// not errors.
	if !a.backend.ownsAddress(w.ID, p.Address) {
		return nil, nil
	}

	amount, err := money.Parse(a.coin.CurrencyCode(), p.Amount)
	if err != nil {
		return nil, apperror.Validation("webhook payload amount is not a valid decimal")
	}

	status := domain.TransactionStatusPending
	if p.Confirmations >= a.coin.MinConfirmations {
		status = domain.TransactionStatusConfirmed
	}
	now := time.Now().UTC()
	return &domain.Transaction{
		ID:            uuid.New(),
		CoinID:        a.coin.Identifier,
		TxID:          p.TxID,
		WalletID:      w.ID,
		Direction:     domain.DirectionReceive,
		Address:       p.Address,
		Amount:        amount,
		Confirmations: p.Confirmations,
		RawPayload:    json.RawMessage(payload),
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (a *Adapter) SetTransactionWebhook(ctx context.Context, w *domain.Wallet, callbackURL string, minConfirmations int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.backend.register(w.ID, callbackURL, minConfirmations)
	return nil
}

func (a *Adapter) ResetTransactionWebhook(ctx context.Context, w *domain.Wallet, callbackURL string, minConfirmations int64) error {
	return a.SetTransactionWebhook(ctx, w, callbackURL, minConfirmations)
}

func (a *Adapter) DollarPrice(ctx context.Context) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	return a.price, nil
}

func (a *Adapter) DollarPriceChange(ctx context.Context) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	return a.priceChange, nil
}

func (a *Adapter) MarketChart(ctx context.Context, interval string) ([]ports.MarketPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	span, err := time.ParseDuration(interval)
	if err != nil || span <= 0 {
		return nil, apperror.Validation(fmt.Sprintf("invalid chart interval %q", interval))
	}

	const samples = 24
	step := span / samples
	now := time.Now().UTC()
	points := make([]ports.MarketPoint, 0, samples)
	drift := decimal.RequireFromString("0.001")
	for i := samples - 1; i >= 0; i-- {
		ts := now.Add(-time.Duration(i) * step)
		wobble := decimal.NewFromInt(int64(i % 5)).Mul(drift)
		points = append(points, ports.MarketPoint{
			Timestamp: ts.Unix(),
			Price:     a.price.Mul(decimal.NewFromInt(1).Add(wobble)),
		})
	}
	return points, nil
}

// EstimateTransactionFee returns baseFee scaled per input and padded by a
// safety margin, rounded up. The backend never charges more than baseFee per
// operation, so the estimate is an upper bound.
func (a *Adapter) EstimateTransactionFee(ctx context.Context, amount money.Money, inputs int) (money.Money, error) {
	if err := ctx.Err(); err != nil {
		return money.Money{}, err
	}
	if inputs < 1 {
		inputs = 1
	}
	fee := a.backend.baseFee.
		Mul(decimal.NewFromInt(int64(inputs))).
		Mul(feeSafetyMargin).
		RoundUp(a.coin.Precision)
	return money.New(a.coin.CurrencyCode(), fee)
}

func (a *Adapter) MinimumTransferable() money.Money { return a.min }
func (a *Adapter) MaximumTransferable() money.Money { return a.max }

// Consolidate sweeps a deposit address into the wallet's primary holding.
func (a *Adapter) Consolidate(ctx context.Context, w *domain.Wallet, addr *domain.Address, passphrase string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := a.sealer.Open(w.CredentialEnc, passphrase); err != nil {
		return apperror.ErrCredentialFailure(err)
	}

	moved, noop, err := a.backend.sweep(w.ID, addr.Address)
	if err != nil {
		if errors.Is(err, errInsufficientFunds) {
			return apperror.ErrInsufficientFunds()
		}
		return apperror.ErrAdapter(a.coin.Identifier, "consolidate", err)
	}
	if noop {
		return nil
	}
	a.log.Info().Str("address", addr.Address).Str("amount", moved.String()).Msg("address swept")
	return nil
}

func (a *Adapter) toTransaction(walletID uuid.UUID, btx backendTx) *domain.Transaction {
	amount, _ := money.New(a.coin.CurrencyCode(), btx.amount)
	fee, _ := money.New(a.coin.CurrencyCode(), btx.fee)

	direction := domain.DirectionReceive
	if btx.outbound {
		direction = domain.DirectionSend
	}
	status := domain.TransactionStatusPending
	if btx.confirmations >= a.coin.MinConfirmations {
		status = domain.TransactionStatusConfirmed
	}

	now := time.Now().UTC()
	return &domain.Transaction{
		ID:            uuid.New(),
		CoinID:        a.coin.Identifier,
		TxID:          btx.id,
		WalletID:      walletID,
		Direction:     direction,
		Address:       btx.address,
		Amount:        amount,
		Fee:           &fee,
		Confirmations: btx.confirmations,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
