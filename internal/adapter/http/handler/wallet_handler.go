package handler

import (
	"strings"

	"walletbridge/internal/adapter/http/dto"
	"walletbridge/internal/core/ports"
	"walletbridge/pkg/apperror"
	"walletbridge/pkg/money"
	"walletbridge/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles wallet-related endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// CreateWallet handles POST /api/v1/wallets.
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		response.Error(c, apperror.Validation("owner_id is not a valid UUID"))
		return
	}

	w, err := h.walletSvc.CreateWallet(c.Request.Context(), ports.CreateWalletRequest{
		OwnerID:    ownerID,
		CoinID:     strings.ToLower(strings.TrimSpace(req.CoinID)),
		Passphrase: req.Passphrase,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToWalletResponse(w))
}

// GetWallet handles GET /api/v1/wallets/:id.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("wallet id is not a valid UUID"))
		return
	}

	w, err := h.walletSvc.GetWallet(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToWalletResponse(w))
}

// CreateAddress handles POST /api/v1/wallets/:id/addresses.
func (h *WalletHandler) CreateAddress(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("wallet id is not a valid UUID"))
		return
	}

	var req dto.CreateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	addr, err := h.walletSvc.CreateAddress(c.Request.Context(), ports.CreateAddressRequest{
		WalletID:   walletID,
		Passphrase: req.Passphrase,
		Label:      strings.TrimSpace(req.Label),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToAddressResponse(addr))
}

// Send handles POST /api/v1/wallets/:id/send.
func (h *WalletHandler) Send(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("wallet id is not a valid UUID"))
		return
	}

	var req dto.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	w, err := h.walletSvc.GetWallet(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, err)
		return
	}
	amount, err := money.Parse(w.Balance.Currency(), req.Amount)
	if err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	if !amount.IsPositive() {
		response.Error(c, apperror.Validation("amount must be positive"))
		return
	}

	rec, err := h.walletSvc.Send(c.Request.Context(), ports.SendRequest{
		WalletID:   walletID,
		Address:    strings.TrimSpace(req.Address),
		Amount:     amount,
		Passphrase: req.Passphrase,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToRecordResponse(rec))
}

// CreateDepositIntent handles POST /api/v1/wallets/:id/deposits.
func (h *WalletHandler) CreateDepositIntent(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("wallet id is not a valid UUID"))
		return
	}

	var req dto.DepositIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	addressID, err := uuid.Parse(req.AddressID)
	if err != nil {
		response.Error(c, apperror.Validation("address_id is not a valid UUID"))
		return
	}

	w, err := h.walletSvc.GetWallet(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, err)
		return
	}
	amount, err := money.Parse(w.Balance.Currency(), req.Amount)
	if err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	if !amount.IsPositive() {
		response.Error(c, apperror.Validation("amount must be positive"))
		return
	}

	rec, err := h.walletSvc.CreateDepositIntent(c.Request.Context(), ports.DepositIntentRequest{
		WalletID:  walletID,
		AddressID: addressID,
		Amount:    amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToRecordResponse(rec))
}
