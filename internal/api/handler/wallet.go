// internal/api/handler/wallet.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tradehub-ledger/internal/api/types"
	"tradehub-ledger/internal/domain"
	"tradehub-ledger/internal/service"
	"tradehub-ledger/internal/util"
)

// WalletHandler handles HTTP requests related to wallet operations.
type WalletHandler struct {
	store  *service.WalletStore
	logger *slog.Logger
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(store *service.WalletStore, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{store: store, logger: logger}
}

// CreateWalletRequest represents the request body for wallet creation.
type CreateWalletRequest struct {
	UserID   int64  `json:"user_id"`
	Currency string `json:"currency"`
}

// CreateWallet provisions a wallet for a user.
// POST /wallets
func (h *WalletHandler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	var req CreateWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	wallet, err := h.store.CreateWallet(r.Context(), req.UserID, req.Currency)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusCreated, wallet)
}

// GetWalletBalance returns the wallet's balances, including the derived
// available balance.
// GET /wallets/{walletID}/balance
func (h *WalletHandler) GetWalletBalance(w http.ResponseWriter, r *http.Request) {
	walletID, err := parseWalletID(r)
	if err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	wallet, err := h.store.Balance(r.Context(), walletID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"wallet_id":         wallet.ID,
		"currency":          wallet.Currency,
		"ledger_balance":    wallet.LedgerBalance,
		"locked_amount":     wallet.LockedAmount,
		"available_balance": wallet.AvailableBalance(),
	})
}

// GetTransactionHistory returns a paginated list of a wallet's transactions.
// GET /wallets/{walletID}/transactions
func (h *WalletHandler) GetTransactionHistory(w http.ResponseWriter, r *http.Request) {
	walletID, err := parseWalletID(r)
	if err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}
	limit, offset := parsePagination(r)

	transactions, totalCount, err := h.store.TransactionHistory(r.Context(), walletID, limit, offset)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, types.PaginatedResponse[domain.Transaction]{
		Data:       transactions,
		Limit:      limit,
		Offset:     offset,
		TotalCount: totalCount,
	})
}

func parseWalletID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "walletID"), 10, 64)
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}
