// internal/api/handler/payment.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"tradehub-ledger/internal/domain"
	"tradehub-ledger/internal/service"
	"tradehub-ledger/internal/util"
)

// PaymentHandler exposes the payment initiation contract.
type PaymentHandler struct {
	service *service.PaymentService
	logger  *slog.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(svc *service.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{service: svc, logger: logger}
}

// InitiateRequest represents the request body for payment initiation.
type InitiateRequest struct {
	UserID            int64           `json:"user_id"`
	Amount            decimal.Decimal `json:"amount"`
	Purpose           string          `json:"purpose"`
	RelatedID         *string         `json:"related_id"`
	BeneficiaryUserID *int64          `json:"beneficiary_user_id"`
}

// Initiate starts a gateway payment and returns {reference, callback_url}.
// POST /payments/initiate
func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req InitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	purpose, ok := domain.ParsePurpose(req.Purpose)
	if !ok {
		respondWithError(w, h.logger, util.ErrUnhandledPurpose)
		return
	}

	result, err := h.service.Initiate(r.Context(), req.UserID, req.Amount, purpose, req.RelatedID, req.BeneficiaryUserID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusCreated, result)
}

// Status answers a caller's poll for a transaction's state.
// GET /payments/{reference}
func (h *PaymentHandler) Status(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	txn, err := h.service.Status(r.Context(), reference)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"reference": txn.Reference,
		"status":    txn.Status,
		"amount":    txn.Amount,
		"purpose":   txn.Purpose,
	})
}
