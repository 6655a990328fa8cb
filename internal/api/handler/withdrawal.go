// internal/api/handler/withdrawal.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"tradehub-ledger/internal/api/types"
	"tradehub-ledger/internal/domain"
	"tradehub-ledger/internal/service"
	"tradehub-ledger/internal/util"
)

// WithdrawalHandler exposes the manual-approval withdrawal workflow. Actor
// identities arrive as explicit fields; authentication lives in the layer
// in front of this service.
type WithdrawalHandler struct {
	workflow *service.WithdrawalWorkflow
	logger   *slog.Logger
}

// NewWithdrawalHandler creates a new WithdrawalHandler.
func NewWithdrawalHandler(wf *service.WithdrawalWorkflow, logger *slog.Logger) *WithdrawalHandler {
	return &WithdrawalHandler{workflow: wf, logger: logger}
}

// CreateWithdrawalRequest represents the request body for a new withdrawal.
type CreateWithdrawalRequest struct {
	UserID          int64           `json:"user_id"`
	WalletID        int64           `json:"wallet_id"`
	Amount          decimal.Decimal `json:"amount"`
	PayoutReference string          `json:"payout_reference"`
}

// Create places a new withdrawal request and locks the funds.
// POST /withdrawals
func (h *WithdrawalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	request, err := h.workflow.Create(r.Context(), req.UserID, req.WalletID, req.Amount, req.PayoutReference)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusCreated, request)
}

// List returns withdrawal requests. With user_id it lists one owner's
// requests; otherwise all, optionally filtered by status.
// GET /withdrawals
func (h *WithdrawalHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	if userIDStr := r.URL.Query().Get("user_id"); userIDStr != "" {
		userID, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil {
			respondWithError(w, h.logger, util.ErrInvalidInput)
			return
		}
		requests, totalCount, err := h.workflow.ListByOwner(r.Context(), userID, limit, offset)
		if err != nil {
			respondWithError(w, h.logger, err)
			return
		}
		respondWithJSON(w, h.logger, http.StatusOK, types.PaginatedResponse[domain.WithdrawalRequest]{
			Data: requests, Limit: limit, Offset: offset, TotalCount: totalCount,
		})
		return
	}

	var status *domain.WithdrawalStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.WithdrawalStatus(s)
		status = &st
	}
	requests, totalCount, err := h.workflow.List(r.Context(), status, limit, offset)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, types.PaginatedResponse[domain.WithdrawalRequest]{
		Data: requests, Limit: limit, Offset: offset, TotalCount: totalCount,
	})
}

// Stats aggregates counts and amounts by status.
// GET /withdrawals/stats
func (h *WithdrawalHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.workflow.Stats(r.Context())
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, map[string]interface{}{"stats": stats})
}

// ReviewRequest represents the body for approve/reject/cancel actions.
type ReviewRequest struct {
	ReviewerID int64  `json:"reviewer_id"`
	UserID     int64  `json:"user_id"`
	Reason     string `json:"reason"`
}

// Approve moves a pending request to approved.
// POST /withdrawals/{id}/approve
func (h *WithdrawalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, func(id int64, req ReviewRequest) (*domain.WithdrawalRequest, error) {
		return h.workflow.Approve(r.Context(), id, req.ReviewerID)
	})
}

// Reject moves a pending request to rejected; a reason is mandatory.
// POST /withdrawals/{id}/reject
func (h *WithdrawalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, func(id int64, req ReviewRequest) (*domain.WithdrawalRequest, error) {
		return h.workflow.Reject(r.Context(), id, req.ReviewerID, req.Reason)
	})
}

// Cancel lets the owner withdraw a pending request.
// POST /withdrawals/{id}/cancel
func (h *WithdrawalHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, func(id int64, req ReviewRequest) (*domain.WithdrawalRequest, error) {
		return h.workflow.Cancel(r.Context(), id, req.UserID)
	})
}

// Process executes an approved request against the payout gateway.
// POST /withdrawals/{id}/process
func (h *WithdrawalHandler) Process(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}
	request, err := h.workflow.Process(r.Context(), id)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, request)
}

func (h *WithdrawalHandler) review(w http.ResponseWriter, r *http.Request, action func(int64, ReviewRequest) (*domain.WithdrawalRequest, error)) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}
	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}
	request, err := action(id, req)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, request)
}
