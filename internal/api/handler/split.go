// internal/api/handler/split.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"tradehub-ledger/internal/service"
	"tradehub-ledger/internal/util"
)

// SplitHandler exposes revenue split configuration and lookups.
type SplitHandler struct {
	splitter *service.RevenueSplitter
	logger   *slog.Logger
}

// NewSplitHandler creates a new SplitHandler.
func NewSplitHandler(splitter *service.RevenueSplitter, logger *slog.Logger) *SplitHandler {
	return &SplitHandler{splitter: splitter, logger: logger}
}

// ActivateSettingsRequest represents the body for activating a new split.
type ActivateSettingsRequest struct {
	DealerPercentage   decimal.Decimal `json:"dealer_percentage"`
	PlatformPercentage decimal.Decimal `json:"platform_percentage"`
}

// ActivateSettings activates a new split configuration, deactivating all
// previous ones atomically.
// POST /settings/revenue-split
func (h *SplitHandler) ActivateSettings(w http.ResponseWriter, r *http.Request) {
	var req ActivateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	settings, err := h.splitter.ActivateSettings(r.Context(), req.DealerPercentage, req.PlatformPercentage)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusCreated, settings)
}

// GetSplit returns the split breakdown for a payment reference.
// GET /splits/{reference}
func (h *SplitHandler) GetSplit(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	split, err := h.splitter.GetSplitByReference(r.Context(), reference)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, splitView(split))
}
