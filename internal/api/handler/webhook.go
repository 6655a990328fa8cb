// internal/api/handler/webhook.go
package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"tradehub-ledger/internal/domain"
	"tradehub-ledger/internal/gateway"
	"tradehub-ledger/internal/service"
	"tradehub-ledger/internal/util"
)

// SignatureHeader carries the provider's HMAC of the raw request body.
const SignatureHeader = "X-Webhook-Signature"

// WebhookHandler terminates the payment gateway's event delivery.
type WebhookHandler struct {
	gateway *gateway.WebhookGateway
	engine  *service.ReconciliationEngine
	logger  *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(gw *gateway.WebhookGateway, engine *service.ReconciliationEngine, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{gateway: gw, engine: engine, logger: logger}
}

// HandleEvent verifies, normalizes and applies one gateway notification.
// POST /webhooks/payment
//
// Responses follow the retry contract: 401 only on signature failure,
// 200 for anything recognized or already processed (including permanently
// malformed payloads, to stop retry storms), 500 when reconciliation could
// not complete and a redelivery is wanted.
func (h *WebhookHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("Failed to read webhook body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	event, err := h.gateway.Receive(rawBody, r.Header.Get(SignatureHeader))
	if err != nil {
		if util.IsError(err, util.ErrSignature) {
			h.logger.Warn("Rejected webhook with bad signature", "remote", r.RemoteAddr)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		// Malformed events are acknowledged but never applied.
		h.logger.Error("Acknowledged unparseable webhook event", "error", err)
		respondWithJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	result, err := h.engine.Apply(r.Context(), event)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	if result.Outcome == service.OutcomeAlreadyProcessed {
		respondWithJSON(w, h.logger, http.StatusOK, map[string]interface{}{
			"status":    "already_processed",
			"reference": event.Reference,
		})
		return
	}

	payload := map[string]interface{}{
		"status":    "applied",
		"reference": event.Reference,
		"state":     result.Transaction.Status,
	}
	if result.Split != nil {
		payload["split"] = splitView(result.Split)
	}
	respondWithJSON(w, h.logger, http.StatusOK, payload)
}

// ListPending surfaces transactions stuck in pending, for the manual
// reconciliation queue.
// GET /reconciliation/pending?older_than_minutes=60&limit=50
func (h *WebhookHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	olderThan := 60 * time.Minute
	if v, err := strconv.Atoi(r.URL.Query().Get("older_than_minutes")); err == nil && v > 0 {
		olderThan = time.Duration(v) * time.Minute
	}
	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}

	transactions, err := h.engine.ListPendingForReview(r.Context(), olderThan, limit)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"data":  transactions,
		"limit": limit,
	})
}

// splitView is the breakdown exposed to business subsystems after a
// split-bearing payment completes.
func splitView(split *domain.RevenueSplit) map[string]interface{} {
	return map[string]interface{}{
		"dealer_amount":       split.DealerAmount,
		"dealer_percentage":   split.DealerPercentage,
		"platform_amount":     split.PlatformAmount,
		"platform_percentage": split.PlatformPercentage,
		"dealer_credited":     split.DealerCredited,
	}
}
