package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/veldclinics/booking-platform/internal/continuation"
	"github.com/veldclinics/booking-platform/pkg/logging"
)

// TokenRedeemer is the continuation surface the handler needs.
type TokenRedeemer interface {
	Redeem(ctx context.Context, token string) (*continuation.Redemption, error)
}

// ContinuationHandler serves token redemption.
type ContinuationHandler struct {
	tokens TokenRedeemer
	logger *logging.Logger
}

// NewContinuationHandler creates a new continuation HTTP handler.
func NewContinuationHandler(tokens TokenRedeemer, logger *logging.Logger) *ContinuationHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ContinuationHandler{
		tokens: tokens,
		logger: logger,
	}
}

// Routes returns a chi router with the continuation routes.
func (h *ContinuationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/redeem", h.Redeem)
	return r
}

// RedeemRequest is the request body for POST /continuation/redeem.
type RedeemRequest struct {
	Token string `json:"token"`
}

// Redeem consumes a continuation token and returns the repeat type and origin
// booking for the follow-up flow.
// POST /continuation/redeem
func (h *ContinuationHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "token required")
		return
	}

	red, err := h.tokens.Redeem(r.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, continuation.ErrTokenNotFound):
			writeError(w, http.StatusNotFound, "token not found")
		case errors.Is(err, continuation.ErrTokenExpired):
			writeError(w, http.StatusGone, "token expired")
		case errors.Is(err, continuation.ErrTokenConsumed):
			writeError(w, http.StatusConflict, "token already consumed")
		default:
			h.logger.Error("token redemption failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, red)
}
