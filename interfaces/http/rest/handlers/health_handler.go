package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"learnboard/pkg/common"
	apperrors "learnboard/pkg/errors"
)

// Pinger is satisfied by every table driver.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness checks.
type HealthHandler struct {
	store  Pinger
	errors *apperrors.ErrorHandler
	logger *zap.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store Pinger, errs *apperrors.ErrorHandler, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{store: store, errors: errs, logger: logger}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready handles GET /ready. It fails while the table cannot be reached.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("Readiness check failed", zap.Error(err))
		h.errors.Handle(w, r, apperrors.NewUnavailableError("store").WithCause(err))
		return
	}
	common.RespondJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}
