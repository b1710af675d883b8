package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/minibank/internal/adapter/http/dto"
	"github.com/iho/minibank/internal/infrastructure/metrics"
	"github.com/iho/minibank/internal/usecase"
)

// ReconciliationService defines the behavior needed by ReconciliationHandler.
type ReconciliationService interface {
	ReconcileAccount(ctx context.Context, accountNumber string) (*usecase.ReconciliationResult, error)
	CheckConsistency(ctx context.Context) (bool, []*usecase.Discrepancy, error)
}

// ReconciliationHandler exposes ledger consistency checks.
type ReconciliationHandler struct {
	reconciliationUC ReconciliationService
	metrics          *metrics.Metrics
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconciliationUC ReconciliationService, m *metrics.Metrics) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliationUC: reconciliationUC, metrics: m}
}

// CheckConsistency verifies every account balance against its log.
func (h *ReconciliationHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	consistent, discrepancies, err := h.reconciliationUC.CheckConsistency(r.Context())
	if err != nil {
		writeError(w, mapDomainError(err), "consistency check failed", err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.ReconciliationRuns.Inc()
		h.metrics.DiscrepanciesDetected.Set(float64(len(discrepancies)))
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyResponse{
		Consistent:    consistent,
		Discrepancies: dto.DiscrepanciesFromUseCase(discrepancies),
	})
}

// ReconcileAccount recomputes one account's balance from its log.
func (h *ReconciliationHandler) ReconcileAccount(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	result, err := h.reconciliationUC.ReconcileAccount(r.Context(), number)
	if err != nil {
		writeError(w, mapDomainError(err), "reconciliation failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(result))
}
