package handler

import (
	"context"
	"net/http"

	"github.com/infisparks/gautami-ledger/internal/adapter/http/dto"
	"github.com/infisparks/gautami-ledger/internal/usecase"
)

// ReconciliationService defines the behavior needed by ReconciliationHandler.
type ReconciliationService interface {
	ReleasePendingBeds(ctx context.Context) (*usecase.BedReleaseReport, error)
}

// ReconciliationHandler triggers a bed-release reconciliation pass.
type ReconciliationHandler struct {
	reconciliationUC ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconciliationUC ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliationUC: reconciliationUC}
}

// ReleaseBeds re-runs the bed-release half of stuck discharges.
func (h *ReconciliationHandler) ReleaseBeds(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciliationUC.ReleasePendingBeds(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reconciliation failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BedReleaseReportFromUseCase(report))
}
