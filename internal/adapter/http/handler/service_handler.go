package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/infisparks/gautami-ledger/internal/adapter/http/dto"
	"github.com/infisparks/gautami-ledger/internal/domain"
	"github.com/infisparks/gautami-ledger/internal/usecase"
)

// BillingService defines the behavior needed by ServiceHandler.
type BillingService interface {
	AddService(ctx context.Context, input usecase.AddServiceInput) (*domain.LedgerRecord, error)
	CompleteService(ctx context.Context, recordID string, index int) (*domain.LedgerRecord, error)
}

// ServiceHandler handles the service ledger endpoints.
type ServiceHandler struct {
	billingUC BillingService
}

// NewServiceHandler creates a new ServiceHandler.
func NewServiceHandler(billingUC BillingService) *ServiceHandler {
	return &ServiceHandler{billingUC: billingUC}
}

// Add appends a pending service line item to a record.
func (h *ServiceHandler) Add(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "id")
	if recordID == "" {
		writeError(w, http.StatusBadRequest, "missing record ID", "")
		return
	}

	var req dto.AddServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(recordID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	record, err := h.billingUC.AddService(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to add service", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.RecordFromDomain(record))
}

// Complete marks the service at index (most-recent-first) completed.
func (h *ServiceHandler) Complete(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "id")
	if recordID == "" {
		writeError(w, http.StatusBadRequest, "missing record ID", "")
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid service index", err.Error())
		return
	}

	record, err := h.billingUC.CompleteService(r.Context(), recordID, index)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to complete service", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RecordFromDomain(record))
}
