package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/infisparks/gautami-ledger/internal/adapter/http/dto"
	"github.com/infisparks/gautami-ledger/internal/domain"
)

// InvoiceService defines the behavior needed by InvoiceHandler.
type InvoiceService interface {
	GetInvoice(ctx context.Context, recordID string) (*domain.InvoiceView, error)
}

// InvoiceHandler serves invoice projections.
type InvoiceHandler struct {
	invoiceUC InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceUC InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceUC: invoiceUC}
}

// Get projects the record into its printable invoice view.
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "id")
	if recordID == "" {
		writeError(w, http.StatusBadRequest, "missing record ID", "")
		return
	}

	view, err := h.invoiceUC.GetInvoice(r.Context(), recordID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to project invoice", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.InvoiceFromDomain(view))
}
