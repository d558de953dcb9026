package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/infisparks/gautami-ledger/internal/adapter/http/dto"
	"github.com/infisparks/gautami-ledger/internal/domain"
)

// DischargeService defines the behavior needed by DischargeHandler.
type DischargeService interface {
	Discharge(ctx context.Context, recordID string) (*domain.LedgerRecord, error)
}

// DischargeHandler handles the discharge endpoint.
type DischargeHandler struct {
	dischargeUC DischargeService
}

// NewDischargeHandler creates a new DischargeHandler.
func NewDischargeHandler(dischargeUC DischargeService) *DischargeHandler {
	return &DischargeHandler{dischargeUC: dischargeUC}
}

// PartialDischargeResponse reports a discharge whose billing half
// committed but whose bed release failed. The client can re-POST the
// discharge to retry just the release.
type PartialDischargeResponse struct {
	Record   *dto.RecordResponse `json:"record"`
	RoomType string              `json:"room_type"`
	BedID    string              `json:"bed_id"`
	Error    string              `json:"error"`
}

// Discharge marks the record discharged and releases its bed.
// Re-POSTing an already-discharged record is safe.
func (h *DischargeHandler) Discharge(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "id")
	if recordID == "" {
		writeError(w, http.StatusBadRequest, "missing record ID", "")
		return
	}

	record, err := h.dischargeUC.Discharge(r.Context(), recordID)
	if err != nil {
		var partial *domain.PartialDischargeError
		if errors.As(err, &partial) {
			writeJSON(w, http.StatusBadGateway, PartialDischargeResponse{
				Record:   dto.RecordFromDomain(record),
				RoomType: partial.Bed.RoomType,
				BedID:    partial.Bed.BedID,
				Error:    partial.Err.Error(),
			})
			return
		}

		writeError(w, mapDomainError(err), "failed to discharge record", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RecordFromDomain(record))
}
