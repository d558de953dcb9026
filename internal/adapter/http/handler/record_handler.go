package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/infisparks/gautami-ledger/internal/adapter/http/dto"
	"github.com/infisparks/gautami-ledger/internal/domain"
	"github.com/infisparks/gautami-ledger/internal/usecase"
)

// RecordService defines the behavior needed by RecordHandler.
type RecordService interface {
	AdmitRecord(ctx context.Context, input usecase.AdmitRecordInput) (*domain.LedgerRecord, error)
	GetRecord(ctx context.Context, id string) (*domain.LedgerRecord, error)
	ListRecords(ctx context.Context, input usecase.ListRecordsInput) ([]*domain.LedgerRecord, error)
}

// RecordHandler handles billing record intake and reads.
type RecordHandler struct {
	recordUC RecordService
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(recordUC RecordService) *RecordHandler {
	return &RecordHandler{recordUC: recordUC}
}

// Admit opens a billing record for a new stay.
func (h *RecordHandler) Admit(w http.ResponseWriter, r *http.Request) {
	var req dto.AdmitRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	record, err := h.recordUC.AdmitRecord(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to admit record", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.RecordFromDomain(record))
}

// Get retrieves a record by ID.
func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing record ID", "")
		return
	}

	record, err := h.recordUC.GetRecord(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get record", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RecordFromDomain(record))
}

// List lists records.
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	records, err := h.recordUC.ListRecords(r.Context(), usecase.ListRecordsInput{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list records", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RecordsFromDomain(records))
}
