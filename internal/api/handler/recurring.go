// internal/api/handler/recurring.go
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"fintrack-ledger/internal/domain"
	"fintrack-ledger/internal/service"
)

// RecurringHandler handles recurring transaction templates.
type RecurringHandler struct {
	responder
	service service.RecurringService
}

// NewRecurringHandler creates a new RecurringHandler.
func NewRecurringHandler(svc service.RecurringService, logger *slog.Logger) *RecurringHandler {
	return &RecurringHandler{
		responder: responder{logger: logger},
		service:   svc,
	}
}

// RecurringRequest represents the body of a create recurring request.
// Occurrence dates come from the schedule, so there is no "date" field and
// a body carrying one is rejected as an unknown field.
type RecurringRequest struct {
	WalletID int64 `json:"wallet_id" validate:"required,gt=0"`
	PostingFields
	Frequency domain.Frequency `json:"frequency" validate:"required,oneof=DAILY WEEKLY MONTHLY YEARLY"`
	StartDate *time.Time       `json:"start_date,omitempty"`
	EndDate   *time.Time       `json:"end_date,omitempty"`
}

// CreateRecurring handles the create recurring transaction request.
// POST /recurring
func (h *RecurringHandler) CreateRecurring(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	var req RecurringRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	input := domain.RecurringInput{
		TransactionInput: req.toInput(req.WalletID),
		Frequency:        req.Frequency,
	}
	if req.StartDate != nil {
		input.StartDate = req.StartDate.UTC()
	}
	if req.EndDate != nil {
		end := req.EndDate.UTC()
		input.EndDate = &end
	}

	recurring, err := h.service.CreateRecurring(r.Context(), userID, input)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, recurring)
}

// ListRecurring handles the list recurring transactions request.
// GET /recurring
func (h *RecurringHandler) ListRecurring(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	items, err := h.service.ListRecurring(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"data": items})
}

// DeactivateRecurring stops a recurring transaction.
// DELETE /recurring/{recurringID}
func (h *RecurringHandler) DeactivateRecurring(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	recurringID, err := idParam(r, "recurringID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	if err := h.service.DeactivateRecurring(r.Context(), userID, recurringID); err != nil {
		h.respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
