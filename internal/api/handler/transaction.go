// internal/api/handler/transaction.go
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"fintrack-ledger/internal/domain"
	"fintrack-ledger/internal/service"
)

// TransactionHandler handles HTTP requests that read or change the ledger.
type TransactionHandler struct {
	responder
	ledger service.LedgerService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledger service.LedgerService, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{
		responder: responder{logger: logger},
		ledger:    ledger,
	}
}

// PostingFields describe what a transaction moves, without saying when.
type PostingFields struct {
	ToWalletID  *int64                 `json:"to_wallet_id,omitempty" validate:"omitempty,gt=0"`
	Amount      decimal.Decimal        `json:"amount" validate:"positive_decimal"`
	Type        domain.TransactionType `json:"type" validate:"required,oneof=INCOME EXPENSE TRANSFER"`
	Category    string                 `json:"category" validate:"max=64"`
	Description *string                `json:"description,omitempty" validate:"omitempty,max=255"`
}

// TransactionFields are the body fields shared by single and batch requests.
type TransactionFields struct {
	PostingFields
	Date *time.Time `json:"date,omitempty"`
}

// TransactionRequest represents the body of a create or update request.
type TransactionRequest struct {
	WalletID int64 `json:"wallet_id" validate:"required,gt=0"`
	TransactionFields
}

// BatchItem is one transaction of a batch; WalletID falls back to the batch default.
type BatchItem struct {
	WalletID int64 `json:"wallet_id,omitempty" validate:"omitempty,gt=0"`
	TransactionFields
}

// BatchRequest represents the body of a batch create request.
type BatchRequest struct {
	DefaultWalletID int64       `json:"default_wallet_id,omitempty" validate:"omitempty,gt=0"`
	Transactions    []BatchItem `json:"transactions" validate:"required,min=1,max=500,dive"`
}

func (f PostingFields) toInput(walletID int64) domain.TransactionInput {
	return domain.TransactionInput{
		WalletID:    walletID,
		ToWalletID:  f.ToWalletID,
		Amount:      f.Amount,
		Type:        f.Type,
		Category:    f.Category,
		Description: f.Description,
	}
}

func (f TransactionFields) toInput(walletID int64) domain.TransactionInput {
	in := f.PostingFields.toInput(walletID)
	if f.Date != nil {
		in.Date = f.Date.UTC()
	}
	return in
}

// CreateTransaction handles a single income, expense or transfer.
// POST /transactions
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	var req TransactionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	transaction, err := h.ledger.Create(r.Context(), userID, req.toInput(req.WalletID))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, transaction)
}

// CreateBatch posts several transactions all-or-nothing.
// POST /transactions/batch
func (h *TransactionHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	var req BatchRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	inputs := make([]domain.TransactionInput, len(req.Transactions))
	for i, item := range req.Transactions {
		inputs[i] = item.toInput(item.WalletID)
	}

	created, err := h.ledger.CreateMany(r.Context(), inputs, userID, req.DefaultWalletID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"data":     created,
		"batch_id": created[0].BatchID,
	})
}

// GetTransaction handles the get transaction request.
// GET /transactions/{transactionID}
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	transactionID, err := idParam(r, "transactionID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	transaction, err := h.ledger.GetTransaction(r.Context(), userID, transactionID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, transaction)
}

// UpdateTransaction replaces a transaction and rebalances the affected wallets.
// PUT /transactions/{transactionID}
func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	transactionID, err := idParam(r, "transactionID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	var req TransactionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	transaction, err := h.ledger.Update(r.Context(), userID, transactionID, req.toInput(req.WalletID))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, transaction)
}

// DeleteTransaction reverses and soft-deletes a transaction.
// DELETE /transactions/{transactionID}
func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	transactionID, err := idParam(r, "transactionID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	if err := h.ledger.Delete(r.Context(), userID, transactionID); err != nil {
		h.respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
