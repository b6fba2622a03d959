// internal/api/handler/wallet.go
package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"fintrack-ledger/internal/api/types"
	"fintrack-ledger/internal/service"
)

// WalletHandler handles HTTP requests related to wallet operations.
type WalletHandler struct {
	responder
	service service.WalletService
	ledger  service.LedgerService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(svc service.WalletService, ledger service.LedgerService, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{
		responder: responder{logger: logger},
		service:   svc,
		ledger:    ledger,
	}
}

// CreateWalletRequest represents the request body for a new wallet.
type CreateWalletRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Currency string `json:"currency" validate:"omitempty,len=3"`
}

// CreateWallet handles the create wallet request.
// POST /wallets
func (h *WalletHandler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	var req CreateWalletRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	wallet, err := h.service.CreateWallet(r.Context(), userID, req.Name, strings.ToUpper(req.Currency))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, wallet)
}

// ListWallets handles the list wallets request.
// GET /wallets
func (h *WalletHandler) ListWallets(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	wallets, err := h.service.ListWallets(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"data": wallets})
}

// GetWallet handles the get wallet request, including its current balance.
// GET /wallets/{walletID}
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	walletID, err := idParam(r, "walletID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	wallet, err := h.service.GetWallet(r.Context(), userID, walletID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, wallet)
}

// GetTransactionHistory handles the get transaction history request.
// GET /wallets/{walletID}/transactions
func (h *WalletHandler) GetTransactionHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	walletID, err := idParam(r, "walletID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	// Parse query parameters for pagination
	limit, offset := pagination(r)

	transactions, totalCount, err := h.service.GetTransactionHistory(r.Context(), userID, walletID, limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.NewPaginatedResponse(transactions, limit, offset, totalCount))
}

// Reconcile compares the cached balance with the transaction history.
// POST /wallets/{walletID}/reconcile?repair=true
func (h *WalletHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	walletID, err := idParam(r, "walletID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	repair, err := boolQuery(r, "repair")
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	result, err := h.ledger.Reconcile(r.Context(), userID, walletID, repair)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, result)
}
