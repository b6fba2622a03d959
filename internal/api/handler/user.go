// internal/api/handler/user.go
package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"fintrack-ledger/internal/service"
)

// UserHandler handles user registration.
type UserHandler struct {
	responder
	service service.WalletService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc service.WalletService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		responder: responder{logger: logger},
		service:   svc,
	}
}

// CreateUserRequest represents the request body for user registration.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Currency string `json:"currency" validate:"required,len=3"`
}

// CreateUser registers a user with a default wallet.
// POST /users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	user, wallet, err := h.service.CreateUserAndWallet(r.Context(), req.Username, strings.ToUpper(req.Currency))
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"user":   user,
		"wallet": wallet,
	})
}
