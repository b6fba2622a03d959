// internal/api/handler/response.go
package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fintrack-ledger/internal/util" // For custom errors
)

// DefaultTimeout bounds the handling time of a single request.
const DefaultTimeout = 15 * time.Second

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// responder holds the JSON helpers shared by all handlers.
type responder struct {
	logger *slog.Logger
}

// Helper function to send JSON responses.
func (h responder) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses.
func (h responder) respondWithError(w http.ResponseWriter, err error) {
	statusCode, message := errorStatus(err)
	if statusCode == http.StatusInternalServerError {
		h.logger.Error("Unhandled service error", "error", err)
	}
	h.respondWithJSON(w, statusCode, map[string]string{"error": message})
}

// errorStatus maps an error chain to an HTTP status and client-facing message.
func errorStatus(err error) (int, string) {
	switch {
	case util.IsError(err, util.ErrUnauthenticated):
		return http.StatusUnauthorized, "Missing or invalid X-User-ID header"
	case util.IsError(err, util.ErrSameWalletTransfer):
		return http.StatusBadRequest, "Cannot transfer to the same wallet"
	case util.IsError(err, util.ErrInvalidInput):
		return http.StatusBadRequest, err.Error() // Use the error message directly for invalid input
	case util.IsError(err, util.ErrWalletNotFound):
		return http.StatusNotFound, "Wallet not found"
	case util.IsError(err, util.ErrTransactionNotFound):
		return http.StatusNotFound, "Transaction not found"
	case util.IsError(err, util.ErrRecurringNotFound):
		return http.StatusNotFound, "Recurring transaction not found"
	case util.IsError(err, util.ErrNotFound), util.IsError(err, util.ErrUserNotFound):
		return http.StatusNotFound, "Resource not found"
	case util.IsError(err, util.ErrDuplicateRequest):
		return http.StatusConflict, "A request with this Idempotency-Key was already received"
	case util.IsError(err, util.ErrDuplicateEntry):
		return http.StatusConflict, "Resource already exists"
	}
	return http.StatusInternalServerError, "Internal server error"
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", util.ErrInvalidInput, err)
	}
	return ValidateStruct(dst)
}

// idParam parses a positive int64 URL parameter.
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", util.ErrInvalidInput, name)
	}
	return id, nil
}

// pagination reads limit and offset, falling back to defaults on bad input.
func pagination(r *http.Request) (limit, offset int) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultPageLimit // Default limit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset, err = strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0 // Default offset
	}
	return limit, offset
}

// boolQuery parses an optional boolean query parameter.
func boolQuery(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", util.ErrInvalidInput, name)
	}
	return v, nil
}
