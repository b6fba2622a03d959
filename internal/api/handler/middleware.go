// internal/api/handler/middleware.go
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"fintrack-ledger/internal/repository"
	"fintrack-ledger/internal/util"
)

const (
	// UserIDHeader carries the authenticated user's ID, set by the gateway in front of the API.
	UserIDHeader = "X-User-ID"
	// IdempotencyKeyHeader lets clients retry money-moving requests safely.
	IdempotencyKeyHeader = "Idempotency-Key"

	maxIdempotencyKeyLength = 255
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserIDFromContext returns the user ID stored by RequireUser.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// RequireUser rejects requests without a valid X-User-ID header.
func RequireUser(logger *slog.Logger) func(http.Handler) http.Handler {
	h := responder{logger: logger}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := strconv.ParseInt(strings.TrimSpace(r.Header.Get(UserIDHeader)), 10, 64)
			if err != nil || userID <= 0 {
				h.respondWithError(w, util.ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// Idempotency reserves the request's Idempotency-Key before the handler runs.
// A key that is already reserved gets 409; a reservation whose request fails
// with a 4xx or 5xx status, or panics, is released so the client can retry. Requests
// without the header, or with a nil store, pass through untouched.
func Idempotency(store repository.IdempotencyStore, ttl time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	h := responder{logger: logger}
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxIdempotencyKeyLength {
				h.respondWithError(w, fmt.Errorf("%w: %s is too long", util.ErrInvalidInput, IdempotencyKeyHeader))
				return
			}

			userID, _ := UserIDFromContext(r.Context())
			scopedKey := fmt.Sprintf("%d:%s:%s", userID, r.URL.Path, key)

			reserved, err := store.Reserve(r.Context(), scopedKey, ttl)
			if err != nil {
				h.respondWithError(w, fmt.Errorf("reserve idempotency key: %w", err))
				return
			}
			if !reserved {
				logger.Info("Duplicate request rejected", "idempotency_key", key, "user_id", userID)
				h.respondWithError(w, util.ErrDuplicateRequest)
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			completed := false
			defer func() {
				// A panic leaves completed unset; Recoverer writes the 500 further out.
				if completed && ww.Status() < http.StatusBadRequest {
					return
				}
				if err := store.Release(context.WithoutCancel(r.Context()), scopedKey); err != nil {
					logger.Error("Failed to release idempotency key", "idempotency_key", key, "error", err)
				}
			}()

			next.ServeHTTP(ww, r)
			completed = true
		})
	}
}

func currentUser(r *http.Request) (int64, error) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		return 0, util.ErrUnauthenticated
	}
	return userID, nil
}
