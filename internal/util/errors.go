// internal/util/errors.go
package util

import (
	"errors"

	"github.com/lib/pq"
)

// Common application-specific errors.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidInput        = errors.New("invalid input provided")
	ErrSameWalletTransfer  = errors.New("cannot transfer to the same wallet")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrRecurringNotFound   = errors.New("recurring transaction not found")
	ErrDuplicateEntry      = errors.New("duplicate entry")
	ErrDuplicateRequest    = errors.New("request with this idempotency key is already being processed")
	ErrUnauthenticated     = errors.New("missing or invalid user identity")
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// IsError reports whether any error in err's chain matches target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}
