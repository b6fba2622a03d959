// internal/repository/user_repo.go
package repository

import (
	"context"

	"fintrack-ledger/internal/domain"
)

// UserRepository stores wallet owners.
type UserRepository interface {
	// CreateUser inserts user and sets its ID. A taken username yields util.ErrDuplicateEntry.
	CreateUser(ctx context.Context, q DBExecutor, user *domain.User) error
	GetUserByID(ctx context.Context, q DBExecutor, id int64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, q DBExecutor, username string) (*domain.User, error)
}
