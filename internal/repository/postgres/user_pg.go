// internal/repository/postgres/user_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack-ledger/internal/domain"
	"fintrack-ledger/internal/repository"
	"fintrack-ledger/internal/util"
)

const userColumns = `id, username, currency, created_at, updated_at`

// UserRepository implements repository.UserRepository for PostgreSQL.
type UserRepository struct{}

// NewUserRepository creates a new UserRepository.
func NewUserRepository() repository.UserRepository {
	return &UserRepository{}
}

func (r *UserRepository) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	query := `INSERT INTO users (username, currency, created_at, updated_at)
              VALUES ($1, $2, $3, $4) RETURNING id`
	err := q.QueryRowContext(ctx, query, user.Username, user.Currency, user.CreatedAt, user.UpdatedAt).Scan(&user.ID)
	if err != nil {
		if util.IsUniqueViolation(err) {
			return fmt.Errorf("username '%s': %w", user.Username, util.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.User, error) {
	user, err := r.getOne(ctx, q, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil && !errors.Is(err, util.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to get user by ID %d: %w", id, err)
	}
	return user, err
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, q repository.DBExecutor, username string) (*domain.User, error) {
	user, err := r.getOne(ctx, q, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	if err != nil && !errors.Is(err, util.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to get user by username '%s': %w", username, err)
	}
	return user, err
}

func (r *UserRepository) getOne(ctx context.Context, q repository.DBExecutor, query string, arg interface{}) (*domain.User, error) {
	var user domain.User
	if err := q.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
