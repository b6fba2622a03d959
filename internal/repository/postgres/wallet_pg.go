// internal/repository/postgres/wallet_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fintrack-ledger/internal/domain"
	"fintrack-ledger/internal/repository"
	"fintrack-ledger/internal/util"

	"github.com/shopspring/decimal"
)

const walletColumns = `id, user_id, name, currency, balance, created_at, updated_at`

// WalletRepository implements repository.WalletRepository for PostgreSQL.
// It holds no connection; every method receives a DBExecutor.
type WalletRepository struct{}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository() repository.WalletRepository {
	return &WalletRepository{}
}

// CreateWallet inserts a new wallet into the database using the provided DBExecutor.
func (r *WalletRepository) CreateWallet(ctx context.Context, q repository.DBExecutor, wallet *domain.Wallet) error {
	query := `INSERT INTO wallets (user_id, name, currency, balance, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := q.QueryRowContext(ctx, query, wallet.UserID, wallet.Name, wallet.Currency, wallet.Balance, wallet.CreatedAt, wallet.UpdatedAt).Scan(&wallet.ID)
	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

// GetWalletByID retrieves a wallet by its ID using the provided DBExecutor.
func (r *WalletRepository) GetWalletByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Wallet, error) {
	var wallet domain.Wallet
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	err := q.GetContext(ctx, &wallet, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet by ID %d: %w", id, err)
	}
	return &wallet, nil
}

// ListWalletsByUserID retrieves all wallets of a user ordered by creation.
func (r *WalletRepository) ListWalletsByUserID(ctx context.Context, q repository.DBExecutor, userID int64) ([]domain.Wallet, error) {
	wallets := []domain.Wallet{}
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 ORDER BY id`
	if err := q.SelectContext(ctx, &wallets, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list wallets for user %d: %w", userID, err)
	}
	return wallets, nil
}

// UpdateWalletBalance adds delta to the balance of a specific wallet.
func (r *WalletRepository) UpdateWalletBalance(ctx context.Context, q repository.DBExecutor, walletID int64, delta decimal.Decimal) error {
	query := `UPDATE wallets SET balance = balance + $1, updated_at = $2 WHERE id = $3`
	return execWalletUpdate(ctx, q, query, delta, walletID)
}

// SetWalletBalance overwrites the balance of a specific wallet.
func (r *WalletRepository) SetWalletBalance(ctx context.Context, q repository.DBExecutor, walletID int64, balance decimal.Decimal) error {
	query := `UPDATE wallets SET balance = $1, updated_at = $2 WHERE id = $3`
	return execWalletUpdate(ctx, q, query, balance, walletID)
}

func execWalletUpdate(ctx context.Context, q repository.DBExecutor, query string, value decimal.Decimal, walletID int64) error {
	result, err := q.ExecContext(ctx, query, value, time.Now().UTC(), walletID)
	if err != nil {
		return fmt.Errorf("failed to update wallet balance for ID %d: %w", walletID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after updating wallet balance for ID %d: %w", walletID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("wallet %d: %w", walletID, util.ErrWalletNotFound)
	}
	return nil
}
