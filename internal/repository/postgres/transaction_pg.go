// internal/repository/postgres/transaction_pg.go
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

const transactionColumns = `id, user_id, wallet_id, to_wallet_id, amount, type, category, description,
	transaction_date, batch_id, recurring_id, created_at, updated_at, deleted_at`

// TransactionRepository implements repository.TransactionRepository for PostgreSQL.
type TransactionRepository struct{}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository() repository.TransactionRepository {
	return &TransactionRepository{}
}

// CreateTransaction inserts a new transaction record using the provided DBExecutor.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	query := `INSERT INTO transactions (user_id, wallet_id, to_wallet_id, amount, type, category, description,
                  transaction_date, batch_id, recurring_id, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`

	err := q.QueryRowContext(ctx, query,
		transaction.UserID,
		transaction.WalletID,
		transaction.ToWalletID,
		transaction.Amount,
		transaction.Type,
		transaction.Category,
		transaction.Description,
		transaction.Date,
		transaction.BatchID,
		transaction.RecurringID,
		transaction.CreatedAt,
		transaction.UpdatedAt,
	).Scan(&transaction.ID)

	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetTransactionByID retrieves a transaction by ID, soft-deleted or not.
func (r *TransactionRepository) GetTransactionByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Transaction, error) {
	var transaction domain.Transaction
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	if err := q.GetContext(ctx, &transaction, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by ID %d: %w", id, err)
	}
	return &transaction, nil
}

// UpdateTransaction writes the ledger fields of a live transaction.
func (r *TransactionRepository) UpdateTransaction(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	query := `UPDATE transactions
              SET wallet_id = $1, to_wallet_id = $2, amount = $3, type = $4, category = $5,
                  description = $6, transaction_date = $7, updated_at = $8
              WHERE id = $9 AND deleted_at IS NULL`
	result, err := q.ExecContext(ctx, query,
		transaction.WalletID,
		transaction.ToWalletID,
		transaction.Amount,
		transaction.Type,
		transaction.Category,
		transaction.Description,
		transaction.Date,
		transaction.UpdatedAt,
		transaction.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction %d: %w", transaction.ID, err)
	}
	return expectOneRow(result, transaction.ID)
}

// SoftDeleteTransaction sets deleted_at on a live transaction.
func (r *TransactionRepository) SoftDeleteTransaction(ctx context.Context, q repository.DBExecutor, id int64, deletedAt time.Time) error {
	query := `UPDATE transactions SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`
	result, err := q.ExecContext(ctx, query, deletedAt, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %d: %w", id, err)
	}
	return expectOneRow(result, id)
}

// GetTransactionsByWalletID retrieves a paginated list of live transactions for a specific wallet.
// It performs two queries: one for the data and one for the total count.
func (r *TransactionRepository) GetTransactionsByWalletID(ctx context.Context, q repository.DBExecutor, walletID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	transactions := []domain.Transaction{}

	// A wallet appears either as the source or as the destination of a transfer.
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE (wallet_id = $1 OR to_wallet_id = $1) AND deleted_at IS NULL
		ORDER BY transaction_date DESC, id DESC
		LIMIT $2 OFFSET $3`
	err := q.SelectContext(ctx, &transactions, query, walletID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions for wallet %d: %w", walletID, err)
	}

	var totalCount int64
	countQuery := `
		SELECT COUNT(*)
		FROM transactions
		WHERE (wallet_id = $1 OR to_wallet_id = $1) AND deleted_at IS NULL`
	err = q.GetContext(ctx, &totalCount, countQuery, walletID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get total transaction count for wallet %d: %w", walletID, err)
	}

	return transactions, totalCount, nil
}

// SumEffectsByWalletID recomputes a wallet balance from its live history.
func (r *TransactionRepository) SumEffectsByWalletID(ctx context.Context, q repository.DBExecutor, walletID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	query := `
		SELECT COALESCE(SUM(CASE
			WHEN wallet_id = $1 AND type = 'INCOME' THEN amount
			WHEN wallet_id = $1 THEN -amount
			WHEN to_wallet_id = $1 AND type = 'TRANSFER' THEN amount
			ELSE 0
		END), 0)
		FROM transactions
		WHERE (wallet_id = $1 OR to_wallet_id = $1) AND deleted_at IS NULL`
	if err := q.GetContext(ctx, &sum, query, walletID); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions for wallet %d: %w", walletID, err)
	}
	return sum, nil
}

func expectOneRow(result sql.Result, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for transaction %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("transaction %d: %w", id, util.ErrTransactionNotFound)
	}
	return nil
}
