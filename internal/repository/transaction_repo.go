// internal/repository/transaction_repo.go
package repository

import (
	"context"
	"time"

	"fintrack-ledger/internal/domain"

	"github.com/shopspring/decimal"
)

// TransactionRepository defines the interface for transaction data operations.
type TransactionRepository interface {
	// CreateTransaction inserts a transaction and sets its ID.
	CreateTransaction(ctx context.Context, q DBExecutor, transaction *domain.Transaction) error
	// GetTransactionByID retrieves a transaction, including soft-deleted ones.
	GetTransactionByID(ctx context.Context, q DBExecutor, id int64) (*domain.Transaction, error)
	// UpdateTransaction persists the mutable fields of an existing transaction.
	UpdateTransaction(ctx context.Context, q DBExecutor, transaction *domain.Transaction) error
	// SoftDeleteTransaction marks a live transaction as deleted.
	SoftDeleteTransaction(ctx context.Context, q DBExecutor, id int64, deletedAt time.Time) error
	// GetTransactionsByWalletID retrieves live transactions touching a wallet, newest first, with the total count.
	GetTransactionsByWalletID(ctx context.Context, q DBExecutor, walletID int64, limit, offset int) ([]domain.Transaction, int64, error)
	// SumEffectsByWalletID returns the balance implied by the wallet's live transactions.
	SumEffectsByWalletID(ctx context.Context, q DBExecutor, walletID int64) (decimal.Decimal, error)
}
