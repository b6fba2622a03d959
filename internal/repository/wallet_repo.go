// internal/repository/wallet_repo.go
package repository

import (
	"context"

	"fintrack-ledger/internal/domain"

	"github.com/shopspring/decimal"
)

// WalletRepository defines the interface for wallet data operations.
type WalletRepository interface {
	// CreateWallet adds a new wallet to the database.
	CreateWallet(ctx context.Context, q DBExecutor, wallet *domain.Wallet) error
	// GetWalletByID retrieves a wallet by its ID.
	GetWalletByID(ctx context.Context, q DBExecutor, id int64) (*domain.Wallet, error)
	// ListWalletsByUserID retrieves all wallets owned by a user.
	ListWalletsByUserID(ctx context.Context, q DBExecutor, userID int64) ([]domain.Wallet, error)
	// UpdateWalletBalance adds delta to the wallet balance.
	// It returns util.ErrWalletNotFound when the wallet does not exist.
	UpdateWalletBalance(ctx context.Context, q DBExecutor, walletID int64, delta decimal.Decimal) error
	// SetWalletBalance overwrites the cached balance. Reserved for reconciliation.
	SetWalletBalance(ctx context.Context, q DBExecutor, walletID int64, balance decimal.Decimal) error
}
