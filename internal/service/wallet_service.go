// internal/service/wallet_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fintrack-ledger/internal/domain"
	"fintrack-ledger/internal/repository"
	"fintrack-ledger/internal/util"
	"fintrack-ledger/pkg/db"
)

// DefaultWalletName names the wallet created together with a user.
const DefaultWalletName = "Cash"

// WalletService defines the interface for wallet and user bookkeeping.
// Balances are read here but only ever changed through LedgerService.
type WalletService interface {
	CreateUserAndWallet(ctx context.Context, username, currency string) (*domain.User, *domain.Wallet, error)
	CreateWallet(ctx context.Context, userID int64, name, currency string) (*domain.Wallet, error)
	GetWallet(ctx context.Context, userID, walletID int64) (*domain.Wallet, error)
	ListWallets(ctx context.Context, userID int64) ([]domain.Wallet, error)
	GetTransactionHistory(ctx context.Context, userID, walletID int64, limit, offset int) ([]domain.Transaction, int64, error)
}

// walletService implements the WalletService interface.
type walletService struct {
	uow             db.UnitOfWork
	dbExecutor      repository.DBExecutor // For non-transactional reads (e.g., *sqlx.DB)
	userRepo        repository.UserRepository
	walletRepo      repository.WalletRepository
	transactionRepo repository.TransactionRepository
}

// NewWalletService creates a new instance of WalletService.
func NewWalletService(
	uow db.UnitOfWork,
	dbExecutor repository.DBExecutor,
	userRepo repository.UserRepository,
	walletRepo repository.WalletRepository,
	transactionRepo repository.TransactionRepository,
) WalletService {
	return &walletService{
		uow:             uow,
		dbExecutor:      dbExecutor,
		userRepo:        userRepo,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
	}
}

// CreateUserAndWallet registers a user together with an empty default wallet.
func (s *walletService) CreateUserAndWallet(ctx context.Context, username, currency string) (*domain.User, *domain.Wallet, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil, fmt.Errorf("%w: username is required", util.ErrInvalidInput)
	}

	var (
		user   *domain.User
		wallet *domain.Wallet
	)
	err := s.uow.Do(ctx, func(ctx context.Context, tx db.TxController) error {
		q, err := executor(tx)
		if err != nil {
			return err
		}

		_, err = s.userRepo.GetUserByUsername(ctx, q, username)
		if err == nil {
			return fmt.Errorf("username '%s': %w", username, util.ErrDuplicateEntry)
		}
		if !errors.Is(err, util.ErrUserNotFound) {
			return fmt.Errorf("failed to check existing user: %w", err)
		}

		user = domain.NewUser(username, currency)
		if err := s.userRepo.CreateUser(ctx, q, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		wallet = domain.NewWallet(user.ID, DefaultWalletName, user.Currency)
		if err := s.walletRepo.CreateWallet(ctx, q, wallet); err != nil {
			return fmt.Errorf("failed to create wallet: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create user and wallet: %w", err)
	}
	return user, wallet, nil
}

// CreateWallet adds an empty wallet for an existing user.
func (s *walletService) CreateWallet(ctx context.Context, userID int64, name, currency string) (*domain.Wallet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: wallet name is required", util.ErrInvalidInput)
	}

	owner, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}

	wallet := domain.NewWallet(userID, name, owner.WalletCurrency(currency))
	if err := s.walletRepo.CreateWallet(ctx, s.dbExecutor, wallet); err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	return wallet, nil
}

// GetWallet returns a wallet with its current balance.
func (s *walletService) GetWallet(ctx context.Context, userID, walletID int64) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetWalletByID(ctx, s.dbExecutor, walletID)
	if err != nil {
		return nil, fmt.Errorf("get wallet %d: %w", walletID, err)
	}
	if wallet.UserID != userID {
		return nil, fmt.Errorf("get wallet %d: %w", walletID, util.ErrWalletNotFound)
	}
	return wallet, nil
}

func (s *walletService) ListWallets(ctx context.Context, userID int64) ([]domain.Wallet, error) {
	wallets, err := s.walletRepo.ListWalletsByUserID(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return wallets, nil
}

// GetTransactionHistory retrieves a paginated list of live transactions for a specific wallet.
func (s *walletService) GetTransactionHistory(ctx context.Context, userID, walletID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	if _, err := s.GetWallet(ctx, userID, walletID); err != nil {
		return nil, 0, err
	}

	transactions, totalCount, err := s.transactionRepo.GetTransactionsByWalletID(ctx, s.dbExecutor, walletID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve transaction history: %w", err)
	}
	return transactions, totalCount, nil
}
