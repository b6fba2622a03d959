// internal/service/ledger_mutator.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack-ledger/internal/domain"
	"fintrack-ledger/internal/repository"
	"fintrack-ledger/internal/util"
)

// MissingWalletPolicy decides what happens when a balance change targets a
// wallet that no longer exists.
type MissingWalletPolicy int

const (
	// MissingWalletSkip drops the affected leg and keeps going.
	MissingWalletSkip MissingWalletPolicy = iota
	// MissingWalletReject fails the operation, rolling back the unit of work.
	MissingWalletReject
)

// LedgerMutator applies and reverses the balance effects of transactions.
// It never opens a transaction itself: callers pass the executor of the
// unit of work the change belongs to.
type LedgerMutator struct {
	walletRepo repository.WalletRepository
	policy     MissingWalletPolicy
	logger     *slog.Logger
}

// NewLedgerMutator creates a new LedgerMutator.
func NewLedgerMutator(walletRepo repository.WalletRepository, policy MissingWalletPolicy, logger *slog.Logger) *LedgerMutator {
	return &LedgerMutator{
		walletRepo: walletRepo,
		policy:     policy,
		logger:     logger,
	}
}

// Apply adds the effects of transaction to the wallets it references.
func (m *LedgerMutator) Apply(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	return m.mutate(ctx, q, transaction.ID, transaction.Effects())
}

// Reverse undoes the effects of transaction.
func (m *LedgerMutator) Reverse(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	return m.mutate(ctx, q, transaction.ID, transaction.ReverseEffects())
}

func (m *LedgerMutator) mutate(ctx context.Context, q repository.DBExecutor, transactionID int64, effects []domain.BalanceEffect) error {
	for _, effect := range effects {
		err := m.walletRepo.UpdateWalletBalance(ctx, q, effect.WalletID, effect.Delta)
		if err == nil {
			continue
		}
		if errors.Is(err, util.ErrWalletNotFound) && m.policy == MissingWalletSkip {
			m.logger.WarnContext(ctx, "Skipping balance change for missing wallet",
				"transaction_id", transactionID,
				"wallet_id", effect.WalletID,
				"delta", effect.Delta.String(),
			)
			continue
		}
		return fmt.Errorf("failed to change balance of wallet %d: %w", effect.WalletID, err)
	}
	return nil
}
