// internal/service/ledger_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack-ledger/internal/domain"
	"fintrack-ledger/internal/repository"
	"fintrack-ledger/internal/util"
	"fintrack-ledger/pkg/db"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("fintrack-ledger/internal/service")

// LedgerService defines the operations that change wallet balances.
// Every mutating call runs in exactly one unit of work.
type LedgerService interface {
	Create(ctx context.Context, userID int64, input domain.TransactionInput) (*domain.Transaction, error)
	CreateMany(ctx context.Context, inputs []domain.TransactionInput, userID, defaultWalletID int64) ([]domain.Transaction, error)
	// CreateManyTx is CreateMany joined to the caller's unit of work.
	CreateManyTx(ctx context.Context, q repository.DBExecutor, inputs []domain.TransactionInput, userID, defaultWalletID int64) ([]domain.Transaction, error)
	Update(ctx context.Context, userID, transactionID int64, input domain.TransactionInput) (*domain.Transaction, error)
	Delete(ctx context.Context, userID, transactionID int64) error
	GetTransaction(ctx context.Context, userID, transactionID int64) (*domain.Transaction, error)
	Reconcile(ctx context.Context, userID, walletID int64, repair bool) (*domain.Reconciliation, error)
}

type ledgerService struct {
	uow             db.UnitOfWork
	dbExecutor      repository.DBExecutor // For reads outside a unit of work
	walletRepo      repository.WalletRepository
	transactionRepo repository.TransactionRepository
	mutator         *LedgerMutator
	logger          *slog.Logger
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(
	uow db.UnitOfWork,
	dbExecutor repository.DBExecutor,
	walletRepo repository.WalletRepository,
	transactionRepo repository.TransactionRepository,
	mutator *LedgerMutator,
	logger *slog.Logger,
) LedgerService {
	return &ledgerService{
		uow:             uow,
		dbExecutor:      dbExecutor,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		mutator:         mutator,
		logger:          logger,
	}
}

// executor exposes the query methods of a running transaction.
func executor(tx db.TxController) (repository.DBExecutor, error) {
	q, ok := tx.(repository.DBExecutor)
	if !ok {
		return nil, errors.New("transaction controller does not implement DBExecutor")
	}
	return q, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Create persists a single transaction and applies it.
func (s *ledgerService) Create(ctx context.Context, userID int64, input domain.TransactionInput) (_ *domain.Transaction, err error) {
	ctx, span := tracer.Start(ctx, "ledger.create", trace.WithAttributes(
		attribute.Int64("user.id", userID),
		attribute.String("transaction.type", string(input.Type)),
	))
	defer func() { endSpan(span, err) }()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	transaction := domain.NewTransaction(userID, input)
	err = s.uow.Do(ctx, func(ctx context.Context, tx db.TxController) error {
		q, err := executor(tx)
		if err != nil {
			return err
		}
		if err := checkWalletOwnership(ctx, s.walletRepo, q, userID, input); err != nil {
			return err
		}
		if err := s.transactionRepo.CreateTransaction(ctx, q, transaction); err != nil {
			return err
		}
		return s.mutator.Apply(ctx, q, transaction)
	})
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction created", "transaction_id", transaction.ID, "user_id", userID, "type", transaction.Type)
	return transaction, nil
}

// CreateMany persists and applies a batch of transactions all-or-nothing.
// Inputs without a wallet are posted to defaultWalletID.
func (s *ledgerService) CreateMany(ctx context.Context, inputs []domain.TransactionInput, userID, defaultWalletID int64) (_ []domain.Transaction, err error) {
	ctx, span := tracer.Start(ctx, "ledger.create_many", trace.WithAttributes(
		attribute.Int64("user.id", userID),
		attribute.Int("batch.size", len(inputs)),
	))
	defer func() { endSpan(span, err) }()

	var created []domain.Transaction
	err = s.uow.Do(ctx, func(ctx context.Context, tx db.TxController) error {
		q, err := executor(tx)
		if err != nil {
			return err
		}
		created, err = s.CreateManyTx(ctx, q, inputs, userID, defaultWalletID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create transactions: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction batch created", "user_id", userID, "count", len(created))
	return created, nil
}

func (s *ledgerService) CreateManyTx(ctx context.Context, q repository.DBExecutor, inputs []domain.TransactionInput, userID, defaultWalletID int64) ([]domain.Transaction, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: batch is empty", util.ErrInvalidInput)
	}

	normalized := make([]domain.TransactionInput, len(inputs))
	for i, input := range inputs {
		if input.WalletID == 0 {
			input.WalletID = defaultWalletID
		}
		if input.WalletID == 0 {
			return nil, fmt.Errorf("%w: item %d has no wallet", util.ErrInvalidInput, i)
		}
		if err := input.Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		normalized[i] = input
	}

	batchID := uuid.NullUUID{UUID: uuid.New(), Valid: true}
	created := make([]domain.Transaction, 0, len(normalized))
	for i, input := range normalized {
		if err := checkWalletOwnership(ctx, s.walletRepo, q, userID, input); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		transaction := domain.NewTransaction(userID, input)
		transaction.BatchID = batchID
		if err := s.transactionRepo.CreateTransaction(ctx, q, transaction); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if err := s.mutator.Apply(ctx, q, transaction); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		created = append(created, *transaction)
	}
	return created, nil
}

// Update reverses the stored effect of a transaction, overwrites it with
// input and applies the new effect, on the same transaction ID.
func (s *ledgerService) Update(ctx context.Context, userID, transactionID int64, input domain.TransactionInput) (_ *domain.Transaction, err error) {
	ctx, span := tracer.Start(ctx, "ledger.update", trace.WithAttributes(
		attribute.Int64("user.id", userID),
		attribute.Int64("transaction.id", transactionID),
	))
	defer func() { endSpan(span, err) }()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.Transaction
	err = s.uow.Do(ctx, func(ctx context.Context, tx db.TxController) error {
		q, err := executor(tx)
		if err != nil {
			return err
		}
		existing, err := s.loadLive(ctx, q, userID, transactionID)
		if err != nil {
			return err
		}
		if err := checkWalletOwnership(ctx, s.walletRepo, q, userID, input); err != nil {
			return err
		}

		previous := *existing
		if err := s.mutator.Reverse(ctx, q, &previous); err != nil {
			return err
		}
		existing.ApplyInput(input)
		if err := s.transactionRepo.UpdateTransaction(ctx, q, existing); err != nil {
			return err
		}
		if err := s.mutator.Apply(ctx, q, existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update transaction %d: %w", transactionID, err)
	}

	s.logger.InfoContext(ctx, "Transaction updated", "transaction_id", transactionID, "user_id", userID)
	return updated, nil
}

// Delete reverses a transaction and soft-deletes it.
func (s *ledgerService) Delete(ctx context.Context, userID, transactionID int64) (err error) {
	ctx, span := tracer.Start(ctx, "ledger.delete", trace.WithAttributes(
		attribute.Int64("user.id", userID),
		attribute.Int64("transaction.id", transactionID),
	))
	defer func() { endSpan(span, err) }()

	err = s.uow.Do(ctx, func(ctx context.Context, tx db.TxController) error {
		q, err := executor(tx)
		if err != nil {
			return err
		}
		existing, err := s.loadLive(ctx, q, userID, transactionID)
		if err != nil {
			return err
		}
		if err := s.mutator.Reverse(ctx, q, existing); err != nil {
			return err
		}
		return s.transactionRepo.SoftDeleteTransaction(ctx, q, transactionID, time.Now().UTC())
	})
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", transactionID, err)
	}

	s.logger.InfoContext(ctx, "Transaction deleted", "transaction_id", transactionID, "user_id", userID)
	return nil
}

// GetTransaction returns a live transaction owned by userID.
func (s *ledgerService) GetTransaction(ctx context.Context, userID, transactionID int64) (*domain.Transaction, error) {
	transaction, err := s.loadLive(ctx, s.dbExecutor, userID, transactionID)
	if err != nil {
		return nil, fmt.Errorf("get transaction %d: %w", transactionID, err)
	}
	return transaction, nil
}

// Reconcile compares a wallet's cached balance with its transaction history
// and, when repair is set, overwrites a drifted balance with the computed one.
func (s *ledgerService) Reconcile(ctx context.Context, userID, walletID int64, repair bool) (_ *domain.Reconciliation, err error) {
	ctx, span := tracer.Start(ctx, "ledger.reconcile", trace.WithAttributes(
		attribute.Int64("wallet.id", walletID),
		attribute.Bool("reconcile.repair", repair),
	))
	defer func() { endSpan(span, err) }()

	var result *domain.Reconciliation
	err = s.uow.Do(ctx, func(ctx context.Context, tx db.TxController) error {
		q, err := executor(tx)
		if err != nil {
			return err
		}
		wallet, err := s.ownedWallet(ctx, q, userID, walletID)
		if err != nil {
			return err
		}
		computed, err := s.transactionRepo.SumEffectsByWalletID(ctx, q, walletID)
		if err != nil {
			return err
		}
		result = domain.NewReconciliation(walletID, wallet.Balance, computed)
		if result.Consistent() || !repair {
			return nil
		}
		if err := s.walletRepo.SetWalletBalance(ctx, q, walletID, computed); err != nil {
			return err
		}
		result.Repaired = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile wallet %d: %w", walletID, err)
	}

	if !result.Consistent() {
		s.logger.WarnContext(ctx, "Wallet balance drift detected",
			"wallet_id", walletID,
			"cached", result.Cached.String(),
			"computed", result.Computed.String(),
			"repaired", result.Repaired,
		)
	}
	return result, nil
}

// loadLive fetches a transaction that exists, is not deleted and belongs to userID.
func (s *ledgerService) loadLive(ctx context.Context, q repository.DBExecutor, userID, transactionID int64) (*domain.Transaction, error) {
	transaction, err := s.transactionRepo.GetTransactionByID(ctx, q, transactionID)
	if err != nil {
		return nil, err
	}
	if transaction.UserID != userID || transaction.IsDeleted() {
		return nil, util.ErrTransactionNotFound
	}
	return transaction, nil
}

// ownedWallet fetches a wallet and hides wallets of other users.
func (s *ledgerService) ownedWallet(ctx context.Context, q repository.DBExecutor, userID, walletID int64) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetWalletByID(ctx, q, walletID)
	if err != nil {
		return nil, err
	}
	if wallet.UserID != userID {
		return nil, util.ErrWalletNotFound
	}
	return wallet, nil
}

// checkWalletOwnership verifies the source wallet belongs to userID. A
// destination that resolves must belong to userID too; one that does not
// resolve is left to the mutator's missing-wallet policy.
func checkWalletOwnership(ctx context.Context, walletRepo repository.WalletRepository, q repository.DBExecutor, userID int64, input domain.TransactionInput) error {
	source, err := walletRepo.GetWalletByID(ctx, q, input.WalletID)
	if err == nil && source.UserID != userID {
		err = util.ErrWalletNotFound
	}
	if err != nil {
		return fmt.Errorf("source wallet %d: %w", input.WalletID, err)
	}
	if input.ToWalletID == nil {
		return nil
	}
	destination, err := walletRepo.GetWalletByID(ctx, q, *input.ToWalletID)
	switch {
	case errors.Is(err, util.ErrWalletNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("destination wallet %d: %w", *input.ToWalletID, err)
	case destination.UserID != userID:
		return fmt.Errorf("destination wallet %d: %w", *input.ToWalletID, util.ErrWalletNotFound)
	}
	return nil
}
