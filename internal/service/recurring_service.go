// internal/service/recurring_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack-ledger/internal/domain"
	"fintrack-ledger/internal/repository"
	"fintrack-ledger/internal/util"
	"fintrack-ledger/pkg/db"
)

// RecurringService manages recurring transaction templates and posts the
// occurrences that fall due.
type RecurringService interface {
	CreateRecurring(ctx context.Context, userID int64, input domain.RecurringInput) (*domain.RecurringTransaction, error)
	ListRecurring(ctx context.Context, userID int64) ([]domain.RecurringTransaction, error)
	DeactivateRecurring(ctx context.Context, userID, recurringID int64) error
	ProcessDue(ctx context.Context, now time.Time) (ProcessResult, error)
}

// ProcessResult summarizes one ProcessDue run.
type ProcessResult struct {
	Processed int // templates handled successfully
	Posted    int // transactions created
	Failed    int // templates whose unit of work rolled back
}

type recurringService struct {
	uow           db.UnitOfWork
	dbExecutor    repository.DBExecutor
	walletRepo    repository.WalletRepository
	recurringRepo repository.RecurringRepository
	ledger        LedgerService
	logger        *slog.Logger
}

// NewRecurringService creates a new instance of RecurringService.
func NewRecurringService(
	uow db.UnitOfWork,
	dbExecutor repository.DBExecutor,
	walletRepo repository.WalletRepository,
	recurringRepo repository.RecurringRepository,
	ledger LedgerService,
	logger *slog.Logger,
) RecurringService {
	return &recurringService{
		uow:           uow,
		dbExecutor:    dbExecutor,
		walletRepo:    walletRepo,
		recurringRepo: recurringRepo,
		ledger:        ledger,
		logger:        logger,
	}
}

func (s *recurringService) CreateRecurring(ctx context.Context, userID int64, input domain.RecurringInput) (*domain.RecurringTransaction, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	if err := checkWalletOwnership(ctx, s.walletRepo, s.dbExecutor, userID, input.TransactionInput); err != nil {
		return nil, fmt.Errorf("create recurring transaction: %w", err)
	}

	recurring := domain.NewRecurringTransaction(userID, input)
	if err := s.recurringRepo.CreateRecurring(ctx, s.dbExecutor, recurring); err != nil {
		return nil, fmt.Errorf("create recurring transaction: %w", err)
	}
	return recurring, nil
}

func (s *recurringService) ListRecurring(ctx context.Context, userID int64) ([]domain.RecurringTransaction, error) {
	items, err := s.recurringRepo.ListRecurringByUserID(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	return items, nil
}

// DeactivateRecurring stops future occurrences. Posted transactions stay.
func (s *recurringService) DeactivateRecurring(ctx context.Context, userID, recurringID int64) error {
	recurring, err := s.recurringRepo.GetRecurringByID(ctx, s.dbExecutor, recurringID)
	if err != nil {
		return fmt.Errorf("deactivate recurring transaction %d: %w", recurringID, err)
	}
	if recurring.UserID != userID {
		return fmt.Errorf("deactivate recurring transaction %d: %w", recurringID, util.ErrRecurringNotFound)
	}
	if err := s.recurringRepo.UpdateRecurringSchedule(ctx, s.dbExecutor, recurringID, recurring.NextRunDate, false); err != nil {
		return fmt.Errorf("deactivate recurring transaction %d: %w", recurringID, err)
	}
	return nil
}

// ProcessDue posts every occurrence due at now. Each template is handled in
// its own unit of work: its transactions and its advanced schedule commit
// together, and one failing template does not stop the others.
func (s *recurringService) ProcessDue(ctx context.Context, now time.Time) (ProcessResult, error) {
	var result ProcessResult

	due, err := s.recurringRepo.ListDueRecurring(ctx, s.dbExecutor, now)
	if err != nil {
		return result, fmt.Errorf("process recurring transactions: %w", err)
	}

	for i := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		recurring := &due[i]
		posted, err := s.processOne(ctx, recurring, now)
		if err != nil {
			result.Failed++
			s.logger.ErrorContext(ctx, "Failed to process recurring transaction",
				"recurring_id", recurring.ID, "user_id", recurring.UserID, "error", err)
			continue
		}
		result.Processed++
		result.Posted += posted
	}
	return result, nil
}

func (s *recurringService) processOne(ctx context.Context, recurring *domain.RecurringTransaction, now time.Time) (int, error) {
	occurrences, next := recurring.DueOccurrences(now)
	posted := 0

	err := s.uow.Do(ctx, func(ctx context.Context, tx db.TxController) error {
		q, err := executor(tx)
		if err != nil {
			return err
		}
		if len(occurrences) > 0 {
			inputs := make([]domain.TransactionInput, len(occurrences))
			for i, date := range occurrences {
				inputs[i] = recurring.InputFor(date)
			}
			created, err := s.ledger.CreateManyTx(ctx, q, inputs, recurring.UserID, recurring.WalletID)
			if err != nil {
				return err
			}
			posted = len(created)
		}
		return s.recurringRepo.UpdateRecurringSchedule(ctx, q, recurring.ID, next, !recurring.Finished(next))
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "Recurring transaction processed",
		"recurring_id", recurring.ID, "posted", posted, "next_run_date", next)
	return posted, nil
}
