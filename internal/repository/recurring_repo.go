// internal/repository/recurring_repo.go
package repository

import (
	"context"
	"time"

	"fintrack-ledger/internal/domain"
)

// RecurringRepository defines the interface for recurring transaction templates.
type RecurringRepository interface {
	CreateRecurring(ctx context.Context, q DBExecutor, recurring *domain.RecurringTransaction) error
	GetRecurringByID(ctx context.Context, q DBExecutor, id int64) (*domain.RecurringTransaction, error)
	ListRecurringByUserID(ctx context.Context, q DBExecutor, userID int64) ([]domain.RecurringTransaction, error)
	// ListDueRecurring returns active templates whose next run date is at or before now.
	ListDueRecurring(ctx context.Context, q DBExecutor, now time.Time) ([]domain.RecurringTransaction, error)
	// UpdateRecurringSchedule stores the next run date and active flag.
	UpdateRecurringSchedule(ctx context.Context, q DBExecutor, id int64, nextRunDate time.Time, active bool) error
}
