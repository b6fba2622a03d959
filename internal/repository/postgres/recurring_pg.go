// internal/repository/postgres/recurring_pg.go
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
)

const recurringColumns = `id, user_id, wallet_id, to_wallet_id, amount, type, category, description,
	frequency, next_run_date, end_date, active, created_at, updated_at`

// RecurringRepository implements repository.RecurringRepository for PostgreSQL.
type RecurringRepository struct{}

// NewRecurringRepository creates a new RecurringRepository.
func NewRecurringRepository() repository.RecurringRepository {
	return &RecurringRepository{}
}

func (r *RecurringRepository) CreateRecurring(ctx context.Context, q repository.DBExecutor, rec *domain.RecurringTransaction) error {
	query := `INSERT INTO recurring_transactions (user_id, wallet_id, to_wallet_id, amount, type, category, description,
                  frequency, next_run_date, end_date, active, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		rec.UserID, rec.WalletID, rec.ToWalletID, rec.Amount, rec.Type, rec.Category, rec.Description,
		rec.Frequency, rec.NextRunDate, rec.EndDate, rec.Active, rec.CreatedAt, rec.UpdatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to create recurring transaction: %w", err)
	}
	return nil
}

func (r *RecurringRepository) GetRecurringByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.RecurringTransaction, error) {
	var rec domain.RecurringTransaction
	query := `SELECT ` + recurringColumns + ` FROM recurring_transactions WHERE id = $1`
	if err := q.GetContext(ctx, &rec, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrRecurringNotFound
		}
		return nil, fmt.Errorf("failed to get recurring transaction %d: %w", id, err)
	}
	return &rec, nil
}

func (r *RecurringRepository) ListRecurringByUserID(ctx context.Context, q repository.DBExecutor, userID int64) ([]domain.RecurringTransaction, error) {
	items := []domain.RecurringTransaction{}
	query := `SELECT ` + recurringColumns + ` FROM recurring_transactions WHERE user_id = $1 ORDER BY next_run_date, id`
	if err := q.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list recurring transactions for user %d: %w", userID, err)
	}
	return items, nil
}

func (r *RecurringRepository) ListDueRecurring(ctx context.Context, q repository.DBExecutor, now time.Time) ([]domain.RecurringTransaction, error) {
	items := []domain.RecurringTransaction{}
	query := `SELECT ` + recurringColumns + ` FROM recurring_transactions
              WHERE active AND next_run_date <= $1 ORDER BY next_run_date, id`
	if err := q.SelectContext(ctx, &items, query, now); err != nil {
		return nil, fmt.Errorf("failed to list due recurring transactions: %w", err)
	}
	return items, nil
}

func (r *RecurringRepository) UpdateRecurringSchedule(ctx context.Context, q repository.DBExecutor, id int64, nextRunDate time.Time, active bool) error {
	query := `UPDATE recurring_transactions SET next_run_date = $1, active = $2, updated_at = $3 WHERE id = $4`
	result, err := q.ExecContext(ctx, query, nextRunDate, active, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update recurring transaction %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for recurring transaction %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("recurring transaction %d: %w", id, util.ErrRecurringNotFound)
	}
	return nil
}
