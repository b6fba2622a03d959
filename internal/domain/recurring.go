// internal/domain/recurring.go
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack-ledger/internal/util"
)

// Frequency defines how often a recurring transaction fires.
type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyYearly  Frequency = "YEARLY"
)

// MaxCatchUpOccurrences bounds how many missed occurrences a single run posts.
const MaxCatchUpOccurrences = 366

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// Next returns the occurrence following t. Monthly and yearly steps clamp
// to the last day of the target month (Jan 31 -> Feb 28).
func (f Frequency) Next(t time.Time) time.Time {
	switch f {
	case FrequencyDaily:
		return t.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return addMonthsClamped(t, 1)
	case FrequencyYearly:
		return addMonthsClamped(t, 12)
	}
	return t
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	lastDay := time.Date(y, m+time.Month(months)+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(y, m+time.Month(months), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// RecurringTransaction is a template posted to the ledger on a schedule.
type RecurringTransaction struct {
	ID          int64           `db:"id" json:"id"`
	UserID      int64           `db:"user_id" json:"user_id"`
	WalletID    int64           `db:"wallet_id" json:"wallet_id"`
	ToWalletID  *int64          `db:"to_wallet_id" json:"to_wallet_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Type        TransactionType `db:"type" json:"type"`
	Category    string          `db:"category" json:"category"`
	Description *string         `db:"description" json:"description"`
	Frequency   Frequency       `db:"frequency" json:"frequency"`
	NextRunDate time.Time       `db:"next_run_date" json:"next_run_date"`
	EndDate     *time.Time      `db:"end_date" json:"end_date,omitempty"`
	Active      bool            `db:"active" json:"active"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// RecurringInput is the caller-supplied shape of a recurring transaction.
type RecurringInput struct {
	TransactionInput
	Frequency Frequency  `json:"frequency"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// Validate checks the template and its schedule.
func (in RecurringInput) Validate() error {
	if err := in.TransactionInput.Validate(); err != nil {
		return err
	}
	if !in.Frequency.Valid() {
		return fmt.Errorf("%w: unknown frequency %q", util.ErrInvalidInput, in.Frequency)
	}
	if in.EndDate != nil && !in.StartDate.IsZero() && in.EndDate.Before(in.StartDate) {
		return fmt.Errorf("%w: end date precedes start date", util.ErrInvalidInput)
	}
	return nil
}

// NewRecurringTransaction creates an active recurring transaction.
// A zero start date means the first occurrence is due now.
func NewRecurringTransaction(userID int64, in RecurringInput) *RecurringTransaction {
	now := time.Now().UTC()
	start := in.StartDate
	if start.IsZero() {
		start = now
	}
	return &RecurringTransaction{
		UserID:      userID,
		WalletID:    in.WalletID,
		ToWalletID:  in.ToWalletID,
		Amount:      in.Amount,
		Type:        in.Type,
		Category:    in.Category,
		Description: in.Description,
		Frequency:   in.Frequency,
		NextRunDate: start,
		EndDate:     in.EndDate,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// DueOccurrences returns the occurrence dates that are due at now, in order,
// and the next run date after them. At most MaxCatchUpOccurrences are returned.
func (r *RecurringTransaction) DueOccurrences(now time.Time) ([]time.Time, time.Time) {
	var due []time.Time
	next := r.NextRunDate
	for !next.After(now) && len(due) < MaxCatchUpOccurrences {
		if r.EndDate != nil && next.After(*r.EndDate) {
			break
		}
		due = append(due, next)
		next = r.Frequency.Next(next)
	}
	return due, next
}

// Finished reports whether a schedule whose next run is next has no more
// occurrences left.
func (r *RecurringTransaction) Finished(next time.Time) bool {
	return r.EndDate != nil && next.After(*r.EndDate)
}

// InputFor builds the ledger input for the occurrence at date.
func (r *RecurringTransaction) InputFor(date time.Time) TransactionInput {
	return TransactionInput{
		WalletID:    r.WalletID,
		ToWalletID:  r.ToWalletID,
		Amount:      r.Amount,
		Type:        r.Type,
		Category:    r.Category,
		Description: r.Description,
		Date:        date,
		RecurringID: &r.ID,
	}
}
