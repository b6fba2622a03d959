// internal/domain/transaction.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations

	"fintrack-ledger/internal/util"
)

// TransactionType defines the type of a ledger transaction.
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "INCOME"
	TransactionTypeExpense  TransactionType = "EXPENSE"
	TransactionTypeTransfer TransactionType = "TRANSFER"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer:
		return true
	}
	return false
}

// Transaction represents a single income, expense or transfer record.
type Transaction struct {
	ID          int64           `db:"id" json:"id"`
	UserID      int64           `db:"user_id" json:"user_id"`
	WalletID    int64           `db:"wallet_id" json:"wallet_id"`       // Source wallet
	ToWalletID  *int64          `db:"to_wallet_id" json:"to_wallet_id"` // Destination wallet, transfers only
	Amount      decimal.Decimal `db:"amount" json:"amount"`             // Always positive, NUMERIC(20, 4) in DB
	Type        TransactionType `db:"type" json:"type"`
	Category    string          `db:"category" json:"category"`
	Description *string         `db:"description" json:"description"`
	Date        time.Time       `db:"transaction_date" json:"date"`
	BatchID     uuid.NullUUID   `db:"batch_id" json:"batch_id"`
	RecurringID *int64          `db:"recurring_id" json:"recurring_id,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time      `db:"deleted_at" json:"deleted_at,omitempty"`
}

// BalanceEffect is the signed change a transaction makes to one wallet.
type BalanceEffect struct {
	WalletID int64
	Delta    decimal.Decimal
}

// Effects returns the balance changes applying t produces.
// A transfer without a destination only debits its source.
func (t *Transaction) Effects() []BalanceEffect {
	switch t.Type {
	case TransactionTypeIncome:
		return []BalanceEffect{{WalletID: t.WalletID, Delta: t.Amount}}
	case TransactionTypeExpense:
		return []BalanceEffect{{WalletID: t.WalletID, Delta: t.Amount.Neg()}}
	case TransactionTypeTransfer:
		effects := []BalanceEffect{{WalletID: t.WalletID, Delta: t.Amount.Neg()}}
		if t.ToWalletID != nil {
			effects = append(effects, BalanceEffect{WalletID: *t.ToWalletID, Delta: t.Amount})
		}
		return effects
	}
	return nil
}

// ReverseEffects returns the changes that undo Effects.
func (t *Transaction) ReverseEffects() []BalanceEffect {
	effects := t.Effects()
	for i := range effects {
		effects[i].Delta = effects[i].Delta.Neg()
	}
	return effects
}

// IsDeleted reports whether the transaction has been soft-deleted.
func (t *Transaction) IsDeleted() bool {
	return t.DeletedAt != nil
}

// TransactionInput is the caller-supplied shape of a transaction.
type TransactionInput struct {
	WalletID    int64           `json:"wallet_id"`
	ToWalletID  *int64          `json:"to_wallet_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Description *string         `json:"description,omitempty"`
	Date        time.Time       `json:"date"`
	RecurringID *int64          `json:"-"` // Set when posted by the recurring job
}

// Validate checks the input shape. WalletID may still be zero when a
// default wallet is going to be substituted by the caller.
func (in TransactionInput) Validate() error {
	if !in.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", util.ErrInvalidInput)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown transaction type %q", util.ErrInvalidInput, in.Type)
	}
	if in.Type == TransactionTypeTransfer {
		if in.ToWalletID == nil {
			return fmt.Errorf("%w: transfer requires a destination wallet", util.ErrInvalidInput)
		}
		if *in.ToWalletID == in.WalletID {
			return util.ErrSameWalletTransfer
		}
	} else if in.ToWalletID != nil {
		return fmt.Errorf("%w: only transfers may have a destination wallet", util.ErrInvalidInput)
	}
	return nil
}

// NewTransaction creates a new Transaction for userID from in.
// A zero input date means now.
func NewTransaction(userID int64, in TransactionInput) *Transaction {
	now := time.Now().UTC()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	return &Transaction{
		UserID:      userID,
		WalletID:    in.WalletID,
		ToWalletID:  in.ToWalletID,
		Amount:      in.Amount,
		Type:        in.Type,
		Category:    in.Category,
		Description: in.Description,
		Date:        date,
		RecurringID: in.RecurringID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ApplyInput overwrites the ledger-relevant fields of t with in,
// keeping its identity, owner and creation metadata.
func (t *Transaction) ApplyInput(in TransactionInput) {
	t.WalletID = in.WalletID
	t.ToWalletID = in.ToWalletID
	t.Amount = in.Amount
	t.Type = in.Type
	t.Category = in.Category
	t.Description = in.Description
	if !in.Date.IsZero() {
		t.Date = in.Date
	}
	t.UpdatedAt = time.Now().UTC()
}
