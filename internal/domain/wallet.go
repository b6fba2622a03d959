// internal/domain/wallet.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// Wallet represents a user's wallet (cash, bank account, card...).
// Balance is a cached value maintained by the ledger.
type Wallet struct {
	ID        int64           `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"user_id"`
	Name      string          `db:"name" json:"name"`
	Currency  string          `db:"currency" json:"currency"`
	Balance   decimal.Decimal `db:"balance" json:"balance"` // NUMERIC(20, 4) in DB
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// NewWallet creates a new empty Wallet instance.
func NewWallet(userID int64, name, currency string) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		UserID:    userID,
		Name:      name,
		Currency:  currency,
		Balance:   decimal.Zero, // Wallets always start empty
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Reconciliation compares a wallet's cached balance with the balance
// recomputed from its live transaction history.
type Reconciliation struct {
	WalletID int64           `json:"wallet_id"`
	Cached   decimal.Decimal `json:"cached_balance"`
	Computed decimal.Decimal `json:"computed_balance"`
	Drift    decimal.Decimal `json:"drift"`
	Repaired bool            `json:"repaired"`
}

// NewReconciliation builds a Reconciliation; Drift is cached minus computed.
func NewReconciliation(walletID int64, cached, computed decimal.Decimal) *Reconciliation {
	return &Reconciliation{
		WalletID: walletID,
		Cached:   cached,
		Computed: computed,
		Drift:    cached.Sub(computed),
	}
}

// Consistent reports whether the cached balance matches history.
func (r *Reconciliation) Consistent() bool {
	return r.Drift.IsZero()
}
