// internal/domain/user.go
package domain

import (
	"strings"
	"time"
)

// User owns wallets, transactions and recurring templates. Currency is the
// user's base currency; new wallets inherit it unless they name their own.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Currency  string    `db:"currency" json:"currency"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewUser creates a new User with a trimmed username and an upper-cased currency.
func NewUser(username, currency string) *User {
	now := time.Now().UTC()
	return &User{
		Username:  strings.TrimSpace(username),
		Currency:  strings.ToUpper(strings.TrimSpace(currency)),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WalletCurrency picks the currency for a new wallet of this user.
func (u *User) WalletCurrency(requested string) string {
	if c := strings.ToUpper(strings.TrimSpace(requested)); c != "" {
		return c
	}
	return u.Currency
}
