// internal/domain/user_test.go
package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUser(t *testing.T) {
	u := NewUser("  alice ", " eur")

	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "EUR", u.Currency)
	assert.False(t, u.CreatedAt.IsZero())
	assert.Equal(t, u.CreatedAt, u.UpdatedAt)
}

func TestUserWalletCurrency(t *testing.T) {
	u := &User{Currency: "EUR"}

	assert.Equal(t, "EUR", u.WalletCurrency(""))
	assert.Equal(t, "EUR", u.WalletCurrency("   "))
	assert.Equal(t, "GBP", u.WalletCurrency("gbp"))
}
