// internal/api/handler/handler_test.go
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"fintrack-ledger/internal/domain"
	"fintrack-ledger/internal/util"
)

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{util.ErrUnauthenticated, http.StatusUnauthorized},
		{fmt.Errorf("%w: amount must be positive", util.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("create transaction: %w", util.ErrSameWalletTransfer), http.StatusBadRequest},
		{fmt.Errorf("get wallet 3: %w", util.ErrWalletNotFound), http.StatusNotFound},
		{util.ErrTransactionNotFound, http.StatusNotFound},
		{util.ErrRecurringNotFound, http.StatusNotFound},
		{util.ErrUserNotFound, http.StatusNotFound},
		{util.ErrNotFound, http.StatusNotFound},
		{util.ErrDuplicateEntry, http.StatusConflict},
		{util.ErrDuplicateRequest, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, message := errorStatus(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.NotEmpty(t, message)
	}

	_, message := errorStatus(fmt.Errorf("%w: 'amount' must be a positive amount", util.ErrInvalidInput))
	assert.Contains(t, message, "'amount'")
}

func TestValidateStruct(t *testing.T) {
	valid := TransactionRequest{
		WalletID: 1,
		TransactionFields: TransactionFields{PostingFields: PostingFields{
			Amount: decimal.NewFromInt(5),
			Type:   domain.TransactionTypeIncome,
		}},
	}
	assert.NoError(t, ValidateStruct(&valid))

	zero := valid
	zero.Amount = decimal.Zero
	err := ValidateStruct(&zero)
	assert.ErrorIs(t, err, util.ErrInvalidInput)
	assert.ErrorContains(t, err, "'amount' must be a positive amount")

	noWallet := valid
	noWallet.WalletID = 0
	assert.ErrorContains(t, ValidateStruct(&noWallet), "'wallet_id' is required")

	badType := valid
	badType.Type = "GIFT"
	assert.ErrorContains(t, ValidateStruct(&badType), "'type' must be one of")

	batch := BatchRequest{Transactions: []BatchItem{{TransactionFields: valid.TransactionFields}}}
	assert.NoError(t, ValidateStruct(&batch))
	batch.Transactions[0].Amount = decimal.NewFromInt(-1)
	assert.ErrorIs(t, ValidateStruct(&batch), util.ErrInvalidInput)
}

func TestToSnakeCase(t *testing.T) {
	assert.Equal(t, "wallet_id", toSnakeCase("WalletID"))
	assert.Equal(t, "to_wallet_id", toSnakeCase("ToWalletID"))
	assert.Equal(t, "amount", toSnakeCase("Amount"))
	assert.Equal(t, "default_wallet_id", toSnakeCase("DefaultWalletID"))
}

func TestPagination(t *testing.T) {
	cases := map[string][2]int{
		"/x":                     {defaultPageLimit, 0},
		"/x?limit=5&offset=10":   {5, 10},
		"/x?limit=-1&offset=-3":  {defaultPageLimit, 0},
		"/x?limit=5000":          {maxPageLimit, 0},
		"/x?limit=abc&offset=xy": {defaultPageLimit, 0},
	}
	for target, want := range cases {
		limit, offset := pagination(httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, want[0], limit, target)
		assert.Equal(t, want[1], offset, target)
	}
}
