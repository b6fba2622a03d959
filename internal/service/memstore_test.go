// internal/service/memstore_test.go
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"fintrack-ledger/internal/domain"
	"fintrack-ledger/internal/repository"
	"fintrack-ledger/internal/util"
	"fintrack-ledger/pkg/db"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory backing store shared by the mem* repositories.
// memUnitOfWork snapshots it so a failed unit of work leaves no trace.
type memStore struct {
	nextID       int64
	users        map[int64]domain.User
	wallets      map[int64]domain.Wallet
	transactions map[int64]domain.Transaction
	recurring    map[int64]domain.RecurringTransaction

	// failCreateOnCall makes the n-th CreateTransaction call fail (1-based, 0 = never).
	failCreateOnCall int
	createCalls      int
}

func newMemStore() *memStore {
	return &memStore{
		users:        map[int64]domain.User{},
		wallets:      map[int64]domain.Wallet{},
		transactions: map[int64]domain.Transaction{},
		recurring:    map[int64]domain.RecurringTransaction{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

type memSnapshot struct {
	nextID       int64
	users        map[int64]domain.User
	wallets      map[int64]domain.Wallet
	transactions map[int64]domain.Transaction
	recurring    map[int64]domain.RecurringTransaction
}

func copyMap[V any](in map[int64]V) map[int64]V {
	out := make(map[int64]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	return memSnapshot{
		nextID:       s.nextID,
		users:        copyMap(s.users),
		wallets:      copyMap(s.wallets),
		transactions: copyMap(s.transactions),
		recurring:    copyMap(s.recurring),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.nextID = snap.nextID
	s.users = snap.users
	s.wallets = snap.wallets
	s.transactions = snap.transactions
	s.recurring = snap.recurring
}

func (s *memStore) seedUser(username string) int64 {
	user := domain.NewUser(username, "USD")
	user.ID = s.id()
	s.users[user.ID] = *user
	return user.ID
}

func (s *memStore) seedWallet(userID int64, balance decimal.Decimal) int64 {
	wallet := domain.NewWallet(userID, "wallet", "USD")
	wallet.ID = s.id()
	wallet.Balance = balance
	s.wallets[wallet.ID] = *wallet
	return wallet.ID
}

func (s *memStore) balance(walletID int64) decimal.Decimal {
	return s.wallets[walletID].Balance
}

// expectedBalances recomputes every wallet balance from live transactions.
func (s *memStore) expectedBalances() map[int64]decimal.Decimal {
	out := map[int64]decimal.Decimal{}
	for id := range s.wallets {
		out[id] = decimal.Zero
	}
	for _, tx := range s.transactions {
		if tx.IsDeleted() {
			continue
		}
		for _, effect := range tx.Effects() {
			if _, ok := out[effect.WalletID]; ok {
				out[effect.WalletID] = out[effect.WalletID].Add(effect.Delta)
			}
		}
	}
	return out
}

// memTx satisfies db.TxController and repository.DBExecutor. The mem
// repositories never issue SQL, so the executor methods only report misuse.
type memTx struct{}

var errNoSQL = errors.New("memTx does not execute SQL")

func (memTx) Commit() error   { return nil }
func (memTx) Rollback() error { return nil }
func (memTx) GetContext(context.Context, interface{}, string, ...interface{}) error {
	return errNoSQL
}
func (memTx) SelectContext(context.Context, interface{}, string, ...interface{}) error {
	return errNoSQL
}
func (memTx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errNoSQL
}
func (memTx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}

// memUnitOfWork implements db.UnitOfWork over a memStore.
type memUnitOfWork struct {
	store     *memStore
	commits   int
	rollbacks int
}

func (u *memUnitOfWork) Do(ctx context.Context, fn db.TxFunc) error {
	snap := u.store.snapshot()
	if err := fn(ctx, memTx{}); err != nil {
		u.store.restore(snap)
		u.rollbacks++
		return err
	}
	u.commits++
	return nil
}

type memUserRepo struct{ s *memStore }

func (r memUserRepo) CreateUser(_ context.Context, _ repository.DBExecutor, user *domain.User) error {
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return util.ErrDuplicateEntry
		}
	}
	user.ID = r.s.id()
	r.s.users[user.ID] = *user
	return nil
}

func (r memUserRepo) GetUserByID(_ context.Context, _ repository.DBExecutor, id int64) (*domain.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, util.ErrUserNotFound
	}
	return &u, nil
}

func (r memUserRepo) GetUserByUsername(_ context.Context, _ repository.DBExecutor, username string) (*domain.User, error) {
	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, util.ErrUserNotFound
}

type memWalletRepo struct{ s *memStore }

func (r memWalletRepo) CreateWallet(_ context.Context, _ repository.DBExecutor, wallet *domain.Wallet) error {
	wallet.ID = r.s.id()
	r.s.wallets[wallet.ID] = *wallet
	return nil
}

func (r memWalletRepo) GetWalletByID(_ context.Context, _ repository.DBExecutor, id int64) (*domain.Wallet, error) {
	w, ok := r.s.wallets[id]
	if !ok {
		return nil, util.ErrWalletNotFound
	}
	return &w, nil
}

func (r memWalletRepo) ListWalletsByUserID(_ context.Context, _ repository.DBExecutor, userID int64) ([]domain.Wallet, error) {
	out := []domain.Wallet{}
	for _, w := range r.s.wallets {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memWalletRepo) UpdateWalletBalance(_ context.Context, _ repository.DBExecutor, walletID int64, delta decimal.Decimal) error {
	w, ok := r.s.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet %d: %w", walletID, util.ErrWalletNotFound)
	}
	w.Balance = w.Balance.Add(delta)
	r.s.wallets[walletID] = w
	return nil
}

func (r memWalletRepo) SetWalletBalance(_ context.Context, _ repository.DBExecutor, walletID int64, balance decimal.Decimal) error {
	w, ok := r.s.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet %d: %w", walletID, util.ErrWalletNotFound)
	}
	w.Balance = balance
	r.s.wallets[walletID] = w
	return nil
}

type memTransactionRepo struct{ s *memStore }

func (r memTransactionRepo) CreateTransaction(_ context.Context, _ repository.DBExecutor, tx *domain.Transaction) error {
	r.s.createCalls++
	if r.s.failCreateOnCall > 0 && r.s.createCalls == r.s.failCreateOnCall {
		return errors.New("failed to create transaction: connection reset")
	}
	tx.ID = r.s.id()
	r.s.transactions[tx.ID] = *tx
	return nil
}

func (r memTransactionRepo) GetTransactionByID(_ context.Context, _ repository.DBExecutor, id int64) (*domain.Transaction, error) {
	tx, ok := r.s.transactions[id]
	if !ok {
		return nil, util.ErrTransactionNotFound
	}
	return &tx, nil
}

func (r memTransactionRepo) UpdateTransaction(_ context.Context, _ repository.DBExecutor, tx *domain.Transaction) error {
	existing, ok := r.s.transactions[tx.ID]
	if !ok || existing.IsDeleted() {
		return util.ErrTransactionNotFound
	}
	r.s.transactions[tx.ID] = *tx
	return nil
}

func (r memTransactionRepo) SoftDeleteTransaction(_ context.Context, _ repository.DBExecutor, id int64, deletedAt time.Time) error {
	existing, ok := r.s.transactions[id]
	if !ok || existing.IsDeleted() {
		return util.ErrTransactionNotFound
	}
	existing.DeletedAt = &deletedAt
	r.s.transactions[id] = existing
	return nil
}

func (r memTransactionRepo) GetTransactionsByWalletID(_ context.Context, _ repository.DBExecutor, walletID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	all := []domain.Transaction{}
	for _, tx := range r.s.transactions {
		if tx.IsDeleted() {
			continue
		}
		if tx.WalletID == walletID || (tx.ToWalletID != nil && *tx.ToWalletID == walletID) {
			all = append(all, tx)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := int64(len(all))
	if offset >= len(all) {
		return []domain.Transaction{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r memTransactionRepo) SumEffectsByWalletID(_ context.Context, _ repository.DBExecutor, walletID int64) (decimal.Decimal, error) {
	return r.s.expectedBalances()[walletID], nil
}

type memRecurringRepo struct{ s *memStore }

func (r memRecurringRepo) CreateRecurring(_ context.Context, _ repository.DBExecutor, rec *domain.RecurringTransaction) error {
	rec.ID = r.s.id()
	r.s.recurring[rec.ID] = *rec
	return nil
}

func (r memRecurringRepo) GetRecurringByID(_ context.Context, _ repository.DBExecutor, id int64) (*domain.RecurringTransaction, error) {
	rec, ok := r.s.recurring[id]
	if !ok {
		return nil, util.ErrRecurringNotFound
	}
	return &rec, nil
}

func (r memRecurringRepo) ListRecurringByUserID(_ context.Context, _ repository.DBExecutor, userID int64) ([]domain.RecurringTransaction, error) {
	out := []domain.RecurringTransaction{}
	for _, rec := range r.s.recurring {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memRecurringRepo) ListDueRecurring(_ context.Context, _ repository.DBExecutor, now time.Time) ([]domain.RecurringTransaction, error) {
	out := []domain.RecurringTransaction{}
	for _, rec := range r.s.recurring {
		if rec.Active && !rec.NextRunDate.After(now) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memRecurringRepo) UpdateRecurringSchedule(_ context.Context, _ repository.DBExecutor, id int64, next time.Time, active bool) error {
	rec, ok := r.s.recurring[id]
	if !ok {
		return util.ErrRecurringNotFound
	}
	rec.NextRunDate = next
	rec.Active = active
	r.s.recurring[id] = rec
	return nil
}
