// Package memory provides an in-process implementation of the storage
// interfaces. It backs unit tests and local development without Postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/putrawicaksono/minibank/internal/models"
	"github.com/putrawicaksono/minibank/internal/storage"
)

var (
	_ storage.AccountStore      = (*Store)(nil)
	_ storage.UserStore         = (*Store)(nil)
	_ storage.TransactionLedger = (*Store)(nil)
)

// Store keeps all state behind one mutex so every balance mutation is a
// serialized critical section, mirroring the row-lock discipline of the
// Postgres implementation.
type Store struct {
	mu         sync.Mutex
	accounts   map[string]*models.Account
	users      map[string]*models.User
	nextUserID int64
	ledger     []models.Transaction
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		accounts: make(map[string]*models.Account),
		users:    make(map[string]*models.User),
	}
}

// CreateAccount registers a new account.
func (s *Store) CreateAccount(_ context.Context, account models.Account) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.AccountNumber]; ok {
		return models.Account{}, storage.ErrAlreadyExists
	}
	account.OpeningBalance = account.Balance
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}
	cp := account
	s.accounts[account.AccountNumber] = &cp
	return account, nil
}

// GetAccount returns a snapshot of the account.
func (s *Store) GetAccount(_ context.Context, accountNumber string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountNumber]
	if !ok {
		return models.Account{}, storage.ErrNotFound
	}
	return *a, nil
}

// DeleteAccount removes the account.
func (s *Store) DeleteAccount(_ context.Context, accountNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[accountNumber]; !ok {
		return storage.ErrNotFound
	}
	delete(s.accounts, accountNumber)
	return nil
}

// ListAccountNumbers returns all account numbers, ascending.
func (s *Store) ListAccountNumbers(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	numbers := make([]string, 0, len(s.accounts))
	for n := range s.accounts {
		numbers = append(numbers, n)
	}
	sort.Strings(numbers)
	return numbers, nil
}

// ApplyDelta adjusts one balance, rejecting any result below zero. Check
// and write happen inside the same critical section.
func (s *Store) ApplyDelta(_ context.Context, accountNumber string, delta int64) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountNumber]
	if !ok {
		return models.Account{}, storage.ErrNotFound
	}
	if a.Balance+delta < 0 {
		return models.Account{}, storage.ErrInsufficientFunds
	}
	a.Balance += delta
	return *a, nil
}

// AtomicDualUpdate debits and credits inside one critical section; every
// precondition is validated before the first mutation, so failures leave
// both balances untouched.
func (s *Store) AtomicDualUpdate(_ context.Context, debitAccount, creditAccount string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	debit, ok := s.accounts[debitAccount]
	if !ok {
		return storage.ErrNotFound
	}
	credit, ok := s.accounts[creditAccount]
	if !ok {
		return storage.ErrNotFound
	}
	if debit.Balance < amount {
		return storage.ErrInsufficientFunds
	}
	debit.Balance -= amount
	credit.Balance += amount
	return nil
}

// UpdateAccountLoginState persists customer lockout bookkeeping.
func (s *Store) UpdateAccountLoginState(_ context.Context, accountNumber string, attempts int, lastAttempt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountNumber]
	if !ok {
		return storage.ErrNotFound
	}
	a.Attempts = attempts
	a.LastAttempt = cloneTime(lastAttempt)
	return nil
}

// CreateUser registers a new back-office user.
func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Email]; ok {
		return models.User{}, storage.ErrAlreadyExists
	}
	s.nextUserID++
	user.ID = s.nextUserID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	cp := user
	s.users[user.Email] = &cp
	return user, nil
}

// FindUserByEmail returns a snapshot of the user.
func (s *Store) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return *u, nil
}

// UpdateUserLoginState persists user lockout bookkeeping.
func (s *Store) UpdateUserLoginState(_ context.Context, email string, attempts int, lastAttempt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return storage.ErrNotFound
	}
	u.Attempts = attempts
	u.LastAttempt = cloneTime(lastAttempt)
	return nil
}

// Append adds one immutable ledger record.
func (s *Store) Append(_ context.Context, record models.Transaction) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = append(s.ledger, record)
	return record, nil
}

// QueryByAccount returns the account's records ordered by timestamp.
func (s *Store) QueryByAccount(_ context.Context, accountNumber string, order storage.Order) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Transaction
	for _, t := range s.ledger {
		if t.Sender == accountNumber || t.Receiver == accountNumber {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if order == storage.OrderDesc {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}
