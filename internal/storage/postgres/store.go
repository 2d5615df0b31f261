package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/putrawicaksono/minibank/internal/models"
	"github.com/putrawicaksono/minibank/internal/storage"
)

// Ensure Store satisfies the storage interfaces at compile time.
var (
	_ storage.AccountStore      = (*Store)(nil)
	_ storage.UserStore         = (*Store)(nil)
	_ storage.TransactionLedger = (*Store)(nil)
)

// Store provides Postgres-backed persistence for accounts, users, and the
// transaction ledger.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store and runs migrations.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			account_number TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
			opening_balance BIGINT NOT NULL DEFAULT 0,
			access_code_hash TEXT NOT NULL,
			pin_hash TEXT NOT NULL,
			attempts INT NOT NULL DEFAULT 0,
			last_attempt TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			attempts INT NOT NULL DEFAULT 0,
			last_attempt TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY,
			sender TEXT NOT NULL DEFAULT '',
			receiver TEXT NOT NULL DEFAULT '',
			amount BIGINT NOT NULL CHECK (amount > 0),
			kind TEXT NOT NULL,
			ts TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS transactions_sender_idx ON transactions (sender, ts);`,
		`CREATE INDEX IF NOT EXISTS transactions_receiver_idx ON transactions (receiver, ts);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

const accountColumns = `account_number, name, balance, opening_balance, access_code_hash, pin_hash, attempts, last_attempt, created_at`

// CreateAccount inserts a new account row.
func (s *Store) CreateAccount(ctx context.Context, account models.Account) (models.Account, error) {
	const query = `
		INSERT INTO accounts (account_number, name, balance, opening_balance, access_code_hash, pin_hash)
		VALUES ($1, $2, $3, $3, $4, $5)
		RETURNING ` + accountColumns
	row := s.pool.QueryRow(ctx, query,
		account.AccountNumber, account.Name, account.Balance, account.AccessCodeHash, account.PINHash)
	created, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.Account{}, storage.ErrAlreadyExists
		}
		return models.Account{}, err
	}
	return created, nil
}

// GetAccount fetches an account by account number.
func (s *Store) GetAccount(ctx context.Context, accountNumber string) (models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	return scanAccount(s.pool.QueryRow(ctx, query, accountNumber))
}

// DeleteAccount removes an account row.
func (s *Store) DeleteAccount(ctx context.Context, accountNumber string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM accounts WHERE account_number = $1`, accountNumber)
	if err != nil {
		return fmt.Errorf("delete account %s: %w", accountNumber, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListAccountNumbers returns every account number, ascending.
func (s *Store) ListAccountNumbers(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT account_number FROM accounts ORDER BY account_number`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

// ApplyDelta adjusts one balance by a signed delta. The non-negativity
// check is part of the UPDATE predicate, so a concurrent mutation can never
// slip the balance below zero between a read and a write.
func (s *Store) ApplyDelta(ctx context.Context, accountNumber string, delta int64) (models.Account, error) {
	const query = `
		UPDATE accounts SET balance = balance + $2
		WHERE account_number = $1 AND balance + $2 >= 0
		RETURNING ` + accountColumns
	updated, err := scanAccount(s.pool.QueryRow(ctx, query, accountNumber, delta))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.Account{}, err
	}
	// No row matched: distinguish a missing account from an overdraw.
	var exists bool
	if qerr := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE account_number = $1)`, accountNumber).Scan(&exists); qerr != nil {
		return models.Account{}, fmt.Errorf("check account %s: %w", accountNumber, qerr)
	}
	if !exists {
		return models.Account{}, storage.ErrNotFound
	}
	return models.Account{}, storage.ErrInsufficientFunds
}

// AtomicDualUpdate moves amount from the debit account to the credit
// account inside one transaction. Both rows are locked in ascending
// account-number order so opposing transfers between the same pair cannot
// deadlock, and the overdraw check is re-evaluated under the lock.
func (s *Store) AtomicDualUpdate(ctx context.Context, debitAccount, creditAccount string, amount int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transfer: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT account_number FROM accounts
		WHERE account_number = $1 OR account_number = $2
		ORDER BY account_number
		FOR UPDATE`, debitAccount, creditAccount)
	if err != nil {
		return fmt.Errorf("lock accounts: %w", err)
	}
	locked := make(map[string]bool, 2)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			rows.Close()
			return err
		}
		locked[n] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for _, n := range []string{debitAccount, creditAccount} {
		if !locked[n] {
			return fmt.Errorf("account %s: %w", n, storage.ErrNotFound)
		}
	}

	tag, err := tx.Exec(ctx, `
		UPDATE accounts SET balance = balance - $2
		WHERE account_number = $1 AND balance >= $2`, debitAccount, amount)
	if err != nil {
		return fmt.Errorf("debit %s: %w", debitAccount, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrInsufficientFunds
	}

	if _, err := tx.Exec(ctx, `
		UPDATE accounts SET balance = balance + $2
		WHERE account_number = $1`, creditAccount, amount); err != nil {
		return fmt.Errorf("credit %s: %w", creditAccount, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transfer: %w", err)
	}
	return nil
}

// UpdateAccountLoginState persists lockout bookkeeping for a customer.
func (s *Store) UpdateAccountLoginState(ctx context.Context, accountNumber string, attempts int, lastAttempt *time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts SET attempts = $2, last_attempt = $3
		WHERE account_number = $1`, accountNumber, attempts, lastAttempt)
	if err != nil {
		return fmt.Errorf("update login state %s: %w", accountNumber, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CreateUser inserts a new back-office user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, name, email, password_hash, attempts, last_attempt, created_at`
	row := s.pool.QueryRow(ctx, query, user.Name, user.Email, user.PasswordHash)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// FindUserByEmail fetches a user by email address.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
		SELECT id, name, email, password_hash, attempts, last_attempt, created_at
		FROM users WHERE email = $1`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}

// UpdateUserLoginState persists lockout bookkeeping for a user.
func (s *Store) UpdateUserLoginState(ctx context.Context, email string, attempts int, lastAttempt *time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET attempts = $2, last_attempt = $3
		WHERE email = $1`, email, attempts, lastAttempt)
	if err != nil {
		return fmt.Errorf("update login state %s: %w", email, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.AccountNumber, &a.Name, &a.Balance, &a.OpeningBalance,
		&a.AccessCodeHash, &a.PINHash, &a.Attempts, &a.LastAttempt, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, storage.ErrNotFound
		}
		return models.Account{}, err
	}
	return a, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Attempts, &u.LastAttempt, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}
