package storage

import (
	"context"
	"errors"
	"time"

	"github.com/putrawicaksono/minibank/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrInsufficientFunds indicates a balance mutation would drive the balance
// below zero. Returned at commit time, so callers can rely on it even when
// an earlier read suggested the balance was sufficient.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Order selects the timestamp ordering of a ledger query.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// AccountStore captures persistence operations over customer accounts.
// Implementations must serialize balance mutations per account and make
// AtomicDualUpdate all-or-nothing.
type AccountStore interface {
	CreateAccount(ctx context.Context, account models.Account) (models.Account, error)
	GetAccount(ctx context.Context, accountNumber string) (models.Account, error)
	DeleteAccount(ctx context.Context, accountNumber string) error
	ListAccountNumbers(ctx context.Context) ([]string, error)

	// ApplyDelta adjusts one account's balance by a signed delta and
	// returns the updated account. ErrInsufficientFunds when the result
	// would be negative; the balance is checked and written atomically.
	ApplyDelta(ctx context.Context, accountNumber string, delta int64) (models.Account, error)

	// AtomicDualUpdate debits one account and credits another as a single
	// indivisible operation. No partial effect on any failure:
	// ErrNotFound if either account is missing, ErrInsufficientFunds if
	// the debit would overdraw.
	AtomicDualUpdate(ctx context.Context, debitAccount, creditAccount string, amount int64) error

	// UpdateAccountLoginState persists lockout bookkeeping independent of
	// the balance.
	UpdateAccountLoginState(ctx context.Context, accountNumber string, attempts int, lastAttempt *time.Time) error
}

// UserStore captures persistence operations over back-office users.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	UpdateUserLoginState(ctx context.Context, email string, attempts int, lastAttempt *time.Time) error
}

// TransactionLedger is the append-only log of completed balance movements.
type TransactionLedger interface {
	// Append adds one immutable record. Callers invoke it only after the
	// corresponding balance mutation has committed.
	Append(ctx context.Context, record models.Transaction) (models.Transaction, error)

	// QueryByAccount returns every record in which the account appears as
	// sender or receiver, ordered by timestamp.
	QueryByAccount(ctx context.Context, accountNumber string, order Order) ([]models.Transaction, error)
}
