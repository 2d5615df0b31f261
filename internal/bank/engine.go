package bank

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/putrawicaksono/minibank/internal/models"
	"github.com/putrawicaksono/minibank/internal/storage"
)

// Engine orchestrates balance movements. All mutations go through the
// store's atomic operations; the engine never performs a read-check-write
// against a stale balance.
type Engine struct {
	accounts storage.AccountStore
	ledger   storage.TransactionLedger
	log      *logrus.Logger
	now      func() time.Time
	newID    func() string
}

// NewEngine wires an Engine over the given store and ledger.
func NewEngine(accounts storage.AccountStore, ledger storage.TransactionLedger, log *logrus.Logger) *Engine {
	return &Engine{
		accounts: accounts,
		ledger:   ledger,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithClock overrides the engine's time source. Used by tests that need
// deterministic timestamps.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Transfer moves amount from sender to receiver and appends a ledger
// record. The overdraw check is re-evaluated inside the store's atomic
// dual update, so two concurrent transfers can never both pass it against
// a stale balance. Deliberately not idempotent: the same arguments twice
// move funds twice.
func (e *Engine) Transfer(ctx context.Context, sender, receiver string, amount int64) (models.Transaction, error) {
	if amount <= 0 {
		return models.Transaction{}, ErrInvalidAmount
	}
	if sender == receiver {
		return models.Transaction{}, ErrSameAccount
	}

	if _, err := e.accounts.GetAccount(ctx, sender); err != nil {
		return models.Transaction{}, fmt.Errorf("sender %s: %w", sender, err)
	}
	if _, err := e.accounts.GetAccount(ctx, receiver); err != nil {
		return models.Transaction{}, fmt.Errorf("receiver %s: %w", receiver, err)
	}

	if err := e.accounts.AtomicDualUpdate(ctx, sender, receiver, amount); err != nil {
		return models.Transaction{}, fmt.Errorf("transfer %s -> %s: %w", sender, receiver, err)
	}

	record := models.Transaction{
		ID:        e.newID(),
		Sender:    sender,
		Receiver:  receiver,
		Amount:    amount,
		Kind:      models.KindTransfer,
		Timestamp: e.now(),
	}
	if _, err := e.ledger.Append(ctx, record); err != nil {
		// Balances committed; only history is missing. Surfaced as a
		// distinct error so operators can reconcile, never retried here.
		e.log.WithFields(logrus.Fields{
			"sender":   sender,
			"receiver": receiver,
			"amount":   amount,
		}).WithError(err).Error("ledger append failed after committed transfer")
		return models.Transaction{}, fmt.Errorf("%w: %v", ErrLedgerAppend, err)
	}

	e.log.WithFields(logrus.Fields{
		"sender":   sender,
		"receiver": receiver,
		"amount":   amount,
	}).Info("transfer completed")
	return record, nil
}

// Deposit credits a single account and ledgers the movement.
func (e *Engine) Deposit(ctx context.Context, accountNumber string, amount int64) (models.Account, error) {
	if amount <= 0 {
		return models.Account{}, ErrInvalidAmount
	}
	return e.adjust(ctx, accountNumber, amount)
}

// Withdraw debits a single account, failing with ErrInsufficientFunds
// before any mutation when the balance would go negative.
func (e *Engine) Withdraw(ctx context.Context, accountNumber string, amount int64) (models.Account, error) {
	if amount <= 0 {
		return models.Account{}, ErrInvalidAmount
	}
	return e.adjust(ctx, accountNumber, -amount)
}

func (e *Engine) adjust(ctx context.Context, accountNumber string, delta int64) (models.Account, error) {
	updated, err := e.accounts.ApplyDelta(ctx, accountNumber, delta)
	if err != nil {
		return models.Account{}, fmt.Errorf("account %s: %w", accountNumber, err)
	}

	record := models.Transaction{
		ID:        e.newID(),
		Amount:    delta,
		Kind:      models.KindDeposit,
		Receiver:  accountNumber,
		Timestamp: e.now(),
	}
	if delta < 0 {
		record.Amount = -delta
		record.Kind = models.KindWithdrawal
		record.Receiver = ""
		record.Sender = accountNumber
	}
	if _, err := e.ledger.Append(ctx, record); err != nil {
		e.log.WithFields(logrus.Fields{
			"account": accountNumber,
			"delta":   delta,
		}).WithError(err).Error("ledger append failed after committed balance change")
		return models.Account{}, fmt.Errorf("%w: %v", ErrLedgerAppend, err)
	}
	return updated, nil
}

// GetHistory returns the account's ledger records ordered by timestamp.
// The account must exist.
func (e *Engine) GetHistory(ctx context.Context, accountNumber string, order storage.Order) ([]models.Transaction, error) {
	if _, err := e.accounts.GetAccount(ctx, accountNumber); err != nil {
		return nil, fmt.Errorf("account %s: %w", accountNumber, err)
	}
	records, err := e.ledger.QueryByAccount(ctx, accountNumber, order)
	if err != nil {
		return nil, fmt.Errorf("history for %s: %w", accountNumber, err)
	}
	return records, nil
}
