package bank

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/putrawicaksono/minibank/internal/storage"
)

// Drift describes one account whose stored balance disagrees with the sum
// of its ledger records.
type Drift struct {
	AccountNumber string
	Balance       int64
	Expected      int64
}

// Reconciler recomputes every account's balance from its opening balance
// plus the signed ledger sum, and reports mismatches. It exists because a
// ledger append can fail after a balance mutation committed; the reconciler
// makes that drift visible instead of silently ignored. It never mutates.
type Reconciler struct {
	accounts    storage.AccountStore
	ledger      storage.TransactionLedger
	log         *logrus.Logger
	parallelism int
}

// NewReconciler wires a Reconciler over the given store and ledger.
func NewReconciler(accounts storage.AccountStore, ledger storage.TransactionLedger, log *logrus.Logger) *Reconciler {
	return &Reconciler{accounts: accounts, ledger: ledger, log: log, parallelism: 4}
}

// Run checks every account and returns the drifts found. Each drift is
// also logged at error level with the amounts involved.
func (r *Reconciler) Run(ctx context.Context) ([]Drift, error) {
	numbers, err := r.accounts.ListAccountNumbers(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	var (
		mu     sync.Mutex
		drifts []Drift
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for _, number := range numbers {
		number := number
		g.Go(func() error {
			drift, found, err := r.check(ctx, number)
			if err != nil {
				return err
			}
			if found {
				mu.Lock()
				drifts = append(drifts, drift)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	if len(drifts) == 0 {
		r.log.WithField("accounts", len(numbers)).Debug("reconciliation clean")
	}
	return drifts, nil
}

func (r *Reconciler) check(ctx context.Context, accountNumber string) (Drift, bool, error) {
	account, err := r.accounts.GetAccount(ctx, accountNumber)
	if err != nil {
		return Drift{}, false, fmt.Errorf("account %s: %w", accountNumber, err)
	}
	records, err := r.ledger.QueryByAccount(ctx, accountNumber, storage.OrderAsc)
	if err != nil {
		return Drift{}, false, fmt.Errorf("ledger for %s: %w", accountNumber, err)
	}

	expected := account.OpeningBalance
	for _, rec := range records {
		expected += rec.SignedAmount(accountNumber)
	}
	if expected == account.Balance {
		return Drift{}, false, nil
	}

	r.log.WithFields(logrus.Fields{
		"account":  accountNumber,
		"balance":  account.Balance,
		"expected": expected,
		"drift":    account.Balance - expected,
	}).Error("ledger and balance disagree")
	return Drift{AccountNumber: accountNumber, Balance: account.Balance, Expected: expected}, true, nil
}
