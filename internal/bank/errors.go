// Package bank implements the account ledger and transfer engine.
package bank

import "errors"

var (
	// ErrInvalidAmount indicates a non-positive amount.
	ErrInvalidAmount = errors.New("amount must be > 0")

	// ErrSameAccount indicates a transfer where sender and receiver are
	// the same account.
	ErrSameAccount = errors.New("sender and receiver are the same account")

	// ErrLedgerAppend indicates the balance mutation committed but the
	// ledger record could not be written. Balances are correct; only the
	// history entry is missing until the reconciler or a retry repairs it.
	ErrLedgerAppend = errors.New("ledger append failed after balance update")
)
