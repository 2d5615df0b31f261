package models

import "time"

// TransactionKind classifies a ledger entry.
type TransactionKind string

const (
	KindTransfer   TransactionKind = "transfer"
	KindDeposit    TransactionKind = "deposit"
	KindWithdrawal TransactionKind = "withdrawal"
)

// Transaction is one immutable ledger entry. Sender is empty for deposits,
// Receiver is empty for withdrawals; transfers carry both.
type Transaction struct {
	ID        string          `json:"id"`
	Sender    string          `json:"sender,omitempty"`
	Receiver  string          `json:"receiver,omitempty"`
	Amount    int64           `json:"amount"`
	Kind      TransactionKind `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
}

// SignedAmount returns the balance effect of the entry from the point of
// view of the given account number: negative when the account paid,
// positive when it received, zero when the account is not a party.
func (t Transaction) SignedAmount(accountNumber string) int64 {
	switch {
	case t.Sender == accountNumber:
		return -t.Amount
	case t.Receiver == accountNumber:
		return t.Amount
	default:
		return 0
	}
}
