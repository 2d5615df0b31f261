package models

import "time"

// Account is a balance-holding customer account keyed by its 10-digit
// account number. Balance is kept in integer minor units (rupiah has no
// minor unit in practice, so this is whole rupiah) to avoid float drift.
type Account struct {
	AccountNumber  string     `json:"account_number"`
	Name           string     `json:"name"`
	Balance        int64      `json:"balance"`
	OpeningBalance int64      `json:"-"`
	AccessCodeHash string     `json:"-"`
	PINHash        string     `json:"-"`
	Attempts       int        `json:"-"`
	LastAttempt    *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
}
