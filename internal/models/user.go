package models

import "time"

// User is a back-office identity that logs in with email and password.
// It carries the same lockout bookkeeping fields as customer accounts.
type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Attempts     int        `json:"-"`
	LastAttempt  *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
}
