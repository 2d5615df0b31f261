package handlers

import (
	"errors"
	"net/http"

	"github.com/putrawicaksono/minibank/internal/bank"
	"github.com/putrawicaksono/minibank/internal/login"
	"github.com/putrawicaksono/minibank/internal/storage"
)

// statusFor maps domain errors onto HTTP status codes and safe messages.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, bank.ErrInvalidAmount), errors.Is(err, bank.ErrSameAccount):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, storage.ErrInsufficientFunds):
		return http.StatusConflict, "insufficient funds"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "account not found"
	case errors.Is(err, storage.ErrAlreadyExists):
		return http.StatusConflict, "already exists"
	case errors.Is(err, login.ErrLocked):
		return http.StatusForbidden, "too many failed attempts, try again later"
	case errors.Is(err, login.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, bank.ErrLedgerAppend):
		return http.StatusInternalServerError, "transfer committed but history logging failed"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
