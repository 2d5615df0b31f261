package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/putrawicaksono/minibank/internal/auth"
	"github.com/putrawicaksono/minibank/internal/format"
	"github.com/putrawicaksono/minibank/internal/http/respond"
	"github.com/putrawicaksono/minibank/internal/models"
	"github.com/putrawicaksono/minibank/internal/models/dto"
	"github.com/putrawicaksono/minibank/internal/storage"
)

// AccountHandler owns account opening, lookup, and closure.
type AccountHandler struct {
	accounts storage.AccountStore
	hasher   auth.CredentialHasher
	log      *logrus.Logger
}

// NewAccountHandler constructs the handler.
func NewAccountHandler(accounts storage.AccountStore, hasher auth.CredentialHasher, log *logrus.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, hasher: hasher, log: log}
}

// RegisterPublic attaches the unauthenticated account-opening route.
func (h *AccountHandler) RegisterPublic(r *mux.Router) {
	r.HandleFunc("/customers", h.handleCreate).Methods(http.MethodPost)
}

// RegisterProtected attaches routes that require a session token.
func (h *AccountHandler) RegisterProtected(r *mux.Router) {
	r.HandleFunc("/customers/{account_number}", h.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/customers/{account_number}", h.handleDelete).Methods(http.MethodDelete)
}

func (h *AccountHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.AccountNumber = strings.TrimSpace(req.AccountNumber)
	if req.Name == "" {
		respond.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	if !validAccountNumber(req.AccountNumber) {
		respond.Error(w, http.StatusBadRequest, "account number must be 10 digits")
		return
	}
	if len(req.AccessCode) < 6 {
		respond.Error(w, http.StatusBadRequest, "access code must be at least 6 characters")
		return
	}
	if !validPIN(req.PIN) {
		respond.Error(w, http.StatusBadRequest, "pin must be 6 digits")
		return
	}
	if req.OpeningBalance < 0 {
		respond.Error(w, http.StatusBadRequest, "opening balance cannot be negative")
		return
	}

	accessCodeHash, err := h.hasher.Hash(req.AccessCode)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to hash access code")
		return
	}
	pinHash, err := h.hasher.Hash(req.PIN)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to hash pin")
		return
	}

	created, err := h.accounts.CreateAccount(r.Context(), models.Account{
		AccountNumber:  req.AccountNumber,
		Name:           req.Name,
		Balance:        req.OpeningBalance,
		AccessCodeHash: accessCodeHash,
		PINHash:        pinHash,
	})
	if err != nil {
		status, msg := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.log.WithError(err).Error("create account failed")
		}
		respond.Error(w, status, msg)
		return
	}

	respond.JSON(w, http.StatusCreated, "account created", accountResponse(created))
}

func (h *AccountHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	accountNumber := mux.Vars(r)["account_number"]
	account, err := h.accounts.GetAccount(r.Context(), accountNumber)
	if err != nil {
		status, msg := statusFor(err)
		respond.Error(w, status, msg)
		return
	}
	respond.JSON(w, http.StatusOK, "account found", accountResponse(account))
}

func (h *AccountHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	accountNumber := mux.Vars(r)["account_number"]
	if err := h.accounts.DeleteAccount(r.Context(), accountNumber); err != nil {
		status, msg := statusFor(err)
		respond.Error(w, status, msg)
		return
	}
	respond.JSON(w, http.StatusOK, "account deleted", nil)
}

func accountResponse(a models.Account) dto.AccountResponse {
	return dto.AccountResponse{
		Name:             a.Name,
		AccountNumber:    a.AccountNumber,
		Balance:          a.Balance,
		BalanceFormatted: format.IDR(a.Balance),
	}
}

func validAccountNumber(s string) bool {
	if len(s) != 10 {
		return false
	}
	return allDigits(s)
}

func validPIN(s string) bool {
	if len(s) != 6 {
		return false
	}
	return allDigits(s)
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
