package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/putrawicaksono/minibank/internal/auth"
	"github.com/putrawicaksono/minibank/internal/bank"
	"github.com/putrawicaksono/minibank/internal/format"
	"github.com/putrawicaksono/minibank/internal/http/respond"
	"github.com/putrawicaksono/minibank/internal/models"
	"github.com/putrawicaksono/minibank/internal/models/dto"
	"github.com/putrawicaksono/minibank/internal/storage"
)

// TransferHandler owns transfers, deposits, withdrawals, and history.
type TransferHandler struct {
	engine   *bank.Engine
	accounts storage.AccountStore
	hasher   auth.CredentialHasher
	log      *logrus.Logger
}

// NewTransferHandler constructs the handler.
func NewTransferHandler(engine *bank.Engine, accounts storage.AccountStore, hasher auth.CredentialHasher, log *logrus.Logger) *TransferHandler {
	return &TransferHandler{engine: engine, accounts: accounts, hasher: hasher, log: log}
}

// Register attaches the money-movement routes; all require a session token.
func (h *TransferHandler) Register(r *mux.Router) {
	r.HandleFunc("/transfers", h.handleTransfer).Methods(http.MethodPost)
	r.HandleFunc("/customers/{account_number}/deposit", h.handleDeposit).Methods(http.MethodPost)
	r.HandleFunc("/customers/{account_number}/withdraw", h.handleWithdraw).Methods(http.MethodPost)
	r.HandleFunc("/customers/{account_number}/transactions", h.handleHistory).Methods(http.MethodGet)
}

func (h *TransferHandler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req dto.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	req.Sender = strings.TrimSpace(req.Sender)
	req.Receiver = strings.TrimSpace(req.Receiver)
	if req.Sender == "" || req.Receiver == "" {
		respond.Error(w, http.StatusBadRequest, "sender and receiver are required")
		return
	}

	// The sender authorizes the transfer with their transaction PIN,
	// checked against the stored hash before any money moves.
	sender, err := h.accounts.GetAccount(r.Context(), req.Sender)
	if err != nil {
		status, msg := statusFor(err)
		respond.Error(w, status, msg)
		return
	}
	if err := h.hasher.Verify(sender.PINHash, req.PIN); err != nil {
		respond.Error(w, http.StatusForbidden, "wrong pin")
		return
	}

	record, err := h.engine.Transfer(r.Context(), req.Sender, req.Receiver, req.Amount)
	if err != nil {
		status, msg := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.log.WithError(err).Error("transfer failed")
		}
		respond.Error(w, status, msg)
		return
	}

	respond.JSON(w, http.StatusOK, "transfer successful", dto.TransferResponse{
		Sender:   record.Sender,
		Receiver: record.Receiver,
		Amount:   record.Amount,
	})
}

func (h *TransferHandler) handleDeposit(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.engine.Deposit)
}

func (h *TransferHandler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.engine.Withdraw)
}

func (h *TransferHandler) adjust(w http.ResponseWriter, r *http.Request, op func(context.Context, string, int64) (models.Account, error)) {
	accountNumber := mux.Vars(r)["account_number"]
	var req dto.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	updated, err := op(r.Context(), accountNumber, req.Amount)
	if err != nil {
		status, msg := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.log.WithError(err).Error("balance adjustment failed")
		}
		respond.Error(w, status, msg)
		return
	}

	respond.JSON(w, http.StatusOK, "balance updated", dto.BalanceResponse{
		AccountNumber:    updated.AccountNumber,
		Balance:          updated.Balance,
		BalanceFormatted: format.IDR(updated.Balance),
	})
}

func (h *TransferHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	accountNumber := mux.Vars(r)["account_number"]
	order := storage.OrderAsc
	if r.URL.Query().Get("order") == "desc" {
		order = storage.OrderDesc
	}

	records, err := h.engine.GetHistory(r.Context(), accountNumber, order)
	if err != nil {
		status, msg := statusFor(err)
		respond.Error(w, status, msg)
		return
	}

	names := h.counterpartyNames(r, accountNumber, records)
	formatted := make([]string, 0, len(records))
	for _, rec := range records {
		formatted = append(formatted, format.HistoryLine(accountNumber, names, rec))
	}

	respond.JSON(w, http.StatusOK, "transaction history", dto.HistoryResponse{
		AccountNumber: accountNumber,
		Transactions:  records,
		Formatted:     formatted,
	})
}

// counterpartyNames resolves display names for every account appearing in
// the records. Accounts that no longer exist keep their number as name.
func (h *TransferHandler) counterpartyNames(r *http.Request, viewer string, records []models.Transaction) map[string]string {
	names := make(map[string]string)
	lookup := func(number string) {
		if number == "" {
			return
		}
		if _, ok := names[number]; ok {
			return
		}
		account, err := h.accounts.GetAccount(r.Context(), number)
		if err != nil {
			names[number] = number
			return
		}
		names[number] = account.Name
	}
	lookup(viewer)
	for _, rec := range records {
		lookup(rec.Sender)
		lookup(rec.Receiver)
	}
	return names
}
