package dto

import "github.com/putrawicaksono/minibank/internal/models"

type CreateAccountRequest struct {
	Name           string `json:"name"`
	AccountNumber  string `json:"account_number"`
	AccessCode     string `json:"access_code"`
	PIN            string `json:"pin"`
	OpeningBalance int64  `json:"opening_balance"`
}

type AccountResponse struct {
	Name             string `json:"name"`
	AccountNumber    string `json:"account_number"`
	Balance          int64  `json:"balance"`
	BalanceFormatted string `json:"balance_formatted"`
}

type TransferRequest struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Amount   int64  `json:"amount"`
	PIN      string `json:"pin"`
}

type TransferResponse struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Amount   int64  `json:"amount"`
}

type AmountRequest struct {
	Amount int64 `json:"amount"`
}

type BalanceResponse struct {
	AccountNumber    string `json:"account_number"`
	Balance          int64  `json:"balance"`
	BalanceFormatted string `json:"balance_formatted"`
}

type HistoryResponse struct {
	AccountNumber string               `json:"account_number"`
	Transactions  []models.Transaction `json:"transactions"`
	Formatted     []string             `json:"formatted"`
}
