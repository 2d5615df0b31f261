package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/putrawicaksono/minibank/internal/config"
	"github.com/putrawicaksono/minibank/internal/http/respond"
	"github.com/putrawicaksono/minibank/internal/server"
	"github.com/putrawicaksono/minibank/internal/storage/memory"
)

func testConfig() config.Config {
	return config.Config{
		Port:             "0",
		JWTSecret:        "test-secret",
		JWTIssuer:        "minibank-test",
		JWTTTL:           time.Hour,
		CORSOrigins:      []string{"*"},
		MaxLoginAttempts: 5,
		LockoutWindow:    3 * time.Minute,
		BcryptCost:       bcrypt.MinCost,
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	store := memory.New()
	router := server.Router(testConfig(), server.Deps{
		Accounts: store,
		Users:    store,
		Ledger:   store,
		Log:      log,
	})
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, store
}

func doJSON(t *testing.T, method, url, token string, payload any) (*http.Response, respond.Envelope) {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req, err := http.NewRequest(method, url, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope respond.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp, envelope
}

func openAccount(t *testing.T, baseURL, number, name string, balance int64) {
	t.Helper()
	resp, _ := doJSON(t, http.MethodPost, baseURL+"/customers", "", map[string]any{
		"name":            name,
		"account_number":  number,
		"access_code":     "rahasia-1",
		"pin":             "123456",
		"opening_balance": balance,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func customerToken(t *testing.T, baseURL, number string) string {
	t.Helper()
	resp, envelope := doJSON(t, http.MethodPost, baseURL+"/customers/login", "", map[string]string{
		"account_number": number,
		"access_code":    "rahasia-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestUserRegisterAndLogin(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/register", "", map[string]string{
		"name":     "Admin",
		"email":    "admin@example.com",
		"password": "kata-sandi-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/register", "", map[string]string{
		"name":     "Admin",
		"email":    "admin@example.com",
		"password": "kata-sandi-1",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, envelope := doJSON(t, http.MethodPost, ts.URL+"/login", "", map[string]string{
		"email":    "admin@example.com",
		"password": "kata-sandi-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := envelope.Data.(map[string]any)
	assert.NotEmpty(t, data["token"])

	// Unknown email answers like a wrong password.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "kata-sandi-1",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginLockoutOverHTTP(t *testing.T) {
	ts, _ := newTestServer(t)
	openAccount(t, ts.URL, "1111111111", "Budi", 0)

	attempt := func(code string) int {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/customers/login", "", map[string]string{
			"account_number": "1111111111",
			"access_code":    code,
		})
		return resp.StatusCode
	}

	for i := 1; i <= 4; i++ {
		assert.Equal(t, http.StatusUnauthorized, attempt("salah"), "attempt %d", i)
	}
	assert.Equal(t, http.StatusForbidden, attempt("salah"), "attempt 5 locks")
	assert.Equal(t, http.StatusForbidden, attempt("rahasia-1"), "correct code rejected while locked")
}

func TestTransferFlow(t *testing.T) {
	ts, store := newTestServer(t)
	openAccount(t, ts.URL, "1111111111", "Budi", 500000)
	openAccount(t, ts.URL, "2222222222", "Sari", 100000)
	token := customerToken(t, ts.URL, "1111111111")

	t.Run("requires a session token", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/transfers", "", map[string]any{
			"sender": "1111111111", "receiver": "2222222222", "amount": 1000, "pin": "123456",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejects a wrong pin", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/transfers", token, map[string]any{
			"sender": "1111111111", "receiver": "2222222222", "amount": 1000, "pin": "000000",
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("moves funds", func(t *testing.T) {
		resp, envelope := doJSON(t, http.MethodPost, ts.URL+"/transfers", token, map[string]any{
			"sender": "1111111111", "receiver": "2222222222", "amount": 150000, "pin": "123456",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		data := envelope.Data.(map[string]any)
		assert.Equal(t, float64(150000), data["amount"])

		sender, _ := store.GetAccount(context.Background(), "1111111111")
		receiver, _ := store.GetAccount(context.Background(), "2222222222")
		assert.Equal(t, int64(350000), sender.Balance)
		assert.Equal(t, int64(250000), receiver.Balance)
	})

	t.Run("maps insufficient funds to 409", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/transfers", token, map[string]any{
			"sender": "1111111111", "receiver": "2222222222", "amount": 10000000, "pin": "123456",
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("maps unknown receiver to 404", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/transfers", token, map[string]any{
			"sender": "1111111111", "receiver": "9999999999", "amount": 1000, "pin": "123456",
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("rejects self-transfer", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/transfers", token, map[string]any{
			"sender": "1111111111", "receiver": "1111111111", "amount": 1000, "pin": "123456",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestDepositWithdrawAndHistory(t *testing.T) {
	ts, _ := newTestServer(t)
	openAccount(t, ts.URL, "1111111111", "Budi", 100000)
	openAccount(t, ts.URL, "2222222222", "Sari", 0)
	token := customerToken(t, ts.URL, "1111111111")

	resp, envelope := doJSON(t, http.MethodPost, ts.URL+"/customers/1111111111/deposit", token, map[string]int64{"amount": 50000})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := envelope.Data.(map[string]any)
	assert.Equal(t, float64(150000), data["balance"])
	assert.Equal(t, "Rp150.000", data["balance_formatted"])

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/customers/1111111111/withdraw", token, map[string]int64{"amount": 200000})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/transfers", token, map[string]any{
		"sender": "1111111111", "receiver": "2222222222", "amount": 25000, "pin": "123456",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, envelope = doJSON(t, http.MethodGet, ts.URL+"/customers/1111111111/transactions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := envelope.Data.(map[string]any)
	formatted, ok := history["formatted"].([]any)
	require.True(t, ok)
	require.Len(t, formatted, 2)
	assert.Contains(t, formatted[0], "deposit Rp50.000")
	assert.Contains(t, formatted[1], fmt.Sprintf("transfer %s to %s", "Rp25.000", "Sari (2222222222)"))
}

func TestGetAndDeleteAccount(t *testing.T) {
	ts, _ := newTestServer(t)
	openAccount(t, ts.URL, "1111111111", "Budi", 75000)
	token := customerToken(t, ts.URL, "1111111111")

	resp, envelope := doJSON(t, http.MethodGet, ts.URL+"/customers/1111111111", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := envelope.Data.(map[string]any)
	assert.Equal(t, "Budi", data["name"])
	assert.Equal(t, "Rp75.000", data["balance_formatted"])

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/customers/1111111111", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/customers/1111111111", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateAccountValidation(t *testing.T) {
	ts, _ := newTestServer(t)

	cases := []struct {
		name    string
		payload map[string]any
	}{
		{"short account number", map[string]any{"name": "Budi", "account_number": "123", "access_code": "rahasia-1", "pin": "123456"}},
		{"non-numeric pin", map[string]any{"name": "Budi", "account_number": "1111111111", "access_code": "rahasia-1", "pin": "abcdef"}},
		{"short access code", map[string]any{"name": "Budi", "account_number": "1111111111", "access_code": "x", "pin": "123456"}},
		{"negative opening balance", map[string]any{"name": "Budi", "account_number": "1111111111", "access_code": "rahasia-1", "pin": "123456", "opening_balance": -1}},
		{"missing name", map[string]any{"account_number": "1111111111", "access_code": "rahasia-1", "pin": "123456"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := doJSON(t, http.MethodPost, ts.URL+"/customers", "", tc.payload)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
