// Package format renders ledger data for display. It is pure presentation:
// the engine returns integers and timestamps, this package turns them into
// the strings the API responds with.
package format

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/putrawicaksono/minibank/internal/models"
)

var printer = message.NewPrinter(language.Indonesian)

// IDR renders whole-rupiah amounts with Indonesian digit grouping,
// e.g. 1250000 -> "Rp1.250.000".
func IDR(amount int64) string {
	return "Rp" + printer.Sprint(number.Decimal(amount))
}

// Timestamp renders a ledger timestamp as "2006-01-02 15:04:05".
func Timestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// HistoryLine renders one ledger record from the viewer's perspective:
//
//	[2024-05-01 10:30:00] Budi (1111111111) transfer Rp100.000 to Sari (2222222222)
//	[2024-05-01 11:00:00] Budi (1111111111) receive Rp30.000 from Sari (2222222222)
//
// names maps account numbers to display names; unknown numbers fall back
// to the number itself.
func HistoryLine(viewer string, names map[string]string, rec models.Transaction) string {
	ts := Timestamp(rec.Timestamp)
	amount := IDR(rec.Amount)

	switch rec.Kind {
	case models.KindDeposit:
		return fmt.Sprintf("[%s] %s (%s) deposit %s", ts, name(names, rec.Receiver), rec.Receiver, amount)
	case models.KindWithdrawal:
		return fmt.Sprintf("[%s] %s (%s) withdraw %s", ts, name(names, rec.Sender), rec.Sender, amount)
	}

	if rec.Sender == viewer {
		return fmt.Sprintf("[%s] %s (%s) transfer %s to %s (%s)",
			ts, name(names, rec.Sender), rec.Sender, amount, name(names, rec.Receiver), rec.Receiver)
	}
	return fmt.Sprintf("[%s] %s (%s) receive %s from %s (%s)",
		ts, name(names, rec.Receiver), rec.Receiver, amount, name(names, rec.Sender), rec.Sender)
}

func name(names map[string]string, accountNumber string) string {
	if n, ok := names[accountNumber]; ok && n != "" {
		return n
	}
	return accountNumber
}
