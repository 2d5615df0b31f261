package postgres

import (
	"context"
	"fmt"

	"github.com/putrawicaksono/minibank/internal/models"
	"github.com/putrawicaksono/minibank/internal/storage"
)

// Append inserts one immutable ledger record. Rows are never updated or
// deleted after this point.
func (s *Store) Append(ctx context.Context, record models.Transaction) (models.Transaction, error) {
	const query = `
		INSERT INTO transactions (id, sender, receiver, amount, kind, ts)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.pool.Exec(ctx, query,
		record.ID, record.Sender, record.Receiver, record.Amount, string(record.Kind), record.Timestamp)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}
	return record, nil
}

// QueryByAccount returns every record involving the account, ordered by
// timestamp in the requested direction.
func (s *Store) QueryByAccount(ctx context.Context, accountNumber string, order storage.Order) ([]models.Transaction, error) {
	query := `
		SELECT id, sender, receiver, amount, kind, ts
		FROM transactions
		WHERE sender = $1 OR receiver = $1
		ORDER BY ts ASC, id ASC`
	if order == storage.OrderDesc {
		query = `
		SELECT id, sender, receiver, amount, kind, ts
		FROM transactions
		WHERE sender = $1 OR receiver = $1
		ORDER BY ts DESC, id DESC`
	}

	rows, err := s.pool.Query(ctx, query, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("query transactions for %s: %w", accountNumber, err)
	}
	defer rows.Close()

	var records []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var kind string
		if err := rows.Scan(&t.ID, &t.Sender, &t.Receiver, &t.Amount, &kind, &t.Timestamp); err != nil {
			return nil, err
		}
		t.Kind = models.TransactionKind(kind)
		records = append(records, t)
	}
	return records, rows.Err()
}
