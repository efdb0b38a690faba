package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/checkout-flow/internal/domain/payment"
)

const saveTransactionSQL = `INSERT INTO transactions
	(id, payment_code, external_id, order_id, parameters, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`

var _ payment.TransactionRepository = (*TransactionRepository)(nil)

// TransactionRepository implements payment.TransactionRepository backed by
// PostgreSQL. Every inbound gateway request stores a fresh row, keeping the
// full audit trail including duplicates and rejected handshakes.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository returns a TransactionRepository using the pool.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Save persists the transaction. The parameter bag is stored verbatim as JSONB.
func (r *TransactionRepository) Save(ctx context.Context, tx *payment.Transaction) error {
	paramsJSON, err := json.Marshal(tx.Parameters)
	if err != nil {
		return errors.Wrap(err, "marshaling transaction parameters")
	}

	var orderID *string
	if tx.Order != nil {
		orderID = &tx.Order.ID
	}

	_, err = r.pool.Exec(ctx, saveTransactionSQL,
		tx.ID, tx.PaymentCode, tx.ExternalID, orderID,
		paramsJSON, string(tx.Status), tx.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "saving transaction %q", tx.ID)
	}
	return nil
}
