package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/checkout-flow/internal/domain/order"
)

const (
	saveOrderSQL = `INSERT INTO orders
	(id, reference, customer_id, items, total, delivery_method, payment_method,
	 delivery_address_id, payment_address_id, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`

	findOrderSQL = `SELECT id, reference, customer_id, items, total, delivery_method,
	payment_method, delivery_address_id, payment_address_id, status, created_at
	FROM orders WHERE reference = $1`

	confirmOrderSQL = `UPDATE orders SET status = $1 WHERE reference = $2 AND status = $3`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Save persists the order snapshot. Re-saving an existing order only updates
// its status; the snapshot columns are written once.
func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "marshaling order items")
	}

	_, err = r.pool.Exec(ctx, saveOrderSQL,
		o.ID, o.Reference, o.CustomerID, itemsJSON, o.Total,
		o.DeliveryMethod, o.PaymentMethod,
		o.DeliveryAddressID, o.PaymentAddressID,
		string(o.Status), o.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "saving order %q", o.Reference)
	}
	return nil
}

// FindByReference resolves an order by its unique reference.
func (r *OrderRepository) FindByReference(ctx context.Context, reference string) (*order.Order, error) {
	var (
		o         order.Order
		itemsJSON []byte
		status    string
	)
	err := r.pool.QueryRow(ctx, findOrderSQL, reference).Scan(
		&o.ID, &o.Reference, &o.CustomerID, &itemsJSON, &o.Total,
		&o.DeliveryMethod, &o.PaymentMethod,
		&o.DeliveryAddressID, &o.PaymentAddressID,
		&status, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "finding order %q", reference)
	}

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, errors.Wrapf(err, "unmarshaling items of order %q", reference)
	}
	o.Status = order.Status(status)
	return &o, nil
}

// Confirm performs the open-to-confirmed transition as a single conditional
// UPDATE, making repeated confirmations for one reference a no-op.
func (r *OrderRepository) Confirm(ctx context.Context, reference string) (bool, error) {
	tag, err := r.pool.Exec(ctx, confirmOrderSQL,
		string(order.StatusConfirmed), reference, string(order.StatusOpen),
	)
	if err != nil {
		return false, errors.Wrapf(err, "confirming order %q", reference)
	}
	return tag.RowsAffected() > 0, nil
}
