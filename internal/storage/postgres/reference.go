package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/checkout-flow/internal/domain/order"
)

const nextReferenceSQL = `SELECT nextval('order_reference_seq')`

var _ order.ReferenceGenerator = (*ReferenceGenerator)(nil)

// ReferenceGenerator assigns order references from a database sequence, so
// references stay unique across processes and are never reused.
type ReferenceGenerator struct {
	pool *pgxpool.Pool
}

// NewReferenceGenerator returns a sequence-backed ReferenceGenerator.
func NewReferenceGenerator(pool *pgxpool.Pool) *ReferenceGenerator {
	return &ReferenceGenerator{pool: pool}
}

// Assign sets the order reference from the next sequence value. Orders that
// already carry a reference are left untouched.
func (g *ReferenceGenerator) Assign(ctx context.Context, o *order.Order) error {
	if o.Reference != "" {
		return nil
	}

	var seq int64
	if err := g.pool.QueryRow(ctx, nextReferenceSQL).Scan(&seq); err != nil {
		return errors.Wrap(err, "next order reference")
	}
	o.Reference = fmt.Sprintf("ORD-%06d", seq)
	return nil
}
