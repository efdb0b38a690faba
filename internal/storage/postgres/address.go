package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/checkout-flow/internal/domain/customer"
)

const findAddressesSQL = `SELECT id, customer_id, type, full_address, country_code
	FROM addresses WHERE customer_id = $1 AND type = $2 ORDER BY created_at, id`

var _ customer.AddressRepository = (*AddressRepository)(nil)

// AddressRepository implements customer.AddressRepository backed by PostgreSQL.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// FindByCustomerAndType returns the customer's addresses of the given type in
// a stable order, oldest first.
func (r *AddressRepository) FindByCustomerAndType(ctx context.Context, customerID string, typ customer.AddressType) ([]customer.Address, error) {
	rows, err := r.pool.Query(ctx, findAddressesSQL, customerID, string(typ))
	if err != nil {
		return nil, errors.Wrapf(err, "querying addresses of customer %q", customerID)
	}
	defer rows.Close()

	addrs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (customer.Address, error) {
		var (
			a   customer.Address
			typ string
		)
		err := row.Scan(&a.ID, &a.CustomerID, &typ, &a.FullAddress, &a.CountryCode)
		a.Type = customer.AddressType(typ)
		return a, err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scanning addresses of customer %q", customerID)
	}
	return addrs, nil
}
