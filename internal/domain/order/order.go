// Package order defines the immutable order snapshot produced by a basket
// conversion and its persistence contracts.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the order lifecycle state. An order starts open at gateway
// submission and is confirmed exactly once by a valid gateway callback.
type Status string

const (
	// StatusOpen marks an order awaiting the gateway outcome.
	StatusOpen Status = "open"
	// StatusConfirmed marks an order whose payment the gateway confirmed.
	StatusConfirmed Status = "confirmed"
	// StatusClosed marks a completed, settled order.
	StatusClosed Status = "closed"
	// StatusError marks an order whose payment failed.
	StatusError Status = "error"
)

// ErrNotFound is returned when no order matches the requested reference.
var ErrNotFound = errors.New("order not found")

// Item is a snapshotted basket line.
type Item struct {
	ProductID   string            `json:"product_id"`
	ProductName string            `json:"product_name"`
	UnitPrice   decimal.Decimal   `json:"unit_price"`
	Quantity    int               `json:"quantity"`
	Options     map[string]string `json:"options,omitempty"`
}

// Order is the persistent snapshot of a converted basket. Everything except
// Status is immutable once saved; Reference is the sole correlation key
// between gateway activity and orders.
type Order struct {
	ID                string          `json:"id"`
	Reference         string          `json:"reference"`
	CustomerID        string          `json:"customer_id"`
	Items             []Item          `json:"items"`
	Total             decimal.Decimal `json:"total"`
	DeliveryMethod    string          `json:"delivery_method"`
	PaymentMethod     string          `json:"payment_method"`
	DeliveryAddressID string          `json:"delivery_address_id"`
	PaymentAddressID  string          `json:"payment_address_id"`
	Status            Status          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Save persists the order. Saving an already-persisted order updates its
	// mutable fields only (status); the snapshot is never rewritten.
	Save(ctx context.Context, o *Order) error
	// FindByReference resolves an order by its unique reference. It returns
	// ErrNotFound when no order carries the reference.
	FindByReference(ctx context.Context, reference string) (*Order, error)
	// Confirm transitions the order with the given reference from open to
	// confirmed. It is idempotent: the first call performs the transition and
	// reports true, repeated calls leave the order untouched and report false.
	Confirm(ctx context.Context, reference string) (bool, error)
}

// ReferenceGenerator assigns the unique order reference at conversion time.
// References are never reused across the lifetime of the store.
type ReferenceGenerator interface {
	Assign(ctx context.Context, o *Order) error
}
