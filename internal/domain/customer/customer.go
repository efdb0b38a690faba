// Package customer holds the opaque customer and address references consumed
// by the checkout flow. Customers themselves are managed by an external
// directory; checkout only needs identity and address lookups.
package customer

import (
	"context"

	"github.com/go-faster/errors"
)

// AddressType tags an address with the checkout step it belongs to.
type AddressType string

const (
	// AddressBilling marks addresses usable for the payment step.
	AddressBilling AddressType = "billing"
	// AddressDelivery marks addresses usable for the delivery step.
	AddressDelivery AddressType = "delivery"
)

// ErrNoAddresses is returned when a customer has no address of the requested type.
var ErrNoAddresses = errors.New("no addresses for customer")

// Customer is an opaque reference to a customer in the external directory.
type Customer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Address is a customer address tagged with its checkout role.
type Address struct {
	ID          string      `json:"id"`
	CustomerID  string      `json:"customer_id"`
	Type        AddressType `json:"type"`
	FullAddress string      `json:"full_address"`
	CountryCode string      `json:"country_code"`
}

// AddressRepository resolves candidate addresses per customer and step type.
// Implementations may perform blocking I/O; callers pass a context with an
// appropriate deadline.
type AddressRepository interface {
	FindByCustomerAndType(ctx context.Context, customerID string, typ AddressType) ([]Address, error)
}
