// Package basket implements the in-progress cart aggregate for a customer
// session: its elements, selected checkout methods, and lifecycle rules.
package basket

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xenking/checkout-flow/internal/domain/customer"
)

// Status is the basket lifecycle state.
type Status string

const (
	// StatusDraft marks a basket still editable by the customer.
	StatusDraft Status = "draft"
	// StatusLocked marks a basket undergoing gateway submission.
	StatusLocked Status = "locked"
)

// Element is a single basket line. It is owned exclusively by its basket and
// identified within it by Pos, a stable per-line key used for sub-form
// rendering only.
type Element struct {
	Pos         int               `json:"pos"`
	ProductID   string            `json:"product_id"`
	ProductName string            `json:"product_name"`
	UnitPrice   decimal.Decimal   `json:"unit_price"`
	Quantity    int               `json:"quantity"`
	Options     map[string]string `json:"options,omitempty"`
}

// Basket is the mutable cart aggregate. It lives in the session store between
// requests; the orchestrator mutates a local copy and writes it back.
type Basket struct {
	Elements        []Element          `json:"elements"`
	Customer        *customer.Customer `json:"customer,omitempty"`
	DeliveryAddress *customer.Address  `json:"delivery_address,omitempty"`
	PaymentAddress  *customer.Address  `json:"payment_address,omitempty"`
	DeliveryMethod  string             `json:"delivery_method,omitempty"`
	PaymentMethod   string             `json:"payment_method,omitempty"`
	Status          Status             `json:"status"`
}

// New returns an empty draft basket.
func New() *Basket {
	return &Basket{Status: StatusDraft}
}

// Clone deep-copies the elements and keeps customer/address references shared,
// so an abandoned checkout step leaves the canonical session basket untouched.
func (b *Basket) Clone() *Basket {
	c := *b
	c.Elements = make([]Element, len(b.Elements))
	copy(c.Elements, b.Elements)
	for i, e := range b.Elements {
		if e.Options != nil {
			opts := make(map[string]string, len(e.Options))
			for k, v := range e.Options {
				opts[k] = v
			}
			c.Elements[i].Options = opts
		}
	}
	return &c
}

// Count returns the number of basket lines.
func (b *Basket) Count() int {
	return len(b.Elements)
}

// Total returns the sum of unit price times quantity over all lines.
func (b *Basket) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range b.Elements {
		total = total.Add(e.UnitPrice.Mul(decimal.NewFromInt(int64(e.Quantity))))
	}
	return total
}

// HasProduct reports whether a line for the product already exists.
func (b *Basket) HasProduct(productID string) bool {
	return b.findLine(productID) >= 0
}

// AddProduct appends a new line, or merges the quantity into an existing line
// for the same product. Any previous method selection is invalidated.
func (b *Basket) AddProduct(el Element) {
	if i := b.findLine(el.ProductID); i >= 0 {
		b.Elements[i].Quantity += el.Quantity
	} else {
		el.Pos = b.nextPos()
		b.Elements = append(b.Elements, el)
	}
	b.ResetSelections()
}

// UpdateQuantities applies new quantities keyed by line position. A zero or
// negative quantity removes the line. Method selections are invalidated.
func (b *Basket) UpdateQuantities(quantities map[int]int) {
	kept := b.Elements[:0]
	for _, e := range b.Elements {
		if q, ok := quantities[e.Pos]; ok {
			if q <= 0 {
				continue
			}
			e.Quantity = q
		}
		kept = append(kept, e)
	}
	b.Elements = kept
	b.ResetSelections()
}

// SetDeliveryAddress binds the delivery address. Changing to a different
// address clears the previously selected delivery method, forcing reselection.
func (b *Basket) SetDeliveryAddress(addr *customer.Address) {
	if b.DeliveryAddress != nil && (addr == nil || b.DeliveryAddress.ID != addr.ID) {
		b.DeliveryMethod = ""
	}
	b.DeliveryAddress = addr
}

// SetPaymentAddress binds the billing address, clearing a stale payment method
// selection on change.
func (b *Basket) SetPaymentAddress(addr *customer.Address) {
	if b.PaymentAddress != nil && (addr == nil || b.PaymentAddress.ID != addr.ID) {
		b.PaymentMethod = ""
	}
	b.PaymentAddress = addr
}

// ResetSelections drops the delivery and payment selections (methods and
// addresses) while keeping elements and customer. Called whenever basket
// contents change, since eligibility was derived from the old contents.
func (b *Basket) ResetSelections() {
	b.DeliveryAddress = nil
	b.DeliveryMethod = ""
	b.PaymentAddress = nil
	b.PaymentMethod = ""
}

// Reset empties the basket back to a fresh draft.
func (b *Basket) Reset() {
	*b = *New()
}

func (b *Basket) findLine(productID string) int {
	for i, e := range b.Elements {
		if e.ProductID == productID {
			return i
		}
	}
	return -1
}

func (b *Basket) nextPos() int {
	next := 0
	for _, e := range b.Elements {
		if e.Pos >= next {
			next = e.Pos + 1
		}
	}
	return next
}

// Store persists the per-session basket between checkout requests.
type Store interface {
	// Get returns the session basket, or a fresh empty basket when the
	// session has none yet.
	Get(ctx context.Context, sessionID string) (*Basket, error)
	// Set replaces the session basket atomically.
	Set(ctx context.Context, sessionID string, b *Basket) error
	// Reset removes the session basket.
	Reset(ctx context.Context, sessionID string) error
}
