// Package payment defines the payment-method capability surface: per-code
// providers with their gateway handshake checks, the basket/order
// transformers, and the transaction audit model.
package payment

import (
	"context"

	"github.com/xenking/checkout-flow/internal/domain/basket"
	"github.com/xenking/checkout-flow/internal/domain/customer"
	"github.com/xenking/checkout-flow/internal/domain/order"
)

// Method is a transient descriptor of an eligible payment option.
type Method struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// GatewayInstruction is the outbound side effect of a gateway submission,
// typically a browser redirect to a bank-hosted page.
type GatewayInstruction struct {
	RedirectURL string
}

// Ack is a gateway-specific acknowledgment response returned from the
// asynchronous callback endpoint.
type Ack struct {
	ContentType string
	Body        []byte
}

// Provider is the capability object for one payment method code. One concrete
// variant exists per code, selected through the Pool registry.
type Provider interface {
	// Code returns the unique, stable method identifier.
	Code() string
	// Name returns the display name.
	Name() string
	// IsEligible reports whether the method can serve the basket and billing
	// address. It may perform blocking I/O and must honor the context.
	IsEligible(ctx context.Context, b *basket.Basket, addr *customer.Address) (bool, error)
	// IsBasketCompatible re-checks the basket alone at final submission time;
	// eligibility at selection time does not guarantee continued compatibility.
	IsBasketCompatible(b *basket.Basket) bool

	// TransformBasketToOrder snapshots the basket into a new open order. It is
	// a pure function of the basket state and must not mutate its input.
	TransformBasketToOrder(b *basket.Basket) (*order.Order, error)
	// TransformOrderToBasket rebuilds a basket from an order after a gateway
	// error, so the customer can retry without re-entering the cart. The
	// template basket supplies shared references (addresses) when available.
	TransformOrderToBasket(c *customer.Customer, o *order.Order, template *basket.Basket) *basket.Basket

	// OrderReference extracts the gateway-reported order reference from a
	// transaction's parameter bag.
	OrderReference(tx *Transaction) string
	// ApplyTransactionID copies the gateway-assigned transaction identifier
	// from the parameter bag onto the transaction record.
	ApplyTransactionID(tx *Transaction)
	// IsRequestValid is the handshake check for the synchronous browser-return
	// channel. A failed check is a hard NotFound-class failure upstream.
	IsRequestValid(tx *Transaction) bool
	// IsCallbackValid is the handshake check for the asynchronous callback
	// channel, typically a separate signature scheme from the browser path.
	IsCallbackValid(tx *Transaction) bool
	// HandleError records a gateway-reported failure on the transaction and
	// its attached order.
	HandleError(ctx context.Context, tx *Transaction) error
	// SendConfirmationReceipt acknowledges a valid callback to the gateway and
	// marks the transaction confirmed.
	SendConfirmationReceipt(ctx context.Context, tx *Transaction) (Ack, error)
	// CallGateway produces the outbound gateway side effect for a persisted
	// order. It runs after the conversion is committed; its failure is a
	// gateway-integration concern, never a basket-state rollback.
	CallGateway(o *order.Order) (GatewayInstruction, error)
}

// Pool is the provider registry keyed by payment method code, preserving
// registration order for stable method listings.
type Pool struct {
	byCode map[string]Provider
	codes  []string
}

// NewPool registers the given providers in presentation order.
func NewPool(providers ...Provider) *Pool {
	p := &Pool{byCode: make(map[string]Provider, len(providers))}
	for _, prov := range providers {
		if _, dup := p.byCode[prov.Code()]; dup {
			continue
		}
		p.byCode[prov.Code()] = prov
		p.codes = append(p.codes, prov.Code())
	}
	return p
}

// Get returns the provider registered under code.
func (p *Pool) Get(code string) (Provider, bool) {
	prov, ok := p.byCode[code]
	return prov, ok
}

// Codes returns the registered method codes in registration order.
func (p *Pool) Codes() []string {
	return p.codes
}
