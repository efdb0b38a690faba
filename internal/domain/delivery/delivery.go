// Package delivery defines the delivery-method capability surface: per-code
// providers, the registry, and the eligibility selector used by the delivery
// checkout step.
package delivery

import (
	"context"

	"github.com/xenking/checkout-flow/internal/domain/basket"
	"github.com/xenking/checkout-flow/internal/domain/customer"
)

// Method is a transient descriptor of an eligible delivery option. It is
// returned by the selector and never persisted standalone.
type Method struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Provider is the capability object for one delivery method code.
type Provider interface {
	// Code returns the unique, stable method identifier.
	Code() string
	// Name returns the display name.
	Name() string
	// IsEligible reports whether the method can serve the basket and address.
	// It may perform blocking I/O (rate lookups) and must honor the context.
	IsEligible(ctx context.Context, b *basket.Basket, addr *customer.Address) (bool, error)
	// IsBasketCompatible re-checks the basket alone, used at submission time
	// when the basket may have changed since selection.
	IsBasketCompatible(b *basket.Basket) bool
}

// Pool is the provider registry keyed by method code, preserving registration
// order for stable method listings.
type Pool struct {
	byCode map[string]Provider
	codes  []string
}

// NewPool registers the given providers. Registration order defines the order
// eligible methods are presented in.
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
