package delivery

import (
	"context"

	"github.com/xenking/checkout-flow/internal/domain/basket"
	"github.com/xenking/checkout-flow/internal/domain/customer"
)

// StandardProvider ships to any address.
type StandardProvider struct{}

func (StandardProvider) Code() string { return "STANDARD" }
func (StandardProvider) Name() string { return "Standard delivery" }

func (StandardProvider) IsEligible(_ context.Context, b *basket.Basket, addr *customer.Address) (bool, error) {
	return b.Count() > 0 && addr != nil, nil
}

func (StandardProvider) IsBasketCompatible(b *basket.Basket) bool {
	return b.Count() > 0
}

// ExpressProvider ships only to a configured set of countries.
type ExpressProvider struct {
	// Countries is the allowed set of ISO country codes.
	Countries map[string]bool
}

func (ExpressProvider) Code() string { return "EXPRESS" }
func (ExpressProvider) Name() string { return "Express delivery" }

func (p ExpressProvider) IsEligible(_ context.Context, b *basket.Basket, addr *customer.Address) (bool, error) {
	if b.Count() == 0 || addr == nil {
		return false, nil
	}
	return p.Countries[addr.CountryCode], nil
}

func (p ExpressProvider) IsBasketCompatible(b *basket.Basket) bool {
	return b.Count() > 0
}
