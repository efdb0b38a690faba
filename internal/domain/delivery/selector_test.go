package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/checkout-flow/internal/domain/basket"
	"github.com/xenking/checkout-flow/internal/domain/customer"
)

type stubProvider struct {
	code     string
	eligible bool
	err      error
	delay    time.Duration
}

func (p *stubProvider) Code() string { return p.code }
func (p *stubProvider) Name() string { return "Stub " + p.code }

func (p *stubProvider) IsEligible(ctx context.Context, _ *basket.Basket, _ *customer.Address) (bool, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return p.eligible, p.err
}

func (p *stubProvider) IsBasketCompatible(*basket.Basket) bool { return p.eligible }

func testBasket() *basket.Basket {
	b := basket.New()
	b.Elements = []basket.Element{
		{Pos: 0, ProductID: "p-1", ProductName: "Waffle", UnitPrice: decimal.RequireFromString("5.50"), Quantity: 1},
	}
	return b
}

func TestSelectEligible_RegistrationOrder(t *testing.T) {
	pool := NewPool(
		&stubProvider{code: "B", eligible: true},
		&stubProvider{code: "A", eligible: true},
		&stubProvider{code: "C", eligible: false},
	)
	sel := NewSelector(pool, 0)

	methods, err := sel.SelectEligible(context.Background(), testBasket(), nil)
	require.NoError(t, err)
	require.Len(t, methods, 2)
	assert.Equal(t, "B", methods[0].Code)
	assert.Equal(t, "A", methods[1].Code)
}

func TestSelectEligible_Empty(t *testing.T) {
	pool := NewPool(&stubProvider{code: "A", eligible: false})
	sel := NewSelector(pool, 0)

	methods, err := sel.SelectEligible(context.Background(), testBasket(), nil)
	require.NoError(t, err)
	assert.Empty(t, methods)
}

func TestSelectEligible_NoProviders(t *testing.T) {
	sel := NewSelector(NewPool(), 0)

	_, err := sel.SelectEligible(context.Background(), testBasket(), nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSelectEligible_ProviderError(t *testing.T) {
	pool := NewPool(
		&stubProvider{code: "A", eligible: true},
		&stubProvider{code: "B", err: errors.New("rate lookup down")},
	)
	sel := NewSelector(pool, 0)

	_, err := sel.SelectEligible(context.Background(), testBasket(), nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSelectEligible_Timeout(t *testing.T) {
	pool := NewPool(&stubProvider{code: "SLOW", eligible: true, delay: 200 * time.Millisecond})
	sel := NewSelector(pool, 10*time.Millisecond)

	_, err := sel.SelectEligible(context.Background(), testBasket(), nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSelectEligible_DuplicateCodesIgnored(t *testing.T) {
	pool := NewPool(
		&stubProvider{code: "A", eligible: true},
		&stubProvider{code: "A", eligible: false},
	)
	sel := NewSelector(pool, 0)

	methods, err := sel.SelectEligible(context.Background(), testBasket(), nil)
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.Equal(t, "A", methods[0].Code)
}

func TestStandardProvider(t *testing.T) {
	p := &StandardProvider{}
	addr := &customer.Address{ID: "addr-1", Type: customer.AddressDelivery}

	ok, err := p.IsEligible(context.Background(), testBasket(), addr)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.IsEligible(context.Background(), basket.New(), addr)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = p.IsEligible(context.Background(), testBasket(), nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpressProvider_CountryGate(t *testing.T) {
	p := ExpressProvider{Countries: map[string]bool{"FR": true, "DE": true}}

	ok, err := p.IsEligible(context.Background(), testBasket(), &customer.Address{ID: "a", CountryCode: "FR"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.IsEligible(context.Background(), testBasket(), &customer.Address{ID: "a", CountryCode: "ES"})
	require.NoError(t, err)
	assert.False(t, ok)
}
