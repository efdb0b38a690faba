package session

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/checkout-flow/internal/domain/basket"
	"github.com/xenking/checkout-flow/internal/domain/customer"
)

func TestBasketPayload_RoundTrip(t *testing.T) {
	in := basket.New()
	in.Elements = []basket.Element{
		{
			Pos:         1,
			ProductID:   "p-1",
			ProductName: "Waffle",
			UnitPrice:   decimal.RequireFromString("5.50"),
			Quantity:    2,
			Options:     map[string]string{"topping": "syrup"},
		},
		{
			Pos:         2,
			ProductID:   "p-2",
			ProductName: "Coffee",
			UnitPrice:   decimal.RequireFromString("3.00"),
			Quantity:    1,
		},
	}
	in.Customer = &customer.Customer{ID: "cust-1", Name: "Ada"}
	in.DeliveryAddress = &customer.Address{
		ID:          "addr-d",
		CustomerID:  "cust-1",
		Type:        customer.AddressDelivery,
		FullAddress: "1 Main St",
		CountryCode: "FR",
	}
	in.PaymentAddress = &customer.Address{
		ID:          "addr-p",
		CustomerID:  "cust-1",
		Type:        customer.AddressBilling,
		FullAddress: "2 Side St",
		CountryCode: "FR",
	}
	in.DeliveryMethod = "STANDARD"
	in.PaymentMethod = "CARD"
	in.Status = basket.StatusLocked

	payload, err := json.Marshal(in)
	require.NoError(t, err)

	var out basket.Basket
	require.NoError(t, json.Unmarshal(payload, &out))

	assert.Equal(t, *in, out)
	assert.True(t, out.Total().Equal(decimal.RequireFromString("14.00")))
	assert.Equal(t, 2, out.Count())
}

func TestBasketKey_PerSession(t *testing.T) {
	assert.Equal(t, "checkout:basket:s-1", basketKey("s-1"))
	assert.NotEqual(t, basketKey("s-1"), basketKey("s-2"))
}
