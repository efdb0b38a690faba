package payment

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/checkout-flow/internal/domain/basket"
	"github.com/xenking/checkout-flow/internal/domain/customer"
	"github.com/xenking/checkout-flow/internal/domain/order"
)

func reviewedBasket() *basket.Basket {
	b := basket.New()
	b.Customer = &customer.Customer{ID: "cust-1", Name: "Ada"}
	b.Elements = []basket.Element{
		{Pos: 0, ProductID: "p-1", ProductName: "Waffle", UnitPrice: decimal.RequireFromString("5.50"), Quantity: 2},
		{Pos: 1, ProductID: "p-2", ProductName: "Coffee", UnitPrice: decimal.RequireFromString("3.00"), Quantity: 1, Options: map[string]string{"size": "large"}},
	}
	b.DeliveryAddress = &customer.Address{ID: "addr-d", CustomerID: "cust-1", Type: customer.AddressDelivery}
	b.PaymentAddress = &customer.Address{ID: "addr-p", CustomerID: "cust-1", Type: customer.AddressBilling}
	b.DeliveryMethod = "STANDARD"
	b.PaymentMethod = "CARD"
	return b
}

func TestTransformBasketToOrder(t *testing.T) {
	var tr transformer
	b := reviewedBasket()

	o, err := tr.TransformBasketToOrder(b)
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.Empty(t, o.Reference)
	assert.Equal(t, order.StatusOpen, o.Status)
	assert.Equal(t, "cust-1", o.CustomerID)
	assert.Equal(t, "STANDARD", o.DeliveryMethod)
	assert.Equal(t, "CARD", o.PaymentMethod)
	assert.Equal(t, "addr-d", o.DeliveryAddressID)
	assert.Equal(t, "addr-p", o.PaymentAddressID)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("14.00")))
	require.Len(t, o.Items, 2)
	assert.Equal(t, "large", o.Items[1].Options["size"])
}

func TestTransformBasketToOrder_Snapshot(t *testing.T) {
	var tr transformer
	b := reviewedBasket()

	o, err := tr.TransformBasketToOrder(b)
	require.NoError(t, err)

	// Mutating the basket afterwards must not leak into the order snapshot.
	b.Elements[1].Options["size"] = "small"
	b.Elements[0].Quantity = 99

	assert.Equal(t, "large", o.Items[1].Options["size"])
	assert.Equal(t, 2, o.Items[0].Quantity)
}

func TestTransformBasketToOrder_Invalid(t *testing.T) {
	var tr transformer

	b := reviewedBasket()
	b.Customer = nil
	_, err := tr.TransformBasketToOrder(b)
	assert.ErrorIs(t, err, ErrNoCustomer)

	b = reviewedBasket()
	b.Elements = nil
	_, err = tr.TransformBasketToOrder(b)
	assert.ErrorIs(t, err, ErrNoElements)
}

func TestTransformRoundTrip(t *testing.T) {
	var tr transformer
	src := reviewedBasket()

	o, err := tr.TransformBasketToOrder(src)
	require.NoError(t, err)

	rebuilt := tr.TransformOrderToBasket(src.Customer, o, src)

	assert.Equal(t, src.Customer, rebuilt.Customer)
	assert.Equal(t, src.Elements, rebuilt.Elements)
	assert.Equal(t, src.DeliveryMethod, rebuilt.DeliveryMethod)
	assert.Equal(t, src.PaymentMethod, rebuilt.PaymentMethod)
	assert.Equal(t, src.DeliveryAddress, rebuilt.DeliveryAddress)
	assert.Equal(t, src.PaymentAddress, rebuilt.PaymentAddress)
	assert.Equal(t, basket.StatusDraft, rebuilt.Status)
}

func TestTransformOrderToBasket_StaleTemplate(t *testing.T) {
	var tr transformer
	src := reviewedBasket()

	o, err := tr.TransformBasketToOrder(src)
	require.NoError(t, err)

	// Template addresses that no longer match the order are not carried over.
	template := reviewedBasket()
	template.DeliveryAddress = &customer.Address{ID: "addr-other", Type: customer.AddressDelivery}

	rebuilt := tr.TransformOrderToBasket(src.Customer, o, template)
	assert.Nil(t, rebuilt.DeliveryAddress)
	assert.Equal(t, "addr-p", rebuilt.PaymentAddress.ID)
}
