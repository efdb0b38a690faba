package payment

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/checkout-flow/internal/domain/basket"
	"github.com/xenking/checkout-flow/internal/domain/customer"
	"github.com/xenking/checkout-flow/internal/domain/order"
)

// Transform validation errors.
var (
	ErrNoCustomer = errors.New("basket has no customer")
	ErrNoElements = errors.New("basket has no elements")
)

// transformer implements the basket/order transformations shared by every
// provider. Concrete providers embed it and add their gateway specifics.
type transformer struct{}

// TransformBasketToOrder snapshots the basket into a new open order. The
// reference is assigned separately by the reference generator after save.
func (transformer) TransformBasketToOrder(b *basket.Basket) (*order.Order, error) {
	if b.Customer == nil {
		return nil, ErrNoCustomer
	}
	if b.Count() == 0 {
		return nil, ErrNoElements
	}

	items := make([]order.Item, len(b.Elements))
	for i, e := range b.Elements {
		items[i] = order.Item{
			ProductID:   e.ProductID,
			ProductName: e.ProductName,
			UnitPrice:   e.UnitPrice,
			Quantity:    e.Quantity,
		}
		if e.Options != nil {
			opts := make(map[string]string, len(e.Options))
			for k, v := range e.Options {
				opts[k] = v
			}
			items[i].Options = opts
		}
	}

	o := &order.Order{
		ID:             uuid.New().String(),
		CustomerID:     b.Customer.ID,
		Items:          items,
		Total:          b.Total(),
		DeliveryMethod: b.DeliveryMethod,
		PaymentMethod:  b.PaymentMethod,
		Status:         order.StatusOpen,
		CreatedAt:      time.Now().UTC(),
	}
	if b.DeliveryAddress != nil {
		o.DeliveryAddressID = b.DeliveryAddress.ID
	}
	if b.PaymentAddress != nil {
		o.PaymentAddressID = b.PaymentAddress.ID
	}
	return o, nil
}

// TransformOrderToBasket rebuilds a draft basket from an order snapshot so the
// customer can retry after a gateway error. Address references are recovered
// from the template basket when they still match the order.
func (transformer) TransformOrderToBasket(c *customer.Customer, o *order.Order, template *basket.Basket) *basket.Basket {
	b := basket.New()
	b.Customer = c

	b.Elements = make([]basket.Element, len(o.Items))
	for i, item := range o.Items {
		b.Elements[i] = basket.Element{
			Pos:         i,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		}
		if item.Options != nil {
			opts := make(map[string]string, len(item.Options))
			for k, v := range item.Options {
				opts[k] = v
			}
			b.Elements[i].Options = opts
		}
	}

	if template != nil {
		if template.DeliveryAddress != nil && template.DeliveryAddress.ID == o.DeliveryAddressID {
			b.DeliveryAddress = template.DeliveryAddress
		}
		if template.PaymentAddress != nil && template.PaymentAddress.ID == o.PaymentAddressID {
			b.PaymentAddress = template.PaymentAddress
		}
	}
	b.DeliveryMethod = o.DeliveryMethod
	b.PaymentMethod = o.PaymentMethod
	return b
}
