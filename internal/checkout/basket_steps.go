package checkout

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/checkout-flow/internal/domain/basket"
	"github.com/xenking/checkout-flow/internal/domain/customer"
)

// BasketView is the INDEX step render model: the canonical basket plus any
// element-group violations, always re-derived on view.
type BasketView struct {
	Basket     *basket.Basket
	Violations []basket.Violation
}

// ViewBasket returns the session basket with its current element violations.
func (o *Orchestrator) ViewBasket(ctx context.Context, sessionID string) (*BasketView, error) {
	b, err := o.baskets.Get(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "get basket")
	}
	return &BasketView{
		Basket:     b,
		Violations: basket.Validate(b, basket.GroupElements),
	}, nil
}

// AddProduct adds a line to the session basket, merging quantity when the
// product is already present. Invalid input re-renders with violations instead
// of mutating the basket.
func (o *Orchestrator) AddProduct(ctx context.Context, sessionID string, el basket.Element) ([]basket.Violation, error) {
	var violations []basket.Violation
	if el.ProductID == "" {
		violations = append(violations, basket.Violation{PropertyPath: "product_id", Message: "product is required"})
	}
	if el.Quantity <= 0 {
		violations = append(violations, basket.Violation{PropertyPath: "quantity", Message: "quantity must be greater than 0"})
	}
	if len(violations) > 0 {
		return violations, nil
	}

	b, err := o.baskets.Get(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "get basket")
	}
	b.AddProduct(el)

	if err := o.baskets.Set(ctx, sessionID, b); err != nil {
		return nil, errors.Wrap(err, "store basket")
	}
	return nil, nil
}

// UpdateQuantities applies new line quantities (zero removes the line),
// dropping any method selections derived from the old contents. The update is
// applied to a working copy and written back only when it validates.
func (o *Orchestrator) UpdateQuantities(ctx context.Context, sessionID string, quantities map[int]int) ([]basket.Violation, error) {
	b, err := o.baskets.Get(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "get basket")
	}

	working := b.Clone()
	working.UpdateQuantities(quantities)

	if violations := basket.Validate(working, basket.GroupElements); len(violations) > 0 {
		return violations, nil
	}

	if err := o.baskets.Set(ctx, sessionID, working); err != nil {
		return nil, errors.Wrap(err, "store basket")
	}
	return nil, nil
}

// ResetBasket empties the session basket back to a fresh draft.
func (o *Orchestrator) ResetBasket(ctx context.Context, sessionID string) error {
	if err := o.baskets.Reset(ctx, sessionID); err != nil {
		return errors.Wrap(err, "reset basket")
	}
	return nil
}

// Authenticate binds the resolved customer to the session basket and advances
// to delivery selection. Customer resolution itself belongs to the external
// directory; the orchestrator only records the binding.
func (o *Orchestrator) Authenticate(ctx context.Context, sessionID string, c *customer.Customer) (Step, error) {
	b, err := o.baskets.Get(ctx, sessionID)
	if err != nil {
		return "", errors.Wrap(err, "get basket")
	}
	if b.Count() == 0 {
		return StepIndex, nil
	}

	b.Customer = c
	if err := o.baskets.Set(ctx, sessionID, b); err != nil {
		return "", errors.Wrap(err, "store basket")
	}
	return StepDelivery, nil
}
