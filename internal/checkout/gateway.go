package checkout

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/checkout-flow/internal/domain/basket"
	"github.com/xenking/checkout-flow/internal/domain/order"
	"github.com/xenking/checkout-flow/internal/domain/payment"
)

// buildTransaction creates the audit record for one inbound gateway request
// and lets the provider lift its transaction identifier from the parameters.
func buildTransaction(provider payment.Provider, params payment.Params) *payment.Transaction {
	tx := payment.NewTransaction(provider.Code(), params)
	provider.ApplyTransactionID(tx)
	return tx
}

// resolveProvider maps the method code carried in the request to its provider.
// An unknown code is a NotFound-class failure, indistinguishable from an
// unresolvable reference.
func (o *Orchestrator) resolveProvider(code string) (payment.Provider, error) {
	provider, ok := o.paymentPool.Get(code)
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "payment method %q", code)
	}
	return provider, nil
}

// GatewayErrorResult is the render model of the gateway error-return path.
type GatewayErrorResult struct {
	Order  *order.Order
	Basket *basket.Basket
}

// GatewayError handles the browser redirect back from a failed gateway
// round-trip: it validates the handshake, records the failure, and rebuilds
// the session basket from the order so the customer can retry.
func (o *Orchestrator) GatewayError(ctx context.Context, sessionID, methodCode string, params payment.Params) (*GatewayErrorResult, error) {
	provider, err := o.resolveProvider(methodCode)
	if err != nil {
		return nil, err
	}

	tx := buildTransaction(provider, params)

	reference := provider.OrderReference(tx)
	ord, err := o.orders.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "order %s", reference)
		}
		return nil, errors.Wrap(err, "find order")
	}
	tx.Order = ord

	// The handshake gates everything below: a forged request must not learn
	// basket or order state.
	if !provider.IsRequestValid(tx) {
		return nil, errors.Wrapf(ErrNotFound, "invalid check - order %s", reference)
	}
	tx.Status = payment.TransactionValidated

	if err := provider.HandleError(ctx, tx); err != nil {
		return nil, errors.Wrap(err, "handle error")
	}
	if err := o.transactions.Save(ctx, tx); err != nil {
		return nil, errors.Wrap(err, "save transaction")
	}
	if err := o.orders.Save(ctx, ord); err != nil {
		return nil, errors.Wrap(err, "save order")
	}

	// Rebuild the basket from the order so the customer can retry without
	// re-entering the cart.
	current, err := o.baskets.Get(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "get basket")
	}
	rebuilt := provider.TransformOrderToBasket(current.Customer, ord, current)
	if err := o.baskets.Set(ctx, sessionID, rebuilt); err != nil {
		return nil, errors.Wrap(err, "store basket")
	}

	zctx.From(ctx).Info("gateway error handled",
		zap.String("reference", reference),
		zap.String("payment_method", methodCode),
	)
	return &GatewayErrorResult{Order: ord, Basket: rebuilt}, nil
}

// GatewayCallback handles the asynchronous out-of-band notification from the
// gateway. Confirmation is idempotent per order reference: duplicate valid
// callbacks store additional transaction records for the audit trail but
// confirm the order exactly once.
func (o *Orchestrator) GatewayCallback(ctx context.Context, methodCode string, params payment.Params) (payment.Ack, error) {
	provider, err := o.resolveProvider(methodCode)
	if err != nil {
		return payment.Ack{}, err
	}

	tx := buildTransaction(provider, params)

	reference := provider.OrderReference(tx)
	ord, err := o.orders.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return payment.Ack{}, errors.Wrapf(ErrNotFound, "order %s", reference)
		}
		return payment.Ack{}, errors.Wrap(err, "find order")
	}
	tx.Order = ord

	if !provider.IsCallbackValid(tx) {
		if err := provider.HandleError(ctx, tx); err != nil {
			return payment.Ack{}, errors.Wrap(err, "handle error")
		}
		if err := o.transactions.Save(ctx, tx); err != nil {
			return payment.Ack{}, errors.Wrap(err, "save transaction")
		}
		zctx.From(ctx).Warn("invalid callback check", zap.String("reference", reference))
		return payment.Ack{ContentType: "text/plain", Body: []byte("ko")}, nil
	}
	tx.Status = payment.TransactionValidated

	ack, err := provider.SendConfirmationReceipt(ctx, tx)
	if err != nil {
		return payment.Ack{}, errors.Wrap(err, "send confirmation receipt")
	}

	if err := o.transactions.Save(ctx, tx); err != nil {
		return payment.Ack{}, errors.Wrap(err, "save transaction")
	}

	confirmed, err := o.orders.Confirm(ctx, reference)
	if err != nil {
		return payment.Ack{}, errors.Wrap(err, "confirm order")
	}
	if confirmed {
		zctx.From(ctx).Info("order confirmed", zap.String("reference", reference))
	} else {
		zctx.From(ctx).Debug("duplicate callback ignored", zap.String("reference", reference))
	}
	return ack, nil
}

// Confirmation resolves the order shown on the post-payment confirmation page.
func (o *Orchestrator) Confirmation(ctx context.Context, reference string) (*order.Order, error) {
	ord, err := o.orders.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "order %s", reference)
		}
		return nil, errors.Wrap(err, "find order")
	}
	return ord, nil
}
