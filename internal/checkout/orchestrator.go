// Package checkout drives a session basket through delivery selection, payment
// selection, final review, and gateway submission, owning the state
// transitions and invariant checks between them.
package checkout

import (
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/checkout-flow/internal/domain/basket"
	"github.com/xenking/checkout-flow/internal/domain/customer"
	"github.com/xenking/checkout-flow/internal/domain/delivery"
	"github.com/xenking/checkout-flow/internal/domain/order"
	"github.com/xenking/checkout-flow/internal/domain/payment"
)

// Step identifies a checkout step for guidance redirects.
type Step string

const (
	// StepIndex is the basket editing page.
	StepIndex Step = "index"
	// StepAuth is the customer authentication step.
	StepAuth Step = "auth"
	// StepDelivery is the delivery method selection step.
	StepDelivery Step = "delivery"
	// StepPayment is the payment method selection step.
	StepPayment Step = "payment"
	// StepFinal is the final review step.
	StepFinal Step = "final"
)

// Sentinel errors surfaced by the orchestrator.
var (
	// ErrInvalidBasketState reports that method selection was unavailable for
	// the current basket. Propagated to the caller only in diagnostic mode;
	// converted to a guidance redirect otherwise.
	ErrInvalidBasketState = errors.New("invalid basket state")
	// ErrNotFound is the externally-visible outcome for both an unresolvable
	// order reference and a failed gateway handshake, so a forged request
	// cannot learn whether a reference exists.
	ErrNotFound = errors.New("not found")
)

// Config tunes orchestrator behavior.
type Config struct {
	// Debug enables diagnostic mode: payment-step selection failures are
	// propagated to the caller for inspection instead of redirecting.
	Debug bool
	// EligibilityTimeout bounds each provider eligibility call.
	EligibilityTimeout time.Duration
}

// Orchestrator owns the checkout state machine. It holds only transient
// references during a single request; baskets live in the session store and
// orders/transactions in persistent storage.
type Orchestrator struct {
	baskets      basket.Store
	addresses    customer.AddressRepository
	deliveryPool *delivery.Pool
	deliverySel  *delivery.Selector
	paymentPool  *payment.Pool
	paymentSel   *payment.Selector
	orders       order.Repository
	refs         order.ReferenceGenerator
	transactions payment.TransactionRepository
	locks        *sessionLocks
	debug        bool
}

// New wires an Orchestrator from its collaborators.
func New(
	cfg Config,
	baskets basket.Store,
	addresses customer.AddressRepository,
	deliveryPool *delivery.Pool,
	paymentPool *payment.Pool,
	orders order.Repository,
	refs order.ReferenceGenerator,
	transactions payment.TransactionRepository,
) *Orchestrator {
	return &Orchestrator{
		baskets:      baskets,
		addresses:    addresses,
		deliveryPool: deliveryPool,
		deliverySel:  delivery.NewSelector(deliveryPool, cfg.EligibilityTimeout),
		paymentPool:  paymentPool,
		paymentSel:   payment.NewSelector(paymentPool, cfg.EligibilityTimeout),
		orders:       orders,
		refs:         refs,
		transactions: transactions,
		locks:        newSessionLocks(),
		debug:        cfg.Debug,
	}
}

// guard checks the entry conditions shared by every step past INDEX: at least
// one element and a resolved customer. It returns the guidance redirect target,
// or an empty Step when the basket may advance.
func guard(b *basket.Basket) Step {
	if b.Count() == 0 {
		return StepIndex
	}
	if b.Customer == nil {
		return StepAuth
	}
	return ""
}
