package checkout

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/checkout-flow/internal/domain/basket"
	"github.com/xenking/checkout-flow/internal/domain/customer"
	"github.com/xenking/checkout-flow/internal/domain/delivery"
	"github.com/xenking/checkout-flow/internal/domain/order"
	"github.com/xenking/checkout-flow/internal/domain/payment"
)

// StepSubmission carries the customer's method-selection choice. A nil
// submission renders the step without binding anything.
type StepSubmission struct {
	AddressID  string
	MethodCode string
}

// DeliveryStepResult is the outcome of the delivery selection step.
type DeliveryStepResult struct {
	// Redirect, when set, is a guidance redirect to an earlier step.
	Redirect Step
	// Next is set after a successful submission.
	Next Step
	// Render model for the step view.
	Basket     *basket.Basket
	Addresses  []customer.Address
	Methods    []delivery.Method
	Violations []basket.Violation
}

// DeliveryStep renders or submits delivery selection. The step works on a
// clone of the session basket; the clone becomes canonical only when the
// submission validates, so an abandoned step leaves the basket untouched.
func (o *Orchestrator) DeliveryStep(ctx context.Context, sessionID string, sub *StepSubmission) (*DeliveryStepResult, error) {
	b, err := o.baskets.Get(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "get basket")
	}
	if redirect := guard(b); redirect != "" {
		return &DeliveryStepResult{Redirect: redirect}, nil
	}

	working := b.Clone()

	addrs, err := o.addresses.FindByCustomerAndType(ctx, working.Customer.ID, customer.AddressDelivery)
	if err != nil {
		return nil, errors.Wrap(err, "find delivery addresses")
	}
	if violations := bindAddress(working.SetDeliveryAddress, working.DeliveryAddress, addrs, sub); violations != nil {
		return &DeliveryStepResult{Basket: working, Addresses: addrs, Violations: violations}, nil
	}

	methods, err := o.deliverySel.SelectEligible(ctx, working, working.DeliveryAddress)
	if err != nil {
		// Selection failure always routes back to basket re-validation.
		zctx.From(ctx).Warn("delivery selection unavailable", zap.Error(err))
		return &DeliveryStepResult{Redirect: StepIndex}, nil
	}

	res := &DeliveryStepResult{Basket: working, Addresses: addrs, Methods: methods}
	if sub == nil {
		return res, nil
	}

	if !containsDeliveryMethod(methods, sub.MethodCode) {
		res.Violations = []basket.Violation{{PropertyPath: "delivery_method", Message: "method is not eligible"}}
		return res, nil
	}
	working.DeliveryMethod = sub.MethodCode

	if res.Violations = basket.Validate(working, basket.GroupDelivery); len(res.Violations) > 0 {
		return res, nil
	}

	if err := o.baskets.Set(ctx, sessionID, working); err != nil {
		return nil, errors.Wrap(err, "store basket")
	}
	res.Next = StepPayment
	return res, nil
}

// PaymentStepResult is the outcome of the payment selection step.
type PaymentStepResult struct {
	Redirect   Step
	Next       Step
	Basket     *basket.Basket
	Addresses  []customer.Address
	Methods    []payment.Method
	Violations []basket.Violation
}

// PaymentStep renders or submits payment selection, symmetric to DeliveryStep
// with billing addresses. In diagnostic mode a selection failure propagates to
// the caller for inspection; in normal operation it becomes a guidance redirect
// so production users never see a gateway-selection error.
func (o *Orchestrator) PaymentStep(ctx context.Context, sessionID string, sub *StepSubmission) (*PaymentStepResult, error) {
	b, err := o.baskets.Get(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "get basket")
	}
	if redirect := guard(b); redirect != "" {
		return &PaymentStepResult{Redirect: redirect}, nil
	}

	working := b.Clone()

	addrs, err := o.addresses.FindByCustomerAndType(ctx, working.Customer.ID, customer.AddressBilling)
	if err != nil {
		return nil, errors.Wrap(err, "find billing addresses")
	}
	if violations := bindAddress(working.SetPaymentAddress, working.PaymentAddress, addrs, sub); violations != nil {
		return &PaymentStepResult{Basket: working, Addresses: addrs, Violations: violations}, nil
	}

	methods, err := o.paymentSel.SelectEligible(ctx, working, working.PaymentAddress)
	if err != nil {
		if o.debug {
			return nil, errors.Wrapf(ErrInvalidBasketState, "payment selection: %v", err)
		}
		zctx.From(ctx).Warn("payment selection unavailable", zap.Error(err))
		return &PaymentStepResult{Redirect: StepIndex}, nil
	}

	res := &PaymentStepResult{Basket: working, Addresses: addrs, Methods: methods}
	if sub == nil {
		return res, nil
	}

	if !containsPaymentMethod(methods, sub.MethodCode) {
		res.Violations = []basket.Violation{{PropertyPath: "payment_method", Message: "method is not eligible"}}
		return res, nil
	}
	working.PaymentMethod = sub.MethodCode

	if res.Violations = basket.Validate(working, basket.GroupPayment); len(res.Violations) > 0 {
		return res, nil
	}

	if err := o.baskets.Set(ctx, sessionID, working); err != nil {
		return nil, errors.Wrap(err, "store basket")
	}
	res.Next = StepFinal
	return res, nil
}

// FinalReviewResult is the outcome of the final review step.
type FinalReviewResult struct {
	Redirect Step
	Basket   *basket.Basket
	// TacError reports a submission without the terms-of-service flag; the
	// review page is re-shown rather than failing hard.
	TacError bool
	// Submit carries the gateway submission outcome when the review was
	// accepted.
	Submit *SubmitResult
}

// FinalReview re-validates the whole basket, then either re-renders the review
// or, on an acknowledged submission, hands off to the gateway submission.
func (o *Orchestrator) FinalReview(ctx context.Context, sessionID string, submitted, tac bool) (*FinalReviewResult, error) {
	b, err := o.baskets.Get(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "get basket")
	}

	violations := basket.Validate(b, basket.GroupElements, basket.GroupDelivery, basket.GroupPayment)
	if len(violations) > 0 {
		return &FinalReviewResult{Redirect: StepIndex}, nil
	}

	if !submitted {
		return &FinalReviewResult{Basket: b}, nil
	}
	if !tac {
		return &FinalReviewResult{Basket: b, TacError: true}, nil
	}

	submit, err := o.SubmitToGateway(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &FinalReviewResult{Submit: submit}, nil
}

// SubmitResult is the outcome of the gateway submission.
type SubmitResult struct {
	// Redirect, when set, reports a failed guard with no side effects.
	Redirect Step
	// Order is the persisted order once the conversion is committed.
	Order *order.Order
	// Instruction is the outbound gateway side effect (bank redirect).
	Instruction payment.GatewayInstruction
}

// ErrGatewayCall reports that the outbound gateway delegation failed after the
// conversion was already committed. The order stays persisted and the basket
// stays reset; this is a gateway-integration concern, not a basket-state one.
var ErrGatewayCall = errors.New("gateway call failed")

// SubmitToGateway converts the basket into a persisted order and delegates to
// the payment provider's outbound call. The read-validate-convert-reset
// sequence runs under the session lock, so a concurrent second submission
// observes the reset basket and fails its guards instead of double-converting.
func (o *Orchestrator) SubmitToGateway(ctx context.Context, sessionID string) (*SubmitResult, error) {
	release := o.locks.acquire(sessionID)
	defer release()

	b, err := o.baskets.Get(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "get basket")
	}

	// Guard 2: the basket must independently validate as a whole.
	if violations := basket.Validate(b, basket.GroupElements, basket.GroupDelivery, basket.GroupPayment); len(violations) > 0 {
		return &SubmitResult{Redirect: StepIndex}, nil
	}

	// Guard 3: the selected provider must confirm continued compatibility.
	provider, ok := o.paymentPool.Get(b.PaymentMethod)
	if !ok || !provider.IsBasketCompatible(b) {
		return &SubmitResult{Redirect: StepIndex}, nil
	}

	ord, err := provider.TransformBasketToOrder(b)
	if err != nil {
		return nil, errors.Wrap(err, "transform basket")
	}
	if err := o.refs.Assign(ctx, ord); err != nil {
		return nil, errors.Wrap(err, "assign reference")
	}
	if err := o.orders.Save(ctx, ord); err != nil {
		return nil, errors.Wrap(err, "save order")
	}
	if err := o.baskets.Reset(ctx, sessionID); err != nil {
		return nil, errors.Wrap(err, "reset basket")
	}

	zctx.From(ctx).Info("order created",
		zap.String("reference", ord.Reference),
		zap.String("payment_method", ord.PaymentMethod),
	)

	// The conversion is committed; an outbound failure must not roll it back.
	instruction, err := provider.CallGateway(ord)
	if err != nil {
		return &SubmitResult{Order: ord}, errors.Wrapf(ErrGatewayCall, "%v", err)
	}
	return &SubmitResult{Order: ord, Instruction: instruction}, nil
}

// bindAddress resolves the step address: an explicit choice must be one of the
// candidates, otherwise the previous selection is kept when still a candidate,
// defaulting to the first candidate. Returns violations for an unknown choice.
func bindAddress(set func(*customer.Address), current *customer.Address, addrs []customer.Address, sub *StepSubmission) []basket.Violation {
	if sub != nil && sub.AddressID != "" {
		for i := range addrs {
			if addrs[i].ID == sub.AddressID {
				set(&addrs[i])
				return nil
			}
		}
		return []basket.Violation{{PropertyPath: "address", Message: "unknown address"}}
	}

	if current != nil {
		for i := range addrs {
			if addrs[i].ID == current.ID {
				set(&addrs[i])
				return nil
			}
		}
	}
	if len(addrs) > 0 {
		set(&addrs[0])
	} else {
		set(nil)
	}
	return nil
}

func containsDeliveryMethod(methods []delivery.Method, code string) bool {
	for _, m := range methods {
		if m.Code == code {
			return true
		}
	}
	return false
}

func containsPaymentMethod(methods []payment.Method, code string) bool {
	for _, m := range methods {
		if m.Code == code {
			return true
		}
	}
	return false
}
