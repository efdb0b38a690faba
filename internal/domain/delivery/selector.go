package delivery

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/checkout-flow/internal/domain/basket"
	"github.com/xenking/checkout-flow/internal/domain/customer"
)

// ErrUnavailable signals that the selection process itself failed: no provider
// is configured, or a provider errored or timed out. It is distinct from a
// normal empty result (zero providers currently eligible) and callers must
// treat it as a hard stop back to basket re-validation.
var ErrUnavailable = errors.New("delivery method selection unavailable")

// DefaultEligibilityTimeout bounds each provider eligibility call.
const DefaultEligibilityTimeout = 2 * time.Second

// Selector derives the ordered set of eligible delivery methods for a basket
// and address. Eligibility is re-derived on every call; nothing is cached
// across basket mutations.
type Selector struct {
	pool    *Pool
	timeout time.Duration
}

// NewSelector returns a Selector over the pool. A non-positive timeout falls
// back to DefaultEligibilityTimeout.
func NewSelector(pool *Pool, timeout time.Duration) *Selector {
	if timeout <= 0 {
		timeout = DefaultEligibilityTimeout
	}
	return &Selector{pool: pool, timeout: timeout}
}

// SelectEligible queries every registered provider concurrently and returns
// the eligible methods in registration order. Any provider error or timeout
// yields ErrUnavailable rather than a silently shorter list.
func (s *Selector) SelectEligible(ctx context.Context, b *basket.Basket, addr *customer.Address) ([]Method, error) {
	codes := s.pool.Codes()
	if len(codes) == 0 {
		return nil, errors.Wrap(ErrUnavailable, "no providers configured")
	}

	eligible := make([]bool, len(codes))
	g, gctx := errgroup.WithContext(ctx)
	for i, code := range codes {
		prov, _ := s.pool.Get(code)
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, s.timeout)
			defer cancel()

			ok, err := prov.IsEligible(callCtx, b, addr)
			if err != nil {
				return errors.Wrapf(err, "provider %s", prov.Code())
			}
			eligible[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "%v", err)
	}

	methods := make([]Method, 0, len(codes))
	for i, code := range codes {
		if !eligible[i] {
			continue
		}
		prov, _ := s.pool.Get(code)
		methods = append(methods, Method{Code: prov.Code(), Name: prov.Name()})
	}
	return methods, nil
}
