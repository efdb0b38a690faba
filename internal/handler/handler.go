// Package handler exposes the checkout steps and gateway endpoints over HTTP,
// mapping orchestrator step results onto redirects, re-renders, and hard
// failures.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/xenking/checkout-flow/internal/checkout"
)

// sessionCookie carries the checkout session identity between requests.
const sessionCookie = "checkout_session"

// Handler wires the orchestrator to the HTTP surface.
type Handler struct {
	flow *checkout.Orchestrator
}

// New constructs a Handler around the orchestrator.
func New(flow *checkout.Orchestrator) *Handler {
	return &Handler{flow: flow}
}

// Routes returns the checkout and gateway route tree.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/checkout", func(r chi.Router) {
		r.Get("/basket", h.viewBasket)
		r.Post("/basket/add", h.addProduct)
		r.Post("/basket/update", h.updateBasket)
		r.Post("/basket/reset", h.resetBasket)
		r.Post("/auth", h.authenticate)
		r.Get("/delivery", h.deliveryStep)
		r.Post("/delivery", h.deliveryStep)
		r.Get("/payment", h.paymentStep)
		r.Post("/payment", h.paymentStep)
		r.Get("/final", h.finalReview)
		r.Post("/final", h.finalReview)
	})

	r.Route("/payment", func(r chi.Router) {
		r.Get("/error", h.gatewayError)
		r.Post("/error", h.gatewayError)
		r.Post("/callback", h.gatewayCallback)
		r.Get("/confirmation", h.confirmation)
	})

	return r
}

// sessionID returns the checkout session identity, minting a cookie on first
// contact. The session must survive across requests for the whole checkout.
func sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// stepPath maps a checkout step to its endpoint for guidance redirects.
func stepPath(s checkout.Step) string {
	switch s {
	case checkout.StepAuth:
		return "/checkout/auth"
	case checkout.StepDelivery:
		return "/checkout/delivery"
	case checkout.StepPayment:
		return "/checkout/payment"
	case checkout.StepFinal:
		return "/checkout/final"
	default:
		return "/checkout/basket"
	}
}
