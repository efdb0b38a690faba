package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/checkout-flow/internal/domain/payment"
)

// gatewayParams builds the transaction parameter bag from the inbound request:
// query and form body merged, body taking precedence.
func gatewayParams(r *http.Request) payment.Params {
	_ = r.ParseForm()
	return payment.MergeParams(r.URL.Query(), r.PostForm)
}

// gatewayError handles the browser redirect back from a failed gateway
// round-trip.
func (h *Handler) gatewayError(w http.ResponseWriter, r *http.Request) {
	params := gatewayParams(r)

	res, err := h.flow.GatewayError(r.Context(), sessionID(w, r), params.Get(payment.ParamBank), params)
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			rawField(e, "order", res.Order)
			rawField(e, "basket", res.Basket)
		})
	})
}

// gatewayCallback handles the asynchronous notification posted by the gateway
// and answers with the gateway-specific acknowledgment.
func (h *Handler) gatewayCallback(w http.ResponseWriter, r *http.Request) {
	params := gatewayParams(r)

	ack, err := h.flow.GatewayCallback(r.Context(), params.Get(payment.ParamBank), params)
	if err != nil {
		fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", ack.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(ack.Body)
}

// confirmation renders the post-payment confirmation for an order reference.
func (h *Handler) confirmation(w http.ResponseWriter, r *http.Request) {
	params := gatewayParams(r)

	ord, err := h.flow.Confirmation(r.Context(), params.Get(payment.ParamReference))
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			rawField(e, "order", ord)
		})
	})
}
