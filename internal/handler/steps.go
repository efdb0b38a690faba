package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/checkout-flow/internal/checkout"
)

type stepRequest struct {
	AddressID  string `json:"address_id"`
	MethodCode string `json:"method_code"`
}

// stepSubmission decodes the submission body on POST; a GET is a passive view.
func stepSubmission(r *http.Request) (*checkout.StepSubmission, error) {
	if r.Method != http.MethodPost {
		return nil, nil
	}
	var req stepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, err
	}
	return &checkout.StepSubmission{AddressID: req.AddressID, MethodCode: req.MethodCode}, nil
}

func (h *Handler) deliveryStep(w http.ResponseWriter, r *http.Request) {
	sub, err := stepSubmission(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.flow.DeliveryStep(r.Context(), sessionID(w, r), sub)
	if err != nil {
		fail(w, r, err)
		return
	}
	switch {
	case res.Redirect != "":
		redirect(w, res.Redirect)
	case res.Next != "":
		redirect(w, res.Next)
	case len(res.Violations) > 0:
		reRender(w, res.Violations, map[string]any{
			"basket":    res.Basket,
			"addresses": res.Addresses,
			"methods":   res.Methods,
		})
	default:
		writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				rawField(e, "basket", res.Basket)
				rawField(e, "addresses", res.Addresses)
				rawField(e, "methods", res.Methods)
			})
		})
	}
}

func (h *Handler) paymentStep(w http.ResponseWriter, r *http.Request) {
	sub, err := stepSubmission(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.flow.PaymentStep(r.Context(), sessionID(w, r), sub)
	if err != nil {
		fail(w, r, err)
		return
	}
	switch {
	case res.Redirect != "":
		redirect(w, res.Redirect)
	case res.Next != "":
		redirect(w, res.Next)
	case len(res.Violations) > 0:
		reRender(w, res.Violations, map[string]any{
			"basket":    res.Basket,
			"addresses": res.Addresses,
			"methods":   res.Methods,
		})
	default:
		writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				rawField(e, "basket", res.Basket)
				rawField(e, "addresses", res.Addresses)
				rawField(e, "methods", res.Methods)
			})
		})
	}
}

type finalReviewRequest struct {
	Tac bool `json:"tac"`
}

// finalReview re-validates the whole basket and, on an acknowledged POST,
// converts it and answers with the gateway redirect.
func (h *Handler) finalReview(w http.ResponseWriter, r *http.Request) {
	submitted := r.Method == http.MethodPost
	tac := false
	if submitted {
		var req finalReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		tac = req.Tac
	}

	res, err := h.flow.FinalReview(r.Context(), sessionID(w, r), submitted, tac)
	if err != nil {
		fail(w, r, err)
		return
	}
	switch {
	case res.Redirect != "":
		redirect(w, res.Redirect)
	case res.Submit != nil:
		h.writeSubmit(w, res.Submit)
	default:
		writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				rawField(e, "basket", res.Basket)
				e.FieldStart("tac_error")
				e.Bool(res.TacError)
			})
		})
	}
}

// writeSubmit answers a gateway submission: a redirect to the bank page, or a
// guidance redirect when a guard failed.
func (h *Handler) writeSubmit(w http.ResponseWriter, res *checkout.SubmitResult) {
	if res.Redirect != "" {
		redirect(w, res.Redirect)
		return
	}

	w.Header().Set("Location", res.Instruction.RedirectURL)
	writeJSON(w, http.StatusSeeOther, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.FieldStart("reference")
			e.Str(res.Order.Reference)
			e.FieldStart("redirect")
			e.Str(res.Instruction.RedirectURL)
		})
	})
}
