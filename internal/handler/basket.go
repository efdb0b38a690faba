package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/checkout-flow/internal/domain/basket"
	"github.com/xenking/checkout-flow/internal/domain/customer"
)

// viewBasket renders the INDEX step: the basket and its current violations.
func (h *Handler) viewBasket(w http.ResponseWriter, r *http.Request) {
	view, err := h.flow.ViewBasket(r.Context(), sessionID(w, r))
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			rawField(e, "basket", view.Basket)
			violationsField(e, view.Violations)
		})
	})
}

type addProductRequest struct {
	ProductID   string            `json:"product_id"`
	ProductName string            `json:"product_name"`
	UnitPrice   decimal.Decimal   `json:"unit_price"`
	Quantity    int               `json:"quantity"`
	Options     map[string]string `json:"options"`
}

func (h *Handler) addProduct(w http.ResponseWriter, r *http.Request) {
	var req addProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	violations, err := h.flow.AddProduct(r.Context(), sessionID(w, r), basket.Element{
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		UnitPrice:   req.UnitPrice,
		Quantity:    req.Quantity,
		Options:     req.Options,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	if len(violations) > 0 {
		reRender(w, violations, nil)
		return
	}
	redirect(w, "")
}

type updateBasketRequest struct {
	Quantities map[int]int `json:"quantities"`
}

func (h *Handler) updateBasket(w http.ResponseWriter, r *http.Request) {
	var req updateBasketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	violations, err := h.flow.UpdateQuantities(r.Context(), sessionID(w, r), req.Quantities)
	if err != nil {
		fail(w, r, err)
		return
	}
	if len(violations) > 0 {
		reRender(w, violations, nil)
		return
	}
	redirect(w, "")
}

func (h *Handler) resetBasket(w http.ResponseWriter, r *http.Request) {
	if err := h.flow.ResetBasket(r.Context(), sessionID(w, r)); err != nil {
		fail(w, r, err)
		return
	}
	redirect(w, "")
}

type authenticateRequest struct {
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name"`
}

// authenticate binds the externally-resolved customer to the session basket.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) {
	var req authenticateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CustomerID == "" {
		writeError(w, http.StatusBadRequest, "customer_id is required")
		return
	}

	next, err := h.flow.Authenticate(r.Context(), sessionID(w, r), &customer.Customer{
		ID:   req.CustomerID,
		Name: req.CustomerName,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	redirect(w, next)
}
