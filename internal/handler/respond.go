package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/checkout-flow/internal/checkout"
	"github.com/xenking/checkout-flow/internal/domain/basket"
)

// writeJSON encodes the envelope with jx and writes it with the given status.
func writeJSON(w http.ResponseWriter, status int, build func(e *jx.Encoder)) {
	var e jx.Encoder
	build(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// redirect answers a guidance redirect: 303 with the target step location.
func redirect(w http.ResponseWriter, step checkout.Step) {
	target := stepPath(step)
	w.Header().Set("Location", target)
	writeJSON(w, http.StatusSeeOther, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.FieldStart("redirect")
			e.Str(target)
		})
	})
}

// violationsField appends a violations array field to the current object.
func violationsField(e *jx.Encoder, violations []basket.Violation) {
	e.FieldStart("violations")
	e.Arr(func(e *jx.Encoder) {
		for _, v := range violations {
			e.Obj(func(e *jx.Encoder) {
				e.FieldStart("property_path")
				e.Str(v.PropertyPath)
				e.FieldStart("message")
				e.Str(v.Message)
			})
		}
	})
}

// rawField marshals v with encoding/json and embeds it as a field.
func rawField(e *jx.Encoder, name string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte("null")
	}
	e.FieldStart(name)
	e.Raw(data)
}

// reRender answers a validation failure: 422 with the violations and the step
// render model, for the client to re-show the form.
func reRender(w http.ResponseWriter, violations []basket.Violation, fields map[string]any) {
	writeJSON(w, http.StatusUnprocessableEntity, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			violationsField(e, violations)
			for name, v := range fields {
				rawField(e, name, v)
			}
		})
	})
}

// fail maps orchestrator errors onto the boundary exit classes: NotFound-class
// failures (unresolvable reference or forged handshake) become 404 without
// detail, gateway call failures become 502, everything else is a 500.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	lg := zctx.From(r.Context())
	switch {
	case errors.Is(err, checkout.ErrNotFound):
		lg.Warn("not found", zap.Error(err))
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, checkout.ErrGatewayCall):
		lg.Error("gateway call failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "gateway unavailable")
	case errors.Is(err, checkout.ErrInvalidBasketState):
		lg.Error("invalid basket state", zap.Error(err))
		writeError(w, http.StatusConflict, err.Error())
	default:
		lg.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.FieldStart("code")
			e.Int(status)
			e.FieldStart("message")
			e.Str(message)
		})
	})
}
