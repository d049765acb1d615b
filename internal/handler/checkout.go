package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/vitea-labs/storefront-api/internal/domain/checkout"
)

// initiateCheckout creates one platform checkout session from the cart and
// returns the canonical checkout URL. The local cart is left intact so an
// abandoned checkout can be retried.
func (h *Handler) initiateCheckout(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), r.Header.Get(CartIDHeader))
	if err != nil {
		internalError(w, r, err)
		return
	}

	url, err := h.checkout.Initiate(r.Context(), c)
	if err != nil {
		h.mapCheckoutError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("checkoutUrl")
		e.Str(url)
		e.ObjEnd()
	})
}

// mapCheckoutError translates the checkout error taxonomy to HTTP statuses:
// local validation → 4xx before any network call; platform rejections →
// 422 with platform messages verbatim; contract violations → 502 and logged
// as misconfiguration; transport failures → 503 with a retry hint.
func (h *Handler) mapCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ivErr *checkout.InvalidVariantError
		rjErr *checkout.RejectedError
		trErr *checkout.TransportError
	)

	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "cart is empty")

	case errors.As(err, &ivErr):
		writeError(w, http.StatusUnprocessableEntity, ivErr.Error())

	case errors.As(err, &rjErr):
		writeError(w, http.StatusUnprocessableEntity, rjErr.Error())

	case errors.Is(err, checkout.ErrMissingCheckoutURL), errors.Is(err, checkout.ErrWrongCheckoutHost):
		zctx.From(r.Context()).Error("checkout platform contract violation", zap.Error(err))
		writeError(w, http.StatusBadGateway, "checkout is temporarily unavailable")

	case errors.As(err, &trErr):
		writeError(w, http.StatusServiceUnavailable, "checkout request failed, please try again")

	default:
		internalError(w, r, err)
	}
}
