package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/vitea-labs/storefront-api/internal/domain/newsletter"
	"github.com/vitea-labs/storefront-api/internal/turnstile"
	"github.com/vitea-labs/storefront-api/pkg/httpmiddleware"
)

type subscribeRequest struct {
	Email          string `json:"email"`
	TurnstileToken string `json:"turnstileToken"`
	DiscountCode   string `json:"discountCode"`
}

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.newsletter.Subscribe(r.Context(), newsletter.SubscribeRequest{
		Email:          req.Email,
		TurnstileToken: req.TurnstileToken,
		DiscountCode:   req.DiscountCode,
		RemoteIP:       httpmiddleware.ClientIP(r),
	})
	switch {
	case err == nil:
	case errors.Is(err, newsletter.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	case errors.Is(err, turnstile.ErrChallengeFailed):
		writeError(w, http.StatusForbidden, "challenge verification failed")
		return
	case errors.Is(err, newsletter.ErrAlreadySubscribed):
		writeError(w, http.StatusConflict, "email is already subscribed")
		return
	default:
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("subscribed")
		e.Bool(true)
		e.ObjEnd()
	})
}
