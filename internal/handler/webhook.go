package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/vitea-labs/storefront-api/internal/domain/tracking"
	"github.com/vitea-labs/storefront-api/internal/webhook"
)

// maxWebhookBody bounds fulfillment payloads. Legitimate updates are tiny.
const maxWebhookBody = 64 << 10

type fulfillmentPayload struct {
	OrderNumber    string `json:"orderNumber"`
	Email          string `json:"email"`
	Status         string `json:"status"`
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"trackingNumber"`
	TrackingURL    string `json:"trackingUrl"`
}

// receiveWebhook accepts signed fulfillment updates from the logistics
// provider. The signature covers the raw body, so it is read in full before
// any decoding.
func (h *Handler) receiveWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	err = h.webhooks.Verify(
		r.Header.Get(webhook.SignatureHeader),
		r.Header.Get(webhook.TimestampHeader),
		body,
	)
	if err != nil {
		zctx.From(r.Context()).Warn("webhook rejected", zap.Error(err))
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var p fulfillmentPayload
	if err := json.Unmarshal(body, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.OrderNumber == "" {
		writeError(w, http.StatusBadRequest, "orderNumber is required")
		return
	}

	err = h.tracking.ApplyUpdate(r.Context(), tracking.StatusUpdate{
		OrderNumber:    p.OrderNumber,
		Email:          p.Email,
		Status:         p.Status,
		Carrier:        p.Carrier,
		TrackingNumber: p.TrackingNumber,
		TrackingURL:    p.TrackingURL,
	})
	if err != nil {
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("received")
		e.Bool(true)
		e.ObjEnd()
	})
}
