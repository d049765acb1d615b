package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/vitea-labs/storefront-api/internal/domain/tracking"
)

// trackOrder looks up fulfillment status by order number AND email. Both are
// required, and a wrong email gets the same 404 as a wrong order number so
// the endpoint cannot be used to probe which orders exist.
func (h *Handler) trackOrder(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	info, err := h.tracking.Track(r.Context(), q.Get("order"), q.Get("email"))
	switch {
	case errors.Is(err, tracking.ErrMissingCredentials):
		writeError(w, http.StatusBadRequest, "order number and email are required")
		return
	case errors.Is(err, tracking.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
		return
	case err != nil:
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("orderNumber")
		e.Str(info.OrderNumber)
		e.FieldStart("status")
		e.Str(info.Status)
		if info.Carrier != "" {
			e.FieldStart("carrier")
			e.Str(info.Carrier)
		}
		if info.TrackingNumber != "" {
			e.FieldStart("trackingNumber")
			e.Str(info.TrackingNumber)
		}
		if info.TrackingURL != "" {
			e.FieldStart("trackingUrl")
			e.Str(info.TrackingURL)
		}
		e.FieldStart("updatedAt")
		e.Str(info.UpdatedAt.UTC().Format(time.RFC3339))
		e.ObjEnd()
	})
}
