package handler

import (
	"net/http"
	"sort"

	"github.com/go-faster/jx"

	"github.com/vitea-labs/storefront-api/internal/domain/pricing"
)

// getRates returns the current exchange rate table. A refresh is attempted
// first when the cache has gone stale, but the endpoint always answers 200
// with the best rates it has: fallback rates are better than no rates.
func (h *Handler) getRates(w http.ResponseWriter, r *http.Request) {
	h.refreshRatesBestEffort(r.Context())

	rates := h.pricing.Rates()
	codes := make([]string, 0, len(rates))
	for code := range rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("success")
		e.Bool(true)
		e.FieldStart("base")
		e.Str(pricing.BaseCurrency)
		e.FieldStart("rates")
		e.ObjStart()
		for _, code := range codes {
			e.FieldStart(code)
			e.Str(rates[code].String())
		}
		e.ObjEnd()
		e.ObjEnd()
	})
}
