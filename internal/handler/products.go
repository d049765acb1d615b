package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/vitea-labs/storefront-api/internal/domain/pricing"
	"github.com/vitea-labs/storefront-api/internal/shopify"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	first := h.cfg.CatalogPageSize
	if raw := r.URL.Query().Get("first"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "first must be an integer between 1 and 100")
			return
		}
		first = n
	}
	currency := h.displayCurrency(r)

	products, err := h.catalog.ListProducts(r.Context(), first)
	if err != nil {
		internalError(w, r, err)
		return
	}
	h.refreshRatesBestEffort(r.Context())

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("products")
		e.ArrStart()
		for _, p := range products {
			h.encodeProduct(e, p, currency)
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.ProductByHandle(r.Context(), r.PathValue("handle"))
	if err != nil {
		if errors.Is(err, shopify.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		internalError(w, r, err)
		return
	}
	h.refreshRatesBestEffort(r.Context())

	currency := h.displayCurrency(r)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeProduct(e, *p, currency)
	})
}

// displayCurrency picks the display currency from the query string, falling
// back to the base currency for unknown codes.
func (h *Handler) displayCurrency(r *http.Request) string {
	code := r.URL.Query().Get("currency")
	if code == "" || !h.pricing.Known(code) {
		return pricing.BaseCurrency
	}
	return code
}

func (h *Handler) encodeProduct(e *jx.Encoder, p shopify.Product, currency string) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("title")
	e.Str(p.Title)
	e.FieldStart("handle")
	e.Str(p.Handle)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("imageUrl")
	e.Str(p.ImageURL)

	e.FieldStart("variants")
	e.ArrStart()
	for _, v := range p.Variants {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(v.ID)
		e.FieldStart("title")
		e.Str(v.Title)
		e.FieldStart("availableForSale")
		e.Bool(v.AvailableForSale)
		e.FieldStart("price")
		encodeMoney(e, v.Price.Amount, v.Price.CurrencyCode)
		e.FieldStart("displayPrice")
		e.Str(h.pricing.Format(v.Price.Amount, currency))

		if len(v.SelectedOptions) > 0 {
			e.FieldStart("selectedOptions")
			e.ArrStart()
			for _, o := range v.SelectedOptions {
				e.ObjStart()
				e.FieldStart("name")
				e.Str(o.Name)
				e.FieldStart("value")
				e.Str(o.Value)
				e.ObjEnd()
			}
			e.ArrEnd()
		}
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}
