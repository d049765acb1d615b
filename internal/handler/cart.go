package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/vitea-labs/storefront-api/internal/domain/cart"
	"github.com/vitea-labs/storefront-api/internal/domain/pricing"
)

// addItemRequest is the draft line posted by the storefront UI. The product
// fields are a display-only snapshot; prices are strings to survive decimal
// round-trips.
type addItemRequest struct {
	VariantID string `json:"variantId"`
	Title     string `json:"title"`
	Handle    string `json:"handle"`
	ImageURL  string `json:"imageUrl"`
	UnitPrice struct {
		Amount       decimal.Decimal `json:"amount"`
		CurrencyCode string          `json:"currencyCode"`
	} `json:"unitPrice"`
	Quantity        int `json:"quantity"`
	SelectedOptions []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"selectedOptions"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), r.Header.Get(CartIDHeader))
	if err != nil {
		internalError(w, r, err)
		return
	}
	h.refreshRatesBestEffort(r.Context())
	h.writeCart(w, http.StatusOK, c)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	line := cart.Line{
		VariantID: req.VariantID,
		Product: cart.ProductSnapshot{
			Title:    req.Title,
			Handle:   req.Handle,
			ImageURL: req.ImageURL,
		},
		UnitPrice: cart.Money{
			Amount:       req.UnitPrice.Amount,
			CurrencyCode: req.UnitPrice.CurrencyCode,
		},
		Quantity: req.Quantity,
	}
	if line.UnitPrice.CurrencyCode == "" {
		line.UnitPrice.CurrencyCode = pricing.BaseCurrency
	}
	for _, o := range req.SelectedOptions {
		line.SelectedOptions = append(line.SelectedOptions, cart.Option{Name: o.Name, Value: o.Value})
	}

	c, err := h.carts.AddItem(r.Context(), r.Header.Get(CartIDHeader), line)
	if err != nil {
		h.mapCartError(w, r, err)
		return
	}
	h.writeCart(w, http.StatusOK, c)
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := h.carts.UpdateQuantity(r.Context(), r.Header.Get(CartIDHeader), r.PathValue("variantID"), req.Quantity)
	if err != nil {
		h.mapCartError(w, r, err)
		return
	}
	h.writeCart(w, http.StatusOK, c)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.RemoveItem(r.Context(), r.Header.Get(CartIDHeader), r.PathValue("variantID"))
	if err != nil {
		h.mapCartError(w, r, err)
		return
	}
	h.writeCart(w, http.StatusOK, c)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Clear(r.Context(), r.Header.Get(CartIDHeader))
	if err != nil {
		h.mapCartError(w, r, err)
		return
	}
	h.writeCart(w, http.StatusOK, c)
}

func (h *Handler) setCurrency(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Currency string `json:"currency"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	// Unknown codes fall back to the base currency rather than erroring:
	// currency selection is cosmetic and must never break the cart.
	code := req.Currency
	if !h.pricing.Known(code) {
		code = pricing.BaseCurrency
	}

	c, err := h.carts.SetCurrency(r.Context(), r.Header.Get(CartIDHeader), code)
	if err != nil {
		h.mapCartError(w, r, err)
		return
	}
	h.writeCart(w, http.StatusOK, c)
}

func (h *Handler) mapCartError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cart.ErrEmptyVariantID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, cart.ErrInvalidQuantity):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		internalError(w, r, err)
	}
}

// writeCart renders the cart with totals in both the base currency and the
// cart's display currency.
func (h *Handler) writeCart(w http.ResponseWriter, status int, c *cart.Cart) {
	w.Header().Set(CartIDHeader, c.ID)
	writeJSON(w, status, func(e *jx.Encoder) {
		h.encodeCart(e, c)
	})
}

func (h *Handler) encodeCart(e *jx.Encoder, c *cart.Cart) {
	total := c.TotalPrice()

	e.ObjStart()
	e.FieldStart("id")
	e.Str(c.ID)
	e.FieldStart("currency")
	e.Str(c.Currency)

	e.FieldStart("lines")
	e.ArrStart()
	for _, l := range c.Lines {
		h.encodeLine(e, l, c.Currency)
	}
	e.ArrEnd()

	e.FieldStart("totalItems")
	e.Int(c.TotalItems())
	e.FieldStart("subtotal")
	encodeMoney(e, total, pricing.BaseCurrency)
	e.FieldStart("displayTotal")
	e.Str(h.pricing.Format(total, c.Currency))
	e.ObjEnd()
}

func (h *Handler) encodeLine(e *jx.Encoder, l cart.Line, currency string) {
	e.ObjStart()
	e.FieldStart("variantId")
	e.Str(l.VariantID)
	e.FieldStart("title")
	e.Str(l.Product.Title)
	e.FieldStart("handle")
	e.Str(l.Product.Handle)
	e.FieldStart("imageUrl")
	e.Str(l.Product.ImageURL)
	e.FieldStart("quantity")
	e.Int(l.Quantity)
	e.FieldStart("unitPrice")
	encodeMoney(e, l.UnitPrice.Amount, l.UnitPrice.CurrencyCode)
	e.FieldStart("displayPrice")
	e.Str(h.pricing.Format(l.UnitPrice.Amount, currency))

	if len(l.SelectedOptions) > 0 {
		e.FieldStart("selectedOptions")
		e.ArrStart()
		for _, o := range l.SelectedOptions {
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

func encodeMoney(e *jx.Encoder, amount decimal.Decimal, currency string) {
	e.ObjStart()
	e.FieldStart("amount")
	e.Str(amount.StringFixed(2))
	e.FieldStart("currencyCode")
	e.Str(currency)
	e.ObjEnd()
}
