// Package handler wires the domain services to the HTTP surface. Handlers
// decode requests, delegate to domain services, and map domain errors to
// status codes; no business logic lives here.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/vitea-labs/storefront-api/internal/domain/cart"
	"github.com/vitea-labs/storefront-api/internal/domain/checkout"
	"github.com/vitea-labs/storefront-api/internal/domain/newsletter"
	"github.com/vitea-labs/storefront-api/internal/domain/pricing"
	"github.com/vitea-labs/storefront-api/internal/domain/tracking"
	"github.com/vitea-labs/storefront-api/internal/shopify"
	"github.com/vitea-labs/storefront-api/internal/webhook"
)

// CartIDHeader carries the shopper's cart identifier. Responses echo the ID
// so the client can persist it.
const CartIDHeader = "X-Cart-ID"

// Catalog provides read access to the commerce platform's product catalog.
// Implemented by *shopify.Client.
type Catalog interface {
	ListProducts(ctx context.Context, first int) ([]shopify.Product, error)
	ProductByHandle(ctx context.Context, handle string) (*shopify.Product, error)
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// CatalogPageSize is the default product page size when the client does
	// not specify one.
	CatalogPageSize int
}

// Handler exposes the storefront HTTP API.
type Handler struct {
	cfg        Config
	carts      *cart.Service
	checkout   *checkout.Initiator
	pricing    *pricing.Store
	catalog    Catalog
	newsletter *newsletter.Service
	tracking   *tracking.Service
	webhooks   *webhook.Verifier
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	carts *cart.Service,
	co *checkout.Initiator,
	prices *pricing.Store,
	catalog Catalog,
	news *newsletter.Service,
	track *tracking.Service,
	webhooks *webhook.Verifier,
) *Handler {
	if cfg.CatalogPageSize <= 0 {
		cfg.CatalogPageSize = 20
	}
	return &Handler{
		cfg:        cfg,
		carts:      carts,
		checkout:   co,
		pricing:    prices,
		catalog:    catalog,
		newsletter: news,
		tracking:   track,
		webhooks:   webhooks,
	}
}

// Register mounts all API routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{handle}", h.getProduct)

	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("POST /api/cart/items", h.addItem)
	mux.HandleFunc("PATCH /api/cart/items/{variantID}", h.updateQuantity)
	mux.HandleFunc("DELETE /api/cart/items/{variantID}", h.removeItem)
	mux.HandleFunc("DELETE /api/cart", h.clearCart)
	mux.HandleFunc("PUT /api/cart/currency", h.setCurrency)
	mux.HandleFunc("POST /api/cart/checkout", h.initiateCheckout)

	mux.HandleFunc("GET /api/rates", h.getRates)
	mux.HandleFunc("GET /api/orders/track", h.trackOrder)
	mux.HandleFunc("POST /webhooks/fulfillment", h.receiveWebhook)
}

// NewsletterHandler returns the subscribe handler on its own so the caller
// can wrap it with a stricter, route-scoped rate limit.
func (h *Handler) NewsletterHandler() http.Handler {
	return http.HandlerFunc(h.subscribe)
}

// refreshRatesBestEffort refreshes the rate table if it is stale. Failures
// are logged and swallowed: price display degrades to cached rates, never to
// an error.
func (h *Handler) refreshRatesBestEffort(ctx context.Context) {
	if err := h.pricing.RefreshRates(ctx); err != nil {
		zctx.From(ctx).Warn("rate refresh failed, serving cached rates", zap.Error(err))
	}
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

// internalError logs the cause and answers with a generic 500 so internals
// never leak to shoppers.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
