//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func addItemBody(variantID string, price string, qty int) map[string]any {
	return map[string]any{
		"variantId": variantID,
		"title":     "Omega-3 Capsules",
		"handle":    "omega-3",
		"unitPrice": map[string]any{"amount": price, "currencyCode": "USD"},
		"quantity":  qty,
	}
}

func TestCartLifecycle(t *testing.T) {
	resp := doJSON(t, http.MethodPost, "/api/cart/items", addItemBody("gid://shopify/ProductVariant/1", "10.00", 2))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	cartID := resp.Header.Get("X-Cart-ID")
	if cartID == "" {
		t.Fatal("X-Cart-ID header not present")
	}

	c := decodeJSON[cartResponse](t, resp)
	if c.TotalItems != 2 {
		t.Fatalf("expected 2 items, got %d", c.TotalItems)
	}

	// Adding the same variant again merges lines.
	resp = doJSON(t, http.MethodPost, "/api/cart/items",
		addItemBody("gid://shopify/ProductVariant/1", "10.00", 1),
		"X-Cart-ID", cartID)
	defer resp.Body.Close()

	c = decodeJSON[cartResponse](t, resp)
	if len(c.Lines) != 1 || c.TotalItems != 3 {
		t.Fatalf("expected 1 line with 3 items, got %d lines, %d items", len(c.Lines), c.TotalItems)
	}
	if c.Subtotal.Amount != "30.00" {
		t.Fatalf("expected subtotal 30.00, got %s", c.Subtotal.Amount)
	}

	// The cart survives across requests with the same ID.
	resp = doGet(t, "/api/cart", "X-Cart-ID", cartID)
	defer resp.Body.Close()

	c = decodeJSON[cartResponse](t, resp)
	if c.ID != cartID || c.TotalItems != 3 {
		t.Fatalf("cart not persisted: id=%s items=%d", c.ID, c.TotalItems)
	}

	// Clearing empties it.
	resp = doJSON(t, http.MethodDelete, "/api/cart", nil, "X-Cart-ID", cartID)
	defer resp.Body.Close()

	c = decodeJSON[cartResponse](t, resp)
	if c.TotalItems != 0 {
		t.Fatalf("expected empty cart, got %d items", c.TotalItems)
	}
}

func TestCartCurrencySelection(t *testing.T) {
	resp := doJSON(t, http.MethodPost, "/api/cart/items", addItemBody("gid://shopify/ProductVariant/2", "45.00", 1))
	defer resp.Body.Close()
	cartID := resp.Header.Get("X-Cart-ID")

	resp = doJSON(t, http.MethodPut, "/api/cart/currency",
		map[string]any{"currency": "EUR"},
		"X-Cart-ID", cartID)
	defer resp.Body.Close()

	c := decodeJSON[cartResponse](t, resp)
	if c.Currency != "EUR" {
		t.Fatalf("expected EUR, got %s", c.Currency)
	}
	// Stored prices never change currency; only the display total does.
	if c.Subtotal.CurrencyCode != "USD" {
		t.Fatalf("expected USD subtotal, got %s", c.Subtotal.CurrencyCode)
	}
	if c.DisplayTotal == "" || c.DisplayTotal[0] != 0xe2 {
		// "€" is a three-byte UTF-8 sequence starting with 0xe2.
		t.Fatalf("expected euro display total, got %q", c.DisplayTotal)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	resp := doJSON(t, http.MethodPost, "/api/cart/checkout", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	e := decodeJSON[errorResponse](t, resp)
	if e.Code != http.StatusBadRequest {
		t.Fatalf("expected error code 400, got %d", e.Code)
	}
}
