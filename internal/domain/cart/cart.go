// Package cart holds the shopper's local cart: the lines they intend to buy,
// independent of any catalog page and independent of the commerce platform's
// own cart object.
package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by Repository implementations when no cart exists
// for the given ID.
var ErrNotFound = errors.New("cart not found")

// ProductSnapshot is a denormalized copy of catalog data captured at
// add-to-cart time. It is display-only and never authoritative.
type ProductSnapshot struct {
	Title    string `json:"title"`
	Handle   string `json:"handle"`
	ImageURL string `json:"imageUrl"`
}

// Option is a single selected product option such as flavour or size.
// Options are descriptive only and take no part in pricing.
type Option struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Money is an amount in a specific currency. Cart lines always carry the
// catalog's base currency; conversion happens at display time.
type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

// Line is a single cart line, keyed by the platform variant ID.
type Line struct {
	VariantID       string          `json:"variantId"`
	Product         ProductSnapshot `json:"product"`
	UnitPrice       Money           `json:"unitPrice"`
	Quantity        int             `json:"quantity"`
	SelectedOptions []Option        `json:"selectedOptions,omitempty"`
}

// Cart is the full local cart state. Lines preserve insertion order.
type Cart struct {
	ID        string    `json:"id"`
	Lines     []Line    `json:"lines"`
	Currency  string    `json:"currency"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TotalItems returns the sum of quantities across all lines.
func (c *Cart) TotalItems() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Quantity
	}
	return total
}

// TotalPrice returns the exact base-currency total: sum of unit price times
// quantity per line.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.UnitPrice.Amount.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// findLine returns the index of the line with the given variant ID, or -1.
func (c *Cart) findLine(variantID string) int {
	for i, l := range c.Lines {
		if l.VariantID == variantID {
			return i
		}
	}
	return -1
}

// Repository is the cart persistence port. Production uses Redis; tests use
// the in-memory implementation. Concurrent writers against the same cart ID
// are last-write-wins.
type Repository interface {
	Get(ctx context.Context, id string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, id string) error
}
