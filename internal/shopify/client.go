// Package shopify is a thin client for the commerce platform's Storefront
// GraphQL API: product queries and cart creation. Checkout and payment are
// owned entirely by the platform.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// MerchandisePrefix is the structured prefix every purchasable variant ID
// carries. Bare integers or empty strings are never valid merchandise IDs.
const MerchandisePrefix = "gid://shopify/ProductVariant/"

// Money is an amount with its currency code as returned by the platform.
type Money struct {
	Amount       decimal.Decimal
	CurrencyCode string
}

// SelectedOption is a variant option pair such as flavour or size.
type SelectedOption struct {
	Name  string
	Value string
}

// Variant is a purchasable configuration of a product.
type Variant struct {
	ID               string
	Title            string
	Price            Money
	AvailableForSale bool
	SelectedOptions  []SelectedOption
}

// Product is a catalog entry with its variants.
type Product struct {
	ID          string
	Title       string
	Handle      string
	Description string
	ImageURL    string
	Variants    []Variant
}

// CartLineInput is one line of a cart-create request.
type CartLineInput struct {
	MerchandiseID string
	Quantity      int
}

// UserError is a platform-side validation error, surfaced verbatim to the
// shopper (e.g. "variant out of stock").
type UserError struct {
	Field   string
	Message string
}

// CartCreateResult is the outcome of a cart-create call. Either UserErrors is
// non-empty, or CheckoutURL carries the platform checkout link.
type CartCreateResult struct {
	CheckoutURL   string
	TotalQuantity int
	TotalCost     Money
	UserErrors    []UserError
}

// Config holds the Storefront API connection settings.
type Config struct {
	// Domain is the storefront domain the API is served from, e.g.
	// "vitea-labs.myshopify.com".
	Domain string
	// StorefrontToken is the public Storefront API access token.
	StorefrontToken string
	// APIVersion is the Storefront API version, e.g. "2024-10".
	APIVersion string
	// Timeout bounds each API call. Zero means 15 seconds.
	Timeout time.Duration
}

// Client talks to the Storefront GraphQL endpoint. It is safe for concurrent
// use.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

// NewClient creates a Client. Outbound requests are traced via otelhttp.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint: fmt.Sprintf("https://%s/api/%s/graphql.json", cfg.Domain, cfg.APIVersion),
		token:    cfg.StorefrontToken,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// graphQLError is a top-level GraphQL error (malformed query, auth failure).
type graphQLError struct {
	Message string `json:"message"`
}

// execute posts a GraphQL document and decodes the "data" object into out.
func (c *Client) execute(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Storefront-Access-Token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "storefront request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("storefront api: unexpected status %d", resp.StatusCode)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return errors.Wrap(err, "decode response")
	}
	if len(envelope.Errors) > 0 {
		return errors.Errorf("storefront api: %s", envelope.Errors[0].Message)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return errors.Wrap(err, "decode data")
	}
	return nil
}

// wire types shared by the product queries.

type wireMoney struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

type wireVariant struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	AvailableForSale bool      `json:"availableForSale"`
	Price            wireMoney `json:"price"`
	SelectedOptions  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"selectedOptions"`
}

type wireProduct struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Handle        string `json:"handle"`
	Description   string `json:"description"`
	FeaturedImage struct {
		URL string `json:"url"`
	} `json:"featuredImage"`
	Variants struct {
		Nodes []wireVariant `json:"nodes"`
	} `json:"variants"`
}

func mapProduct(w wireProduct) Product {
	p := Product{
		ID:          w.ID,
		Title:       w.Title,
		Handle:      w.Handle,
		Description: w.Description,
		ImageURL:    w.FeaturedImage.URL,
		Variants:    make([]Variant, len(w.Variants.Nodes)),
	}
	for i, v := range w.Variants.Nodes {
		opts := make([]SelectedOption, len(v.SelectedOptions))
		for j, o := range v.SelectedOptions {
			opts[j] = SelectedOption{Name: o.Name, Value: o.Value}
		}
		p.Variants[i] = Variant{
			ID:               v.ID,
			Title:            v.Title,
			AvailableForSale: v.AvailableForSale,
			Price:            Money{Amount: v.Price.Amount, CurrencyCode: v.Price.CurrencyCode},
			SelectedOptions:  opts,
		}
	}
	return p
}

const productFields = `
  id
  title
  handle
  description
  featuredImage { url }
  variants(first: 25) {
    nodes {
      id
      title
      availableForSale
      price { amount currencyCode }
      selectedOptions { name value }
    }
  }`

// ListProducts returns up to first products from the catalog.
func (c *Client) ListProducts(ctx context.Context, first int) ([]Product, error) {
	query := fmt.Sprintf(`query ListProducts($first: Int!) {
  products(first: $first) { nodes {%s
  } }
}`, productFields)

	var data struct {
		Products struct {
			Nodes []wireProduct `json:"nodes"`
		} `json:"products"`
	}
	if err := c.execute(ctx, query, map[string]any{"first": first}, &data); err != nil {
		return nil, err
	}

	out := make([]Product, len(data.Products.Nodes))
	for i, w := range data.Products.Nodes {
		out[i] = mapProduct(w)
	}
	return out, nil
}

// ErrProductNotFound is returned when no product exists for a handle.
var ErrProductNotFound = errors.New("product not found")

// ProductByHandle returns a single product by its URL handle.
func (c *Client) ProductByHandle(ctx context.Context, handle string) (*Product, error) {
	query := fmt.Sprintf(`query ProductByHandle($handle: String!) {
  product(handle: $handle) {%s
  }
}`, productFields)

	var data struct {
		Product *wireProduct `json:"product"`
	}
	if err := c.execute(ctx, query, map[string]any{"handle": handle}, &data); err != nil {
		return nil, err
	}
	if data.Product == nil {
		return nil, ErrProductNotFound
	}

	p := mapProduct(*data.Product)
	return &p, nil
}

// CartCreate creates a platform cart from the given lines and returns the
// checkout URL or the platform's user-facing validation errors. Transport and
// contract failures are returned as errors; UserErrors are data.
func (c *Client) CartCreate(ctx context.Context, lines []CartLineInput) (*CartCreateResult, error) {
	const mutation = `mutation CartCreate($input: CartInput!) {
  cartCreate(input: $input) {
    cart {
      checkoutUrl
      totalQuantity
      cost { totalAmount { amount currencyCode } }
    }
    userErrors { field message }
  }
}`

	wireLines := make([]map[string]any, len(lines))
	for i, l := range lines {
		wireLines[i] = map[string]any{
			"merchandiseId": l.MerchandiseID,
			"quantity":      l.Quantity,
		}
	}

	var data struct {
		CartCreate struct {
			Cart *struct {
				CheckoutURL   string `json:"checkoutUrl"`
				TotalQuantity int    `json:"totalQuantity"`
				Cost          struct {
					TotalAmount wireMoney `json:"totalAmount"`
				} `json:"cost"`
			} `json:"cart"`
			UserErrors []struct {
				Field   []string `json:"field"`
				Message string   `json:"message"`
			} `json:"userErrors"`
		} `json:"cartCreate"`
	}

	input := map[string]any{"input": map[string]any{"lines": wireLines}}
	if err := c.execute(ctx, mutation, input, &data); err != nil {
		return nil, err
	}

	result := &CartCreateResult{}
	for _, ue := range data.CartCreate.UserErrors {
		field := ""
		if len(ue.Field) > 0 {
			field = ue.Field[len(ue.Field)-1]
		}
		result.UserErrors = append(result.UserErrors, UserError{Field: field, Message: ue.Message})
	}
	if cart := data.CartCreate.Cart; cart != nil {
		result.CheckoutURL = cart.CheckoutURL
		result.TotalQuantity = cart.TotalQuantity
		result.TotalCost = Money{
			Amount:       cart.Cost.TotalAmount.Amount,
			CurrencyCode: cart.Cost.TotalAmount.CurrencyCode,
		}
	}
	return result, nil
}
