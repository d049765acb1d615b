// Package checkout turns a local cart into exactly one platform checkout
// session and hands back a single canonical URL.
package checkout

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-faster/errors"

	"github.com/vitea-labs/storefront-api/internal/domain/cart"
	"github.com/vitea-labs/storefront-api/internal/shopify"
)

// Local validation errors -- raised before any network call.
var (
	// ErrEmptyCart means there is nothing to check out.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrMissingCheckoutURL means the platform reported success but returned
	// no checkout URL. This is a platform contract violation, not retriable.
	ErrMissingCheckoutURL = errors.New("platform returned no checkout URL")
	// ErrWrongCheckoutHost means URL normalization produced something other
	// than the canonical checkout host. Misconfiguration; refuse to redirect.
	ErrWrongCheckoutHost = errors.New("normalized checkout URL is not on the canonical host")
)

// InvalidVariantError names a cart line whose variant ID does not match the
// platform's structured identifier shape.
type InvalidVariantError struct {
	Title string
}

func (e *InvalidVariantError) Error() string {
	return fmt.Sprintf("line %q has an invalid variant id", e.Title)
}

// RejectedError carries the platform's user-facing validation messages
// (e.g. "variant out of stock"), joined verbatim.
type RejectedError struct {
	Messages []string
}

func (e *RejectedError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// TransportError wraps a network-level failure. The shopper may retry
// manually; no automatic retry is attempted.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "checkout request failed: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// CartCreator creates a platform cart from line inputs. Implemented by
// *shopify.Client.
type CartCreator interface {
	CartCreate(ctx context.Context, lines []shopify.CartLineInput) (*shopify.CartCreateResult, error)
}

// Initiator validates the local cart, creates one platform checkout session,
// and normalizes the returned URL to the canonical host.
//
// The local cart is deliberately left intact on success: the platform owns
// its own cart from the handoff on, and a failed or abandoned checkout must
// leave the shopper's cart available for retry.
type Initiator struct {
	platform      CartCreator
	canonicalHost string
}

// NewInitiator creates an Initiator. canonicalHost is the platform account
// host checkout is guaranteed to work on, e.g. "vitea-labs.myshopify.com".
func NewInitiator(platform CartCreator, canonicalHost string) *Initiator {
	return &Initiator{
		platform:      platform,
		canonicalHost: canonicalHost,
	}
}

// Initiate creates the checkout session and returns the canonical checkout
// URL. Validation failures never reach the network.
func (i *Initiator) Initiate(ctx context.Context, c *cart.Cart) (string, error) {
	if c == nil || len(c.Lines) == 0 {
		return "", ErrEmptyCart
	}

	lines := make([]shopify.CartLineInput, len(c.Lines))
	for n, l := range c.Lines {
		if !strings.HasPrefix(l.VariantID, shopify.MerchandisePrefix) {
			return "", &InvalidVariantError{Title: l.Product.Title}
		}
		lines[n] = shopify.CartLineInput{
			MerchandiseID: l.VariantID,
			Quantity:      l.Quantity,
		}
	}

	result, err := i.platform.CartCreate(ctx, lines)
	if err != nil {
		return "", &TransportError{Err: err}
	}

	if len(result.UserErrors) > 0 {
		msgs := make([]string, len(result.UserErrors))
		for n, ue := range result.UserErrors {
			msgs[n] = ue.Message
		}
		return "", &RejectedError{Messages: msgs}
	}

	if result.CheckoutURL == "" {
		return "", ErrMissingCheckoutURL
	}

	return i.normalize(result.CheckoutURL)
}

// normalize rewrites the checkout URL's host to the canonical platform host,
// preserving path and query untouched. The platform may hand back a URL on
// the storefront's custom domain, which does not serve checkout; sending a
// shopper there breaks the purchase, so a result that still is not on the
// canonical host is a fatal configuration error.
func (i *Initiator) normalize(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrap(err, "parse checkout URL")
	}

	u.Scheme = "https"
	u.Host = i.canonicalHost

	normalized := u.String()
	if !strings.HasPrefix(normalized, "https://"+i.canonicalHost+"/") {
		return "", ErrWrongCheckoutHost
	}
	return normalized, nil
}
