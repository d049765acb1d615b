// Package rates fetches exchange-rate tables from the upstream currency API.
package rates

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vitea-labs/storefront-api/internal/domain/pricing"
)

// Client fetches USD-based rate tables. It implements pricing.RateSource.
type Client struct {
	url  string
	http *http.Client
}

var _ pricing.RateSource = (*Client)(nil)

// NewClient creates a rate source for the given endpoint, e.g.
// "https://open.er-api.com/v6/latest/USD".
func NewClient(url string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url: url,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// FetchRates retrieves the current rate table. The upstream payload carries
// rates as floats; they are converted to decimals immediately and never used
// as floats afterwards.
func (c *Client) FetchRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "rate request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("rate api: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Result string             `json:"result"`
		Base   string             `json:"base_code"`
		Rates  map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "decode rates")
	}
	if payload.Result != "" && payload.Result != "success" {
		return nil, errors.Errorf("rate api: result %q", payload.Result)
	}
	if payload.Base != "" && payload.Base != pricing.BaseCurrency {
		return nil, errors.Errorf("rate api: unexpected base %q", payload.Base)
	}
	if len(payload.Rates) == 0 {
		return nil, errors.New("rate api: empty rate table")
	}

	out := make(map[string]decimal.Decimal, len(payload.Rates))
	for code, rate := range payload.Rates {
		out[code] = decimal.NewFromFloat(rate)
	}
	return out, nil
}
