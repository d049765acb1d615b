// Package turnstile verifies Cloudflare Turnstile bot-challenge tokens.
package turnstile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrChallengeFailed means the token did not pass verification; the request
// is treated as a bot.
var ErrChallengeFailed = errors.New("challenge verification failed")

const siteverifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// Verifier checks a challenge token against the verification service.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// Client verifies tokens against Cloudflare's siteverify endpoint.
type Client struct {
	secret   string
	endpoint string
	http     *http.Client
}

var _ Verifier = (*Client)(nil)

// NewClient creates a Verifier with the given site secret.
func NewClient(secret string) *Client {
	return &Client{
		secret:   secret,
		endpoint: siteverifyURL,
		http: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Verify posts the token for verification. Any verification failure maps to
// ErrChallengeFailed; transport errors are returned as-is.
func (c *Client) Verify(ctx context.Context, token, remoteIP string) error {
	if token == "" {
		return ErrChallengeFailed
	}

	form := url.Values{
		"secret":   {c.secret},
		"response": {token},
	}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "siteverify request")
	}
	defer resp.Body.Close()

	var payload struct {
		Success    bool     `json:"success"`
		ErrorCodes []string `json:"error-codes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return errors.Wrap(err, "decode siteverify response")
	}
	if !payload.Success {
		return ErrChallengeFailed
	}
	return nil
}
