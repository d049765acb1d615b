// Package webhook verifies inbound fulfillment-supplier webhooks before
// their payloads are trusted.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/go-faster/errors"
)

// Header names the supplier signs requests with.
const (
	SignatureHeader = "X-Webhook-Signature"
	TimestampHeader = "X-Webhook-Timestamp"
)

var (
	// ErrBadSignature means the HMAC did not match.
	ErrBadSignature = errors.New("webhook signature mismatch")
	// ErrStaleTimestamp means the signed timestamp is outside the replay
	// window in either direction.
	ErrStaleTimestamp = errors.New("webhook timestamp outside replay window")
	// ErrMalformed means the signature or timestamp header is missing or
	// unparseable.
	ErrMalformed = errors.New("malformed webhook headers")
)

// Verifier validates webhook signatures and replay windows.
type Verifier struct {
	secret []byte
	window time.Duration
	now    func() time.Time
}

// NewVerifier creates a Verifier. window is the allowed clock skew between
// the signed timestamp and receipt (typically 5 minutes).
func NewVerifier(secret []byte, window time.Duration) *Verifier {
	return &Verifier{
		secret: secret,
		window: window,
		now:    time.Now,
	}
}

// Verify checks the timestamp freshness and the HMAC-SHA256 signature over
// "<timestamp>.<body>". The signature compare is constant-time. The timestamp
// is checked first so replayed requests fail before any MAC work.
func (v *Verifier) Verify(signatureHex, timestamp string, body []byte) error {
	if signatureHex == "" || timestamp == "" {
		return ErrMalformed
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrMalformed
	}

	age := v.now().Sub(time.Unix(ts, 0))
	if age > v.window || age < -v.window {
		return ErrStaleTimestamp
	}

	provided, err := hex.DecodeString(signatureHex)
	if err != nil {
		return ErrMalformed
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := mac.Sum(nil)

	if !hmac.Equal(provided, expected) {
		return ErrBadSignature
	}
	return nil
}

// Sign computes the signature for the given timestamp and body. Used by
// tests and by local tooling that replays supplier payloads.
func (v *Verifier) Sign(timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
