package webhook

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVerifier(now time.Time) *Verifier {
	v := NewVerifier([]byte("supplier-secret"), 5*time.Minute)
	v.now = func() time.Time { return now }
	return v
}

func TestVerify_ValidSignature(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := newTestVerifier(now)

	ts := strconv.FormatInt(now.Unix(), 10)
	body := []byte(`{"orderNumber":"1001","status":"shipped"}`)

	require.NoError(t, v.Verify(v.Sign(ts, body), ts, body))
}

func TestVerify_WrongSecret(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := newTestVerifier(now)
	other := NewVerifier([]byte("wrong-secret"), 5*time.Minute)

	ts := strconv.FormatInt(now.Unix(), 10)
	body := []byte(`{}`)

	err := v.Verify(other.Sign(ts, body), ts, body)
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestVerify_TamperedBody(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := newTestVerifier(now)

	ts := strconv.FormatInt(now.Unix(), 10)
	sig := v.Sign(ts, []byte(`{"status":"shipped"}`))

	err := v.Verify(sig, ts, []byte(`{"status":"delivered"}`))
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestVerify_ReplayWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := newTestVerifier(now)
	body := []byte(`{}`)

	cases := []struct {
		name string
		at   time.Time
		want error
	}{
		{"too old", now.Add(-6 * time.Minute), ErrStaleTimestamp},
		{"too far ahead", now.Add(6 * time.Minute), ErrStaleTimestamp},
		{"just inside", now.Add(-4 * time.Minute), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := strconv.FormatInt(tc.at.Unix(), 10)
			err := v.Verify(v.Sign(ts, body), ts, body)
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestVerify_MalformedHeaders(t *testing.T) {
	v := newTestVerifier(time.Now())
	body := []byte(`{}`)

	assert.ErrorIs(t, v.Verify("", "123", body), ErrMalformed)
	assert.ErrorIs(t, v.Verify("abcd", "", body), ErrMalformed)
	assert.ErrorIs(t, v.Verify("abcd", "not-a-number", body), ErrMalformed)
	assert.ErrorIs(t, v.Verify("zzzz", strconv.FormatInt(time.Now().Unix(), 10), body), ErrMalformed)
}
