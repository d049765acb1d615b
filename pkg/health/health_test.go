package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder) statusResponse {
	t.Helper()
	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestLiveEndpoint_HealthyByDefault(t *testing.T) {
	h := New()
	h.AddLivenessCheck("noop", time.Second, func(_ context.Context) error { return nil })

	rec := httptest.NewRecorder()
	h.LiveEndpoint(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeStatus(t, rec).Status)
}

func TestProbe_FailureThreshold(t *testing.T) {
	p := newProbe("flaky", time.Second, func(_ context.Context) error {
		return errors.New("boom")
	})

	ctx := context.Background()
	p.run(ctx)
	p.run(ctx)
	assert.True(t, p.healthy.Load(), "two failures stay under the threshold")

	p.run(ctx)
	assert.False(t, p.healthy.Load(), "third consecutive failure flips the probe")

	msg, failed := p.failure()
	assert.True(t, failed)
	assert.Equal(t, "boom", msg)
}

func TestProbe_RecoversAfterSingleSuccess(t *testing.T) {
	healthy := false
	p := newProbe("dep", time.Second, func(_ context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("down")
	})

	ctx := context.Background()
	for range 3 {
		p.run(ctx)
	}
	require.False(t, p.healthy.Load())

	healthy = true
	p.run(ctx)
	assert.True(t, p.healthy.Load())
}

func TestReadyEndpoint_ManualGate(t *testing.T) {
	h := New()

	rec := httptest.NewRecorder()
	h.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h.SetReady(true)
	rec = httptest.NewRecorder()
	h.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyEndpoint_FailingCheckDetails(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddReadinessCheck("postgres", time.Second, func(_ context.Context) error {
		return errors.New("connection refused")
	})

	// Drive the probe past its failure threshold directly.
	h.mu.RLock()
	p := h.readiness[0]
	h.mu.RUnlock()
	for range 3 {
		p.run(context.Background())
	}

	rec := httptest.NewRecorder()
	h.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeStatus(t, rec)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "connection refused", resp.Checks["postgres"])
	assert.False(t, h.IsReady())
}

func TestStartAndStop(t *testing.T) {
	h := New()
	ran := make(chan struct{}, 1)
	h.AddLivenessCheck("tick", time.Second, func(_ context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	h.Start(context.Background(), 10*time.Millisecond)
	defer h.Stop()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("check never ran")
	}
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}
