package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/uvm/internal/hal"
	"github.com/autopeer-io/uvm/internal/hal/irq"
	"github.com/autopeer-io/uvm/internal/pkg/metrics"
	"github.com/autopeer-io/uvm/pkg/options"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestProbes(t *testing.T) {
	ready := false
	s := NewServer(options.NewHttpOptions(), WithReadiness(func() (bool, string) { return ready, "booting" }))

	assert.Equal(t, http.StatusOK, get(t, s.Handler(), "/healthz").Code)

	rec := get(t, s.Handler(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "booting", rec.Body.String())

	ready = true
	assert.Equal(t, http.StatusOK, get(t, s.Handler(), "/readyz").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.SetPhase("boot", "", "devices")
	s := NewServer(options.NewHttpOptions())

	rec := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `uvm_stage_phase{phase="devices",stage="boot"} 1`)
}

func TestStartStopsOnCancel(t *testing.T) {
	opts := options.NewHttpOptions()
	opts.Addr = "127.0.0.1:0"
	s := NewServer(opts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestPlatformEndpoint(t *testing.T) {
	var p *hal.PlatformInfo
	s := NewServer(options.NewHttpOptions(), WithPlatform(func() *hal.PlatformInfo { return p }))

	assert.Equal(t, http.StatusServiceUnavailable, get(t, s.Handler(), "/platform").Code)

	p = hal.NewPlatformInfo(hal.WithIrqController(irq.NewMask(0)))
	rec := get(t, s.Handler(), "/platform")
	require.Equal(t, http.StatusOK, rec.Code)

	var infos []hal.CapabilityInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.Len(t, infos, 6)
	assert.Equal(t, "irq", infos[3].Slot)
	assert.True(t, infos[3].Present)
	assert.False(t, infos[0].Present)
}

func TestPlatformEndpointWithoutSource(t *testing.T) {
	s := NewServer(options.NewHttpOptions())
	assert.Equal(t, http.StatusServiceUnavailable, get(t, s.Handler(), "/platform").Code)
}
