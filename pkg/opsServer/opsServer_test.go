package opsServer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Layr-Labs/factory-event-indexer/pkg/metrics"
)

func newTestServer(checks map[string]HealthCheck) (*OpsServer, *metrics.Metrics) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	return NewOpsServer(&OpsServerConfig{Port: 0}, reg, checks, zap.NewNop()), m
}

func TestHealthz_Ok(t *testing.T) {
	s, _ := newTestServer(map[string]HealthCheck{
		"redis": func(context.Context) error { return nil },
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusOk, resp.Status)
	assert.Equal(t, map[string]string{"redis": StatusOk}, resp.Checks)
}

func TestHealthz_Degraded(t *testing.T) {
	s, _ := newTestServer(map[string]HealthCheck{
		"redis":    func(context.Context) error { return errors.New("dial tcp: connection refused") },
		"postgres": func(context.Context) error { return nil },
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Equal(t, "dial tcp: connection refused", resp.Checks["redis"])
	assert.Equal(t, StatusOk, resp.Checks["postgres"])
}

func TestHealthz_NoChecks(t *testing.T) {
	s, _ := newTestServer(nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealthz_RejectsPost(t *testing.T) {
	s, _ := newTestServer(nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, m := newTestServer(nil)
	m.LastScannedBlock.WithLabelValues("sepolia").Set(501)

	server := httptest.NewServer(s.Handler())
	defer server.Close()

	res, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), `last_scanned_block{chain="sepolia"} 501`)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s, _ := newTestServer(nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	assert.NoError(t, <-done)
}
