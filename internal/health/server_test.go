package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthAndLive(t *testing.T) {
	s := NewServer(Config{ServiceName: "handicapper", Version: "test"})
	h := s.Handler()

	for _, path := range []string{"/health", "/live"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			require.Equal(t, http.StatusOK, rec.Code)

			var resp HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "ok", resp.Status)
			assert.Equal(t, "handicapper", resp.Service)
		})
	}
}

func TestReady(t *testing.T) {
	failing := PingFunc(func(context.Context) error { return errors.New("circuit breaker open") })
	passing := PingFunc(func(context.Context) error { return nil })

	tests := []struct {
		name       string
		ready      bool
		checks     map[string]Pinger
		wantStatus int
		wantChecks map[string]string
	}{
		{"not marked ready", false, nil, http.StatusServiceUnavailable, map[string]string{"service": "not_ready"}},
		{"ready", true, map[string]Pinger{"profiles": passing}, http.StatusOK,
			map[string]string{"service": "ok", "profiles": "ok"}},
		{"failing check", true, map[string]Pinger{"advisory": failing, "profiles": passing}, http.StatusServiceUnavailable,
			map[string]string{"service": "ok", "profiles": "ok", "advisory": "error: circuit breaker open"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(Config{ServiceName: "handicapper", Checks: tt.checks})
			s.SetReady(tt.ready)

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp ReadyResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantChecks, resp.Checks)
		})
	}
}

func TestMetricsHandlerMounted(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("clever_handicapper_races_scored_total 1\n"))
	})
	s := NewServer(Config{MetricsPath: "/scrape", MetricsHandler: metrics})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scrape", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "races_scored_total")
}

func TestStartAndShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewServer(Config{ServiceName: "handicapper", Addr: "127.0.0.1:0"})
	require.NoError(t, s.Start(ctx))

	resp, err := http.Get("http://" + s.Addr() + "/live")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)

	assert.NoError(t, s.Shutdown())
}
