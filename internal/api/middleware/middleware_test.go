package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestTriggerAuth(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{name: "secret header", header: TriggerSecretHeader, value: "s3cret", wantStatus: http.StatusOK},
		{name: "bearer", header: "Authorization", value: "Bearer s3cret", wantStatus: http.StatusOK},
		{name: "bearer lowercase scheme", header: "Authorization", value: "bearer s3cret", wantStatus: http.StatusOK},
		{name: "wrong secret", header: TriggerSecretHeader, value: "s3cre", wantStatus: http.StatusUnauthorized},
		{name: "basic auth", header: "Authorization", value: "Basic czNjcmV0", wantStatus: http.StatusUnauthorized},
		{name: "missing", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := TriggerAuth("s3cret", logger.NewNop())(okHandler(&called))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/reminders/trigger", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			// при отказе обработчик не вызывается вовсе
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
		})
	}
}

func TestTriggerAuth_EmptySecretRejectsEverything(t *testing.T) {
	called := false
	h := TriggerAuth("", logger.NewNop())(okHandler(&called))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(TriggerSecretHeader, "")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)
}

type memCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (c *memCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	if c.counts == nil {
		c.counts = make(map[string]int64)
	}
	c.counts[key]++
	return c.counts[key], nil
}

func TestRateLimit_PerIP(t *testing.T) {
	counter := &memCounter{}
	called := false
	h := RateLimit(counter, 2, time.Minute, "rl:bookings", logger.NewNop())(okHandler(&called))

	send := func(remote, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil)
		req.RemoteAddr = remote
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:5000", ""))
	assert.Equal(t, http.StatusOK, send("10.0.0.1:5001", ""))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:5002", ""))

	// другой клиент за тем же прокси считается отдельно
	assert.Equal(t, http.StatusOK, send("10.0.0.1:5003", "203.0.113.7, 10.0.0.1"))
	assert.Equal(t, int64(1), counter.counts["rl:bookings:203.0.113.7"])
}

func TestRateLimit_FailOpen(t *testing.T) {
	called := false
	h := RateLimit(&memCounter{err: errors.New("redis: connection refused")}, 1, time.Minute, "rl", logger.NewNop())(okHandler(&called))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegisterer("test", reg)

	r := mux.NewRouter()
	r.Use(MetricsMiddleware(m))
	r.HandleFunc("/appointments/{appointmentId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/appointments/"+id, nil))
	}

	families, err := reg.Gather()
	require.NoError(t, err)

	routes := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "http_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "route" {
					routes[l.GetValue()] += metric.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{"/appointments/{appointmentId}": 3}, routes)
}
