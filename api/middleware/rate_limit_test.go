package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCounter struct {
	counts map[string]int64
	err    error
}

func (m *memoryCounter) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memoryCounter) CounterKey(name string) string {
	return "counter:" + name
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/backup/import", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	store := &memoryCounter{counts: map[string]int64{}}
	h := RateLimit(NewRateLimitPolicy("Heavy", time.Minute, 2), store, testLogger())(okHandler())

	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1234").Code)
	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1234").Code)
	blocked := hit(h, "10.0.0.1:1234")
	require.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "60", blocked.Header().Get("Retry-After"))
	assert.Contains(t, blocked.Body.String(), "RATE_LIMITED")

	require.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1234").Code)
	assert.Contains(t, store.counts, "counter:rl:heavy:10.0.0.1")
}

func TestRateLimitStoreFailure(t *testing.T) {
	store := &memoryCounter{counts: map[string]int64{}, err: errors.New("redis down")}
	h := RateLimit(NewRateLimitPolicy("heavy", time.Minute, 2), store, testLogger())(okHandler())
	assert.Equal(t, http.StatusServiceUnavailable, hit(h, "10.0.0.1:1").Code)
}

func TestRateLimitDisabled(t *testing.T) {
	h := RateLimit(NewRateLimitPolicy("heavy", 0, 0), nil, testLogger())(okHandler())
	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1").Code)
	}
}

func TestClientIPPrefersForwardedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:9999"
	assert.Equal(t, "10.0.0.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(req))
}
