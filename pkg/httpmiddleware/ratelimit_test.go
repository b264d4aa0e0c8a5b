package httpmiddleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowRPS keeps buckets from refilling during a test.
const slowRPS = 0.001

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit_UnderLimit(t *testing.T) {
	handler := RateLimit(RateLimitConfig{RPS: slowRPS, Burst: 5})(okHandler())

	for i := range 5 {
		w := serve(handler, nil)
		assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimit_OverLimit(t *testing.T) {
	handler := RateLimit(RateLimitConfig{RPS: slowRPS, Burst: 2})(okHandler())

	for range 2 {
		require.Equal(t, http.StatusOK, serve(handler, nil).Code)
	}

	w := serve(handler, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "rate limit exceeded", body["error"])
}

func TestRateLimit_Remaining(t *testing.T) {
	handler := RateLimit(RateLimitConfig{RPS: slowRPS, Burst: 3})(okHandler())

	assert.Equal(t, "2", serve(handler, nil).Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1", serve(handler, nil).Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_Refill(t *testing.T) {
	handler := RateLimit(RateLimitConfig{RPS: 50, Burst: 1})(okHandler())

	require.Equal(t, http.StatusOK, serve(handler, nil).Code)
	require.Equal(t, http.StatusTooManyRequests, serve(handler, nil).Code)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, http.StatusOK, serve(handler, nil).Code)
}

func TestRateLimit_DifferentIPs(t *testing.T) {
	handler := RateLimit(RateLimitConfig{RPS: slowRPS, Burst: 1})(okHandler())

	at := func(addr string) func(*http.Request) {
		return func(r *http.Request) { r.RemoteAddr = addr }
	}

	assert.Equal(t, http.StatusOK, serve(handler, at("10.0.0.1:1234")).Code)
	assert.Equal(t, http.StatusOK, serve(handler, at("10.0.0.2:1234")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(handler, at("10.0.0.1:5678")).Code)
}

func TestRateLimit_OwnerHeaders(t *testing.T) {
	handler := RateLimit(RateLimitConfig{RPS: slowRPS, Burst: 1})(okHandler())

	user := func(id string) func(*http.Request) {
		return func(r *http.Request) { r.Header.Set("X-User-ID", id) }
	}
	session := func(id string) func(*http.Request) {
		return func(r *http.Request) { r.Header.Set("X-Session-ID", id) }
	}

	// Same IP, distinct owners.
	assert.Equal(t, http.StatusOK, serve(handler, user("42")).Code)
	assert.Equal(t, http.StatusOK, serve(handler, session("sess-1")).Code)
	assert.Equal(t, http.StatusOK, serve(handler, nil).Code)

	assert.Equal(t, http.StatusTooManyRequests, serve(handler, user("42")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(handler, session("sess-1")).Code)
}

func TestRateLimit_CustomKeyFunc(t *testing.T) {
	handler := RateLimit(RateLimitConfig{
		RPS:   slowRPS,
		Burst: 1,
		KeyFunc: func(r *http.Request) string {
			return r.Header.Get("X-Tenant")
		},
	})(okHandler())

	tenant := func(id string) func(*http.Request) {
		return func(r *http.Request) { r.Header.Set("X-Tenant", id) }
	}

	assert.Equal(t, http.StatusOK, serve(handler, tenant("a")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(handler, tenant("a")).Code)
	assert.Equal(t, http.StatusOK, serve(handler, tenant("b")).Code)
}

func TestRateLimit_XForwardedFor(t *testing.T) {
	handler := RateLimit(RateLimitConfig{RPS: slowRPS, Burst: 1})(okHandler())

	w := serve(handler, func(r *http.Request) {
		r.Header.Set("X-Forwarded-For", "203.0.113.50, 70.41.3.18")
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(handler, func(r *http.Request) {
		r.RemoteAddr = "192.168.1.2:5555"
		r.Header.Set("X-Forwarded-For", "203.0.113.50, 70.41.3.18")
	})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"user wins", map[string]string{"X-User-ID": "7", "X-Session-ID": "s"}, "1.2.3.4:1", "user:7"},
		{"session", map[string]string{"X-Session-ID": "s"}, "1.2.3.4:1", "session:s"},
		{"real ip", map[string]string{"X-Real-IP": "5.6.7.8"}, "1.2.3.4:1", "ip:5.6.7.8"},
		{"remote addr", nil, "1.2.3.4:1", "ip:1.2.3.4"},
		{"remote without port", nil, "1.2.3.4", "ip:1.2.3.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientKey(req))
		})
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{RPS: 1, Burst: 1, IdleTTL: time.Minute})

	now := time.Now()
	rl.limiter("old", now.Add(-2*time.Minute))
	rl.limiter("fresh", now)

	rl.cleanup(now)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.visitors, "old")
	assert.Contains(t, rl.visitors, "fresh")
}

func TestRateLimitWithCleanup_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	handler := RateLimitWithCleanup(ctx, RateLimitConfig{RPS: slowRPS, Burst: 1, IdleTTL: 10 * time.Millisecond})(okHandler())
	cancel()

	assert.Equal(t, http.StatusOK, serve(handler, nil).Code)
}
