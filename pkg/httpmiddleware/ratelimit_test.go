package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limited(t *testing.T, max int, windowLen time.Duration) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	mw := RateLimitWithCleanup(ctx, RateLimitConfig{Max: max, Window: windowLen})
	return mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func hit(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/checkout/basket", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_EnforcesMax(t *testing.T) {
	h := limited(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		rec := hit(h, "10.0.0.1:1234")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := hit(h, "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_KeysAreIndependent(t *testing.T) {
	h := limited(t, 1, time.Minute)

	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1234").Code)
	require.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:9999").Code)

	// A different client has its own window.
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1234").Code)
}

func TestRateLimit_WindowRotates(t *testing.T) {
	h := limited(t, 1, 30*time.Millisecond)

	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1234").Code)
	require.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:1234").Code)

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1234").Code)
}

func TestRateLimit_ForwardedForKey(t *testing.T) {
	h := limited(t, 1, time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/checkout/basket", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Same forwarded client through another hop shares the window.
	req2 := httptest.NewRequest(http.MethodGet, "/checkout/basket", nil)
	req2.RemoteAddr = "10.0.0.2:1234"
	req2.Header.Set("X-Forwarded-For", "203.0.113.7")
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req2)
	assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5000"
	assert.Equal(t, "192.0.2.1", clientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.4")
	assert.Equal(t, "198.51.100.4", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 198.51.100.4")
	assert.Equal(t, "203.0.113.7", clientIP(req))
}
