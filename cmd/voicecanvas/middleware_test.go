package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
}

// --- RequestID ---

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	var seen string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
	assert.Len(t, seen, 36)
}

func TestRequestID_PreservesClientValue(t *testing.T) {
	handler := RequestID()(okHandler())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", "client-id")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, "client-id", w.Header().Get("X-Request-ID"))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

// --- Recovery ---

func TestRecovery(t *testing.T) {
	handler := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), Recovery(zap.NewNop()), RequestID())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal_error")
}

func TestRecovery_AbortHandlerPropagates(t *testing.T) {
	handler := Recovery(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

// --- APIKeyAuth ---

func TestAPIKeyAuth(t *testing.T) {
	handler := APIKeyAuth([]string{"secret"}, []string{"/health"}, zap.NewNop())(okHandler())

	tests := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{name: "missing key", target: "/v1/voice/status", want: http.StatusUnauthorized},
		{name: "wrong key", target: "/v1/voice/status", header: "nope", want: http.StatusUnauthorized},
		{name: "header key", target: "/v1/voice/status", header: "secret", want: http.StatusOK},
		{name: "query key", target: "/v1/editor/ws?api_key=secret", want: http.StatusOK},
		{name: "skip path", target: "/health", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				r.Header.Set("X-API-Key", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAPIKeyAuth_DisabledWithoutKeys(t *testing.T) {
	handler := APIKeyAuth(nil, nil, zap.NewNop())(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/voice/status", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

// --- RateLimiter ---

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handler := RateLimiter(ctx, 1, 2, zap.NewNop())(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// 其他 IP 不受影响
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter_Disabled(t *testing.T) {
	handler := RateLimiter(context.Background(), 0, 0, zap.NewNop())(okHandler())
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestIPLimiters_Sweep(t *testing.T) {
	l := &ipLimiters{rps: 1, burst: 1, buckets: map[string]*ipBucket{}}
	now := time.Now()

	assert.True(t, l.allow("10.0.0.1", now))
	assert.False(t, l.allow("10.0.0.1", now))
	assert.True(t, l.allow("10.0.0.2", now.Add(2*time.Minute)))

	l.sweep(now.Add(4*time.Minute), 3*time.Minute)
	assert.NotContains(t, l.buckets, "10.0.0.1")
	assert.Contains(t, l.buckets, "10.0.0.2")

	// 清理后重新获得完整突发量
	assert.True(t, l.allow("10.0.0.1", now.Add(4*time.Minute)))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "[::1]:5555"
	assert.Equal(t, "::1", clientIP(r))

	r.RemoteAddr = "unix-socket"
	assert.Equal(t, "unix-socket", clientIP(r))
}

// --- CORS ---

func TestCORS(t *testing.T) {
	handler := CORS([]string{"https://editor.example.com"})(okHandler())

	t.Run("allowed origin", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/v1/voice/listen", nil)
		r.Header.Set("Origin", "https://editor.example.com")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, "https://editor.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("allowed preflight", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodOptions, "/v1/voice/listen", nil)
		r.Header.Set("Origin", "https://editor.example.com")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("unknown origin preflight", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodOptions, "/v1/voice/listen", nil)
		r.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("same origin", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

// --- statusRecorder ---

func TestStatusRecorder(t *testing.T) {
	rec := httptest.NewRecorder()
	w := newStatusRecorder(rec)

	w.WriteHeader(http.StatusAccepted)
	w.WriteHeader(http.StatusTeapot)
	_, err := w.Write([]byte("abc"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, w.statusCode)
	assert.Equal(t, int64(3), w.bytesWritten)
	assert.Same(t, rec, w.Unwrap())

	_, _, err = w.Hijack()
	assert.Error(t, err)
}

func TestMetricPath(t *testing.T) {
	assert.Equal(t, "/v1/voice/listen", metricPath("/v1/voice/listen"))
	assert.Equal(t, "other", metricPath("/v1/voice/abc123"))
}
