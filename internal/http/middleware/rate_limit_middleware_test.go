package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type mockLimiter struct {
	allow bool
	retry time.Duration
	err   error
}

func (m mockLimiter) Allow(context.Context, string, int, time.Duration) (bool, time.Duration, error) {
	return m.allow, m.retry, m.err
}

func serveOnce(t *testing.T, rl *RateLimiter, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = remoteAddr
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestLocalLimiterEnforcesWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, "api")

	for i := 0; i < 2; i++ {
		if rr := serveOnce(t, rl, "10.0.0.1:1111"); rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rr.Code)
		}
	}
	rr := serveOnce(t, rl, "10.0.0.1:1111")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestLocalLimiterIsolatesClients(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, "api")

	if rr := serveOnce(t, rl, "10.0.0.1:1111"); rr.Code != http.StatusOK {
		t.Fatalf("first client: expected 200, got %d", rr.Code)
	}
	if rr := serveOnce(t, rl, "10.0.0.2:2222"); rr.Code != http.StatusOK {
		t.Fatalf("second client should have its own window, got %d", rr.Code)
	}
	if rr := serveOnce(t, rl, "10.0.0.1:1111"); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("first client should be limited, got %d", rr.Code)
	}
}

func TestDistributedRateLimiterFailOpenOnBackendError(t *testing.T) {
	rl := NewDistributedRateLimiter(
		mockLimiter{err: errors.New("redis down")},
		10,
		time.Minute,
		FailOpen,
		"api",
	)
	if rr := serveOnce(t, rl, "10.0.0.1:1111"); rr.Code != http.StatusOK {
		t.Fatalf("expected fail-open to allow request, got %d", rr.Code)
	}
}

func TestDistributedRateLimiterFailClosedOnBackendError(t *testing.T) {
	rl := NewDistributedRateLimiter(
		mockLimiter{err: errors.New("redis down")},
		10,
		time.Minute,
		FailClosed,
		"auth",
	)
	if rr := serveOnce(t, rl, "10.0.0.1:1111"); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected fail-closed to reject request, got %d", rr.Code)
	}
}

func TestDistributedRateLimiterDeniedSetsRetryAfter(t *testing.T) {
	rl := NewDistributedRateLimiter(
		mockLimiter{allow: false, retry: 5 * time.Second},
		1,
		time.Minute,
		FailClosed,
		"api",
	)
	rr := serveOnce(t, rl, "10.0.0.1:1111")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "5" {
		t.Fatalf("expected Retry-After=5, got %q", got)
	}
}
