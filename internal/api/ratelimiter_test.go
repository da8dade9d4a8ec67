package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticLimiter struct {
	allow bool
	seen  []string
}

func (s *staticLimiter) Allow(client string) bool {
	s.seen = append(s.seen, client)
	return s.allow
}

func TestRateLimitMiddlewareBlocksWhenLimiterDenies(t *testing.T) {
	middleware := rateLimitMiddleware(&staticLimiter{allow: false}, http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler should not execute when rate limited")
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	middleware.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestRateLimitMiddlewareKeysByClientHost(t *testing.T) {
	limiter := &staticLimiter{allow: true}
	var called bool
	middleware := rateLimitMiddleware(limiter, http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:52100"
	middleware.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Fatalf("expected handler to execute when limiter allows")
	}
	if len(limiter.seen) != 1 || limiter.seen[0] != "10.0.0.7" {
		t.Fatalf("expected client key 10.0.0.7, got %v", limiter.seen)
	}
}

func TestTokenBucketLimiterIsPerClient(t *testing.T) {
	limiter := newTokenBucketLimiter(0.001, 1)

	if !limiter.Allow("a") {
		t.Fatalf("expected first request from a to be allowed")
	}
	if limiter.Allow("a") {
		t.Fatalf("expected second request from a to be limited")
	}
	if !limiter.Allow("b") {
		t.Fatalf("expected client b to have its own bucket")
	}
}

func TestNewTokenBucketLimiterUsesDefaults(t *testing.T) {
	limiter := newTokenBucketLimiter(0, 0)
	if limiter == nil {
		t.Fatalf("expected limiter instance")
	}
	if !limiter.Allow("client") {
		t.Fatalf("expected first request to be allowed")
	}
}

func TestClientLimiterResetsWhenFull(t *testing.T) {
	limiter := newTokenBucketLimiter(0.001, 1).(*clientLimiter)
	for i := range maxTrackedClients {
		limiter.Allow(string(rune(i + 1)))
	}
	if len(limiter.clients) != maxTrackedClients {
		t.Fatalf("expected %d tracked clients, got %d", maxTrackedClients, len(limiter.clients))
	}
	limiter.Allow("overflow")
	if len(limiter.clients) != 1 {
		t.Fatalf("expected table reset, got %d clients", len(limiter.clients))
	}
}
