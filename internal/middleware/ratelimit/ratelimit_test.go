package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *time.Time) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	t.Cleanup(rl.Stop)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestAllowWindow(t *testing.T) {
	rl, now := newTestLimiter(t, 2)

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Fatal("third request inside the window should be rejected")
	}
	if !rl.Allow("b") {
		t.Fatal("other clients are limited independently")
	}

	*now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("a new window should reset the counter")
	}
	if m := rl.GetMetrics(); m.TotalHits != 1 || m.ClientCount != 2 {
		t.Fatalf("unexpected metrics %+v", m)
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, now := newTestLimiter(t, 5)
	rl.Allow("a")
	*now = now.Add(11 * time.Minute)
	rl.Allow("b")
	rl.cleanupStaleEntries()
	if rl.ActiveClients() != 1 {
		t.Fatalf("expected only the recent client to remain, got %d", rl.ActiveClients())
	}
}

func TestMiddlewareRejectsWithRetryAfter(t *testing.T) {
	rl, now := newTestLimiter(t, 1)
	h := rl.Middleware(func(*http.Request) string { return "c" }, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("first request: %d", rr.Code)
	}

	*now = now.Add(20 * time.Second)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: %d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "40" {
		t.Fatalf("Retry-After = %q, want 40", got)
	}
}
