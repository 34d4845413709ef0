package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newLimiter(t *testing.T, n int) (*Limiter, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{RequestsPerWindow: n, Window: time.Minute, Now: c.Now})
	t.Cleanup(rl.Stop)
	return rl, c
}

func TestAllowWindow(t *testing.T) {
	rl, c := newLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("a") {
			t.Fatalf("request %d refused", i+1)
		}
	}
	if rl.Allow("a") {
		t.Error("fourth request in window allowed")
	}
	if !rl.Allow("b") {
		t.Error("other client refused")
	}
	if got := rl.Rejected(); got != 1 {
		t.Errorf("Rejected() = %d, want 1", got)
	}

	c.Advance(time.Minute)
	if !rl.Allow("a") {
		t.Error("request after window refused")
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, c := newLimiter(t, 3)
	rl.Allow("a")
	c.Advance(90 * time.Second)
	rl.Allow("b")
	c.Advance(45 * time.Second)

	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Errorf("cleanupStaleEntries() = %d, want 1", removed)
	}
	if got := rl.ActiveClients(); got != 1 {
		t.Errorf("ActiveClients() = %d, want 1", got)
	}
}

func TestMiddleware(t *testing.T) {
	rl, _ := newLimiter(t, 1)
	h := rl.Middleware(func(r *http.Request) string { return r.RemoteAddr }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	codes := make([]int, 2)
	for i := range codes {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		codes[i] = rec.Code
		if i == 1 && rec.Header().Get("Retry-After") != "60" {
			t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
		}
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v", codes)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Stop()
	rl.Stop()
}
