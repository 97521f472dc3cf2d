package ratelimit

import (
	"testing"
	"time"
)

func TestAllow(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 3, CleanupInterval: time.Minute})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("request over the limit should be rejected")
	}
	// Other clients keep their own budget
	if !rl.Allow("5.6.7.8") {
		t.Error("different client should be allowed")
	}
}

func TestAllow_WindowReset(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1, CleanupInterval: time.Minute})
	defer rl.Stop()

	if !rl.Allow("1.2.3.4") {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("second request in the window should be rejected")
	}

	rl.mu.Lock()
	rl.clients["1.2.3.4"].lastRequest = time.Now().Add(-2 * time.Minute)
	rl.mu.Unlock()

	if !rl.Allow("1.2.3.4") {
		t.Error("request after window reset should be allowed")
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	defer rl.Stop()

	rl.Allow("1.2.3.4")
	rl.Allow("5.6.7.8")
	if got := rl.ActiveClients(); got != 2 {
		t.Fatalf("ActiveClients() = %d, want 2", got)
	}

	rl.mu.Lock()
	rl.clients["1.2.3.4"].lastRequest = time.Now().Add(-11 * time.Minute)
	rl.mu.Unlock()

	rl.cleanupStaleEntries()
	if got := rl.ActiveClients(); got != 1 {
		t.Errorf("ActiveClients() after cleanup = %d, want 1", got)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Stop()
	rl.Stop()
}
