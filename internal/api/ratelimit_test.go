package api

import (
	"net/http/httptest"
	"testing"
)

// TestGetClientIP verifies header precedence and RemoteAddr fallback.
func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:54321"
	if ip := GetClientIP(r); ip != "10.0.0.1" {
		t.Errorf("Expected 10.0.0.1 from RemoteAddr, got %s", ip)
	}

	r.Header.Set("X-Real-IP", "10.0.0.2")
	if ip := GetClientIP(r); ip != "10.0.0.2" {
		t.Errorf("Expected X-Real-IP to win over RemoteAddr, got %s", ip)
	}

	r.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")
	if ip := GetClientIP(r); ip != "10.0.0.3" {
		t.Errorf("Expected first X-Forwarded-For hop, got %s", ip)
	}
}

// TestIPRateLimiterAllow verifies the burst is honored per IP.
func TestIPRateLimiterAllow(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             3,
		CleanupInterval:   DefaultRateLimitConfig.CleanupInterval,
	})
	defer rl.Stop()

	allowed := 0
	for i := 0; i < 10; i++ {
		if rl.Allow("1.2.3.4") {
			allowed++
		}
	}
	if allowed != 3 {
		t.Errorf("Expected burst of 3 allowed, got %d", allowed)
	}

	// A different IP gets its own bucket
	if !rl.Allow("5.6.7.8") {
		t.Error("Expected fresh IP to be allowed")
	}

	stats := rl.GetStats()
	if stats["allowed"] != 4 || stats["rejected"] != 7 {
		t.Errorf("Expected allowed=4 rejected=7, got %v", stats)
	}
}

// TestWebSocketRateLimiter verifies the per-IP connection cap and
// release behavior.
func TestWebSocketRateLimiter(t *testing.T) {
	wrl := NewWebSocketRateLimiter(2)

	if !wrl.Allow("a") || !wrl.Allow("a") {
		t.Fatal("Expected two slots for one IP")
	}
	if wrl.Allow("a") {
		t.Error("Expected third connection from same IP to be rejected")
	}
	if !wrl.Allow("b") {
		t.Error("Expected different IP to be unaffected")
	}

	wrl.Release("a")
	if !wrl.Allow("a") {
		t.Error("Expected a slot back after Release")
	}
}
