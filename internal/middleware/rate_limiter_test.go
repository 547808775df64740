package middleware

import (
	"testing"
	"time"
)

func TestRateLimiter_UserLimit(t *testing.T) {
	rl := NewRateLimiter(3, 100, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow(1, 10) {
			t.Fatalf("request %d unexpectedly denied", i+1)
		}
	}
	if rl.Allow(1, 10) {
		t.Error("4th request allowed, want denied")
	}

	// A different user in the same chat is still allowed
	if !rl.Allow(2, 10) {
		t.Error("different user denied")
	}
}

func TestRateLimiter_ChatLimit(t *testing.T) {
	rl := NewRateLimiter(100, 2, time.Minute)

	if !rl.Allow(1, 10) || !rl.Allow(2, 10) {
		t.Fatal("requests under chat limit denied")
	}
	if rl.Allow(3, 10) {
		t.Error("request over chat limit allowed")
	}
	if !rl.Allow(3, 11) {
		t.Error("request in different chat denied")
	}
}

func TestRateLimiter_WindowReset(t *testing.T) {
	rl := NewRateLimiter(1, 1, 10*time.Millisecond)

	if !rl.Allow(1, 10) {
		t.Fatal("first request denied")
	}
	if rl.Allow(1, 10) {
		t.Fatal("second request allowed inside window")
	}

	time.Sleep(20 * time.Millisecond)

	if !rl.Allow(1, 10) {
		t.Error("request denied after window reset")
	}
}
