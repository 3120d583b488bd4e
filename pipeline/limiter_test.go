package pipeline

import (
	"testing"
	"time"
)

func TestLimiterCapsBursts(t *testing.T) {
	limiter := NewLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("garage") {
			t.Fatalf("Allow() = false on attempt %d, want true", i+1)
		}
	}

	if limiter.Allow("garage") {
		t.Error("Allow() = true on attempt 4, want false")
	}
}

func TestLimiterTracksCamerasIndependently(t *testing.T) {
	limiter := NewLimiter(1, time.Minute)

	if !limiter.Allow("garage") {
		t.Fatal("Allow(garage) = false, want true")
	}
	if !limiter.Allow("frontdoor") {
		t.Error("Allow(frontdoor) = false, want true; cameras must not share a budget")
	}
	if limiter.Allow("garage") {
		t.Error("Allow(garage) = true on attempt 2, want false")
	}
}

func TestLimiterWindowExpires(t *testing.T) {
	limiter := NewLimiter(1, 50*time.Millisecond)

	if !limiter.Allow("garage") {
		t.Fatal("Allow() = false on first attempt, want true")
	}
	if limiter.Allow("garage") {
		t.Fatal("Allow() = true inside the window, want false")
	}

	time.Sleep(60 * time.Millisecond)

	if !limiter.Allow("garage") {
		t.Error("Allow() = false after the window expired, want true")
	}
}
