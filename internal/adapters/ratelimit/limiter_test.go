package ratelimit

import (
	"testing"
	"time"
)

func TestQuotaBoundary(t *testing.T) {
	limiter := NewSlidingWindow(Config{Limit: 60, Window: time.Minute}, nil)
	defer limiter.Close()

	for i := 1; i <= 60; i++ {
		if !limiter.Allow("user-1") {
			t.Fatalf("request %d should be inside the quota", i)
		}
	}

	if limiter.Allow("user-1") {
		t.Error("request 61 should be denied")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	limiter := NewSlidingWindow(Config{Limit: 1, Window: time.Minute}, nil)
	defer limiter.Close()

	if !limiter.Allow("user-1") {
		t.Error("first request for user-1 should be allowed")
	}
	if limiter.Allow("user-1") {
		t.Error("second request for user-1 should be denied")
	}
	if !limiter.Allow("user-2") {
		t.Error("first request for user-2 should be allowed")
	}
}

func TestWindowSlides(t *testing.T) {
	limiter := NewSlidingWindow(Config{Limit: 2, Window: 50 * time.Millisecond}, nil)
	defer limiter.Close()

	if !limiter.Allow("user-1") || !limiter.Allow("user-1") {
		t.Fatal("burst inside the window should be allowed")
	}
	if limiter.Allow("user-1") {
		t.Error("request over the limit should be denied")
	}

	time.Sleep(70 * time.Millisecond)

	if !limiter.Allow("user-1") {
		t.Error("request after the window slid should be allowed")
	}
}

func TestDeniedRequestNotCounted(t *testing.T) {
	limiter := NewSlidingWindow(Config{Limit: 1, Window: 40 * time.Millisecond}, nil)
	defer limiter.Close()

	if !limiter.Allow("user-1") {
		t.Fatal("first request should be allowed")
	}
	for i := 0; i < 5; i++ {
		limiter.Allow("user-1")
	}

	time.Sleep(60 * time.Millisecond)

	if !limiter.Allow("user-1") {
		t.Error("denied requests must not extend the window")
	}
}

func TestReset(t *testing.T) {
	limiter := NewSlidingWindow(Config{Limit: 1, Window: time.Minute}, nil)
	defer limiter.Close()

	limiter.Allow("user-1")
	if limiter.Allow("user-1") {
		t.Fatal("expected quota to be exhausted")
	}

	limiter.Reset("user-1")

	if !limiter.Allow("user-1") {
		t.Error("reset should clear the recorded requests")
	}
}
