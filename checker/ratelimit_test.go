package checker

import (
	"context"
	"testing"
	"time"
)

func TestAdaptiveLimiter_Backoff(t *testing.T) {
	limiter := NewAdaptiveLimiter(10, 200*time.Millisecond)

	for range 20 {
		limiter.Observe("slow.example.com", 500*time.Millisecond)
	}

	got := limiter.Rate("slow.example.com")
	if got >= 10 {
		t.Errorf("Rate() = %.1f, should have backed off below 10", got)
	}
	if got < minRateFloor {
		t.Errorf("Rate() = %.1f, should not drop below floor %.1f", got, minRateFloor)
	}
}

func TestAdaptiveLimiter_HostsAreIndependent(t *testing.T) {
	limiter := NewAdaptiveLimiter(10, 200*time.Millisecond)

	for range 20 {
		limiter.Observe("slow.example.com", 2*time.Second)
	}

	if got := limiter.Rate("fast.example.com"); got != 10 {
		t.Errorf("Rate(fast) = %.1f, want 10", got)
	}
}

func TestAdaptiveLimiter_Recovery(t *testing.T) {
	limiter := NewAdaptiveLimiter(10, 200*time.Millisecond)

	for range 10 {
		limiter.Observe("h", 500*time.Millisecond)
	}
	afterBackoff := limiter.Rate("h")

	for range 50 {
		limiter.Observe("h", 50*time.Millisecond)
	}
	afterRecovery := limiter.Rate("h")

	if afterRecovery <= afterBackoff {
		t.Errorf("Rate() = %.1f, should have recovered above %.1f", afterRecovery, afterBackoff)
	}
	if afterRecovery > 10 {
		t.Errorf("Rate() = %.1f, should not exceed ceiling 10", afterRecovery)
	}
}

func TestAdaptiveLimiter_WaitCancelled(t *testing.T) {
	limiter := NewAdaptiveLimiter(1, time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	// Drain the burst, then cancel before the next token is due.
	if err := limiter.Wait(ctx, "h"); err != nil {
		t.Fatalf("first Wait() error: %v", err)
	}
	cancel()
	if err := limiter.Wait(ctx, "h"); err == nil {
		t.Error("Wait() should fail on a cancelled context")
	}
}
