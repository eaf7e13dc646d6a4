package resilience

import (
	"context"
	"testing"
	"time"
)

func TestBreakerOpensOnFailureRatio(t *testing.T) {
	b := NewBreaker(4, 0.5, 50*time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if !b.Allow(ctx) {
			t.Fatal("breaker should start closed")
		}
		b.Report(ctx, true)
	}
	for i := 0; i < 2; i++ {
		b.Allow(ctx)
		b.Report(ctx, false)
	}
	if b.Allow(ctx) {
		t.Fatal("breaker should be open after hitting the failure ratio")
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := NewBreaker(1, 0.5, 10*time.Millisecond)
	ctx := context.Background()

	b.Allow(ctx)
	b.Report(ctx, false)
	if b.Allow(ctx) {
		t.Fatal("breaker should be open")
	}

	time.Sleep(15 * time.Millisecond)
	if !b.Allow(ctx) {
		t.Fatal("breaker should permit a probe after cool-off")
	}
	b.Report(ctx, true)
	if !b.Allow(ctx) {
		t.Fatal("breaker should close after a successful probe")
	}
}

func TestBackoffGrowsExponentially(t *testing.T) {
	base := 100 * time.Millisecond
	if Backoff(base, 1, 0) != base {
		t.Fatal("attempt 1 should equal base")
	}
	if Backoff(base, 3, 0) != 4*base {
		t.Fatal("attempt 3 should be 4x base")
	}
}
