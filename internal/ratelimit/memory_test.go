package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()
	now := time.Date(2024, time.January, 1, 12, 0, 10, 0, time.UTC)
	key := KeyForReportCreate(7)

	for i := 0; i < 3; i++ {
		result, errAllow := limiter.Allow(ctx, key, 3, now)
		if errAllow != nil {
			t.Fatalf("allow %d: %v", i, errAllow)
		}
		if !result.Allowed {
			t.Fatalf("request %d within limit must be allowed", i)
		}
		if result.Remaining != 3-i-1 {
			t.Fatalf("request %d: remaining = %d, want %d", i, result.Remaining, 3-i-1)
		}
	}

	result, errAllow := limiter.Allow(ctx, key, 3, now)
	if errAllow != nil {
		t.Fatalf("allow over limit: %v", errAllow)
	}
	if result.Allowed {
		t.Fatalf("fourth request in the window must be denied")
	}
	if !result.Reset.Equal(time.Date(2024, time.January, 1, 12, 1, 0, 0, time.UTC)) {
		t.Fatalf("unexpected reset: %v", result.Reset)
	}

	// The next window starts fresh.
	later := now.Add(time.Minute)
	result, errAllow = limiter.Allow(ctx, key, 3, later)
	if errAllow != nil {
		t.Fatalf("allow next window: %v", errAllow)
	}
	if !result.Allowed || result.Remaining != 2 {
		t.Fatalf("next window must reset the counter, got %+v", result)
	}
}

func TestMemoryLimiter_ZeroLimitDisables(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Now()
	for i := 0; i < 10; i++ {
		result, errAllow := limiter.Allow(context.Background(), "e:1:reports", 0, now)
		if errAllow != nil || !result.Allowed {
			t.Fatalf("zero limit must always allow, got %+v err=%v", result, errAllow)
		}
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()
	now := time.Now()

	if result, _ := limiter.Allow(ctx, KeyForReportCreate(1), 1, now); !result.Allowed {
		t.Fatalf("first empresa must be allowed")
	}
	if result, _ := limiter.Allow(ctx, KeyForReportCreate(1), 1, now); result.Allowed {
		t.Fatalf("first empresa must now be limited")
	}
	if result, _ := limiter.Allow(ctx, KeyForReportCreate(2), 1, now); !result.Allowed {
		t.Fatalf("second empresa must be unaffected")
	}
}

func TestKeyForReportCreate(t *testing.T) {
	if got := KeyForReportCreate(7); got != "e:7:reports" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := KeyForReportCreate(0); got != "" {
		t.Fatalf("zero empresa must produce no key, got %q", got)
	}
}
