package auth

import (
	"context"
	"sync"
	"testing"
	"time"
)

func newTestLimiter() (*RateLimiter, *time.Time) {
	rl := NewRateLimiter(5, 15*time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestCheck_UnknownIdentifier(t *testing.T) {
	rl, now := newTestLimiter()
	ctx := context.Background()

	st := rl.Check(ctx, "login:198.51.100.7")
	if !st.Allowed {
		t.Fatal("expected allowed for unknown identifier")
	}
	if st.Remaining != 5 {
		t.Fatalf("expected remaining=5, got %d", st.Remaining)
	}
	if !st.ResetTime.Equal(now.Add(15 * time.Minute)) {
		t.Fatalf("unexpected resetTime %s", st.ResetTime)
	}
	if rl.Len() != 0 {
		t.Fatal("Check must not create entries")
	}
}

func TestRecordFailure_CountsDown(t *testing.T) {
	rl, _ := newTestLimiter()
	ctx := context.Background()

	for n := 1; n < 5; n++ {
		st := rl.RecordFailure(ctx, "login:1.2.3.4")
		if !st.Allowed {
			t.Fatalf("attempt %d: expected allowed", n)
		}
		if st.Remaining != 5-n {
			t.Fatalf("attempt %d: expected remaining=%d, got %d", n, 5-n, st.Remaining)
		}

		check := rl.Check(ctx, "login:1.2.3.4")
		if !check.Allowed || check.Remaining != 5-n {
			t.Fatalf("attempt %d: Check got %+v", n, check)
		}
	}
}

func TestRecordFailure_BlocksAfterMax(t *testing.T) {
	rl, now := newTestLimiter()
	ctx := context.Background()
	id := "login:203.0.113.5"
	first := *now

	var st Status
	for i := 0; i < 5; i++ {
		st = rl.RecordFailure(ctx, id)
		*now = now.Add(time.Minute)
	}
	if !st.Allowed || st.Remaining != 0 {
		t.Fatalf("5th failure: expected allowed with remaining=0, got %+v", st)
	}

	check := rl.Check(ctx, id)
	if check.Allowed {
		t.Fatal("expected blocked after 5 failures")
	}
	if !check.ResetTime.Equal(first.Add(15 * time.Minute)) {
		t.Fatalf("resetTime should be 15m after the first failure, got %s", check.ResetTime)
	}
	if got := check.RetryAfter(*now); got != 10*60 {
		t.Fatalf("RetryAfter = %d, want 600", got)
	}
}

func TestRecordFailure_SaturatedEntryUnchanged(t *testing.T) {
	rl, _ := newTestLimiter()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rl.RecordFailure(ctx, "k")
	}
	before := *rl.entries["k"]

	st := rl.RecordFailure(ctx, "k")
	if st.Allowed {
		t.Fatal("expected blocked")
	}
	if after := *rl.entries["k"]; after != before {
		t.Fatalf("saturated entry mutated: %+v -> %+v", before, after)
	}
}

func TestWindowExpiry_StartsFreshWindow(t *testing.T) {
	rl, now := newTestLimiter()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rl.RecordFailure(ctx, "k")
	}

	// resetTime itself is still inside the window.
	*now = now.Add(15 * time.Minute)
	if rl.Check(ctx, "k").Allowed {
		t.Fatal("expected blocked exactly at resetTime")
	}

	*now = now.Add(time.Second)
	st := rl.RecordFailure(ctx, "k")
	if !st.Allowed || st.Remaining != 4 {
		t.Fatalf("expected fresh window with remaining=4, got %+v", st)
	}
	if !st.ResetTime.Equal(now.Add(15 * time.Minute)) {
		t.Fatalf("expected new resetTime, got %s", st.ResetTime)
	}
	if rl.entries["k"].count != 1 {
		t.Fatalf("expected count=1, got %d", rl.entries["k"].count)
	}
}

func TestCheck_ExpiredEntryReclaimedLazily(t *testing.T) {
	rl, now := newTestLimiter()
	ctx := context.Background()

	rl.RecordFailure(ctx, "a")
	rl.RecordFailure(ctx, "b")
	*now = now.Add(16 * time.Minute)

	// Looking up "a" drops only "a".
	st := rl.Check(ctx, "a")
	if !st.Allowed || st.Remaining != 5 {
		t.Fatalf("expected full quota, got %+v", st)
	}
	if rl.Len() != 1 {
		t.Fatalf("expected only the untouched entry to remain, got %d", rl.Len())
	}
}

func TestReset_AfterPartialFailures(t *testing.T) {
	rl, _ := newTestLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rl.RecordFailure(ctx, "k")
	}
	rl.Reset(ctx, "k")

	if rl.Len() != 0 {
		t.Fatal("expected no state after reset")
	}
	st := rl.RecordFailure(ctx, "k")
	if st.Remaining != 4 {
		t.Fatalf("expected remaining=4 after reset, got %d", st.Remaining)
	}
}

func TestDifferentIdentifiers(t *testing.T) {
	rl, _ := newTestLimiter()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rl.RecordFailure(ctx, "login:1.2.3.4")
	}
	if !rl.Check(ctx, "login:5.6.7.8").Allowed {
		t.Fatal("different identifier should not be affected")
	}
}

func TestSweep_RemovesOnlyExpired(t *testing.T) {
	rl, now := newTestLimiter()
	ctx := context.Background()

	rl.RecordFailure(ctx, "old")
	*now = now.Add(10 * time.Minute)
	rl.RecordFailure(ctx, "new")
	*now = now.Add(6 * time.Minute)

	if removed := rl.Sweep(); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, ok := rl.entries["new"]; !ok {
		t.Fatal("live entry should survive sweep")
	}
}

func TestRunSweeper_StopsOnCancel(t *testing.T) {
	rl := NewRateLimiter(5, time.Millisecond)
	rl.RecordFailure(context.Background(), "k")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.RunSweeper(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for rl.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if rl.Len() != 0 {
		t.Fatal("sweeper should have removed the expired entry")
	}
}

func TestRecordFailure_ConcurrentAccess(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rl.RecordFailure(context.Background(), "1.2.3.4")
		}()
	}
	wg.Wait()

	rl.mu.Lock()
	entry := rl.entries["1.2.3.4"]
	rl.mu.Unlock()

	if entry.count != 5 {
		t.Fatalf("expected count capped at 5, got %d", entry.count)
	}
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	if rl.Limit() != DefaultMaxAttempts || rl.window != DefaultWindow {
		t.Fatalf("expected defaults, got %d/%s", rl.Limit(), rl.window)
	}
}
