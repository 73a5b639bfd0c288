package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisLimiter(t *testing.T) (*RedisRateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	rl := NewRedisRateLimiter(client, 5, 15*time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, mr
}

func TestRedisLimiter_UnknownIdentifier(t *testing.T) {
	rl, mr := newTestRedisLimiter(t)

	st := rl.Check(context.Background(), "login:198.51.100.7")
	if !st.Allowed || st.Remaining != 5 {
		t.Fatalf("expected full quota, got %+v", st)
	}
	if len(mr.Keys()) != 0 {
		t.Fatal("Check must not create keys")
	}
}

func TestRedisLimiter_BlocksAfterMax(t *testing.T) {
	rl, _ := newTestRedisLimiter(t)
	ctx := context.Background()
	id := "login:203.0.113.5"

	var st Status
	for n := 1; n <= 5; n++ {
		st = rl.RecordFailure(ctx, id)
		if !st.Allowed || st.Remaining != 5-n {
			t.Fatalf("failure %d: got %+v", n, st)
		}
	}

	check := rl.Check(ctx, id)
	if check.Allowed {
		t.Fatal("expected blocked after 5 failures")
	}
	if d := check.ResetTime.Sub(rl.now()); d <= 14*time.Minute || d > 15*time.Minute {
		t.Fatalf("expected reset ~15m out, got %s", d)
	}

	if again := rl.RecordFailure(ctx, id); again.Allowed {
		t.Fatal("saturated counter must stay blocked")
	}
}

func TestRedisLimiter_WindowExpiry(t *testing.T) {
	rl, mr := newTestRedisLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rl.RecordFailure(ctx, "k")
	}
	mr.FastForward(16 * time.Minute)

	st := rl.RecordFailure(ctx, "k")
	if !st.Allowed || st.Remaining != 4 {
		t.Fatalf("expected a fresh window, got %+v", st)
	}
}

func TestRedisLimiter_Reset(t *testing.T) {
	rl, _ := newTestRedisLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rl.RecordFailure(ctx, "k")
	}
	rl.Reset(ctx, "k")

	if st := rl.RecordFailure(ctx, "k"); st.Remaining != 4 {
		t.Fatalf("expected remaining=4 after reset, got %d", st.Remaining)
	}
}

func TestRedisLimiter_FailsOpen(t *testing.T) {
	rl, mr := newTestRedisLimiter(t)
	mr.Close()

	st := rl.RecordFailure(context.Background(), "k")
	if !st.Allowed || st.Remaining != 5 {
		t.Fatalf("expected fail-open status, got %+v", st)
	}
}
