package examclock

import (
	"testing"
	"time"
)

func TestRemaining_CountsDownFromDuration(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 600},
		{1 * time.Second, 599},
		{599 * time.Second, 1},
		{600 * time.Second, 0},
	}

	for _, tc := range cases {
		now := func() time.Time { return start.Add(tc.elapsed) }
		if got := Remaining(0, start, 600, now); got != tc.want {
			t.Errorf("elapsed %v: expected %d, got %d", tc.elapsed, tc.want, got)
		}
	}
}

func TestRemaining_FlooredAtZeroPastExpiry(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return start.Add(601 * time.Second) }

	if got := Remaining(0, start, 600, now); got != 0 {
		t.Errorf("expected 0 one second past expiry, got %d", got)
	}

	now = func() time.Time { return start.Add(2 * time.Hour) }
	if got := Remaining(0, start, 600, now); got != 0 {
		t.Errorf("expected 0 long past expiry, got %d", got)
	}
}

func TestRemaining_AppliesServerOffset(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	// Local clock runs 30s behind the server; the offset corrects it.
	localNow := func() time.Time { return start.Add(70 * time.Second) }
	offset := Offset(start.Add(100*time.Second), localNow())

	if offset != 30_000 {
		t.Fatalf("expected offset 30000ms, got %d", offset)
	}
	if got := Remaining(offset, start, 600, localNow); got != 500 {
		t.Errorf("expected 500 remaining with offset applied, got %d", got)
	}
}

func TestExpiryGuard_FiresExactlyOncePerSectionStart(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	var g ExpiryGuard

	if !g.Fire(start) {
		t.Fatal("first fire should return true")
	}
	// Timer keeps ticking after expiry; repeats must not re-trigger.
	for i := 0; i < 5; i++ {
		if g.Fire(start) {
			t.Fatalf("tick %d: expiry fired twice for the same section start", i)
		}
	}

	// A new section start resets the guard.
	next := start.Add(15 * time.Minute)
	if !g.Fire(next) {
		t.Error("guard should fire again after the start timestamp changes")
	}
	if g.Fire(next) {
		t.Error("guard fired twice for the new section start")
	}
}
