// Package examclock implements the server-authoritative section timer used
// by tryout attempts. The server clock is the single source of truth; a
// client corrects for skew with a one-time offset captured whenever the
// section start timestamp changes.
package examclock

import (
	"sync"
	"time"
)

// Offset returns the skew between the server reference time and the local
// clock, in milliseconds. Compute it once when the section start timestamp
// changes, then apply it to every subsequent local tick.
func Offset(serverTime, localNow time.Time) int64 {
	return serverTime.UnixMilli() - localNow.UnixMilli()
}

// Remaining computes the seconds left in the active section.
//
// offsetMs is the skew returned by Offset, startedAt the section start
// timestamp, durationSeconds the section budget. nowFn supplies the local
// clock and is injectable for tests. The result is floored at zero.
func Remaining(offsetMs int64, startedAt time.Time, durationSeconds int, nowFn func() time.Time) int {
	now := nowFn().UnixMilli() + offsetMs
	elapsed := (now - startedAt.UnixMilli()) / 1000
	left := int64(durationSeconds) - elapsed
	if left < 0 {
		return 0
	}
	return int(left)
}

// ExpiryGuard ensures section expiry fires exactly once per section start.
// Re-entering the same section state must not double-trigger the advance;
// the guard resets whenever the start timestamp changes.
type ExpiryGuard struct {
	mu      sync.Mutex
	started time.Time
	fired   bool
}

// Fire reports whether expiry should be acted on for the section that began
// at startedAt. The first call per start timestamp returns true; repeats
// return false until a different timestamp is observed.
func (g *ExpiryGuard) Fire(startedAt time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started.Equal(startedAt) {
		g.started = startedAt
		g.fired = false
	}
	if g.fired {
		return false
	}
	g.fired = true
	return true
}
