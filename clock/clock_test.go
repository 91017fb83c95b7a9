package clock_test

import (
	"testing"
	"time"

	"github.com/sabouaram/uacore/clock"
)

func TestNowMonotonicIsNonDecreasing(t *testing.T) {
	a := clock.NowMonotonic()
	time.Sleep(time.Millisecond)
	b := clock.NowMonotonic()

	if b < a {
		t.Fatalf("monotonic clock went backwards: %d -> %d", a, b)
	}
}

func TestDurationRoundTrip(t *testing.T) {
	d := 250 * time.Millisecond
	t2 := clock.FromDuration(d)

	if t2.Duration() != d {
		t.Fatalf("round trip mismatch: got %v, want %v", t2.Duration(), d)
	}
}

func TestMillisecondTicks(t *testing.T) {
	if clock.MillisecondTicks != 10_000 {
		t.Fatalf("expected UA_DATETIME_MSEC == 10000, got %d", clock.MillisecondTicks)
	}
}
