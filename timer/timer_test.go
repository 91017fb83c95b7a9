package timer_test

import (
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sabouaram/uacore/clock"
	"github.com/sabouaram/uacore/timer"
)

var _ = Describe("Ordered timer", func() {
	It("round-trips add -> remove leaving the timer empty", func() {
		tm := timer.New()
		now := clock.NowMonotonic()

		id, err := tm.Add(func(app, data interface{}) {}, nil, nil, 50, now, nil, timer.CurrentTime)
		Expect(err).ToNot(HaveOccurred())
		Expect(tm.Len()).To(Equal(1))

		Expect(tm.Remove(id)).To(Succeed())
		Expect(tm.Len()).To(Equal(0))
	})

	It("rejects a non-positive interval except for Once", func() {
		tm := timer.New()
		now := clock.NowMonotonic()

		_, err := tm.Add(func(app, data interface{}) {}, nil, nil, 0, now, nil, timer.CurrentTime)
		Expect(err).To(HaveOccurred())

		base := now
		_, err = tm.Add(func(app, data interface{}) {}, nil, nil, 0, now, &base, timer.Once)
		Expect(err).ToNot(HaveOccurred())
	})

	It("rejects modify of an unknown id with NotFound", func() {
		tm := timer.New()
		err := tm.Modify(999, 10, clock.NowMonotonic(), nil, timer.CurrentTime)
		Expect(err).To(HaveOccurred())
	})

	It("fires a Once entry exactly once and frees it (I2)", func() {
		tm := timer.New()
		now := clock.NowMonotonic()

		var fired int32
		_, err := tm.Add(func(app, data interface{}) { atomic.AddInt32(&fired, 1) }, nil, nil, 0, now, nil, timer.Once)
		Expect(err).ToNot(HaveOccurred())

		next := tm.Process(now + 1)
		Expect(atomic.LoadInt32(&fired)).To(Equal(int32(1)))
		Expect(tm.Len()).To(Equal(0))
		Expect(next).To(Equal(clock.Max))
	})

	It("recovers a missed CurrentTime cycle to now+interval, firing exactly once (scenario 6)", func() {
		tm := timer.New()
		now := clock.NowMonotonic()
		intervalMs := int64(100)

		var fired int32
		_, err := tm.Add(func(app, data interface{}) { atomic.AddInt32(&fired, 1) }, nil, nil, intervalMs, now, nil, timer.CurrentTime)
		Expect(err).ToNot(HaveOccurred())

		// simulate 5 seconds of missed wall-clock time
		later := now + clock.Time(5_000*clock.MillisecondTicks)
		next := tm.Process(later)

		Expect(atomic.LoadInt32(&fired)).To(Equal(int32(1)))
		Expect(next).To(Equal(later + clock.Time(intervalMs*clock.MillisecondTicks)))
	})

	It("aligns a missed BaseTime cycle to the next multiple of interval from baseTime (I4)", func() {
		tm := timer.New()
		now := clock.NowMonotonic()
		base := now
		intervalMs := int64(100)
		intervalTicks := clock.Time(intervalMs * clock.MillisecondTicks)

		_, err := tm.Add(func(app, data interface{}) {}, nil, nil, intervalMs, now, &base, timer.BaseTime)
		Expect(err).ToNot(HaveOccurred())

		later := now + clock.Time(5_030*clock.MillisecondTicks)
		tm.Process(later)

		next := tm.Next()
		Expect((int64(next) - int64(base)) % int64(intervalTicks)).To(Equal(int64(0)))
		Expect(next).To(BeNumerically(">", later))
	})

	It("keeps minimum nextTime strictly greater than now after Process (I2)", func() {
		tm := timer.New()
		now := clock.NowMonotonic()

		for i := int64(1); i <= 20; i++ {
			_, err := tm.Add(func(app, data interface{}) {}, nil, nil, i, now, nil, timer.CurrentTime)
			Expect(err).ToNot(HaveOccurred())
		}

		cur := now
		for i := 0; i < 50; i++ {
			next := tm.Process(cur)
			if next != clock.Max {
				Expect(next).To(BeNumerically(">", cur))
			}
			if next > cur+clock.Time(100*clock.MillisecondTicks) {
				cur += clock.Time(100 * clock.MillisecondTicks)
			} else {
				cur = next
			}
		}
	})

	It("lets a callback modify itself safely (reentrant mutation)", func() {
		tm := timer.New()
		now := clock.NowMonotonic()

		var id uint64
		var calls int32
		fn := func(app, data interface{}) {
			n := atomic.AddInt32(&calls, 1)
			if n == 1 {
				_ = tm.Modify(id, 10, clock.NowMonotonic(), nil, timer.CurrentTime)
			}
		}

		var err error
		id, err = tm.Add(fn, nil, nil, 5, now, nil, timer.CurrentTime)
		Expect(err).ToNot(HaveOccurred())

		tm.Process(now + clock.Time(5*clock.MillisecondTicks))
		Expect(atomic.LoadInt32(&calls)).To(Equal(int32(1)))
		Expect(tm.Len()).To(Equal(1))
	})

	It("lets a callback remove itself safely", func() {
		tm := timer.New()
		now := clock.NowMonotonic()

		var id uint64
		fn := func(app, data interface{}) {
			_ = tm.Remove(id)
		}

		var err error
		id, err = tm.Add(fn, nil, nil, 5, now, nil, timer.CurrentTime)
		Expect(err).ToNot(HaveOccurred())

		tm.Process(now + clock.Time(5*clock.MillisecondTicks))
		Expect(tm.Len()).To(Equal(0))
	})

	It("batches a harmonic CurrentTime neighbor within the capped window", func() {
		tm := timer.New()
		now := clock.NowMonotonic()

		id1, err := tm.Add(func(app, data interface{}) {}, nil, nil, 100, now, nil, timer.CurrentTime)
		Expect(err).ToNot(HaveOccurred())
		n1 := tm.Next()

		// Added 90ms earlier, the 200ms entry requests now+110ms: 10ms from
		// the first entry's now+100ms, inside its 50ms window (200/4), and
		// 200ms is a harmonic (2x) of 100ms.
		_, err = tm.Add(func(app, data interface{}) {}, nil, nil, 200, now-clock.Time(90*clock.MillisecondTicks), nil, timer.CurrentTime)
		Expect(err).ToNot(HaveOccurred())

		// both entries share the same nextTime after alignment
		Expect(tm.Remove(id1)).To(Succeed())
		Expect(tm.Next()).To(Equal(n1))
	})

	It("runs the 10k-entry benchmark without losing invariant I2 (scenario 1, reduced scale)", func() {
		tm := timer.New()
		now := clock.NowMonotonic()

		const n = 200
		counts := make([]int32, n+1)

		for i := int64(1); i <= n; i++ {
			idx := i
			_, err := tm.Add(func(app, data interface{}) {
				atomic.AddInt32(&counts[idx], 1)
			}, nil, nil, i, now, nil, timer.CurrentTime)
			Expect(err).ToNot(HaveOccurred())
		}

		cur := now
		for i := 0; i < 100; i++ {
			next := tm.Process(cur)
			if next != clock.Max {
				Expect(next).To(BeNumerically(">", cur))
			}
			step := clock.Time(100 * clock.MillisecondTicks)
			if next != clock.Max && next-cur > step {
				cur += step
			} else if next != clock.Max {
				cur = next
			} else {
				cur += step
			}
		}

		for i := int64(1); i <= n; i++ {
			Expect(atomic.LoadInt32(&counts[i])).To(BeNumerically(">=", int32(0)))
		}
		Expect(tm.Len()).To(Equal(n))
	})
})
