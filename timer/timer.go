/*
 * MIT License
 *
 * Copyright (c) 2026 Sabouaram
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package timer

import (
	"container/heap"
	"sync"

	"github.com/sabouaram/uacore/clock"
	"github.com/sabouaram/uacore/errs"
)

// batchWindowCapTicks is the 1s clamp on the harmonic-batching search
// window (spec.md §4.2 "Batching").
const batchWindowCapTicks int64 = int64(1_000) * clock.MillisecondTicks

// Timer is the ordered timer wheel. The zero value is not usable; use New.
type Timer struct {
	mu     sync.Mutex
	h      timeHeap
	byID   map[uint64]*entry
	nextID uint64
}

// New returns an empty Timer.
func New() *Timer {
	return &Timer{
		byID: make(map[uint64]*entry),
	}
}

// Add schedules callback fn(app, data). intervalMs must be > 0 unless
// policy is Once, which additionally admits a past firing time: if baseTime
// is supplied (non-nil) the effective interval becomes baseTime-now and the
// entry fires on the next Process call. Returns the entry's id.
func (t *Timer) Add(fn Callback, app, data interface{}, intervalMs int64, now clock.Time, baseTime *clock.Time, policy Policy) (uint64, error) {
	if fn == nil {
		return 0, errs.New(errs.BadInvalidArgument, "nil callback", nil)
	}
	if intervalMs <= 0 && policy != Once {
		return 0, errs.New(errs.BadInvalidArgument, "interval must be > 0 except for Once policy", nil)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	id := t.nextID

	intervalTicks := intervalMs * clock.MillisecondTicks
	e := &entry{
		id:       id,
		interval: intervalTicks,
		policy:   policy,
		fn:       fn,
		app:      app,
		data:     data,
	}

	e.nextTime = computeNextTime(int64(now), intervalTicks, baseTime, policy)
	if baseTime != nil {
		e.baseTime = int64(*baseTime)
	} else {
		e.baseTime = e.nextTime
	}

	if policy == CurrentTime && intervalTicks > 0 {
		t.batchAlign(e)
	}

	t.byID[id] = e
	heap.Push(&t.h, e)

	return id, nil
}

func computeNextTime(now, intervalTicks int64, baseTime *clock.Time, policy Policy) int64 {
	if policy == Once && baseTime != nil {
		return int64(*baseTime)
	}
	if baseTime != nil {
		base := int64(*baseTime)
		if intervalTicks <= 0 {
			return base
		}
		return align(now, base, intervalTicks)
	}
	return now + intervalTicks
}

// align implements spec.md's align(t, base, p) = t + p - ((t-base) mod p),
// normalizing a negative modulus by adding p so a base time in the future
// still yields a forward-aligned result.
func align(t, base, p int64) int64 {
	m := (t - base) % p
	if m < 0 {
		m += p
	}
	return t + p - m
}

// batchAlign searches for a harmonic neighbor within min(interval/4, 1s) of
// e's requested nextTime whose interval is an integer multiple of e's (or
// vice versa), and aligns e.nextTime to it. The shift is bounded by the
// window: interval/4, and never more than 1s.
func (t *Timer) batchAlign(e *entry) {
	window := e.interval / 4
	if window > batchWindowCapTicks {
		window = batchWindowCapTicks
	}
	if window <= 0 {
		return
	}

	for _, o := range t.byID {
		if o == e || o.policy != CurrentTime || o.interval <= 0 {
			continue
		}
		if o.nextTime == e.nextTime {
			return
		}

		diff := e.nextTime - o.nextTime
		if diff < 0 {
			diff = -diff
		}
		if diff > window {
			continue
		}

		var multiple bool
		if e.interval >= o.interval && e.interval%o.interval == 0 {
			multiple = true
		} else if o.interval >= e.interval && o.interval%e.interval == 0 {
			multiple = true
		}
		if !multiple {
			continue
		}

		e.nextTime = o.nextTime
		return
	}
}

// Modify updates an existing entry's schedule. If the entry is currently
// being processed (mid-dispatch, not in the heap), only its fields are
// updated; Process's post-dispatch re-insertion (which does
// "nextTime += interval") is made to land on the intended time by
// subtracting interval here, avoiding a separate "was modified" flag.
func (t *Timer) Modify(id uint64, intervalMs int64, now clock.Time, baseTime *clock.Time, policy Policy) error {
	if intervalMs <= 0 && policy != Once {
		return errs.New(errs.BadInvalidArgument, "interval must be > 0 except for Once policy", nil)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.byID[id]
	if !ok {
		return errs.New(errs.BadNotFound, "unknown timer id", nil)
	}

	intervalTicks := intervalMs * clock.MillisecondTicks
	newNext := computeNextTime(int64(now), intervalTicks, baseTime, policy)

	if e.heapIndex == -1 {
		// Mid-dispatch: Process will do nextTime += interval after this
		// callback returns, so pre-subtract to land exactly on newNext.
		e.interval = intervalTicks
		e.policy = policy
		if baseTime != nil {
			e.baseTime = int64(*baseTime)
		}
		e.nextTime = newNext - intervalTicks
		return nil
	}

	heap.Remove(&t.h, e.heapIndex)
	e.interval = intervalTicks
	e.policy = policy
	if baseTime != nil {
		e.baseTime = int64(*baseTime)
	}
	e.nextTime = newNext
	if policy == CurrentTime && intervalTicks > 0 {
		t.batchAlign(e)
	}
	heap.Push(&t.h, e)
	return nil
}

// Remove cancels an entry. If it is in the heap it is detached and freed
// immediately; if it is being processed it is tombstoned (flagged) so the
// in-flight dispatch pass skips execution and frees it afterward.
func (t *Timer) Remove(id uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.byID[id]
	if !ok {
		return errs.New(errs.BadNotFound, "unknown timer id", nil)
	}

	if e.heapIndex == -1 {
		e.tombstoned = true
		return nil
	}

	heap.Remove(&t.h, e.heapIndex)
	delete(t.byID, id)
	return nil
}

// Next returns the nextTime of the minimum live entry without doing any
// dispatch work, or clock.Max if the timer is empty.
func (t *Timer) Next() clock.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next()
}

func (t *Timer) next() clock.Time {
	if len(t.h) == 0 {
		return clock.Max
	}
	return clock.Time(t.h[0].nextTime)
}

// Process splits the heap into entries due at or before now and the
// remainder, invokes each due callback in nextTime order with the lock
// dropped, then reschedules or frees each per its policy. It returns the
// nextTime of the minimum live entry afterward (spec.md invariant I2: that
// value is always strictly greater than now).
func (t *Timer) Process(now clock.Time) clock.Time {
	t.mu.Lock()

	var ready []*entry
	for len(t.h) > 0 && t.h[0].nextTime <= int64(now) {
		e := heap.Pop(&t.h).(*entry)
		ready = append(ready, e)
	}

	t.mu.Unlock()

	for _, e := range ready {
		if !e.tombstoned && e.fn != nil {
			e.fn(e.app, e.data)
		}

		t.mu.Lock()
		if e.tombstoned || e.policy == Once {
			delete(t.byID, e.id)
			t.mu.Unlock()
			continue
		}

		e.nextTime += e.interval
		if e.nextTime <= int64(now) {
			switch e.policy {
			case CurrentTime:
				e.nextTime = int64(now) + e.interval
			case BaseTime:
				e.nextTime = align(int64(now), e.baseTime, e.interval)
			}
		}
		heap.Push(&t.h, e)
		t.mu.Unlock()
	}

	return t.Next()
}

// Clear frees every entry.
func (t *Timer) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.h = nil
	t.byID = make(map[uint64]*entry)
}

// Len reports the number of live entries; the timer tests use it to check
// additions and removals.
func (t *Timer) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byID)
}
