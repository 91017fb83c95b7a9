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

// Package timer implements the ordered, monotonic-time timer wheel (C2):
// a key-value store of timer entries ordered by nextTime, also indexed by
// id, supporting cyclic and one-shot callbacks, two cycle-miss recovery
// policies and harmonic batching.
//
// In the systems-language original, the ordering is two intrusive
// red-black-tree links embedded in each entry (see spec.md's design notes).
// Go has no pointer-stable intrusive-container idiom that survives a GC
// compaction discipline as cheaply, so this package keeps the same "two
// independent ordered views over one arena of entries" shape but realizes
// the time-ordered view with container/heap over slot indices rather than
// tree pointers, and the id-ordered view with a map. Both views still let a
// callback mutate (add/modify/remove) the timer it is running under without
// aliasing a live iterator, which is the property the original intrusive
// design exists to provide.
package timer

// Policy selects how a cyclic entry recovers from a missed cycle (a call to
// Process that observes nextTime already behind now by one interval or
// more).
type Policy int

const (
	// CurrentTime re-anchors a missed cycle to now + interval, guaranteeing
	// at least interval between executions (spec.md I3).
	CurrentTime Policy = iota
	// BaseTime re-anchors a missed cycle to the next multiple of interval
	// from baseTime, guaranteeing (executionTime-baseTime) mod interval == 0
	// modulo clock slew (spec.md I4).
	BaseTime
	// Once is a one-shot entry; interval is ignored after first firing.
	Once
)

// Callback is invoked with the application and data values supplied to Add,
// with the timer's lock released so it may safely call back into the timer
// (including modifying or removing itself).
type Callback func(app, data interface{})

// entry is one slot in the timer arena. Exactly one of two states holds at
// any observation point outside Process: it is reachable from the heap
// (live, scheduled) or it is not (being processed this pass, tracked only
// by id via Timer.byID) -- this is the Go realization of spec.md's "main
// tree vs processing tree" split.
type entry struct {
	id         uint64
	nextTime   int64 // clock.Time, 100ns ticks
	interval   int64
	baseTime   int64
	policy     Policy
	fn         Callback
	app        interface{}
	data       interface{}
	tombstoned bool
	heapIndex  int // -1 when not in the heap (being processed)
}
