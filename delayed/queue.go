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

// Package delayed implements the next-tick callback queue (C3): a
// lock-free-push, single-consumer-drain singly linked list of callbacks
// scheduled to run once, on the event loop's next iteration.
//
// spec.md documents two valid shapes for this queue: a single
// atomically-swapped head (the POSIX variant) and a two-head/tail scheme
// (the LWIP variant) whose "is anything queued" check was written with AND
// where the POSIX variant uses OR -- spec.md's §9 Open Question (a) treats
// that LWIP asymmetry as a bug and directs implementing OR. Since Go gives
// us a correct atomic.Pointer CAS directly, we take the single-head design
// spec.md's design notes recommend as the simpler safe-language rewrite,
// sidestepping the whole question.
package delayed

import (
	"sync/atomic"
)

// Callback is invoked once, with the loop lock dropped, on the loop
// iteration following the one in which it was enqueued.
type Callback func(app, ctx interface{})

// node is one link in the singly linked list. Memory is owned by whoever
// enqueued it (commonly a RegisteredFD's embedded delayed-callback slot
// used to piggyback an async close) -- the queue never frees a node.
type node struct {
	fn   Callback
	app  interface{}
	ctx  interface{}
	next atomic.Pointer[node]
}

// Handle identifies one enqueued callback so it can be cancelled before it
// runs (Queue.Remove).
type Handle struct {
	n *node
}

// Queue is the next-tick callback queue. The zero value is ready to use.
type Queue struct {
	head atomic.Pointer[node]
}

// Add enqueues fn to run on the loop's next drain. Safe to call from any
// goroutine or signal handler without taking any lock.
func (q *Queue) Add(fn Callback, app, ctx interface{}) Handle {
	n := &node{fn: fn, app: app, ctx: ctx}
	for {
		old := q.head.Load()
		n.next.Store(old)
		if q.head.CompareAndSwap(old, n) {
			return Handle{n: n}
		}
	}
}

// Remove cancels a previously-added callback before it runs, by clearing
// its function; Drain skips tombstoned nodes. Safe to call concurrently
// with Add and with a Drain already in flight for a prior snapshot.
func (q *Queue) Remove(h Handle) {
	if h.n == nil {
		return
	}
	h.n.fn = nil
}

// Empty reports whether the queue currently holds any entry, used by the
// event loop to force the poll timeout to zero (spec.md §4.4 "Timeout
// computation": "If the delayed queue is non-empty, userTimeout is forced
// to zero").
func (q *Queue) Empty() bool {
	return q.head.Load() == nil
}

// Drain atomically takes the current head (a fresh empty queue is left in
// its place) and invokes every non-tombstoned callback in FIFO order of the
// snapshot. A callback added during the drain (including by a running
// callback re-enqueuing itself) is not observed by this Drain -- it forms
// the head of the next call, per spec.md invariant I5.
func (q *Queue) Drain() {
	cur := q.head.Swap(nil)
	if cur == nil {
		return
	}

	// The list was built by prepending (LIFO), so reverse it once to
	// restore FIFO-of-enqueue order before invoking callbacks.
	var prev *node
	for cur != nil {
		next := cur.next.Load()
		cur.next.Store(prev)
		prev = cur
		cur = next
	}

	for n := prev; n != nil; n = n.next.Load() {
		if n.fn != nil {
			n.fn(n.app, n.ctx)
		}
	}
}
