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

// Package loop is the runtime core: the FD registry and poller (C4), the
// self-pipe cancel channel (C5), the event-loop lifecycle state machine
// (C6) and the event-source registration framework (C7).
package loop

import (
	"sync"

	"github.com/sabouaram/uacore/delayed"
)

// Interest is the readiness mask a RegisteredFD is polled for.
type Interest uint8

const (
	InterestIn Interest = 1 << iota
	InterestOut
	InterestErr
)

// Has reports whether mask includes i.
func (m Interest) Has(i Interest) bool { return m&i != 0 }

// DispatchFunc is called once per ready fd per poll, with every readiness
// condition observed for it passed together as flags (spec.md §4.4).
type DispatchFunc func(fd *RegisteredFD, readable, writable, errored bool)

// RegisteredFD is the opaque handle the poller tracks: a raw descriptor, an
// interest mask, a back-pointer to its owning event source, a dispatch
// callback, and an embedded delayed-callback slot used as a close sentinel
// -- arming Close (setting its callback non-nil) means "ignore further
// readiness until the close runs" (spec.md §3 RegisteredFD).
type RegisteredFD struct {
	mu sync.Mutex

	FD       int
	Interest Interest
	Source   EventSource
	Dispatch DispatchFunc

	closing  delayed.Handle
	armed    bool
	index    int // poller-implementation private slot, -1 when unregistered
}

// ArmClose marks the fd as pending an asynchronous close: incoming
// readiness events are ignored from this point on. Idempotent.
func (r *RegisteredFD) ArmClose() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.armed {
		return false
	}
	r.armed = true
	return true
}

// Armed reports whether ArmClose has already fired for this fd.
func (r *RegisteredFD) Armed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.armed
}
