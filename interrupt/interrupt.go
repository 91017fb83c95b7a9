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

// Package interrupt is the interrupt manager (C10): it turns asynchronous
// OS signals into callbacks dispatched from inside a loop.Loop iteration.
// Two platform strategies satisfy the same contract -- see
// interrupt_linux.go (signalfd) and interrupt_other.go (signal.Notify
// plus the loop's self-pipe) -- both built around the shared Manager
// type and record bookkeeping in this file.
package interrupt

import (
	"sync"
	"syscall"

	"github.com/sabouaram/uacore/errs"
	"github.com/sabouaram/uacore/loop"
	"github.com/sabouaram/uacore/runlog"
)

// Handler is invoked, with the owning loop's lock dropped, when its
// registered signal arrives.
type Handler func(sig syscall.Signal)

// record is the per-signal bookkeeping entry spec.md §4.10 describes:
// "Registration creates a per-signal record in a list, keyed by signal
// number; duplicate registration fails."
type record struct {
	sig     syscall.Signal
	handler Handler
}

// Manager is the interrupt event source. Registering before Start
// enqueues records; Start activates every one of them; Stop deactivates
// (unmask and restore the default handler); Free after Start fails.
type Manager struct {
	mu      sync.Mutex
	name    string
	state   loop.SourceState
	records map[syscall.Signal]*record
	log     runlog.Logger

	lp *loop.Loop

	// platform state, set by whichever of interrupt_linux.go /
	// interrupt_other.go's Start implementation runs.
	platform platformState
}

// New builds an interrupt manager. name identifies it in logs and when
// registered as a loop.EventSource.
func New(name string, log runlog.Logger) *Manager {
	return &Manager{
		name:    name,
		state:   loop.SourceFresh,
		records: make(map[syscall.Signal]*record),
		log:     log,
	}
}

func (m *Manager) Name() string { return m.name }

func (m *Manager) State() loop.SourceState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Register adds sig to the set this manager reacts to. Registering the
// same signal twice is rejected (spec.md §4.10). If the manager is
// already started, the signal is activated immediately.
func (m *Manager) Register(sig syscall.Signal, h Handler) error {
	m.mu.Lock()
	if _, dup := m.records[sig]; dup {
		m.mu.Unlock()
		return errs.New(errs.BadInternalError, "signal already registered", nil)
	}
	r := &record{sig: sig, handler: h}
	m.records[sig] = r
	started := m.state == loop.SourceStarted
	m.mu.Unlock()

	if started {
		return m.activateOne(r)
	}
	return nil
}

func (m *Manager) dispatch(sig syscall.Signal) {
	m.mu.Lock()
	r, ok := m.records[sig]
	m.mu.Unlock()
	if ok && r.handler != nil {
		r.handler(sig)
	}
}

func (m *Manager) Free() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == loop.SourceStarted || m.state == loop.SourceStopping {
		return errs.New(errs.BadInternalError, "cannot free a started interrupt manager", nil)
	}
	return nil
}
