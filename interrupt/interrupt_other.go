//go:build !linux

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

// signal + self-pipe strategy (spec.md §4.10, design note "Global
// mutable state for signal handlers"): a background goroutine forwards
// os/signal deliveries into the owning loop.Loop's delayed queue and
// wakes a blocked Run via Cancel, instead of a raw signalfd. Because the
// underlying strategy models a process-wide signal-handler slot, only
// one Manager using this strategy may be Started at a time.
package interrupt

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/sabouaram/uacore/errs"
	"github.com/sabouaram/uacore/loop"
)

var singletonActive atomic.Bool

type platformState struct {
	ch   chan os.Signal
	done chan struct{}
}

func (m *Manager) Start(l *loop.Loop) error {
	if !singletonActive.CompareAndSwap(false, true) {
		return errs.New(errs.BadInternalError, "a signal+self-pipe interrupt manager is already active in this process", nil)
	}

	m.mu.Lock()
	m.lp = l
	sigs := make([]os.Signal, 0, len(m.records))
	for sig := range m.records {
		sigs = append(sigs, sig)
	}
	m.mu.Unlock()

	ch := make(chan os.Signal, len(sigs)+1)
	done := make(chan struct{})
	if len(sigs) > 0 {
		signal.Notify(ch, sigs...)
	}

	go m.forward(ch, done)

	m.mu.Lock()
	m.platform = platformState{ch: ch, done: done}
	m.state = loop.SourceStarted
	m.mu.Unlock()
	return nil
}

// forward runs in its own goroutine: each signal delivery is folded
// into a delayed callback (spec.md: "the loop's next iteration drains
// triggered entries via a delayed callback") and Cancel wakes any
// blocked Run immediately rather than waiting for its timeout.
func (m *Manager) forward(ch chan os.Signal, done chan struct{}) {
	for {
		select {
		case s := <-ch:
			sig, _ := s.(syscall.Signal)
			if m.lp != nil {
				m.lp.Delayed().Add(func(app, ctx interface{}) {
					m.dispatch(sig)
				}, nil, nil)
				m.lp.Cancel()
			}
		case <-done:
			return
		}
	}
}

// activateOne adds one more signal to the process-wide channel already
// forwarding for this manager.
func (m *Manager) activateOne(r *record) error {
	m.mu.Lock()
	ch := m.platform.ch
	m.mu.Unlock()
	if ch == nil {
		return nil
	}
	signal.Notify(ch, r.sig)
	return nil
}

func (m *Manager) Stop() error {
	m.mu.Lock()
	m.state = loop.SourceStopping
	ch := m.platform.ch
	done := m.platform.done
	m.mu.Unlock()

	if ch != nil {
		signal.Stop(ch)
	}
	if done != nil {
		close(done)
	}
	singletonActive.Store(false)

	m.mu.Lock()
	m.state = loop.SourceStopped
	m.mu.Unlock()
	return nil
}

func (m *Manager) StoppedEmpty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == loop.SourceStopped
}
