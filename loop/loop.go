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

package loop

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sabouaram/uacore/clock"
	"github.com/sabouaram/uacore/delayed"
	"github.com/sabouaram/uacore/errs"
	"github.com/sabouaram/uacore/runlog"
	"github.com/sabouaram/uacore/timer"
)

// State is the event loop's lifecycle stage (spec.md §4.6).
type State uint8

const (
	Fresh State = iota
	Started
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "Fresh"
	case Started:
		return "Started"
	case Stopping:
		return "Stopping"
	case Stopped:
		return "Stopped"
	default:
		return "unknown loop state"
	}
}

// Loop is the single-threaded, cooperative event loop: it multiplexes a
// timer wheel, a next-tick delayed-callback queue and I/O readiness over a
// set of registered event sources. Multiple Loop instances may coexist in
// one process; they share no state (spec.md §5).
type Loop struct {
	mu      sync.Mutex
	state   State
	inRun   int32
	sources []EventSource

	tm *timer.Timer
	dq *delayed.Queue

	poller Poller
	pipe   *selfPipe
	selfFD *RegisteredFD

	log runlog.Logger
}

// New returns a Fresh loop. log may be nil, in which case a discarding
// logger is used.
func New(log runlog.Logger) *Loop {
	if log == nil {
		log = runlog.New(discard{})
	}
	return &Loop{
		state: Fresh,
		tm:    timer.New(),
		dq:    &delayed.Queue{},
		log:   log.WithFields(runlog.Fields{"component": "loop"}),
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// State returns the loop's current lifecycle stage.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Timer exposes the loop's ordered timer (C2) so callers can Add/Modify/
// Remove cyclic or one-shot callbacks.
func (l *Loop) Timer() *timer.Timer { return l.tm }

// Delayed exposes the loop's next-tick queue (C3).
func (l *Loop) Delayed() *delayed.Queue { return l.dq }

// Log returns the loop's logger, so an event source can derive a tagged
// child logger via WithFields.
func (l *Loop) Log() runlog.Logger { return l.log }

// Start moves the loop Fresh|Stopped -> Started: it creates the self-pipe
// and poller, then starts each already-registered event source with the
// lifecycle lock dropped around each source's Start hook (spec.md §4.6).
func (l *Loop) Start() error {
	l.mu.Lock()
	if l.state != Fresh && l.state != Stopped {
		l.mu.Unlock()
		return errs.New(errs.BadInternalError, "start requires Fresh or Stopped state, got "+l.state.String(), nil)
	}

	pipe, err := newSelfPipe()
	if err != nil {
		l.mu.Unlock()
		return errs.New(errs.BadInternalError, "self-pipe creation failed", err)
	}

	poller, err := newPoller()
	if err != nil {
		pipe.close()
		l.mu.Unlock()
		return errs.New(errs.BadInternalError, "poller creation failed", err)
	}

	l.pipe = pipe
	l.poller = poller
	l.selfFD = &RegisteredFD{
		FD:       pipe.r,
		Interest: InterestIn,
		index:    -1,
		Dispatch: func(fd *RegisteredFD, readable, writable, errored bool) {
			pipe.drain()
		},
	}
	if err = l.poller.Register(l.selfFD); err != nil {
		l.mu.Unlock()
		return errs.New(errs.BadInternalError, "self-pipe registration failed", err)
	}

	l.state = Started
	sources := append([]EventSource(nil), l.sources...)
	l.mu.Unlock()

	for _, s := range sources {
		if err := s.Start(l); err != nil {
			return err
		}
	}

	return nil
}

// Stop moves the loop Started -> Stopping: it invokes every source's
// (asynchronous) Stop hook, then checks whether the loop can already
// transition to Stopped.
func (l *Loop) Stop() error {
	l.mu.Lock()
	if l.state != Started {
		l.mu.Unlock()
		return errs.New(errs.BadInternalError, "stop requires Started state, got "+l.state.String(), nil)
	}
	l.state = Stopping
	sources := append([]EventSource(nil), l.sources...)
	l.mu.Unlock()

	for _, s := range sources {
		if err := s.Stop(); err != nil {
			l.log.Warn("event source stop failed", runlog.Fields{"source": s.Name(), "error": err.Error()})
		}
	}

	l.mu.Lock()
	l.checkClosedLocked()
	l.mu.Unlock()

	l.Cancel()
	return nil
}

// checkClosedLocked transitions Stopping -> Stopped only when every source
// is Stopped and the delayed queue is empty (spec.md §4.6).
func (l *Loop) checkClosedLocked() {
	if l.state != Stopping {
		return
	}
	if !l.dq.Empty() {
		return
	}
	for _, s := range l.sources {
		if s.State() != SourceStopped {
			return
		}
	}
	l.state = Stopped
}

// Free releases the loop's own resources. It fails unless the loop is
// Fresh or Stopped.
func (l *Loop) Free() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != Fresh && l.state != Stopped {
		return errs.New(errs.BadInternalError, "free requires Fresh or Stopped state, got "+l.state.String(), nil)
	}

	if l.poller != nil {
		_ = l.poller.Close()
	}
	if l.pipe != nil {
		l.pipe.close()
	}
	l.tm.Clear()
	return nil
}

// RegisterSource adds s to the loop. Registration rejects sources not in
// Fresh. If the loop is already Started, s.Start is invoked immediately
// (lock dropped around the call); otherwise s starts along with the loop.
func (l *Loop) RegisterSource(s EventSource) error {
	if s.State() != SourceFresh {
		return errs.New(errs.BadInvalidArgument, "event source must be Fresh to register", nil)
	}

	l.mu.Lock()
	l.sources = append(l.sources, s)
	started := l.state == Started
	l.mu.Unlock()

	if started {
		return s.Start(l)
	}
	return nil
}

// RegisterFD adds fd to the poller, used by connection managers to put a
// new listen/accept/connect socket under the loop's readiness watch.
func (l *Loop) RegisterFD(fd *RegisteredFD) error {
	l.mu.Lock()
	p := l.poller
	l.mu.Unlock()
	if p == nil {
		return errs.New(errs.BadInternalError, "loop has no poller; call Start first", nil)
	}
	return p.Register(fd)
}

// ModifyFD updates an already-registered fd's interest mask.
func (l *Loop) ModifyFD(fd *RegisteredFD) error {
	l.mu.Lock()
	p := l.poller
	l.mu.Unlock()
	if p == nil {
		return errs.New(errs.BadInternalError, "loop has no poller; call Start first", nil)
	}
	return p.Modify(fd)
}

// DeregisterFD removes fd from the poller.
func (l *Loop) DeregisterFD(fd *RegisteredFD) error {
	l.mu.Lock()
	p := l.poller
	l.mu.Unlock()
	if p == nil {
		return nil
	}
	return p.Deregister(fd)
}

// Cancel writes a byte to the self-pipe, interrupting a blocked Poll
// without waiting for its timeout. Safe to call from any goroutine or
// signal handler (spec.md §5 "Cancellation and timeouts").
func (l *Loop) Cancel() {
	l.mu.Lock()
	p := l.pipe
	l.mu.Unlock()
	if p != nil {
		p.cancel()
	}
}

// Run executes exactly one iteration of spec.md §4.6's seven steps:
// process due timers, drain delayed callbacks, compute and apply the
// listen timeout, poll, and (if Stopping) recheck closure. Reentry while
// another Run is in flight on this Loop fails with BadInternalError.
func (l *Loop) Run(timeout time.Duration) error {
	if !atomic.CompareAndSwapInt32(&l.inRun, 0, 1) {
		return errs.New(errs.BadInternalError, "run is already in progress on this loop", nil)
	}
	defer atomic.StoreInt32(&l.inRun, 0)

	dateBefore := clock.NowMonotonic()

	nextFire := l.tm.Process(dateBefore)
	l.dq.Drain()

	userTimeout := timeout
	if !l.dq.Empty() {
		userTimeout = 0
	}

	var nextRelative time.Duration = timeout
	if nextFire != clock.Max {
		nextRelative = nextFire.Sub(dateBefore).Duration()
	}

	listenTimeout := computeListenTimeout(nextRelative, userTimeout, !l.dq.Empty())

	l.mu.Lock()
	p := l.poller
	l.mu.Unlock()
	if p == nil {
		return errs.New(errs.BadInternalError, "run called before start", nil)
	}

	if _, err := p.Poll(listenTimeout); err != nil {
		return errs.New(errs.BadInternalError, "poll failed", err)
	}

	l.mu.Lock()
	l.checkClosedLocked()
	stopping := l.state == Stopping
	l.mu.Unlock()
	if stopping {
		runtime.Gosched()
	}

	return nil
}

// RunUntilStopped repeatedly calls Run with the given per-iteration
// timeout until the loop reaches Stopped, the convenience entry point the
// CLI uses once Stop has been requested from another goroutine/signal.
func (l *Loop) RunUntilStopped(iterationTimeout time.Duration) error {
	for l.State() != Stopped {
		if err := l.Run(iterationTimeout); err != nil {
			return err
		}
	}
	return nil
}
