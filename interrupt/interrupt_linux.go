//go:build linux

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

// signalfd strategy (spec.md §4.10): each registered signal is masked
// from normal delivery and folded into one signalfd whose readiness is
// multiplexed by the owning loop.Loop like any other RegisteredFD.
package interrupt

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/sabouaram/uacore/errs"
	"github.com/sabouaram/uacore/loop"
)

type platformState struct {
	fd   int
	rfd  *loop.RegisteredFD
	mask unix.Sigset_t
}

func (m *Manager) Start(l *loop.Loop) error {
	m.mu.Lock()
	m.lp = l
	var mask unix.Sigset_t
	for sig := range m.records {
		addSignal(&mask, sig)
	}
	m.mu.Unlock()

	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &mask, nil); err != nil {
		return errs.New(errs.BadInternalError, "mask signals failed", err)
	}

	fd, err := unix.Signalfd(-1, &mask, unix.SFD_NONBLOCK|unix.SFD_CLOEXEC)
	if err != nil {
		return errs.New(errs.BadInternalError, "signalfd() failed", err)
	}

	rfd := &loop.RegisteredFD{FD: fd, Interest: loop.InterestIn}
	rfd.Dispatch = func(r *loop.RegisteredFD, readable, writable, errored bool) {
		m.readSignalfd()
	}
	if err := l.RegisterFD(rfd); err != nil {
		_ = unix.Close(fd)
		return err
	}

	m.mu.Lock()
	m.platform = platformState{fd: fd, rfd: rfd, mask: mask}
	m.state = loop.SourceStarted
	m.mu.Unlock()
	return nil
}

func (m *Manager) readSignalfd() {
	var info unix.SignalfdSiginfo
	buf := (*[unsafe.Sizeof(info)]byte)(unsafe.Pointer(&info))[:]
	for {
		n, err := unix.Read(m.platform.fd, buf)
		if err != nil || n != len(buf) {
			return
		}
		m.dispatch(syscall.Signal(info.Signo))
	}
}

// activateOne re-derives the combined mask from every registered record
// and re-applies it; signalfd has no per-signal incremental API.
func (m *Manager) activateOne(_ *record) error {
	m.mu.Lock()
	var mask unix.Sigset_t
	for sig := range m.records {
		addSignal(&mask, sig)
	}
	m.mu.Unlock()

	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &mask, nil); err != nil {
		return errs.New(errs.BadInternalError, "mask signals failed", err)
	}
	if _, err := unix.Signalfd(m.platform.fd, &mask, 0); err != nil {
		return errs.New(errs.BadInternalError, "signalfd() update failed", err)
	}
	return nil
}

func (m *Manager) Stop() error {
	m.mu.Lock()
	m.state = loop.SourceStopping
	fd := m.platform.fd
	rfd := m.platform.rfd
	var mask unix.Sigset_t
	for sig := range m.records {
		addSignal(&mask, sig)
	}
	m.mu.Unlock()

	if m.lp != nil && rfd != nil {
		_ = m.lp.DeregisterFD(rfd)
	}
	_ = unix.PthreadSigmask(unix.SIG_UNBLOCK, &mask, nil)
	if fd != 0 {
		_ = unix.Close(fd)
	}

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

// addSignal sets sig's bit in set directly: golang.org/x/sys/unix
// exposes Sigset_t as a plain word array with no portable accessor, so
// every strategy that builds a mask (here and in activateOne/Stop) goes
// through this one bit-twiddling helper instead of repeating the math.
func addSignal(set *unix.Sigset_t, sig syscall.Signal) {
	idx := int(sig) - 1
	if idx < 0 {
		return
	}
	word := idx / 64
	bit := uint(idx % 64)
	if word < len(set.Val) {
		set.Val[word] |= 1 << bit
	}
}
