//go:build !windows

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

// Package unixgram is the AF_UNIX datagram sibling of transport/udp,
// following the same bind/recvfrom/sendto contract without the
// multicast machinery UDP needs.
package unixgram

import (
	"sync"

	"golang.org/x/sys/unix"

	"github.com/sabouaram/uacore/errs"
	"github.com/sabouaram/uacore/loop"
	"github.com/sabouaram/uacore/runlog"
	"github.com/sabouaram/uacore/transport"
	"github.com/sabouaram/uacore/transport/config"
)

// Manager is an AF_UNIX datagram event source bound to a filesystem path.
type Manager struct {
	mu    sync.Mutex
	name  string
	state loop.SourceState

	cfg     config.Server
	handler transport.HandlerFunc
	log     runlog.Logger

	fd  int
	rfd *loop.RegisteredFD
	buf []byte
}

// New builds a unixgram manager bound to cfg.Address[0].
func New(name string, cfg config.Server, handler transport.HandlerFunc, log runlog.Logger) *Manager {
	return &Manager{name: name, cfg: cfg, handler: handler, log: log, state: loop.SourceFresh}
}

func (m *Manager) Name() string { return m.name }

func (m *Manager) State() loop.SourceState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Start(l *loop.Loop) error {
	path := ""
	if len(m.cfg.Address) > 0 {
		path = m.cfg.Address[0]
	}
	if path == "" {
		return errs.New(errs.BadInvalidArgument, "unixgram requires a socket path", nil)
	}

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_DGRAM, 0)
	if err != nil {
		return errs.New(errs.BadConnectionRejected, "socket() failed", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return errs.New(errs.BadConnectionRejected, "set nonblocking failed", err)
	}

	_ = unix.Unlink(path)
	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		_ = unix.Close(fd)
		return errs.New(errs.BadConnectionRejected, "bind failed", err)
	}

	if m.cfg.ValidateOnly {
		_ = unix.Close(fd)
		_ = unix.Unlink(path)
		m.mu.Lock()
		m.state = loop.SourceStopped
		m.mu.Unlock()
		return nil
	}

	m.mu.Lock()
	m.fd = fd
	m.buf = make([]byte, int(m.cfg.EffectiveRecvBufSize()))
	m.state = loop.SourceStarted
	m.mu.Unlock()

	rfd := &loop.RegisteredFD{FD: fd, Interest: loop.InterestIn}
	rfd.Dispatch = func(r *loop.RegisteredFD, readable, writable, errored bool) {
		m.recvLoop()
	}
	m.rfd = rfd
	if err := l.RegisterFD(rfd); err != nil {
		return err
	}

	if m.handler != nil {
		m.handler(transport.ConnectionNew, m, nil, nil)
	}
	return nil
}

func (m *Manager) recvLoop() {
	for {
		n, from, err := unix.Recvfrom(m.fd, m.buf, 0)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
				return
			}
			m.shutdown(errs.New(errs.BadDisconnect, "recvfrom failed", err))
			return
		}
		var remote string
		if sa, ok := from.(*unix.SockaddrUnix); ok {
			remote = sa.Name
		}
		if m.handler != nil {
			m.handler(transport.ConnectionRead, remote, m.buf[:n], nil)
		}
	}
}

// Send delivers buf to the unix datagram socket bound at path.
func (m *Manager) Send(path string, buf []byte) error {
	m.mu.Lock()
	fd := m.fd
	m.mu.Unlock()

	if err := unix.Sendto(fd, buf, 0, &unix.SockaddrUnix{Name: path}); err != nil {
		return errs.New(errs.BadDisconnect, "sendto failed", err)
	}
	return nil
}

func (m *Manager) shutdown(cause error) {
	if m.rfd == nil || !m.rfd.ArmClose() {
		return
	}
	m.mu.Lock()
	fd := m.fd
	path := ""
	if len(m.cfg.Address) > 0 {
		path = m.cfg.Address[0]
	}
	m.mu.Unlock()

	if m.handler != nil {
		m.handler(transport.ConnectionClose, m, nil, transport.ErrorFilter(cause))
	}
	_ = unix.Close(fd)
	if path != "" {
		_ = unix.Unlink(path)
	}

	m.mu.Lock()
	m.state = loop.SourceStopped
	m.mu.Unlock()
}

func (m *Manager) Stop() error {
	m.mu.Lock()
	m.state = loop.SourceStopping
	m.mu.Unlock()
	m.shutdown(nil)
	return nil
}

func (m *Manager) StoppedEmpty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == loop.SourceStopped
}

func (m *Manager) Free() error {
	return nil
}
