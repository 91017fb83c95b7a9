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

// Package tcp is the TCP connection manager (C8): passive listen/accept
// and active connect, both non-blocking and multiplexed by a loop.Loop's
// poller rather than blocking goroutine-per-connection I/O.
package tcp

import (
	"net"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/sabouaram/uacore/errs"
	"github.com/sabouaram/uacore/loop"
	"github.com/sabouaram/uacore/runlog"
	"github.com/sabouaram/uacore/transport"
	"github.com/sabouaram/uacore/transport/config"
)

// Manager is a TCP event source: a set of listening sockets (passive mode)
// or one connecting/connected socket (active mode), each multiplexed
// through the owning loop.Loop's poller.
type Manager struct {
	mu    sync.Mutex
	name  string
	state loop.SourceState

	srv     config.Server
	cli     config.Client
	listen  bool
	handler transport.HandlerFunc
	log     runlog.Logger

	lp    *loop.Loop
	conns map[*Conn]struct{}
}

type Conn struct {
	fd    int
	rfd   *loop.RegisteredFD
	mgr   *Manager
	state transport.ConnState
	buf   []byte
}

// NewListener builds a passive (listen/accept) manager.
func NewListener(name string, cfg config.Server, handler transport.HandlerFunc, log runlog.Logger) *Manager {
	return &Manager{
		name: name, srv: cfg, listen: true,
		handler: handler, log: log, state: loop.SourceFresh,
		conns: make(map[*Conn]struct{}),
	}
}

// NewDialer builds an active (connect) manager.
func NewDialer(name string, cfg config.Client, handler transport.HandlerFunc, log runlog.Logger) *Manager {
	return &Manager{
		name: name, cli: cfg, listen: false,
		handler: handler, log: log, state: loop.SourceFresh,
		conns: make(map[*Conn]struct{}),
	}
}

func (m *Manager) Name() string { return m.name }

func (m *Manager) State() loop.SourceState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start resolves and opens every configured address (spec.md §4.8
// "Opening passively"/"Opening actively").
func (m *Manager) Start(l *loop.Loop) error {
	m.mu.Lock()
	m.lp = l
	m.state = loop.SourceStarted
	m.mu.Unlock()

	if m.listen {
		return m.startPassive(l)
	}
	return m.startActive(l)
}

func (m *Manager) startPassive(l *loop.Loop) error {
	addrs := m.srv.Address
	if len(addrs) == 0 {
		addrs = []string{""}
	}

	for _, host := range addrs {
		network := "tcp"
		if m.srv.Network.String() != "" {
			network = m.srv.Network.String()
		}
		ra, err := net.ResolveTCPAddr(network, net.JoinHostPort(host, strconv.Itoa(int(m.srv.Port))))
		if err != nil {
			return errs.New(errs.BadConnectionRejected, "resolve listen address failed", err)
		}

		fam := unix.AF_INET
		if ra.IP != nil && ra.IP.To4() == nil {
			fam = unix.AF_INET6
		}

		fd, err := unix.Socket(fam, unix.SOCK_STREAM, unix.IPPROTO_TCP)
		if err != nil {
			return errs.New(errs.BadConnectionRejected, "socket() failed", err)
		}
		if err := unix.SetNonblock(fd, true); err != nil {
			_ = unix.Close(fd)
			return errs.New(errs.BadConnectionRejected, "set nonblocking failed", err)
		}
		if m.srv.Reuse {
			_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		}

		sa, err := sockaddrTCP(ra)
		if err != nil {
			_ = unix.Close(fd)
			return errs.New(errs.BadConnectionRejected, "invalid listen address", err)
		}
		if err := unix.Bind(fd, sa); err != nil {
			_ = unix.Close(fd)
			return errs.New(errs.BadConnectionRejected, "bind failed", err)
		}

		if m.srv.ValidateOnly {
			_ = unix.Close(fd)
			continue
		}

		if err := unix.Listen(fd, 100); err != nil {
			_ = unix.Close(fd)
			return errs.New(errs.BadConnectionRejected, "listen failed", err)
		}

		rfd := &loop.RegisteredFD{FD: fd, Interest: loop.InterestIn}
		rfd.Dispatch = func(r *loop.RegisteredFD, readable, writable, errored bool) {
			m.acceptLoop(r)
		}
		if err := l.RegisterFD(rfd); err != nil {
			_ = unix.Close(fd)
			return err
		}

		if m.handler != nil {
			m.handler(transport.ConnectionNew, nil, nil, nil)
		}
	}

	return nil
}

func (m *Manager) acceptLoop(listenFD *loop.RegisteredFD) {
	for {
		fd, _, err := unix.Accept4(listenFD.FD, unix.SOCK_NONBLOCK)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
				return
			}
			return
		}
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
		m.adoptConn(fd, transport.ConnectionNew)
	}
}

func (m *Manager) startActive(l *loop.Loop) error {
	ra, err := net.ResolveTCPAddr(m.cli.Network.String(), m.cli.Address)
	if err != nil {
		return errs.New(errs.BadConnectionRejected, "resolve connect address failed", err)
	}

	fam := unix.AF_INET
	if ra.IP != nil && ra.IP.To4() == nil {
		fam = unix.AF_INET6
	}

	fd, err := unix.Socket(fam, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return errs.New(errs.BadConnectionRejected, "socket() failed", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return errs.New(errs.BadConnectionRejected, "set nonblocking failed", err)
	}

	if m.cli.ValidateOnly {
		_ = unix.Close(fd)
		return nil
	}

	sa, err := sockaddrTCP(ra)
	if err != nil {
		_ = unix.Close(fd)
		return errs.New(errs.BadConnectionRejected, "invalid connect address", err)
	}

	c := &Conn{fd: fd, mgr: m, state: transport.ConnectionDial}
	rfd := &loop.RegisteredFD{FD: fd, Interest: loop.InterestOut}
	c.rfd = rfd
	rfd.Dispatch = func(r *loop.RegisteredFD, readable, writable, errored bool) {
		m.onConnectReady(c, errored)
	}

	m.mu.Lock()
	m.conns[c] = struct{}{}
	m.mu.Unlock()

	if err := l.RegisterFD(rfd); err != nil {
		return err
	}

	err = unix.Connect(fd, sa)
	if err != nil && err != unix.EINPROGRESS {
		m.shutdownConn(c, errs.New(errs.BadConnectionRejected, "connect failed", err))
	}
	return nil
}

func (m *Manager) onConnectReady(c *Conn, errored bool) {
	val, err := unix.GetsockoptInt(c.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil || val != 0 || errored {
		m.shutdownConn(c, errs.New(errs.BadConnectionRejected, "connect failed", nil))
		return
	}
	_ = unix.SetsockoptInt(c.fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	c.rfd.Interest = loop.InterestIn
	if m.lp != nil {
		_ = m.lp.ModifyFD(c.rfd)
	}
	c.state = transport.ConnectionNew
	c.rfd.Dispatch = func(r *loop.RegisteredFD, readable, writable, errored bool) {
		m.readLoop(c)
	}
	if m.handler != nil {
		m.handler(transport.ConnectionNew, c, nil, nil)
	}
}

func (m *Manager) adoptConn(fd int, announce transport.ConnState) {
	c := &Conn{fd: fd, mgr: m, state: announce, buf: make([]byte, int(m.effectiveRecvBuf()))}
	rfd := &loop.RegisteredFD{FD: fd, Interest: loop.InterestIn}
	c.rfd = rfd
	rfd.Dispatch = func(r *loop.RegisteredFD, readable, writable, errored bool) {
		m.readLoop(c)
	}

	m.mu.Lock()
	m.conns[c] = struct{}{}
	m.mu.Unlock()

	if m.lp != nil {
		if err := m.lp.RegisterFD(rfd); err != nil {
			m.shutdownConn(c, err)
			return
		}
	}
	if m.handler != nil {
		m.handler(announce, c, nil, nil)
	}
}

func (m *Manager) effectiveRecvBuf() uint32 {
	if m.srv.RecvBufSize != 0 {
		return m.srv.RecvBufSize
	}
	return transport.DefaultBufferSize
}

// readLoop implements spec.md §4.8 "Receive": recv into the static buffer,
// deliver bytes, and shut down on any error other than EAGAIN/EWOULDBLOCK/
// EINTR or a non-positive read.
func (m *Manager) readLoop(c *Conn) {
	if c.buf == nil {
		c.buf = make([]byte, int(m.effectiveRecvBuf()))
	}
	n, err := unix.Read(c.fd, c.buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
			return
		}
		m.shutdownConn(c, errs.New(errs.BadConnectionClosed, "recv failed", err))
		return
	}
	if n <= 0 {
		m.shutdownConn(c, errs.New(errs.BadConnectionClosed, "peer closed connection", nil))
		return
	}
	if m.handler != nil {
		m.handler(transport.ConnectionRead, c, c.buf[:n], nil)
	}
}

// Send writes buf to c, retrying transient full-buffer conditions with a
// short poll as spec.md §4.8 "Send" describes. It always returns control
// of buf to the caller.
func (c *Conn) Send(buf []byte) error {
	total := 0
	for total < len(buf) {
		n, err := unix.Write(c.fd, buf[total:])
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				pfd := []unix.PollFd{{Fd: int32(c.fd), Events: unix.POLLOUT}}
				if _, perr := unix.Poll(pfd, 100); perr != nil && perr != unix.EINTR {
					return errs.New(errs.BadConnectionClosed, "send failed", perr)
				}
				continue
			}
			if err == unix.EINTR {
				continue
			}
			return errs.New(errs.BadConnectionClosed, "send failed", err)
		}
		total += n
	}
	return nil
}

// shutdownConn implements spec.md §4.8 "Shutdown": idempotent via the
// RegisteredFD's own arm-once guard, deregisters from the poller, notifies
// the application with ConnectionClose, then releases the descriptor.
func (m *Manager) shutdownConn(c *Conn, cause error) {
	if c.rfd == nil || !c.rfd.ArmClose() {
		return
	}
	_ = unix.Shutdown(c.fd, unix.SHUT_RDWR)
	if m.lp != nil {
		_ = m.lp.DeregisterFD(c.rfd)
	}
	if m.handler != nil {
		m.handler(transport.ConnectionClose, c, nil, transport.ErrorFilter(cause))
	}
	_ = unix.Close(c.fd)

	m.mu.Lock()
	delete(m.conns, c)
	m.mu.Unlock()
}

// Stop begins asynchronous shutdown of every open connection (spec.md
// §4.8: "The manager's stop hook iterates all sockets calling this
// shutdown").
func (m *Manager) Stop() error {
	m.mu.Lock()
	m.state = loop.SourceStopping
	conns := make([]*Conn, 0, len(m.conns))
	for c := range m.conns {
		conns = append(conns, c)
	}
	m.mu.Unlock()

	for _, c := range conns {
		m.shutdownConn(c, nil)
	}

	m.mu.Lock()
	if len(m.conns) == 0 {
		m.state = loop.SourceStopped
	}
	m.mu.Unlock()
	return nil
}

// StoppedEmpty reports whether every connection has finished shutting
// down, letting the owning loop transition out of Stopping.
func (m *Manager) StoppedEmpty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	empty := len(m.conns) == 0
	if empty && m.state == loop.SourceStopping {
		m.state = loop.SourceStopped
	}
	return empty
}

func (m *Manager) Free() error {
	return nil
}

func sockaddrTCP(a *net.TCPAddr) (unix.Sockaddr, error) {
	if a.IP == nil || a.IP.To4() != nil {
		var sa unix.SockaddrInet4
		if a.IP != nil {
			copy(sa.Addr[:], a.IP.To4())
		}
		sa.Port = a.Port
		return &sa, nil
	}
	var sa unix.SockaddrInet6
	copy(sa.Addr[:], a.IP.To16())
	sa.Port = a.Port
	return &sa, nil
}
