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

// Package udp is the UDP connection manager (C9): one non-blocking
// datagram socket per Manager, multiplexed by a loop.Loop's poller,
// supporting IPv4/IPv6 multicast join on listen and send-interface
// selection.
package udp

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

// Manager is a UDP event source: a single datagram socket, either bound
// for receive (optionally joined to a multicast group) or used purely
// to send, multiplexed through the owning loop.Loop's poller.
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

	// dest is the last address Send was asked to deliver to; the
	// manager keeps no per-datagram connection record (spec.md §4.9:
	// "Send holds the destination address in the connection record").
	dest *net.UDPAddr
}

// New builds a UDP manager bound to cfg's address(es)/port, joining a
// multicast group on listen when the configured address is multicast.
func New(name string, cfg config.Server, handler transport.HandlerFunc, log runlog.Logger) *Manager {
	return &Manager{name: name, cfg: cfg, handler: handler, log: log, state: loop.SourceFresh}
}

func (m *Manager) Name() string { return m.name }

func (m *Manager) State() loop.SourceState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start binds the socket (spec.md §4.9 "On Windows multicast bind
// always targets INADDR_ANY... preserve this OS-compatibility branch").
func (m *Manager) Start(l *loop.Loop) error {
	host := ""
	if len(m.cfg.Address) > 0 {
		host = m.cfg.Address[0]
	}

	ra, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(int(m.cfg.Port))))
	if err != nil {
		return errs.New(errs.BadConnectionRejected, "resolve udp address failed", err)
	}

	multicast := ra.IP != nil && ra.IP.IsMulticast()

	fam := unix.AF_INET
	if ra.IP != nil && ra.IP.To4() == nil {
		fam = unix.AF_INET6
	}

	fd, err := unix.Socket(fam, unix.SOCK_DGRAM, unix.IPPROTO_UDP)
	if err != nil {
		return errs.New(errs.BadConnectionRejected, "socket() failed", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return errs.New(errs.BadConnectionRejected, "set nonblocking failed", err)
	}
	if m.cfg.Reuse {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	}
	if m.cfg.SockPrio != 0 {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_PRIORITY, int(m.cfg.SockPrio))
	}

	bindAddr := ra
	if multicast {
		// INADDR_ANY bind with the requested port, regardless of the
		// group address, is the cross-platform-compatible branch this
		// package preserves unconditionally (not gated on GOOS=windows)
		// so the same code path is exercised on every platform it runs.
		bindAddr = &net.UDPAddr{Port: ra.Port}
	}

	sa, err := sockaddrUDP(bindAddr)
	if err != nil {
		_ = unix.Close(fd)
		return errs.New(errs.BadConnectionRejected, "invalid bind address", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return errs.New(errs.BadConnectionRejected, "bind failed", err)
	}

	if multicast {
		if err := m.joinMulticast(fd, ra, fam); err != nil {
			_ = unix.Close(fd)
			return err
		}
	}
	if m.cfg.Interface != "" {
		_ = m.setMulticastInterface(fd, fam)
	}
	if m.cfg.TTL != 0 {
		m.setMulticastTTL(fd, fam)
	}
	if m.cfg.Loopback {
		m.setMulticastLoopback(fd, fam)
	}

	if m.cfg.ValidateOnly {
		_ = unix.Close(fd)
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

func (m *Manager) joinMulticast(fd int, group *net.UDPAddr, fam int) error {
	if fam == unix.AF_INET {
		mreq := &unix.IPMreq{}
		copy(mreq.Multiaddr[:], group.IP.To4())
		if err := unix.SetsockoptIPMreq(fd, unix.IPPROTO_IP, unix.IP_ADD_MEMBERSHIP, mreq); err != nil {
			return errs.New(errs.BadConnectionRejected, "join multicast group failed", err)
		}
		return nil
	}
	mreq := &unix.IPv6Mreq{}
	copy(mreq.Multiaddr[:], group.IP.To16())
	if err := unix.SetsockoptIPv6Mreq(fd, unix.IPPROTO_IPV6, unix.IPV6_JOIN_GROUP, mreq); err != nil {
		return errs.New(errs.BadConnectionRejected, "join multicast group failed", err)
	}
	return nil
}

func (m *Manager) setMulticastInterface(fd int, fam int) error {
	ifc, err := net.InterfaceByName(m.cfg.Interface)
	if err != nil {
		if ip := net.ParseIP(m.cfg.Interface); ip != nil && fam == unix.AF_INET {
			var addr [4]byte
			copy(addr[:], ip.To4())
			return unix.SetsockoptInet4Addr(fd, unix.IPPROTO_IP, unix.IP_MULTICAST_IF, addr)
		}
		return errs.New(errs.BadConnectionRejected, "resolve multicast interface failed", err)
	}
	if fam == unix.AF_INET {
		return unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_MULTICAST_IF, ifc.Index)
	}
	return unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_MULTICAST_IF, ifc.Index)
}

func (m *Manager) setMulticastTTL(fd int, fam int) {
	if fam == unix.AF_INET {
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_MULTICAST_TTL, int(m.cfg.TTL))
		return
	}
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_MULTICAST_HOPS, int(m.cfg.TTL))
}

func (m *Manager) setMulticastLoopback(fd int, fam int) {
	if fam == unix.AF_INET {
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_MULTICAST_LOOP, 1)
		return
	}
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_MULTICAST_LOOP, 1)
}

// recvLoop implements spec.md §4.9 "Receive": recvfrom into the static
// buffer, report {remote-address, remote-port} with every datagram, and
// never implicitly close on an empty datagram — only a true error does.
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
		if m.handler != nil {
			m.handler(transport.ConnectionRead, remoteCtx(from), m.buf[:n], nil)
		}
	}
}

// remoteCtx turns a raw sockaddr into the {remote-address, remote-port}
// context spec.md §4.9 asks to be reported with every datagram.
func remoteCtx(sa unix.Sockaddr) *net.UDPAddr {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.UDPAddr{IP: net.IP(v.Addr[:]).To16(), Port: v.Port}
	case *unix.SockaddrInet6:
		ip := make(net.IP, 16)
		copy(ip, v.Addr[:])
		return &net.UDPAddr{IP: ip, Port: v.Port}
	default:
		return nil
	}
}

// Send delivers buf to dest via sendto (spec.md §4.9 "Send holds the
// destination address in the connection record and uses sendto").
func (m *Manager) Send(dest *net.UDPAddr, buf []byte) error {
	m.mu.Lock()
	m.dest = dest
	fd := m.fd
	m.mu.Unlock()

	sa, err := sockaddrUDP(dest)
	if err != nil {
		return errs.New(errs.BadInvalidArgument, "invalid destination address", err)
	}
	if err := unix.Sendto(fd, buf, 0, sa); err != nil {
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
	m.mu.Unlock()

	if m.handler != nil {
		m.handler(transport.ConnectionClose, m, nil, transport.ErrorFilter(cause))
	}
	_ = unix.Close(fd)

	m.mu.Lock()
	m.state = loop.SourceStopped
	m.mu.Unlock()
}

// Stop closes the datagram socket; unlike TCP there is no per-connection
// set to drain, a UDP manager is itself the one "connection".
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

func sockaddrUDP(a *net.UDPAddr) (unix.Sockaddr, error) {
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
