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

// Package config is the typed key-value parameter system (C11): Client and
// Server describe what a connection manager needs to dial or bind, with a
// Validate method realizing the declarative restriction table of spec.md
// §4.8/§4.9 as struct-field checks instead of a runtime map walk.
package config

import (
	"net"
	"strconv"

	"github.com/sabouaram/uacore/errs"
	"github.com/sabouaram/uacore/network/protocol"
)

// Client configures an actively-opened connection (C8/C9 "active" mode).
type Client struct {
	Network protocol.Protocol `mapstructure:"network" json:"network" yaml:"network"`
	Address string            `mapstructure:"address" json:"address" yaml:"address"`

	// Validate only checks resolvability and does not dial (spec.md
	// §4.8's "validate" key).
	ValidateOnly bool `mapstructure:"validate" json:"validate" yaml:"validate"`
}

// Validate resolves Address against Network, failing with
// BadInvalidArgument on an unusable combination. It does not open a
// socket; actually dialing is the connection manager's job.
func (c Client) Validate() error {
	switch {
	case c.Network.IsUnix():
		if c.Address == "" {
			return errs.New(errs.BadInvalidArgument, "unix socket address must not be empty", nil)
		}
		if _, err := net.ResolveUnixAddr(c.Network.String(), c.Address); err != nil {
			return errs.New(errs.BadInvalidArgument, "invalid unix address", err)
		}
	case c.Network.IsUDP():
		if _, err := net.ResolveUDPAddr(c.Network.String(), c.Address); err != nil {
			return errs.New(errs.BadInvalidArgument, "invalid udp address", err)
		}
	case c.Network == protocol.TCP, c.Network == protocol.TCP4, c.Network == protocol.TCP6:
		if _, err := net.ResolveTCPAddr(c.Network.String(), c.Address); err != nil {
			return errs.New(errs.BadInvalidArgument, "invalid tcp address", err)
		}
	default:
		return errs.New(errs.BadInvalidArgument, "unsupported or empty protocol", nil)
	}
	return nil
}

// Server configures a passively-opened (listening) connection manager.
type Server struct {
	Network protocol.Protocol `mapstructure:"network" json:"network" yaml:"network"`

	// Address is a single host or a list of hosts to bind; empty binds
	// all interfaces (spec.md §4.8).
	Address []string `mapstructure:"address" json:"address" yaml:"address"`
	Port    uint16    `mapstructure:"port" json:"port" yaml:"port"`

	Reuse        bool   `mapstructure:"reuse" json:"reuse" yaml:"reuse"`
	ValidateOnly bool   `mapstructure:"validate" json:"validate" yaml:"validate"`
	RecvBufSize  uint32 `mapstructure:"recv-bufsize" json:"recv-bufsize" yaml:"recv-bufsize"`
	SendBufSize  uint32 `mapstructure:"send-bufsize" json:"send-bufsize" yaml:"send-bufsize"`

	// UDP/multicast-only fields (spec.md §4.9); ignored by TCP managers.
	Interface string `mapstructure:"interface" json:"interface" yaml:"interface"`
	TTL       uint32 `mapstructure:"ttl" json:"ttl" yaml:"ttl"`
	Loopback  bool   `mapstructure:"loopback" json:"loopback" yaml:"loopback"`
	SockPrio  uint32 `mapstructure:"sockpriority" json:"sockpriority" yaml:"sockpriority"`
}

// DefaultRecvBufSize is the manager-level default rx buffer (spec.md
// §4.8: "defaults: 64 KiB rx").
const DefaultRecvBufSize uint32 = 64 * 1024

// Validate rejects a Port of zero and, for each configured address, checks
// it resolves against Network; an empty Address list is valid (binds all
// interfaces).
func (s Server) Validate() error {
	if s.Port == 0 {
		return errs.New(errs.BadInvalidArgument, "port is required", nil)
	}
	if len(s.Address) == 0 {
		return nil
	}
	for _, a := range s.Address {
		hostport := net.JoinHostPort(a, strconv.Itoa(int(s.Port)))
		c := Client{Network: s.Network, Address: hostport}
		if s.Network.IsUnix() {
			c.Address = a
		}
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// EffectiveRecvBufSize returns RecvBufSize, or DefaultRecvBufSize when
// unset (spec.md §4.8).
func (s Server) EffectiveRecvBufSize() uint32 {
	if s.RecvBufSize == 0 {
		return DefaultRecvBufSize
	}
	return s.RecvBufSize
}
