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

// This package's sources are pure validation logic over net.Resolve*Addr,
// the same shape the teacher tests with plain testing.T in
// socket/config/basic_test.go rather than ginkgo.
package config_test

import (
	"testing"

	"github.com/sabouaram/uacore/network/protocol"
	"github.com/sabouaram/uacore/transport/config"
)

func TestClientValidateTCP(t *testing.T) {
	c := config.Client{Network: protocol.TCP, Address: "localhost:8080"}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected valid tcp client, got %v", err)
	}
}

func TestClientValidateUnixRequiresAddress(t *testing.T) {
	c := config.Client{Network: protocol.Unix, Address: ""}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for empty unix socket address")
	}
}

func TestClientValidateRejectsEmptyProtocol(t *testing.T) {
	var c config.Client
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for unset protocol")
	}
}

func TestServerValidateRequiresPort(t *testing.T) {
	s := config.Server{Network: protocol.TCP}
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for zero port")
	}
}

func TestServerValidateEmptyAddressListBindsAll(t *testing.T) {
	s := config.Server{Network: protocol.TCP, Port: 4840}
	if err := s.Validate(); err != nil {
		t.Fatalf("an empty address list should validate (binds all interfaces): %v", err)
	}
}

func TestServerEffectiveRecvBufSizeDefault(t *testing.T) {
	s := config.Server{}
	if got := s.EffectiveRecvBufSize(); got != config.DefaultRecvBufSize {
		t.Fatalf("expected default recv buffer size %d, got %d", config.DefaultRecvBufSize, got)
	}
	s.RecvBufSize = 4096
	if got := s.EffectiveRecvBufSize(); got != 4096 {
		t.Fatalf("expected overridden recv buffer size 4096, got %d", got)
	}
}
