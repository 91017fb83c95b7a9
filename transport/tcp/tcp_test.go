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

package tcp_test

import (
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/sabouaram/uacore/loop"
	"github.com/sabouaram/uacore/network/protocol"
	"github.com/sabouaram/uacore/transport"
	"github.com/sabouaram/uacore/transport/config"
	"github.com/sabouaram/uacore/transport/tcp"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("freePort: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// TestTCPSingleConnection exercises spec.md scenario 2: loop A listens,
// loop B dials it, B sends "ping", A observes the bytes.
func TestTCPSingleConnection(t *testing.T) {
	port := freePort(t)

	loopA := loop.New(nil)
	loopB := loop.New(nil)

	var mu sync.Mutex
	var established, gotPing bool

	srvHandler := func(state transport.ConnState, ctx interface{}, buf []byte, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch state {
		case transport.ConnectionNew:
			established = true
		case transport.ConnectionRead:
			if string(buf) == "ping" {
				gotPing = true
			}
		}
	}
	cliHandler := func(state transport.ConnState, ctx interface{}, buf []byte, err error) {
		if state == transport.ConnectionNew {
			if c, ok := ctx.(*tcp.Conn); ok {
				_ = c.Send([]byte("ping"))
			}
		}
	}

	srv := tcp.NewListener("srv", config.Server{
		Network: protocol.TCP,
		Port:    uint16(port),
	}, srvHandler, nil)

	cli := tcp.NewDialer("cli", config.Client{
		Network: protocol.TCP,
		Address: net.JoinHostPort("127.0.0.1", strconv.Itoa(port)),
	}, cliHandler, nil)

	if err := loopA.RegisterSource(srv); err != nil {
		t.Fatalf("register listener: %v", err)
	}
	if err := loopA.Start(); err != nil {
		t.Fatalf("loopA.Start: %v", err)
	}
	defer func() { _ = loopA.Stop(); _ = loopA.Free() }()

	if err := loopB.RegisterSource(cli); err != nil {
		t.Fatalf("register dialer: %v", err)
	}
	if err := loopB.Start(); err != nil {
		t.Fatalf("loopB.Start: %v", err)
	}
	defer func() { _ = loopB.Stop(); _ = loopB.Free() }()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		_ = loopA.Run(20 * time.Millisecond)
		_ = loopB.Run(20 * time.Millisecond)

		mu.Lock()
		done := established && gotPing
		mu.Unlock()
		if done {
			break
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if !established {
		t.Fatal("server never observed an established connection")
	}
	if !gotPing {
		t.Fatal("server never observed the \"ping\" payload sent by the client")
	}
}
