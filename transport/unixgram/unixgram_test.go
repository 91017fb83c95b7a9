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

package unixgram_test

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sabouaram/uacore/loop"
	"github.com/sabouaram/uacore/network/protocol"
	"github.com/sabouaram/uacore/transport"
	"github.com/sabouaram/uacore/transport/config"
	"github.com/sabouaram/uacore/transport/unixgram"
)

// TestUnixgramSendReceive sends a datagram between two managers sharing
// a loop, exercising bind/recvfrom/sendto over AF_UNIX SOCK_DGRAM.
func TestUnixgramSendReceive(t *testing.T) {
	dir := t.TempDir()
	rxPath := filepath.Join(dir, "rx.sock")
	txPath := filepath.Join(dir, "tx.sock")

	lp := loop.New(nil)

	var mu sync.Mutex
	var gotPayload string

	rxHandler := func(state transport.ConnState, ctx interface{}, buf []byte, err error) {
		mu.Lock()
		defer mu.Unlock()
		if state == transport.ConnectionRead {
			gotPayload = string(buf)
		}
	}

	rx := unixgram.New("rx", config.Server{Network: protocol.UnixGram, Address: []string{rxPath}}, rxHandler, nil)
	tx := unixgram.New("tx", config.Server{Network: protocol.UnixGram, Address: []string{txPath}}, nil, nil)

	if err := lp.RegisterSource(rx); err != nil {
		t.Fatalf("register rx: %v", err)
	}
	if err := lp.RegisterSource(tx); err != nil {
		t.Fatalf("register tx: %v", err)
	}
	if err := lp.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = lp.Stop(); _ = lp.Free() }()

	if err := tx.Send(rxPath, []byte("hello")); err != nil {
		t.Fatalf("send: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		_ = lp.Run(20 * time.Millisecond)
		mu.Lock()
		done := gotPayload == "hello"
		mu.Unlock()
		if done {
			break
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if gotPayload != "hello" {
		t.Fatalf("expected payload %q, got %q", "hello", gotPayload)
	}
}
