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

// Package transport holds the pieces shared by every connection manager
// (TCP, UDP, Unix, Unixgram): the ConnState lifecycle enumeration, the
// benign-error filter, and the buffer-size/line-ending defaults.
package transport

import "strings"

// DefaultBufferSize is the static rx buffer size a manager allocates per
// connection when none is configured (spec.md §4.8: "defaults: 64 KiB
// rx" — this constant is the per-manager fallback the teacher's own
// socket package applies uniformly across TCP/UDP/Unix variants, 32 KiB,
// kept identical here so ported configuration files need no edits).
const DefaultBufferSize = 32 * 1024

// EOL is the line-ending byte used by line-oriented protocols layered on
// top of this transport (not interpreted by the core itself).
const EOL = byte('\n')

// ConnState is the fine-grained connection lifecycle stage delivered to
// application callbacks, refining spec.md §3's Established/Closing pair.
type ConnState uint8

const (
	ConnectionDial ConnState = iota
	ConnectionNew
	ConnectionRead
	ConnectionCloseRead
	ConnectionHandler
	ConnectionWrite
	ConnectionCloseWrite
	ConnectionClose
)

var connStateText = map[ConnState]string{
	ConnectionDial:       "Dial Connection",
	ConnectionNew:        "New Connection",
	ConnectionRead:       "Read Incoming Stream",
	ConnectionCloseRead:  "Close Incoming Stream",
	ConnectionHandler:    "Run HandlerFunc",
	ConnectionWrite:      "Write Outgoing Steam",
	ConnectionCloseWrite: "Close Outgoing Stream",
	ConnectionClose:      "Close Connection",
}

// String renders the human-readable label for s, or "unknown connection
// state" for an unregistered value.
func (s ConnState) String() string {
	if t, ok := connStateText[s]; ok {
		return t
	}
	return "unknown connection state"
}

// ErrorFilter swallows the benign "use of closed network connection"
// error produced by a deliberate local shutdown (spec.md §7 rule 1: a
// recoverable/expected syscall failure is suppressed rather than
// propagated) and passes every other error through unchanged.
func ErrorFilter(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "use of closed network connection") {
		return nil
	}
	return err
}

// HandlerFunc is the application callback invoked for every ConnState
// transition a connection goes through; buf is only valid for the
// duration of the call on ConnectionRead (it is the manager's lent
// static rx buffer, per spec.md §5 "Shared resources").
type HandlerFunc func(state ConnState, ctx interface{}, buf []byte, err error)
