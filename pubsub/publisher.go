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

package pubsub

import (
	"net"
	"sync"

	"github.com/sabouaram/uacore/errs"
	"github.com/sabouaram/uacore/loop"
	"github.com/sabouaram/uacore/runlog"
	"github.com/sabouaram/uacore/transport/config"
	"github.com/sabouaram/uacore/transport/udp"
)

// Publisher owns one UDP manager used purely to send: its configured
// WriterGroupID/PublisherID/DataSetWriterID are stamped onto every
// datagram, and PublishInt32 is called on whatever cadence the owner
// schedules (a loop.Timer entry, in the common case).
type Publisher struct {
	mu     sync.Mutex
	mgr    *udp.Manager
	dest   *net.UDPAddr
	header Header
}

// NewPublisher registers a send-only UDP manager with l, bound to
// cfg (typically an ephemeral local port), stamping header on every
// published message.
func NewPublisher(name string, l *loop.Loop, cfg config.Server, dest *net.UDPAddr, header Header, log runlog.Logger) (*Publisher, error) {
	mgr := udp.New(name, cfg, nil, log)
	if err := l.RegisterSource(mgr); err != nil {
		return nil, err
	}
	return &Publisher{mgr: mgr, dest: dest, header: header}, nil
}

// PublishInt32 sends target=value as one DataSetMessage to the
// configured destination (spec.md §8 scenario 3's single-variable
// publish).
func (p *Publisher) PublishInt32(target NodeID, value int32) error {
	p.mu.Lock()
	dest := p.dest
	header := p.header
	p.mu.Unlock()

	if dest == nil {
		return errs.New(errs.BadInvalidArgument, "publisher has no destination configured", nil)
	}
	frame := Encode(Message{Header: header, Target: target, Value: value})
	return p.mgr.Send(dest, frame)
}

// Stop closes the underlying UDP manager.
func (p *Publisher) Stop() error {
	return p.mgr.Stop()
}
