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
	"sync"

	"github.com/sabouaram/uacore/loop"
	"github.com/sabouaram/uacore/runlog"
	"github.com/sabouaram/uacore/transport"
	"github.com/sabouaram/uacore/transport/config"
	"github.com/sabouaram/uacore/transport/udp"
)

// Subscriber owns one listening UDP manager and holds the last Int32
// value received for each NodeID whose incoming message matched the
// configured writer-group/publisher/dataset-writer filter.
type Subscriber struct {
	mu     sync.RWMutex
	mgr    *udp.Manager
	filter Header
	values map[NodeID]int32
}

// NewSubscriber registers a listening UDP manager with l, bound to cfg,
// accepting only datagrams whose Header matches filter exactly
// (spec.md §8 scenario 3's writer-group id 100 / publisher id 2234 /
// dataset-writer id 62541 match).
func NewSubscriber(name string, l *loop.Loop, cfg config.Server, filter Header, log runlog.Logger) (*Subscriber, error) {
	s := &Subscriber{filter: filter, values: make(map[NodeID]int32)}
	mgr := udp.New(name, cfg, s.onDatagram, log)
	if err := l.RegisterSource(mgr); err != nil {
		return nil, err
	}
	s.mgr = mgr
	return s, nil
}

func (s *Subscriber) onDatagram(state transport.ConnState, _ interface{}, buf []byte, _ error) {
	if state != transport.ConnectionRead {
		return
	}
	msg, err := Decode(buf)
	if err != nil {
		return
	}
	if msg.Header != s.filter {
		return
	}
	s.mu.Lock()
	s.values[msg.Target] = msg.Value
	s.mu.Unlock()
}

// Int32 returns the last value received for id and whether one has
// arrived yet.
func (s *Subscriber) Int32(id NodeID) (int32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[id]
	return v, ok
}

// Stop closes the underlying UDP manager.
func (s *Subscriber) Stop() error {
	return s.mgr.Stop()
}
