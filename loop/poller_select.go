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

package loop

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// selectPoller is the level-triggered select variant of spec.md §4.4: a
// dynamically grown flat array of registered fds, rebuilt into three
// FD_SETs each poll. Portable to every unix target, at the cost of the
// classic FD_SETSIZE ceiling -- acceptable for the substrate's scale
// (event sources plus their connections, not a million-socket load
// balancer).
type selectPoller struct {
	mu  sync.Mutex
	fds []*RegisteredFD
}

func newSelectPoller() (*selectPoller, error) {
	return &selectPoller{}, nil
}

func (p *selectPoller) Register(fd *RegisteredFD) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	fd.index = len(p.fds)
	p.fds = append(p.fds, fd)
	return nil
}

func (p *selectPoller) Modify(fd *RegisteredFD) error {
	// interest mask is read directly off fd at Poll time; nothing to do.
	return nil
}

func (p *selectPoller) Deregister(fd *RegisteredFD) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := fd.index
	if idx < 0 || idx >= len(p.fds) || p.fds[idx] != fd {
		return nil
	}

	last := len(p.fds) - 1
	p.fds[idx] = p.fds[last]
	p.fds[idx].index = idx
	p.fds = p.fds[:last]
	fd.index = -1
	return nil
}

func (p *selectPoller) Poll(timeout time.Duration) (int, error) {
	p.mu.Lock()
	snapshot := make([]*RegisteredFD, len(p.fds))
	copy(snapshot, p.fds)
	p.mu.Unlock()

	var rset, wset, eset unix.FdSet
	maxFD := 0

	for _, fd := range snapshot {
		if fd.Armed() {
			continue
		}
		if fd.Interest.Has(InterestIn) {
			fdSet(&rset, fd.FD)
		}
		if fd.Interest.Has(InterestOut) {
			fdSet(&wset, fd.FD)
		}
		if fd.Interest.Has(InterestErr) {
			fdSet(&eset, fd.FD)
		}
		if fd.FD > maxFD {
			maxFD = fd.FD
		}
	}

	tv := unix.NsecToTimeval(timeout.Nanoseconds())

	n, err := unix.Select(maxFD+1, &rset, &wset, &eset, &tv)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}

	dispatched := 0
	for i := 0; i < len(snapshot); i++ {
		fd := snapshot[i]
		if fd.Armed() {
			continue
		}

		readable := fdIsSet(&rset, fd.FD)
		writable := fdIsSet(&wset, fd.FD)
		errored := fdIsSet(&eset, fd.FD)

		if !readable && !writable && !errored {
			continue
		}

		before := p.lenLocked()
		if fd.Dispatch != nil {
			fd.Dispatch(fd, readable, writable, errored)
		}
		dispatched++

		// A dispatch may deregister itself (closing callback). Detect the
		// array shrinking under us and step back one index, per spec.md
		// §4.4's "a side-effecting callback may deregister itself" rule.
		if p.lenLocked() < before {
			i--
		}
	}

	return dispatched, nil
}

func (p *selectPoller) lenLocked() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.fds)
}

func (p *selectPoller) Close() error {
	return nil
}

// fdSet/fdIsSet assume a 64-bit FdSet.Bits word, true for linux/amd64 and
// most other 64-bit unix targets; a 32-bit target would need fd/32, fd%32.
func fdSet(set *unix.FdSet, fd int) {
	set.Bits[fd/64] |= 1 << uint(fd%64)
}

func fdIsSet(set *unix.FdSet, fd int) bool {
	return set.Bits[fd/64]&(1<<uint(fd%64)) != 0
}
