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
	"golang.org/x/sys/unix"
)

// selfPipe is the sole mechanism that can cut a blocking Poll short without
// waiting for its timeout (spec.md §3 "Self-pipe"). Raw, non-blocking fds
// are used directly (not wrapped in *os.File) so they can be registered
// with the select/epoll poller the same way any other fd is.
type selfPipe struct {
	r, w int
	rfd  *RegisteredFD
}

func newSelfPipe() (*selfPipe, error) {
	fds, err := unix.Pipe2(nil, unix.O_NONBLOCK|unix.O_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &selfPipe{r: fds[0], w: fds[1]}, nil
}

// cancel writes a single byte to the pipe, waking any blocked Poll.
func (p *selfPipe) cancel() {
	var b [1]byte
	_, _ = unix.Write(p.w, b[:])
}

// drain reads until EAGAIN, per spec.md §4.4 rule 3 ("self-pipe read-end is
// always listened to; writing a single byte to it is the only way to
// preempt the syscall") -- level-triggered epoll would otherwise keep
// firing on the byte(s) left behind by a burst of concurrent cancel()s.
func (p *selfPipe) drain() {
	var buf [64]byte
	for {
		n, err := unix.Read(p.r, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func (p *selfPipe) close() {
	_ = unix.Close(p.r)
	_ = unix.Close(p.w)
}
