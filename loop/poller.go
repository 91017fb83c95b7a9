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

import "time"

// Poller is the contract satisfied by both the level-triggered select
// variant and the Linux epoll variant (spec.md §4.4). Both share: a
// registered fd whose close is armed is ignored; the caller's lock is
// released across the blocking syscall; the self-pipe read end is always
// listened to.
type Poller interface {
	// Register adds fd to the poll set for its current Interest mask.
	Register(fd *RegisteredFD) error
	// Modify updates the interest mask of an already-registered fd.
	Modify(fd *RegisteredFD) error
	// Deregister removes fd from the poll set.
	Deregister(fd *RegisteredFD) error
	// Poll blocks for at most timeout and dispatches readiness to each
	// ready, non-armed fd's DispatchFunc. It returns the number of fds
	// dispatched.
	Poll(timeout time.Duration) (int, error)
	// Close releases the poller's own resources (epoll fd, FD_SET arrays).
	Close() error
}

// computeListenTimeout implements spec.md §4.4 "Timeout computation":
// listenTimeout = min(nextTimer, now+userTimeout) - now, clamped at zero;
// forced to zero when the delayed queue is non-empty. nextTimerRelative and
// userTimeout are both expressed relative to "now" (the distance to the
// next timer firing, and the caller's requested Run timeout).
func computeListenTimeout(nextTimerRelative, userTimeout time.Duration, delayedNonEmpty bool) time.Duration {
	if delayedNonEmpty {
		return 0
	}

	d := userTimeout
	if nextTimerRelative < d {
		d = nextTimerRelative
	}
	if d < 0 {
		return 0
	}
	return d
}
