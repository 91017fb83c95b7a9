//go:build windows

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
	"time"

	"github.com/sabouaram/uacore/errs"
)

// Windows lacks both select's portable FD_SET semantics over non-socket fds
// and epoll; a production port would use IOCP/WSAPoll, which is out of
// scope here (spec.md Non-goals: "platforms without select/epoll or
// signal-to-fd dispatch"). selfPipe is similarly unimplemented -- see
// selfpipe_windows.go.
type windowsPoller struct{}

func newPoller() (Poller, error) {
	return nil, errs.New(errs.BadNotSupported, "windows poller is not implemented", nil)
}

func (windowsPoller) Register(fd *RegisteredFD) error   { return notSupported() }
func (windowsPoller) Modify(fd *RegisteredFD) error     { return notSupported() }
func (windowsPoller) Deregister(fd *RegisteredFD) error { return notSupported() }
func (windowsPoller) Poll(timeout time.Duration) (int, error) {
	return 0, notSupported()
}
func (windowsPoller) Close() error { return nil }

func notSupported() error {
	return errs.New(errs.BadNotSupported, "windows poller is not implemented", nil)
}
