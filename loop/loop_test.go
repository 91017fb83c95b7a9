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

package loop_test

import (
	"testing"
	"time"

	"github.com/sabouaram/uacore/errs"
	"github.com/sabouaram/uacore/loop"
)

func TestLifecycleFreshToStarted(t *testing.T) {
	l := loop.New(nil)
	if l.State() != loop.Fresh {
		t.Fatalf("new loop should be Fresh, got %s", l.State())
	}
	if err := l.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if l.State() != loop.Started {
		t.Fatalf("expected Started, got %s", l.State())
	}
	if err := l.Start(); !errs.HasCode(err, errs.BadInternalError) {
		t.Fatalf("double Start should fail with BadInternalError, got %v", err)
	}
}

func TestStopWithNoSourcesReachesStopped(t *testing.T) {
	l := loop.New(nil)
	if err := l.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := l.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if l.State() != loop.Stopped {
		t.Fatalf("expected Stopped with no registered sources, got %s", l.State())
	}
	if err := l.Free(); err != nil {
		t.Fatalf("Free: %v", err)
	}
}

// TestCancelInterruptsBlockedRun exercises spec.md scenario 5: a Run call
// blocked on a long user timeout returns promptly once another goroutine
// calls Cancel, instead of waiting out the full timeout.
func TestCancelInterruptsBlockedRun(t *testing.T) {
	l := loop.New(nil)
	if err := l.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		_ = l.Stop()
		_ = l.Free()
	}()

	done := make(chan error, 1)
	go func() {
		done <- l.Run(5 * time.Second)
	}()

	time.Sleep(20 * time.Millisecond)
	l.Cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return promptly after Cancel")
	}
}

func TestRunRejectsReentrantCall(t *testing.T) {
	l := loop.New(nil)
	if err := l.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		_ = l.Stop()
		_ = l.Free()
	}()

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		close(started)
		_ = l.Run(200 * time.Millisecond)
		<-release
	}()
	<-started
	time.Sleep(10 * time.Millisecond)

	err := l.Run(0)
	close(release)
	if !errs.HasCode(err, errs.BadInternalError) {
		t.Fatalf("expected reentrant Run to fail with BadInternalError, got %v", err)
	}
}

type fakeSource struct {
	name    string
	state   loop.SourceState
	started bool
}

func (f *fakeSource) Name() string               { return f.name }
func (f *fakeSource) State() loop.SourceState     { return f.state }
func (f *fakeSource) StoppedEmpty() bool          { return true }
func (f *fakeSource) Free() error                 { return nil }
func (f *fakeSource) Start(l *loop.Loop) error {
	f.started = true
	f.state = loop.SourceStarted
	return nil
}
func (f *fakeSource) Stop() error {
	f.state = loop.SourceStopped
	return nil
}

func TestRegisterSourceBeforeStart(t *testing.T) {
	l := loop.New(nil)
	src := &fakeSource{name: "fake", state: loop.SourceFresh}

	if err := l.RegisterSource(src); err != nil {
		t.Fatalf("RegisterSource: %v", err)
	}
	if src.started {
		t.Fatal("source should not start before the loop itself starts")
	}

	if err := l.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !src.started {
		t.Fatal("source should have started along with the loop")
	}

	if err := l.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if l.State() != loop.Stopped {
		t.Fatalf("expected Stopped once the only source reports Stopped, got %s", l.State())
	}
}

func TestRegisterSourceAfterStartStartsImmediately(t *testing.T) {
	l := loop.New(nil)
	if err := l.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		_ = l.Stop()
		_ = l.Free()
	}()

	src := &fakeSource{name: "late", state: loop.SourceFresh}
	if err := l.RegisterSource(src); err != nil {
		t.Fatalf("RegisterSource: %v", err)
	}
	if !src.started {
		t.Fatal("source registered after Start should start immediately")
	}
}
