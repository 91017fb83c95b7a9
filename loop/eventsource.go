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

import "github.com/sabouaram/uacore/errs"

// SourceState is an event source's lifecycle stage (spec.md §3 EventSource).
type SourceState uint8

const (
	SourceFresh SourceState = iota
	SourceStopped
	SourceStarting
	SourceStarted
	SourceStopping
)

func (s SourceState) String() string {
	switch s {
	case SourceFresh:
		return "Fresh"
	case SourceStopped:
		return "Stopped"
	case SourceStarting:
		return "Starting"
	case SourceStarted:
		return "Started"
	case SourceStopping:
		return "Stopping"
	default:
		return "unknown source state"
	}
}

// EventSource is a pluggable component that owns file descriptors and
// registers them with a Loop: TCP and UDP connection managers and the
// interrupt manager all implement this contract (spec.md §4.7).
type EventSource interface {
	// Name identifies the source for logging and duplicate-registration
	// checks.
	Name() string

	// State returns the source's current lifecycle stage.
	State() SourceState

	// Start is invoked under the loop's lifecycle lock dropped around the
	// call, either at Loop.Start (if the source registered before start)
	// or immediately at RegisterSource (if the loop is already running).
	Start(l *Loop) error

	// Stop begins an asynchronous shutdown: implementations arm delayed
	// closes for their connections and return promptly; StoppedEmpty
	// reports when the source has actually quiesced.
	Stop() error

	// StoppedEmpty reports whether the source has no more open
	// connections/fds and can transition Stopping -> Stopped.
	StoppedEmpty() bool

	// Free releases any resources the source still holds. Called only
	// once the source (and the owning loop) is Stopped or Fresh.
	Free() error
}

// baseSource is a helper holding the common state-machine bookkeeping
// spec.md's §4.7 describes. None of this module's managers embed it: the
// TCP/UDP/interrupt managers keep their own name and state fields.
type baseSource struct {
	name  string
	state SourceState
}

func newBaseSource(name string) baseSource {
	return baseSource{name: name, state: SourceFresh}
}

func (b *baseSource) Name() string { return b.name }

func (b *baseSource) State() SourceState { return b.state }

func (b *baseSource) transition(to SourceState) error {
	switch {
	case to == SourceStopped && (b.state == SourceFresh || b.state == SourceStopping):
		b.state = to
		return nil
	case to == SourceStarting && b.state == SourceStopped:
		b.state = to
		return nil
	case to == SourceStarted && (b.state == SourceStarting || b.state == SourceFresh || b.state == SourceStopped):
		b.state = to
		return nil
	case to == SourceStopping && b.state == SourceStarted:
		b.state = to
		return nil
	default:
		return errs.New(errs.BadInternalError, "invalid event source transition from "+b.state.String()+" to "+to.String(), nil)
	}
}
