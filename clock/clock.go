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

// Package clock is the monotonic/wall-clock primitive shared by the timer
// and event loop: every "now" the rest of the substrate reasons about is a
// Time value, a signed count of 100ns ticks, matching the OPC UA DateTime
// wire unit so a timer deadline and a wall-clock timestamp share one type.
package clock

import "time"

// Tick is the duration of one DateTime unit: 100 nanoseconds.
const Tick = 100 * time.Nanosecond

// MillisecondTicks is the number of 100ns ticks in one millisecond.
const MillisecondTicks int64 = 10_000

// Time is a monotonic or wall-clock timestamp expressed in 100ns ticks.
type Time int64

// Max is used as "no entry due" sentinel, mirroring INT64_MAX in spec.md.
const Max Time = 1<<63 - 1

var monotonicEpoch = time.Now()

// NowMonotonic returns the current monotonic clock reading. It never goes
// backwards within a process and is the clock every timer/loop computation
// is keyed on.
func NowMonotonic() Time {
	return Time(time.Since(monotonicEpoch) / Tick)
}

// NowWall returns the current wall-clock time, used only for external
// timestamps (log lines, certificate validity, CSR notBefore) and never fed
// back into timer math.
func NowWall() Time {
	return Time(time.Now().UnixNano()) / Time(Tick/time.Nanosecond)
}

// FromDuration converts a time.Duration to Time ticks.
func FromDuration(d time.Duration) Time {
	return Time(d / Tick)
}

// Duration converts Time ticks back to a time.Duration.
func (t Time) Duration() time.Duration {
	return time.Duration(t) * Tick
}

// Add returns t advanced by d ticks.
func (t Time) Add(d Time) Time {
	return t + d
}

// Sub returns the tick distance t - u.
func (t Time) Sub(u Time) Time {
	return t - u
}

// LocalOffset returns the current local-to-UTC offset, used by logging and
// CSR timestamping when presenting a wall-clock Time to a human.
func LocalOffset() time.Duration {
	_, off := time.Now().Zone()
	return time.Duration(off) * time.Second
}
