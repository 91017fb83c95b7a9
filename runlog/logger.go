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

package runlog

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// Fields are arbitrary structured attributes attached to one log line.
type Fields map[string]interface{}

// Logger is the structured-logging contract used by every component of the
// substrate. It is safe for concurrent use.
type Logger interface {
	io.Writer

	SetLevel(lvl Level)
	GetLevel() Level

	// WithFields returns a derived logger that always includes field, used
	// by a connection manager to tag every line with its event-source name.
	WithFields(field Fields) Logger

	Debug(msg string, field Fields)
	Info(msg string, field Fields)
	Warn(msg string, field Fields)
	Error(msg string, field Fields)

	// HCLog adapts this logger to the hashicorp/go-hclog.Logger contract,
	// for code written against that interface.
	HCLog() HCLogAdapter
}

type logger struct {
	mu sync.RWMutex
	l  *logrus.Entry
}

// New builds a Logger writing to out in logrus' text formatter, the way
// runner code expects a ready-to-use sink without further configuration.
func New(out io.Writer) Logger {
	base := logrus.New()
	base.SetOutput(out)
	base.SetLevel(logrus.DebugLevel)
	return &logger{l: logrus.NewEntry(base)}
}

func (g *logger) Write(p []byte) (int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	g.l.Logger.Out.Write(p)
	return len(p), nil
}

func (g *logger) SetLevel(lvl Level) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.l.Logger.SetLevel(lvl.logrus())
}

func (g *logger) GetLevel() Level {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Level(g.l.Logger.GetLevel())
}

func (g *logger) WithFields(field Fields) Logger {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return &logger{l: g.l.WithFields(logrus.Fields(field))}
}

func (g *logger) Debug(msg string, field Fields) { g.entry(field).Debug(msg) }
func (g *logger) Info(msg string, field Fields)  { g.entry(field).Info(msg) }
func (g *logger) Warn(msg string, field Fields)  { g.entry(field).Warn(msg) }
func (g *logger) Error(msg string, field Fields) { g.entry(field).Error(msg) }

func (g *logger) entry(field Fields) *logrus.Entry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(field) == 0 {
		return g.l
	}
	return g.l.WithFields(logrus.Fields(field))
}

func (g *logger) HCLog() HCLogAdapter {
	return HCLogAdapter{log: g}
}
