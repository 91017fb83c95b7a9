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
	"log"
	"os"

	"github.com/hashicorp/go-hclog"
)

// HCLogAdapter lets a component written against hashicorp/go-hclog.Logger
// share our logrus-backed sink instead of keeping a second, uncoordinated
// logger alive.
type HCLogAdapter struct {
	log Logger
}

var _ hclog.Logger = HCLogAdapter{}

func argFields(args []interface{}) Fields {
	f := make(Fields, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		if k, ok := args[i].(string); ok {
			f[k] = args[i+1]
		}
	}
	return f
}

func (h HCLogAdapter) Log(level hclog.Level, msg string, args ...interface{}) {
	switch level {
	case hclog.Trace, hclog.Debug:
		h.log.Debug(msg, argFields(args))
	case hclog.Info:
		h.log.Info(msg, argFields(args))
	case hclog.Warn:
		h.log.Warn(msg, argFields(args))
	case hclog.Error:
		h.log.Error(msg, argFields(args))
	}
}

func (h HCLogAdapter) Trace(msg string, args ...interface{}) { h.log.Debug(msg, argFields(args)) }
func (h HCLogAdapter) Debug(msg string, args ...interface{}) { h.log.Debug(msg, argFields(args)) }
func (h HCLogAdapter) Info(msg string, args ...interface{})  { h.log.Info(msg, argFields(args)) }
func (h HCLogAdapter) Warn(msg string, args ...interface{})  { h.log.Warn(msg, argFields(args)) }
func (h HCLogAdapter) Error(msg string, args ...interface{}) { h.log.Error(msg, argFields(args)) }

func (h HCLogAdapter) IsTrace() bool { return h.log.GetLevel() >= TraceLevel }
func (h HCLogAdapter) IsDebug() bool { return h.log.GetLevel() >= DebugLevel }
func (h HCLogAdapter) IsInfo() bool  { return h.log.GetLevel() >= InfoLevel }
func (h HCLogAdapter) IsWarn() bool  { return h.log.GetLevel() >= WarnLevel }
func (h HCLogAdapter) IsError() bool { return h.log.GetLevel() >= ErrorLevel }

func (h HCLogAdapter) ImpliedArgs() []interface{} { return nil }
func (h HCLogAdapter) With(args ...interface{}) hclog.Logger {
	return HCLogAdapter{log: h.log.WithFields(argFields(args))}
}
func (h HCLogAdapter) Name() string                             { return "runlog" }
func (h HCLogAdapter) Named(name string) hclog.Logger            { return h }
func (h HCLogAdapter) ResetNamed(name string) hclog.Logger       { return h }
func (h HCLogAdapter) SetLevel(level hclog.Level)                {}
func (h HCLogAdapter) GetLevel() hclog.Level                     { return hclog.Info }
func (h HCLogAdapter) StandardLogger(opts *hclog.StandardLoggerOptions) *log.Logger {
	return log.New(h.StandardWriter(opts), "", 0)
}
func (h HCLogAdapter) StandardWriter(opts *hclog.StandardLoggerOptions) io.Writer {
	return os.Stderr
}
