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

package errs

import (
	"errors"
	"fmt"
)

// Error extends the standard error with a CodeError classification and an
// optional parent, so a connection-shutdown error can carry the syscall
// error that caused it without losing either.
type Error interface {
	error

	// IsCode reports whether this error's own code equals code.
	IsCode(code CodeError) bool
	// HasCode reports whether this error or any parent has code.
	HasCode(code CodeError) bool
	// Code returns this error's own code.
	Code() CodeError
	// Parent returns the wrapped error, if any.
	Parent() error
	// Unwrap supports errors.Is / errors.As.
	Unwrap() error
}

type baseError struct {
	code   CodeError
	msg    string
	parent error
}

// New builds an Error of the given code with msg as the additional detail.
// If parent is non-nil it is chained and surfaced through Unwrap.
func New(code CodeError, msg string, parent error) Error {
	return &baseError{code: code, msg: msg, parent: parent}
}

// Wrap is New with the code's default text as msg.
func Wrap(code CodeError, parent error) Error {
	return &baseError{code: code, msg: code.String(), parent: parent}
}

func (e *baseError) Error() string {
	if e.parent != nil {
		if e.msg == "" {
			return fmt.Sprintf("%s: %s", e.code.String(), e.parent.Error())
		}
		return fmt.Sprintf("%s: %s: %s", e.code.String(), e.msg, e.parent.Error())
	}
	if e.msg == "" {
		return e.code.String()
	}
	return fmt.Sprintf("%s: %s", e.code.String(), e.msg)
}

func (e *baseError) IsCode(code CodeError) bool {
	return e.code == code
}

func (e *baseError) HasCode(code CodeError) bool {
	if e.code == code {
		return true
	}
	var p Error
	if errors.As(e.parent, &p) {
		return p.HasCode(code)
	}
	return false
}

func (e *baseError) Code() CodeError {
	return e.code
}

func (e *baseError) Parent() error {
	return e.parent
}

func (e *baseError) Unwrap() error {
	return e.parent
}

// HasCode is the free-function form of Error.HasCode, usable on a plain
// error that may or may not be one of ours.
func HasCode(err error, code CodeError) bool {
	var e Error
	if errors.As(err, &e) {
		return e.HasCode(code)
	}
	return false
}
