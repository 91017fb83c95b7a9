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

// Package errs provides the status-code taxonomy used across the runtime
// substrate: timer, event loop, transport and security-policy code all
// return errors built from the CodeError values declared here rather than
// bare fmt.Errorf strings, so callers can branch on HasCode instead of
// string-matching.
package errs

// CodeError is a numeric classification of an error, in the spirit of an
// HTTP status code. It never resets and is safe to compare across the
// module.
type CodeError uint16

const (
	UnknownError CodeError = iota

	// BadInternalError: programming precondition violated (reentrant run,
	// modify of an unknown id, parameter validation bugs).
	BadInternalError

	// BadInvalidArgument: user-visible bad parameter.
	BadInvalidArgument

	// BadOutOfMemory: allocation failure at any layer; never swallowed.
	BadOutOfMemory

	// BadNotFound: operation targets an unknown id (timer, connection).
	BadNotFound

	// BadConnectionClosed: socket-level failure during send, or remote RST.
	BadConnectionClosed

	// BadConnectionRejected: listen/bind/connect failure during setup.
	BadConnectionRejected

	// BadCertificateInvalid: certificate failed structural/signature checks.
	BadCertificateInvalid

	// BadCertificateUntrusted: no trusted chain could be built.
	BadCertificateUntrusted

	// BadCertificateChainIncomplete: an issuer link is missing.
	BadCertificateChainIncomplete

	// BadCertificateRevocationUnknown: no CRL covers part of the chain.
	BadCertificateRevocationUnknown

	// BadCertificateUseNotAllowed: key usage / extended key usage mismatch.
	BadCertificateUseNotAllowed

	// BadOutOfService: unclassified socket-creation failure (UDP open path).
	BadOutOfService

	// BadDisconnect: unclassified teardown failure (UDP open path).
	BadDisconnect

	// BadNotSupported: operation has no implementation on this platform.
	BadNotSupported
)

var codeText = map[CodeError]string{
	UnknownError:                    "unknown error",
	BadInternalError:                "internal error",
	BadInvalidArgument:              "invalid argument",
	BadOutOfMemory:                  "out of memory",
	BadNotFound:                     "not found",
	BadConnectionClosed:             "connection closed",
	BadConnectionRejected:           "connection rejected",
	BadCertificateInvalid:           "certificate invalid",
	BadCertificateUntrusted:         "certificate untrusted",
	BadCertificateChainIncomplete:   "certificate chain incomplete",
	BadCertificateRevocationUnknown: "certificate revocation unknown",
	BadCertificateUseNotAllowed:     "certificate use not allowed",
	BadOutOfService:                 "out of service",
	BadDisconnect:                   "disconnected",
	BadNotSupported:                 "not supported",
}

// String returns the human-readable label for the code, or "unknown error"
// for an unregistered value.
func (c CodeError) String() string {
	if s, ok := codeText[c]; ok {
		return s
	}
	return codeText[UnknownError]
}

// Uint16 returns the raw wire value of the code.
func (c CodeError) Uint16() uint16 {
	return uint16(c)
}
