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

package policy

import (
	"crypto"
	"crypto/x509"
	"sort"

	"github.com/sabouaram/uacore/errs"
)

// IsSupported reports whether uri is one of the six registered
// security policies (§6.3).
func IsSupported(uri URI) bool {
	_, ok := algorithmSets[uri]
	return ok
}

// SupportedURIs returns every registered policy URI in a stable order.
func SupportedURIs() []URI {
	out := make([]URI, 0, len(algorithmSets))
	for u := range algorithmSets {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Registry builds Policy instances for a fixed local certificate/key
// pair across whichever of the six URIs a remote peer negotiates,
// so callers need not re-supply the local identity per channel.
type Registry struct {
	cert *x509.Certificate
	key  crypto.Signer
}

// NewRegistry builds a Registry bound to the given local identity.
func NewRegistry(cert *x509.Certificate, key crypto.Signer) *Registry {
	return &Registry{cert: cert, key: key}
}

// Policy builds (or rebuilds) a Policy for uri using the registry's
// bound local identity.
func (r *Registry) Policy(uri URI) (*Policy, error) {
	if !IsSupported(uri) {
		return nil, errs.New(errs.BadInvalidArgument, "unknown security policy uri", nil)
	}
	return New(uri, r.cert, r.key)
}
