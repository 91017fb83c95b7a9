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
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"

	"github.com/sabouaram/uacore/errs"
)

// UpdateCertificate installs newCert as the policy's local certificate
// (§4.12's certificate/key update rules):
//
//   - if newKey is non-nil, it must be the key that was used to sign
//     newCert and becomes the policy's local key;
//   - if newKey is nil and a CSR-generated key is pending
//     (CreateSigningRequest was called with regenerateKey), that
//     pending key is adopted, provided it matches newCert's public key;
//   - if newKey is nil and no key is pending, the existing local key is
//     retained, provided it matches newCert's public key.
//
// Any mismatch leaves the policy in its previous state and returns
// BadCertificateInvalid; a successful update clears any pending CSR
// key, recomputes the thumbprint, and, if an OwnCertificateStore is
// attached (SetOwnCertificateStore), persists the new pair to it —
// mirroring the original filestore policy's two-step update: the
// in-memory swap commits first, and only a successful swap is ever
// written to disk.
func (p *Policy) UpdateCertificate(newCert *x509.Certificate, newKey crypto.Signer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if newCert == nil {
		return errs.New(errs.BadInvalidArgument, "new certificate is required", nil)
	}

	candidate := newKey
	if candidate == nil {
		candidate = p.pendingCSRKey
	}
	if candidate == nil {
		candidate = p.localKey
	}
	if candidate == nil {
		return errs.New(errs.BadCertificateInvalid, "no private key available to pair with the new certificate", nil)
	}

	if !publicKeysEqual(candidate.Public(), newCert.PublicKey) {
		return errs.New(errs.BadCertificateInvalid, "new certificate does not match the available private key", nil)
	}

	p.localCert = newCert
	p.localKey = candidate
	p.pendingCSRKey = nil
	p.localThumb = thumbprint(newCert)

	if p.ownStore != nil {
		if err := p.ownStore.PersistOwnCertificate(newCert, candidate); err != nil {
			return err
		}
	}
	return nil
}

func publicKeysEqual(a, b interface{}) bool {
	switch ak := a.(type) {
	case *rsa.PublicKey:
		bk, ok := b.(*rsa.PublicKey)
		return ok && ak.Equal(bk)
	case *ecdsa.PublicKey:
		bk, ok := b.(*ecdsa.PublicKey)
		return ok && ak.Equal(bk)
	}
	return false
}
