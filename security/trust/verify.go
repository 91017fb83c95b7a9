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

package trust

import (
	"crypto/x509"
	"time"

	"github.com/sabouaram/uacore/errs"
)

// VerifyCertificate builds a chain from cert through issuer ∪ trusted,
// enforces CRL coverage for the direct issuer (a missing CRL is
// RevocationUnknown, not success), and appends cert to the rejected
// ring on any failure before returning (§4.13, §7 rule 5).
func (g *Group) VerifyCertificate(cert *x509.Certificate) error {
	if err := g.verifyCertificate(cert); err != nil {
		g.reject(cert)
		return err
	}
	return nil
}

func (g *Group) verifyCertificate(cert *x509.Certificate) error {
	g.mu.RLock()
	roots := x509.NewCertPool()
	for _, c := range g.trustedCerts {
		roots.AddCert(c)
	}
	intermediates := x509.NewCertPool()
	for _, c := range g.issuerCerts {
		intermediates.AddCert(c)
	}
	g.mu.RUnlock()

	chains, err := cert.Verify(x509.VerifyOptions{
		Roots:         roots,
		Intermediates: intermediates,
		CurrentTime:   time.Now(),
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	})
	if err != nil {
		return classifyChainError(err)
	}
	if len(chains) == 0 || len(chains[0]) == 0 {
		return errs.New(errs.BadCertificateChainIncomplete, "no verification chain could be built", nil)
	}

	chain := chains[0]
	issuer := cert
	if len(chain) > 1 {
		issuer = chain[1]
	}
	isTrusted := g.isTrustedIssuer(issuer)

	if !g.crlCoversIssuer(issuer, isTrusted) {
		return errs.New(errs.BadCertificateRevocationUnknown, "no crl covers this certificate's issuer", nil)
	}
	if g.isRevoked(cert, issuer, isTrusted) {
		return errs.New(errs.BadCertificateInvalid, "certificate is revoked", nil)
	}
	return nil
}

func classifyChainError(err error) error {
	switch e := err.(type) {
	case x509.UnknownAuthorityError:
		return errs.New(errs.BadCertificateUntrusted, "certificate chain has no trusted root", e)
	case x509.CertificateInvalidError:
		if e.Reason == x509.Expired {
			return errs.New(errs.BadCertificateInvalid, "certificate expired or not yet valid", e)
		}
		if e.Reason == x509.IncompatibleUsage {
			return errs.New(errs.BadCertificateUseNotAllowed, "certificate key usage does not permit this use", e)
		}
		return errs.New(errs.BadCertificateInvalid, "certificate chain invalid", e)
	}
	return errs.New(errs.BadCertificateChainIncomplete, "certificate chain could not be built", err)
}

func (g *Group) isTrustedIssuer(issuer *x509.Certificate) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	tp := thumbprintOf(issuer)
	for _, c := range g.trustedCerts {
		if thumbprintOf(c) == tp {
			return true
		}
	}
	return false
}

func (g *Group) crlCoversIssuer(issuer *x509.Certificate, isTrusted bool) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	crls := g.issuerCRL
	if isTrusted {
		crls = g.trustedCRL
	}
	for _, crl := range crls {
		if crl.Issuer.String() == issuer.Subject.String() {
			return true
		}
	}
	return false
}

func (g *Group) isRevoked(cert, issuer *x509.Certificate, isTrusted bool) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	crls := g.issuerCRL
	if isTrusted {
		crls = g.trustedCRL
	}
	for _, crl := range crls {
		if crl.Issuer.String() != issuer.Subject.String() {
			continue
		}
		for _, rc := range crl.RevokedCertificateEntries {
			if rc.SerialNumber != nil && cert.SerialNumber != nil && rc.SerialNumber.Cmp(cert.SerialNumber) == 0 {
				return true
			}
		}
	}
	return false
}
