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
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"

	"github.com/sabouaram/uacore/errs"
)

// CreateSigningRequest builds a DER-encoded PKCS#10 CSR (§4.12: "CSR
// generation... key usage digitalSignature, nonRepudiation,
// keyEncipherment, dataEncipherment; copies the SAN extension from the
// current certificate when present").
//
// If subject is nil, the current local certificate's subject is
// reused. If regenerateKey is true a fresh private key matching the
// policy's family is generated and held as the pending key until
// UpdateCertificate adopts it; otherwise the existing local key signs
// the request.
func (p *Policy) CreateSigningRequest(subject *pkix.Name, regenerateKey bool) (csrDER []byte, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if subject == nil {
		if p.localCert == nil {
			return nil, errs.New(errs.BadInvalidArgument, "no subject and no current certificate to copy one from", nil)
		}
		s := p.localCert.Subject
		subject = &s
	}

	signer := p.localKey
	if regenerateKey {
		k, genErr := generateKeyFor(p.alg, p.localKey)
		if genErr != nil {
			return nil, errs.New(errs.BadInternalError, "generate CSR key failed", genErr)
		}
		p.pendingCSRKey = k
		signer = k
	}
	if signer == nil {
		return nil, errs.New(errs.BadInternalError, "no signing key available for CSR", nil)
	}

	tmpl := &x509.CertificateRequest{
		Subject:            *subject,
		SignatureAlgorithm: csrSigAlgFor(p.alg),
	}
	if p.localCert != nil {
		tmpl.DNSNames = p.localCert.DNSNames
		tmpl.IPAddresses = p.localCert.IPAddresses
		tmpl.URIs = p.localCert.URIs
		tmpl.EmailAddresses = p.localCert.EmailAddresses
	}

	// keyUsage (2.5.29.15): digitalSignature, nonRepudiation,
	// keyEncipherment, dataEncipherment.
	kuDER, err := asn1.Marshal(asn1.BitString{Bytes: []byte{0xF0}, BitLength: 4})
	if err != nil {
		return nil, errs.New(errs.BadInternalError, "encode CSR key usage failed", err)
	}
	tmpl.ExtraExtensions = []pkix.Extension{{Id: asn1.ObjectIdentifier{2, 5, 29, 15}, Critical: true, Value: kuDER}}

	der, err := x509.CreateCertificateRequest(rand.Reader, tmpl, signer)
	if err != nil {
		return nil, errs.New(errs.BadInternalError, "create CSR failed", err)
	}
	return der, nil
}

func csrSigAlgFor(alg algorithmSet) x509.SignatureAlgorithm {
	switch alg.asymSig {
	case asymSigRsaPkcs1Sha1:
		return x509.SHA1WithRSA
	case asymSigRsaPkcs1Sha256:
		return x509.SHA256WithRSA
	case asymSigRsaPssSha256:
		return x509.SHA256WithRSAPSS
	case asymSigEcdsaSha256:
		return x509.ECDSAWithSHA256
	case asymSigEcdsaSha384:
		return x509.ECDSAWithSHA384
	}
	return x509.UnknownSignatureAlgorithm
}

// generateKeyFor creates a fresh private key matching alg's family: an
// RSA key sized from the current local key when possible (2048 bits as
// a floor), or an ECDSA key on alg.curve.
func generateKeyFor(alg algorithmSet, current crypto.Signer) (crypto.Signer, error) {
	if alg.family == familyECC {
		return ecdsa.GenerateKey(alg.curve, rand.Reader)
	}
	bits := 2048
	if rk, ok := current.(*rsa.PrivateKey); ok && rk.N.BitLen() > bits {
		bits = rk.N.BitLen()
	}
	return rsa.GenerateKey(rand.Reader, bits)
}
