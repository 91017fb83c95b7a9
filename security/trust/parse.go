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
	"crypto/sha1"
	"crypto/x509"
	"encoding/pem"
)

func sha1Sum(der []byte) [20]byte {
	return sha1.Sum(der)
}

// ParseCertificate decodes a single certificate, DER preferred, PEM
// accepted as a fallback (§6.4).
func ParseCertificate(b []byte) (*x509.Certificate, error) {
	if block, _ := pem.Decode(b); block != nil {
		return x509.ParseCertificate(block.Bytes)
	}
	return x509.ParseCertificate(b)
}

// ParseCRL decodes a single certificate revocation list, DER preferred,
// PEM accepted as a fallback.
func ParseCRL(b []byte) (*x509.RevocationList, error) {
	if block, _ := pem.Decode(b); block != nil {
		return x509.ParseRevocationList(block.Bytes)
	}
	return x509.ParseRevocationList(b)
}

// Thumbprint computes a certificate's SHA-1 thumbprint (§6.4).
func Thumbprint(cert *x509.Certificate) [20]byte {
	return thumbprintOf(cert)
}
