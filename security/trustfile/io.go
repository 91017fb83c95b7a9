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

package trustfile

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sabouaram/uacore/errs"
	"github.com/sabouaram/uacore/security/trust"
)

// readAllDirs reads the four mutable directories back into a
// trust.Bytes4, tolerating an empty/missing directory as no entries.
func readAllDirs(groupRoot string) (trust.Bytes4, error) {
	var (
		out trust.Bytes4
		err error
	)
	if out.TrustedCerts, err = readDir(filepath.Join(groupRoot, dirTrustedCerts)); err != nil {
		return trust.Bytes4{}, err
	}
	if out.TrustedCRL, err = readDir(filepath.Join(groupRoot, dirTrustedCRL)); err != nil {
		return trust.Bytes4{}, err
	}
	if out.IssuerCerts, err = readDir(filepath.Join(groupRoot, dirIssuerCerts)); err != nil {
		return trust.Bytes4{}, err
	}
	if out.IssuerCRL, err = readDir(filepath.Join(groupRoot, dirIssuerCRL)); err != nil {
		return trust.Bytes4{}, err
	}
	return out, nil
}

func readDir(dir string) ([][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.New(errs.BadInternalError, "read trust store directory failed", err)
	}
	var out [][]byte
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, errs.New(errs.BadInternalError, "read trust store file failed", err)
		}
		out = append(out, b)
	}
	return out, nil
}

// rewriteCertDir empties dir of regular files and writes each
// DER-encoded certificate back under <CN>[<thumbprint-hex>].der
// (§4.14's file-name scheme).
func rewriteCertDir(dir string, ders [][]byte) error {
	if err := clearRegularFiles(dir); err != nil {
		return err
	}
	for _, der := range ders {
		cert, err := trust.ParseCertificate(der)
		if err != nil {
			return errs.New(errs.BadCertificateInvalid, "parse certificate before write failed", err)
		}
		tp := trust.Thumbprint(cert)
		name := fmt.Sprintf("%s[%s].der", sanitizeCN(cert.Subject.CommonName), hex.EncodeToString(tp[:]))
		if err := os.WriteFile(filepath.Join(dir, name), der, 0o640); err != nil {
			return errs.New(errs.BadInternalError, "write certificate file failed", err)
		}
	}
	return nil
}

// rewriteCRLDir empties dir of regular files and writes each
// DER-encoded CRL back under <issuer-CN>[<thumbprint-hex>].crl.
func rewriteCRLDir(dir string, ders [][]byte) error {
	if err := clearRegularFiles(dir); err != nil {
		return err
	}
	for _, der := range ders {
		crl, err := trust.ParseCRL(der)
		if err != nil {
			return errs.New(errs.BadCertificateInvalid, "parse crl before write failed", err)
		}
		tp := sha1.Sum(der)
		name := fmt.Sprintf("%s[%s].crl", sanitizeCN(crl.Issuer.CommonName), hex.EncodeToString(tp[:]))
		if err := os.WriteFile(filepath.Join(dir, name), der, 0o640); err != nil {
			return errs.New(errs.BadInternalError, "write crl file failed", err)
		}
	}
	return nil
}

func clearRegularFiles(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.New(errs.BadInternalError, "list trust store directory failed", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return errs.New(errs.BadInternalError, "remove stale trust store file failed", err)
		}
	}
	return nil
}

func sanitizeCN(cn string) string {
	if cn == "" {
		return "unnamed"
	}
	out := make([]byte, 0, len(cn))
	for i := 0; i < len(cn); i++ {
		c := cn[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

func sha1TrimHex(der []byte) string {
	h := sha1.Sum(der)
	return hex.EncodeToString(h[:])[:12]
}

// dirContainsBytes reports whether any regular file under dir holds
// exactly raw, mirroring the original filestore's exact-content dedup
// (it compares raw bytes, not thumbprints, so a re-issued certificate
// with the same DER encoding is never written twice).
func dirContainsBytes(dir string, raw []byte) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errs.New(errs.BadInternalError, "list own certificate directory failed", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return false, errs.New(errs.BadInternalError, "read own certificate file failed", err)
		}
		if bytes.Equal(b, raw) {
			return true, nil
		}
	}
	return false, nil
}

// marshalPrivateKey encodes key as PKCS#8 DER. RSA, ECDSA and Ed25519
// keys are accepted; any other key type is BadNotSupported.
func marshalPrivateKey(key crypto.Signer) ([]byte, error) {
	switch key.(type) {
	case *rsa.PrivateKey, *ecdsa.PrivateKey, ed25519.PrivateKey:
		der, err := x509.MarshalPKCS8PrivateKey(key)
		if err != nil {
			return nil, errs.New(errs.BadInternalError, "marshal own private key failed", err)
		}
		return der, nil
	default:
		return nil, errs.New(errs.BadNotSupported, "unsupported private key type for own certificate persistence", nil)
	}
}
