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
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"hash"

	"github.com/sabouaram/uacore/errs"
)

func (p *Policy) hashForSig() (crypto.Hash, hash.Hash) {
	switch p.alg.asymSig {
	case asymSigRsaPkcs1Sha1:
		return crypto.SHA1, sha1.New()
	case asymSigRsaPkcs1Sha256, asymSigRsaPssSha256, asymSigEcdsaSha256:
		return crypto.SHA256, sha256.New()
	case asymSigEcdsaSha384:
		return crypto.SHA384, sha512.New384()
	}
	return crypto.SHA256, sha256.New()
}

// Sign produces the asymmetric signature over msg using the local
// private key, per §4.12's asymmetric module.
func (p *Policy) Sign(msg []byte) ([]byte, error) {
	p.mu.RLock()
	key := p.localKey
	alg := p.alg
	p.mu.RUnlock()

	if key == nil {
		return nil, errs.New(errs.BadInternalError, "no local private key", nil)
	}
	h, hasher := p.hashForSig()
	hasher.Write(msg)
	digest := hasher.Sum(nil)

	switch alg.asymSig {
	case asymSigRsaPssSha256:
		rk, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errs.New(errs.BadInternalError, "policy expects an RSA key", nil)
		}
		return rsa.SignPSS(rand.Reader, rk, h, digest, nil)
	case asymSigRsaPkcs1Sha1, asymSigRsaPkcs1Sha256:
		rk, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errs.New(errs.BadInternalError, "policy expects an RSA key", nil)
		}
		return rsa.SignPKCS1v15(rand.Reader, rk, h, digest)
	case asymSigEcdsaSha256, asymSigEcdsaSha384:
		ek, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, errs.New(errs.BadInternalError, "policy expects an ECDSA key", nil)
		}
		return ecdsa.SignASN1(rand.Reader, ek, digest)
	}
	return nil, errs.New(errs.BadInternalError, "unsupported signature algorithm", nil)
}

// Verify checks sig over msg against remoteCert's public key. Returns
// BadCertificateInvalid on mismatch (§8 I8).
func (p *Policy) Verify(remoteCert *x509.Certificate, msg, sig []byte) error {
	p.mu.RLock()
	alg := p.alg
	p.mu.RUnlock()

	h, hasher := p.hashForSig()
	hasher.Write(msg)
	digest := hasher.Sum(nil)

	switch alg.asymSig {
	case asymSigRsaPssSha256:
		rk, ok := remoteCert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return errs.New(errs.BadCertificateInvalid, "remote key is not RSA", nil)
		}
		if err := rsa.VerifyPSS(rk, h, digest, sig, nil); err != nil {
			return errs.New(errs.BadCertificateInvalid, "signature verification failed", err)
		}
		return nil
	case asymSigRsaPkcs1Sha1, asymSigRsaPkcs1Sha256:
		rk, ok := remoteCert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return errs.New(errs.BadCertificateInvalid, "remote key is not RSA", nil)
		}
		if err := rsa.VerifyPKCS1v15(rk, h, digest, sig); err != nil {
			return errs.New(errs.BadCertificateInvalid, "signature verification failed", err)
		}
		return nil
	case asymSigEcdsaSha256, asymSigEcdsaSha384:
		ek, ok := remoteCert.PublicKey.(*ecdsa.PublicKey)
		if !ok {
			return errs.New(errs.BadCertificateInvalid, "remote key is not ECDSA", nil)
		}
		if !ecdsa.VerifyASN1(ek, digest, sig) {
			return errs.New(errs.BadCertificateInvalid, "signature verification failed", nil)
		}
		return nil
	}
	return errs.New(errs.BadInternalError, "unsupported signature algorithm", nil)
}

// Encrypt asymmetrically encrypts data for remoteCert's public key.
// ECC policies have identity encryption (§4.12: "Policies without
// asymmetric encryption... expose identity encryption").
func (p *Policy) Encrypt(remoteCert *x509.Certificate, data []byte) ([]byte, error) {
	p.mu.RLock()
	alg := p.alg
	p.mu.RUnlock()

	switch alg.asymEnc {
	case asymEncIdentity:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	case asymEncRsaPkcs1:
		rk, ok := remoteCert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return nil, errs.New(errs.BadCertificateInvalid, "remote key is not RSA", nil)
		}
		return rsa.EncryptPKCS1v15(rand.Reader, rk, data)
	case asymEncRsaOaepSha1:
		rk, ok := remoteCert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return nil, errs.New(errs.BadCertificateInvalid, "remote key is not RSA", nil)
		}
		return rsa.EncryptOAEP(sha1.New(), rand.Reader, rk, data, nil)
	case asymEncRsaOaepSha256:
		rk, ok := remoteCert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return nil, errs.New(errs.BadCertificateInvalid, "remote key is not RSA", nil)
		}
		return rsa.EncryptOAEP(sha256.New(), rand.Reader, rk, data, nil)
	}
	return nil, errs.New(errs.BadInternalError, "unsupported encryption algorithm", nil)
}

// Decrypt reverses Encrypt using the local private key.
func (p *Policy) Decrypt(data []byte) ([]byte, error) {
	p.mu.RLock()
	key := p.localKey
	alg := p.alg
	p.mu.RUnlock()

	switch alg.asymEnc {
	case asymEncIdentity:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	case asymEncRsaPkcs1:
		rk, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errs.New(errs.BadInternalError, "policy expects an RSA key", nil)
		}
		return rsa.DecryptPKCS1v15(rand.Reader, rk, data)
	case asymEncRsaOaepSha1:
		rk, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errs.New(errs.BadInternalError, "policy expects an RSA key", nil)
		}
		return rsa.DecryptOAEP(sha1.New(), rand.Reader, rk, data, nil)
	case asymEncRsaOaepSha256:
		rk, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errs.New(errs.BadInternalError, "policy expects an RSA key", nil)
		}
		return rsa.DecryptOAEP(sha256.New(), rand.Reader, rk, data, nil)
	}
	return nil, errs.New(errs.BadInternalError, "unsupported encryption algorithm", nil)
}

// LocalPlainBlockSize and LocalCipherBlockSize report the block sizes
// of the local key for the configured asymmetric encryption scheme,
// used by callers sizing buffers before Encrypt/Decrypt.
func (p *Policy) LocalPlainBlockSize() int  { return p.plainBlockSize(p.localKey) }
func (p *Policy) LocalCipherBlockSize() int { return p.cipherBlockSize(p.localKey) }

// RemotePlainBlockSize and RemoteCipherBlockSize do the same against a
// peer certificate's public key.
func (p *Policy) RemotePlainBlockSize(cert *x509.Certificate) int {
	return p.plainBlockSize(cert.PublicKey)
}
func (p *Policy) RemoteCipherBlockSize(cert *x509.Certificate) int {
	return p.cipherBlockSize(cert.PublicKey)
}

func (p *Policy) cipherBlockSize(key interface{}) int {
	p.mu.RLock()
	alg := p.alg
	p.mu.RUnlock()
	if alg.asymEnc == asymEncIdentity {
		return 1
	}
	rk, ok := rsaModulusOf(key)
	if !ok {
		return 0
	}
	return (rk.N.BitLen() + 7) / 8
}

func (p *Policy) plainBlockSize(key interface{}) int {
	p.mu.RLock()
	alg := p.alg
	p.mu.RUnlock()
	if alg.asymEnc == asymEncIdentity {
		return 1
	}
	rk, ok := rsaModulusOf(key)
	if !ok {
		return 0
	}
	modBytes := (rk.N.BitLen() + 7) / 8
	switch alg.asymEnc {
	case asymEncRsaPkcs1:
		return modBytes - 11
	case asymEncRsaOaepSha1:
		return modBytes - 2*sha1.Size - 2
	case asymEncRsaOaepSha256:
		return modBytes - 2*sha256.Size - 2
	}
	return modBytes
}

func rsaModulusOf(key interface{}) (*rsa.PublicKey, bool) {
	switch k := key.(type) {
	case *rsa.PublicKey:
		return k, true
	case *rsa.PrivateKey:
		return &k.PublicKey, true
	}
	return nil, false
}

// LocalSignatureSize and RemoteSignatureSize report the expected
// signature length for this policy's asymmetric signature scheme.
func (p *Policy) LocalSignatureSize() int { return p.signatureSize(p.localKey) }

func (p *Policy) RemoteSignatureSize(cert *x509.Certificate) int {
	return p.signatureSize(cert.PublicKey)
}

func (p *Policy) signatureSize(key interface{}) int {
	p.mu.RLock()
	alg := p.alg
	p.mu.RUnlock()
	switch alg.asymSig {
	case asymSigRsaPkcs1Sha1, asymSigRsaPkcs1Sha256, asymSigRsaPssSha256:
		rk, ok := rsaModulusOf(key)
		if !ok {
			return 0
		}
		return (rk.N.BitLen() + 7) / 8
	case asymSigEcdsaSha256:
		return 64 // two raw 256-bit scalars; Sign's ASN.1 DER output runs up to 72 bytes
	case asymSigEcdsaSha384:
		return 96
	}
	return 0
}

// MakeCertThumbprint computes a certificate's SHA-1 thumbprint.
func MakeCertThumbprint(cert *x509.Certificate) [sha1.Size]byte {
	return thumbprint(cert)
}

// CompareCertThumbprint reports whether hash matches the local
// certificate's thumbprint.
func (p *Policy) CompareCertThumbprint(hash [sha1.Size]byte) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.localThumb == hash
}
