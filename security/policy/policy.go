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

// Package policy is the security-policy runtime (C12): a polymorphic
// crypto contract per channel, identified by policy URI, exposing an
// asymmetric module (sign/verify/encrypt/decrypt over the local/remote
// certificate keypairs), a symmetric module (per-channel session keys),
// a channel context, and the CSR/certificate-update lifecycle.
//
// Rather than one Go type per URI, a single Policy carries a table-driven
// algorithmSet selected at construction time by URI; this keeps the six
// supported policies (§6.3) as data rather than six near-identical
// type hierarchies, while still satisfying "a policy is identified by
// its policyUri and exposes three modules."
package policy

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"sync"

	"github.com/sabouaram/uacore/errs"
)

// URI identifies one of the six supported security policies (§6.3).
type URI string

const (
	Basic128Rsa15      URI = "http://opcfoundation.org/UA/SecurityPolicy#Basic128Rsa15"
	Basic256           URI = "http://opcfoundation.org/UA/SecurityPolicy#Basic256"
	Basic256Sha256     URI = "http://opcfoundation.org/UA/SecurityPolicy#Basic256Sha256"
	Aes256Sha256RsaPss URI = "http://opcfoundation.org/UA/SecurityPolicy#Aes256_Sha256_RsaPss"
	ECCNistP256        URI = "http://opcfoundation.org/UA/SecurityPolicy#ECC_nistP256"
	ECCNistP384        URI = "http://opcfoundation.org/UA/SecurityPolicy#ECC_nistP384"
)

type asymSigAlg int

const (
	asymSigRsaPkcs1Sha1 asymSigAlg = iota
	asymSigRsaPkcs1Sha256
	asymSigRsaPssSha256
	asymSigEcdsaSha256
	asymSigEcdsaSha384
)

type asymEncAlg int

const (
	asymEncRsaPkcs1 asymEncAlg = iota
	asymEncRsaOaepSha1
	asymEncRsaOaepSha256
	asymEncIdentity
)

type symCipherAlg int

const (
	symCipherAes128Cbc symCipherAlg = iota
	symCipherAes256Cbc
)

type symSigAlg int

const (
	symSigHmacSha1 symSigAlg = iota
	symSigHmacSha256
	symSigHmacSha384
)

// algorithmSet is the per-URI table §6.3 enumerates.
type algorithmSet struct {
	uri         URI
	family      family
	asymSig     asymSigAlg
	asymEnc     asymEncAlg
	symCipher   symCipherAlg
	symSig      symSigAlg
	nonceLength int
	curve       elliptic.Curve // only meaningful for the ECC family
}

type family int

const (
	familyRSA family = iota
	familyECC
)

var algorithmSets = map[URI]algorithmSet{
	Basic128Rsa15: {
		uri: Basic128Rsa15, family: familyRSA,
		asymSig: asymSigRsaPkcs1Sha1, asymEnc: asymEncRsaPkcs1,
		symCipher: symCipherAes128Cbc, symSig: symSigHmacSha1, nonceLength: 16,
	},
	Basic256: {
		uri: Basic256, family: familyRSA,
		asymSig: asymSigRsaPkcs1Sha1, asymEnc: asymEncRsaOaepSha1,
		symCipher: symCipherAes256Cbc, symSig: symSigHmacSha1, nonceLength: 32,
	},
	Basic256Sha256: {
		uri: Basic256Sha256, family: familyRSA,
		asymSig: asymSigRsaPkcs1Sha256, asymEnc: asymEncRsaOaepSha1,
		symCipher: symCipherAes256Cbc, symSig: symSigHmacSha256, nonceLength: 32,
	},
	Aes256Sha256RsaPss: {
		uri: Aes256Sha256RsaPss, family: familyRSA,
		asymSig: asymSigRsaPssSha256, asymEnc: asymEncRsaOaepSha256,
		symCipher: symCipherAes256Cbc, symSig: symSigHmacSha256, nonceLength: 32,
	},
	ECCNistP256: {
		uri: ECCNistP256, family: familyECC,
		asymSig: asymSigEcdsaSha256, asymEnc: asymEncIdentity,
		symCipher: symCipherAes128Cbc, symSig: symSigHmacSha256, nonceLength: 64,
		curve: elliptic.P256(),
	},
	ECCNistP384: {
		uri: ECCNistP384, family: familyECC,
		asymSig: asymSigEcdsaSha384, asymEnc: asymEncIdentity,
		symCipher: symCipherAes256Cbc, symSig: symSigHmacSha384, nonceLength: 96,
		curve: elliptic.P384(),
	},
}

// Policy is one security-policy runtime instance bound to a local
// certificate/private-key pair; ChannelContext values are created from
// it per remote peer.
type Policy struct {
	mu sync.RWMutex

	alg algorithmSet

	localCert *x509.Certificate
	localKey  crypto.Signer

	localThumb [sha1.Size]byte

	pendingCSRKey crypto.Signer

	ownStore OwnCertificateStore
}

// OwnCertificateStore persists a policy's local certificate/private-key
// pair to whatever durable store backs it (security/trustfile's
// own/certs and own/private directories, in the runtime substrate's
// case). A Policy with no store attached keeps the pair in memory only.
type OwnCertificateStore interface {
	PersistOwnCertificate(cert *x509.Certificate, key crypto.Signer) error
}

// SetOwnCertificateStore attaches store so every future UpdateCertificate
// call also persists the new certificate/key pair through it. Passing
// nil detaches any previously attached store.
func (p *Policy) SetOwnCertificateStore(store OwnCertificateStore) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ownStore = store
}

// New builds a Policy for uri bound to an initial local certificate and
// private key. Returns BadInvalidArgument if uri is not one of the six
// registered policies.
func New(uri URI, cert *x509.Certificate, key crypto.Signer) (*Policy, error) {
	alg, ok := algorithmSets[uri]
	if !ok {
		return nil, errs.New(errs.BadInvalidArgument, "unknown security policy uri", nil)
	}
	p := &Policy{alg: alg, localCert: cert, localKey: key}
	if cert != nil {
		p.localThumb = thumbprint(cert)
	}
	return p, nil
}

// URI returns the policy's identifying URI.
func (p *Policy) URI() URI { return p.alg.uri }

// KeyLength reports the local asymmetric key's modulus/curve bit
// length, or 1 for policies with identity encryption per §4.12 ("Policies
// without asymmetric encryption... expose identity encryption and a key
// length of 1") when no encryption key is otherwise meaningful.
func (p *Policy) KeyLength() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.alg.asymEnc == asymEncIdentity {
		return 1
	}
	if rk, ok := p.localKey.(*rsa.PrivateKey); ok {
		return rk.N.BitLen()
	}
	if _, ok := p.localKey.(*ecdsa.PrivateKey); ok {
		return p.alg.curve.Params().BitSize
	}
	return 0
}

// thumbprint computes the SHA-1 digest over a certificate's DER form
// (§6.4: "Thumbprint is SHA-1 over the DER form").
func thumbprint(cert *x509.Certificate) [sha1.Size]byte {
	return sha1.Sum(cert.Raw)
}
