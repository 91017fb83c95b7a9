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
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"hash"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/sabouaram/uacore/errs"
)

// newSymHash returns a fresh hash.Hash for the policy's symmetric HMAC
// (§6.3's "Sym sig" column).
func (p *Policy) newSymHash() func() hash.Hash {
	switch p.alg.symSig {
	case symSigHmacSha1:
		return sha1.New
	case symSigHmacSha256:
		return sha256.New
	case symSigHmacSha384:
		return sha512.New384
	}
	return sha256.New
}

// SymSign HMAC-signs msg with signingKey (§4.12 symmetric module: "verify,
// sign (HMAC)... over the per-channel session keys").
func (p *Policy) SymSign(signingKey, msg []byte) []byte {
	mac := hmac.New(p.newSymHash(), signingKey)
	mac.Write(msg)
	return mac.Sum(nil)
}

// SymVerify checks an HMAC produced by SymSign.
func (p *Policy) SymVerify(signingKey, msg, sig []byte) error {
	want := p.SymSign(signingKey, msg)
	if !hmac.Equal(want, sig) {
		return errs.New(errs.BadCertificateInvalid, "symmetric signature mismatch", nil)
	}
	return nil
}

func (p *Policy) blockCipher(key []byte) (cipher.Block, error) {
	return aes.NewCipher(key)
}

// SymEncrypt AES-CBC-encrypts data with key/iv. data must already be a
// multiple of the AES block size; callers pad before calling.
func (p *Policy) SymEncrypt(key, iv, data []byte) ([]byte, error) {
	block, err := p.blockCipher(key)
	if err != nil {
		return nil, errs.New(errs.BadInternalError, "build AES cipher failed", err)
	}
	if len(data)%block.BlockSize() != 0 {
		return nil, errs.New(errs.BadInvalidArgument, "data is not a multiple of the cipher block size", nil)
	}
	out := make([]byte, len(data))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, data)
	return out, nil
}

// SymDecrypt reverses SymEncrypt.
func (p *Policy) SymDecrypt(key, iv, data []byte) ([]byte, error) {
	block, err := p.blockCipher(key)
	if err != nil {
		return nil, errs.New(errs.BadInternalError, "build AES cipher failed", err)
	}
	if len(data)%block.BlockSize() != 0 {
		return nil, errs.New(errs.BadInvalidArgument, "data is not a multiple of the cipher block size", nil)
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)
	return out, nil
}

// GenerateNonce fills out with cryptographically random bytes sized at
// the policy's nonceLength (§4.12: "sized at nonceLength (16/32/64/96
// bytes depending on policy)").
func (p *Policy) GenerateNonce(out []byte) error {
	if len(out) != p.alg.nonceLength {
		return errs.New(errs.BadInvalidArgument, "nonce buffer does not match policy nonce length", nil)
	}
	_, err := io.ReadFull(rand.Reader, out)
	return err
}

// NonceLength reports the policy's required nonce size.
func (p *Policy) NonceLength() int { return p.alg.nonceLength }

// GenerateKey derives len(out) bytes of session key material for RSA
// policies by P-SHA1/P-SHA256 expansion (key1=secret, key2=seed). ECC
// policies get an error here; they derive keys with GenerateKeyECC
// (HKDF over an ECDH shared secret) (§4.12, §6.3).
func (p *Policy) GenerateKey(key1, key2, out []byte) error {
	p.mu.RLock()
	alg := p.alg
	p.mu.RUnlock()

	if alg.family == familyRSA {
		return pHash(p.newSymHash(), key1, key2, out)
	}
	return errs.New(errs.BadInternalError, "ECC policies derive keys via GenerateKeyECC", nil)
}

// GenerateKeyECC derives len(out) bytes of session key material for an
// ECC policy: an ECDH shared secret between localEphemeral and
// remotePub, expanded with HKDF salted by
// uint16(L) || label || client-nonce || server-nonce (§6.3). The nonce
// order in the salt is the fixed client-then-server wire order, not
// the caller's own local/remote view, so that both ends of the channel
// independently arrive at identical salts; label picks which
// direction's keys this call derives ("opcua-server" or
// "opcua-client"), resolved here from serverKeys rather than from the
// caller's own role, since both the client and the server call this
// twice — once per direction — to get the full key set. Each caller
// passes clientNonce/serverNonce labelled by their wire role (OPC UA's
// ECC profiles carry the ephemeral public key as the nonce, so a
// caller that only knows "my nonce" and "their nonce" can resolve the
// wire labels by comparing localEphemeral's public key against the
// two).
func (p *Policy) GenerateKeyECC(localEphemeral *ecdh.PrivateKey, remotePub *ecdh.PublicKey, clientNonce, serverNonce []byte, serverKeys bool, out []byte) error {
	p.mu.RLock()
	alg := p.alg
	p.mu.RUnlock()
	if alg.family != familyECC {
		return errs.New(errs.BadInternalError, "RSA policies derive keys via GenerateKey", nil)
	}

	secret, err := localEphemeral.ECDH(remotePub)
	if err != nil {
		return errs.New(errs.BadInternalError, "ECDH failed", err)
	}

	label := "opcua-client"
	if serverKeys {
		label = "opcua-server"
	}

	salt := make([]byte, 0, 2+len(label)+len(clientNonce)+len(serverNonce))
	lenBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(lenBuf, uint16(len(out)))
	salt = append(salt, lenBuf...)
	salt = append(salt, []byte(label)...)
	salt = append(salt, clientNonce...)
	salt = append(salt, serverNonce...)

	var h func() hash.Hash
	if alg.symSig == symSigHmacSha384 {
		h = sha512.New384
	} else {
		h = sha256.New
	}

	r := hkdf.New(h, secret, salt, nil)
	_, err = io.ReadFull(r, out)
	return err
}

// pHash implements the TLS-1.0-style P_hash pseudo-random function
// (P-SHA1/P-SHA256 depending on h): P_hash(secret, seed) =
// HMAC(secret, A(1) || seed) || HMAC(secret, A(2) || seed) || ...,
// A(0) = seed, A(i) = HMAC(secret, A(i-1)). Output is truncated to
// len(out).
func pHash(h func() hash.Hash, secret, seed, out []byte) error {
	a := seed
	pos := 0
	for pos < len(out) {
		mac := hmac.New(h, secret)
		mac.Write(a)
		a = mac.Sum(nil)

		mac = hmac.New(h, secret)
		mac.Write(a)
		mac.Write(seed)
		chunk := mac.Sum(nil)

		n := copy(out[pos:], chunk)
		pos += n
	}
	return nil
}
