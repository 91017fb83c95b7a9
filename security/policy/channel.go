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
	"crypto/x509"
	"sync"

	"github.com/sabouaram/uacore/errs"
)

// ChannelContext holds the per-channel symmetric key material derived
// for one secure channel: the remote certificate it was built from, and
// the signing/encrypting keys and IVs for each direction, independent
// of and outliving any single Policy token (§4.12: "a ChannelContext
// is created from a remote certificate... freed independently of the
// policy").
type ChannelContext struct {
	mu sync.RWMutex

	policy     *Policy
	remoteCert *x509.Certificate

	localSigningKey  []byte
	localEncryptKey  []byte
	localIV          []byte
	remoteSigningKey []byte
	remoteEncryptKey []byte
	remoteIV         []byte
}

// NewChannelContext builds a ChannelContext bound to p and a remote
// peer certificate. Key material is empty until the setters below are
// called following a token's key generation (§4.12).
func (p *Policy) NewChannelContext(remoteCert *x509.Certificate) (*ChannelContext, error) {
	if remoteCert == nil {
		return nil, errs.New(errs.BadInvalidArgument, "remote certificate is required", nil)
	}
	return &ChannelContext{policy: p, remoteCert: remoteCert}, nil
}

// RemoteCertificate returns the certificate this context was built
// from.
func (c *ChannelContext) RemoteCertificate() *x509.Certificate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.remoteCert
}

// SetLocalKeys installs the outgoing (local-to-remote) signing key,
// encrypting key and IV, replacing whatever a prior token's key
// generation installed. Called on every SecureChannel token renewal.
func (c *ChannelContext) SetLocalKeys(signingKey, encryptKey, iv []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.localSigningKey = append([]byte(nil), signingKey...)
	c.localEncryptKey = append([]byte(nil), encryptKey...)
	c.localIV = append([]byte(nil), iv...)
}

// SetRemoteKeys installs the incoming (remote-to-local) signing key,
// encrypting key and IV.
func (c *ChannelContext) SetRemoteKeys(signingKey, encryptKey, iv []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remoteSigningKey = append([]byte(nil), signingKey...)
	c.remoteEncryptKey = append([]byte(nil), encryptKey...)
	c.remoteIV = append([]byte(nil), iv...)
}

// SignOutgoing HMAC-signs msg with the current local signing key.
func (c *ChannelContext) SignOutgoing(msg []byte) ([]byte, error) {
	c.mu.RLock()
	key := c.localSigningKey
	p := c.policy
	c.mu.RUnlock()
	if len(key) == 0 {
		return nil, errs.New(errs.BadInternalError, "no local signing key installed", nil)
	}
	return p.SymSign(key, msg), nil
}

// VerifyIncoming checks sig over msg against the current remote
// signing key.
func (c *ChannelContext) VerifyIncoming(msg, sig []byte) error {
	c.mu.RLock()
	key := c.remoteSigningKey
	p := c.policy
	c.mu.RUnlock()
	if len(key) == 0 {
		return errs.New(errs.BadInternalError, "no remote signing key installed", nil)
	}
	return p.SymVerify(key, msg, sig)
}

// EncryptOutgoing encrypts data with the current local encrypting key
// and IV.
func (c *ChannelContext) EncryptOutgoing(data []byte) ([]byte, error) {
	c.mu.RLock()
	key, iv := c.localEncryptKey, c.localIV
	p := c.policy
	c.mu.RUnlock()
	if len(key) == 0 {
		return nil, errs.New(errs.BadInternalError, "no local encrypting key installed", nil)
	}
	return p.SymEncrypt(key, iv, data)
}

// DecryptIncoming reverses EncryptOutgoing using the current remote
// encrypting key and IV.
func (c *ChannelContext) DecryptIncoming(data []byte) ([]byte, error) {
	c.mu.RLock()
	key, iv := c.remoteEncryptKey, c.remoteIV
	p := c.policy
	c.mu.RUnlock()
	if len(key) == 0 {
		return nil, errs.New(errs.BadInternalError, "no remote encrypting key installed", nil)
	}
	return p.SymDecrypt(key, iv, data)
}

// Free clears this context's key material. The owning Policy is
// unaffected.
func (c *ChannelContext) Free() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.localSigningKey = nil
	c.localEncryptKey = nil
	c.localIV = nil
	c.remoteSigningKey = nil
	c.remoteEncryptKey = nil
	c.remoteIV = nil
}
