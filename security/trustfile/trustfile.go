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

// Package trustfile is the file-backed certificate group (C14): it
// wraps a trust.Group with the canonical on-disk layout of §4.14,
// reloading from disk on every public call when an fsnotify event is
// pending and serializing directory rewrites behind a flock-held lock
// file.
package trustfile

import (
	"crypto"
	"crypto/x509"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"

	"github.com/sabouaram/uacore/errs"
	"github.com/sabouaram/uacore/runlog"
	"github.com/sabouaram/uacore/security/trust"
)

// GroupKind names one of the four well-known group subdirectories
// (§4.14); a non-default kind is a printed NodeId string instead.
type GroupKind string

const (
	ApplCerts      GroupKind = "ApplCerts"
	HttpCerts      GroupKind = "HttpCerts"
	UserTokenCerts GroupKind = "UserTokenCerts"
)

const (
	dirTrustedCerts = "trusted/certs"
	dirTrustedCRL   = "trusted/crl"
	dirIssuerCerts  = "issuer/certs"
	dirIssuerCRL    = "issuer/crl"
	dirRejected     = "rejected/certs"
	dirOwnCerts     = "own/certs"
	dirOwnPrivate   = "own/private"
)

// Store is a trust.Group backed by the directory layout rooted at
// root/kind.
type Store struct {
	group *trust.Group
	root  string
	log   runlog.Logger

	watcher  *fsnotify.Watcher
	dirty    atomic.Bool
	lockPath string
}

// Open builds (or attaches to) the on-disk layout under root/kind,
// loading whatever is already present, and starts an fsnotify watch on
// the four mutable directories.
func Open(root string, kind GroupKind, rejectedCap int, log runlog.Logger) (*Store, error) {
	groupRoot := filepath.Join(root, string(kind))
	for _, d := range []string{dirTrustedCerts, dirTrustedCRL, dirIssuerCerts, dirIssuerCRL, dirRejected, dirOwnCerts, dirOwnPrivate} {
		if err := os.MkdirAll(filepath.Join(groupRoot, d), 0o750); err != nil {
			return nil, errs.New(errs.BadInternalError, "create trust store directory failed", err)
		}
	}

	s := &Store{
		group:    trust.New(rejectedCap),
		root:     groupRoot,
		log:      log,
		lockPath: filepath.Join(groupRoot, ".lock"),
	}

	if err := s.reloadFromDisk(); err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errs.New(errs.BadInternalError, "create fsnotify watcher failed", err)
	}
	for _, d := range []string{dirTrustedCerts, dirTrustedCRL, dirIssuerCerts, dirIssuerCRL} {
		if err := w.Add(filepath.Join(groupRoot, d)); err != nil {
			_ = w.Close()
			return nil, errs.New(errs.BadInternalError, "watch trust store directory failed", err)
		}
	}
	s.watcher = w
	go s.watchLoop()

	return s, nil
}

func (s *Store) watchLoop() {
	for {
		select {
		case _, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.dirty.Store(true)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			if s.log != nil {
				s.log.Warn("trust store watch error", runlog.Fields{"error": err})
			}
		}
	}
}

// checkReload is called on every public entry point: it checks the
// dirty flag set by the fsnotify goroutine non-blockingly, and
// re-reads all four directories from disk when set (§4.14).
func (s *Store) checkReload() error {
	if !s.dirty.CompareAndSwap(true, false) {
		return nil
	}
	return s.reloadFromDisk()
}

func (s *Store) reloadFromDisk() error {
	fl := flock.New(s.lockPath)
	if err := fl.RLock(); err != nil {
		return errs.New(errs.BadInternalError, "lock trust store for read failed", err)
	}
	defer func() { _ = fl.Unlock() }()

	b, err := readAllDirs(s.root)
	if err != nil {
		return err
	}
	return s.group.SetTrustList(trust.MaskAll, b)
}

// Close stops the directory watch. The underlying trust.Group remains
// usable in memory but will no longer see disk changes.
func (s *Store) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}

// Group returns the wrapped in-memory group for read-only inspection;
// mutations should go through Store so the disk stays in sync.
func (s *Store) Group() *trust.Group { return s.group }

// GetTrustList reloads from disk if needed, then returns the selected
// lists.
func (s *Store) GetTrustList(mask trust.Mask) (trust.Bytes4, error) {
	if err := s.checkReload(); err != nil {
		return trust.Bytes4{}, err
	}
	return s.group.GetTrustList(mask), nil
}

// SetTrustList replaces the selected lists in memory and rewrites the
// corresponding directories on disk.
func (s *Store) SetTrustList(mask trust.Mask, b trust.Bytes4) error {
	if err := s.checkReload(); err != nil {
		return err
	}
	if err := s.group.SetTrustList(mask, b); err != nil {
		return err
	}
	return s.writeToDisk(mask)
}

// AddToTrustList merges b into memory and rewrites the affected
// directories on disk.
func (s *Store) AddToTrustList(mask trust.Mask, b trust.Bytes4) error {
	if err := s.checkReload(); err != nil {
		return err
	}
	if err := s.group.AddToTrustList(mask, b); err != nil {
		return err
	}
	return s.writeToDisk(mask)
}

// RemoveFromTrustList removes by thumbprint in memory and rewrites the
// affected directories on disk.
func (s *Store) RemoveFromTrustList(mask trust.Mask, thumbprints [][20]byte) error {
	if err := s.checkReload(); err != nil {
		return err
	}
	s.group.RemoveFromTrustList(mask, thumbprints)
	return s.writeToDisk(mask | trust.MaskTrustedCRL | trust.MaskIssuerCRL)
}

// VerifyCertificate reloads from disk if needed, then verifies cert
// against the in-memory group. A rejection rewrites the rejected/certs
// directory with the updated ring so a field operator can inspect what
// was turned away without attaching a debugger.
func (s *Store) VerifyCertificate(cert *x509.Certificate) error {
	if err := s.checkReload(); err != nil {
		return err
	}
	verifyErr := s.group.VerifyCertificate(cert)
	if verifyErr != nil && isRejectionCode(verifyErr) {
		if err := s.writeRejectedToDisk(); err != nil {
			return err
		}
	}
	return verifyErr
}

func isRejectionCode(err error) bool {
	return errs.HasCode(err, errs.BadCertificateUntrusted) ||
		errs.HasCode(err, errs.BadCertificateUseNotAllowed) ||
		errs.HasCode(err, errs.BadCertificateRevocationUnknown)
}

// GetRejectedList reloads from disk if needed, then returns the
// rejected ring.
func (s *Store) GetRejectedList() ([][]byte, error) {
	if err := s.checkReload(); err != nil {
		return nil, err
	}
	return s.group.GetRejectedList(), nil
}

func (s *Store) writeRejectedToDisk() error {
	fl := flock.New(s.lockPath)
	if err := fl.Lock(); err != nil {
		return errs.New(errs.BadInternalError, "lock trust store for write failed", err)
	}
	defer func() { _ = fl.Unlock() }()

	return rewriteCertDir(filepath.Join(s.root, dirRejected), s.group.GetRejectedList())
}

// PersistOwnCertificate writes cert and key under own/certs and
// own/private, the pair a policy.Policy adopts as its local identity
// after CreateSigningRequest/UpdateCertificate. A cert already present
// under own/certs (matched byte-for-byte, not by thumbprint) is left
// alone rather than duplicated.
func (s *Store) PersistOwnCertificate(cert *x509.Certificate, key crypto.Signer) error {
	if cert == nil || key == nil {
		return errs.New(errs.BadInvalidArgument, "certificate and key are both required", nil)
	}

	fl := flock.New(s.lockPath)
	if err := fl.Lock(); err != nil {
		return errs.New(errs.BadInternalError, "lock trust store for write failed", err)
	}
	defer func() { _ = fl.Unlock() }()

	certDir := filepath.Join(s.root, dirOwnCerts)
	already, err := dirContainsBytes(certDir, cert.Raw)
	if err != nil {
		return err
	}
	if already {
		return nil
	}

	keyDER, err := marshalPrivateKey(key)
	if err != nil {
		return err
	}

	tp := trust.Thumbprint(cert)
	name := sanitizeCN(cert.Subject.CommonName) + "[" + hex.EncodeToString(tp[:]) + "]"

	if err := os.WriteFile(filepath.Join(certDir, name+".der"), cert.Raw, 0o640); err != nil {
		return errs.New(errs.BadInternalError, "write own certificate file failed", err)
	}
	if err := os.WriteFile(filepath.Join(s.root, dirOwnPrivate, name+".key"), keyDER, 0o600); err != nil {
		return errs.New(errs.BadInternalError, "write own private key file failed", err)
	}
	return nil
}

func (s *Store) writeToDisk(mask trust.Mask) error {
	fl := flock.New(s.lockPath)
	if err := fl.Lock(); err != nil {
		return errs.New(errs.BadInternalError, "lock trust store for write failed", err)
	}
	defer func() { _ = fl.Unlock() }()

	all := s.group.GetTrustList(trust.MaskAll)
	if mask&trust.MaskTrustedCerts != 0 {
		if err := rewriteCertDir(filepath.Join(s.root, dirTrustedCerts), all.TrustedCerts); err != nil {
			return err
		}
	}
	if mask&trust.MaskTrustedCRL != 0 {
		if err := rewriteCRLDir(filepath.Join(s.root, dirTrustedCRL), all.TrustedCRL); err != nil {
			return err
		}
	}
	if mask&trust.MaskIssuerCerts != 0 {
		if err := rewriteCertDir(filepath.Join(s.root, dirIssuerCerts), all.IssuerCerts); err != nil {
			return err
		}
	}
	if mask&trust.MaskIssuerCRL != 0 {
		if err := rewriteCRLDir(filepath.Join(s.root, dirIssuerCRL), all.IssuerCRL); err != nil {
			return err
		}
	}
	return nil
}
