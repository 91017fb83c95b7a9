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

// Package trust is the certificate group (C13): four certificate/CRL
// lists (trusted certs, trusted CRLs, issuer certs, issuer CRLs) plus a
// bounded rejected ring, with chain-building verification enforcing
// CRL coverage (§4.13).
package trust

import (
	"crypto/x509"
	"sort"
	"sync"

	"github.com/sabouaram/uacore/errs"
)

// Mask selects one or more of the group's four lists.
type Mask uint8

const (
	MaskTrustedCerts Mask = 1 << iota
	MaskTrustedCRL
	MaskIssuerCerts
	MaskIssuerCRL

	MaskAll = MaskTrustedCerts | MaskTrustedCRL | MaskIssuerCerts | MaskIssuerCRL
)

// Bytes4 carries DER-encoded certificates/CRLs for each of the four
// lists, selected by whichever Mask bits a call used.
type Bytes4 struct {
	TrustedCerts [][]byte
	TrustedCRL   [][]byte
	IssuerCerts  [][]byte
	IssuerCRL    [][]byte
}

const defaultRejectedCap = 128

// Group is one certificate group: an application, HTTP, or user-token
// trust store (§4.14's <group-subdir> names one of these).
type Group struct {
	mu sync.RWMutex

	trustedCerts []*x509.Certificate
	trustedCRL   []*x509.RevocationList
	issuerCerts  []*x509.Certificate
	issuerCRL    []*x509.RevocationList

	rejected    []*x509.Certificate
	rejectedCap int
}

// New builds an empty Group. rejectedCap bounds the rejected ring;
// 0 selects a default of 128 entries.
func New(rejectedCap int) *Group {
	if rejectedCap <= 0 {
		rejectedCap = defaultRejectedCap
	}
	return &Group{rejectedCap: rejectedCap}
}

func thumbprintOf(cert *x509.Certificate) [20]byte {
	return sha1Sum(cert.Raw)
}

// GetTrustList returns the DER form of every list selected by mask.
func (g *Group) GetTrustList(mask Mask) Bytes4 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out Bytes4
	if mask&MaskTrustedCerts != 0 {
		out.TrustedCerts = derOf(g.trustedCerts)
	}
	if mask&MaskTrustedCRL != 0 {
		out.TrustedCRL = crlDerOf(g.trustedCRL)
	}
	if mask&MaskIssuerCerts != 0 {
		out.IssuerCerts = derOf(g.issuerCerts)
	}
	if mask&MaskIssuerCRL != 0 {
		out.IssuerCRL = crlDerOf(g.issuerCRL)
	}
	return out
}

// SetTrustList atomically replaces the lists selected by mask with the
// parsed contents of b.
func (g *Group) SetTrustList(mask Mask, b Bytes4) error {
	var (
		trustedCerts []*x509.Certificate
		trustedCRL   []*x509.RevocationList
		issuerCerts  []*x509.Certificate
		issuerCRL    []*x509.RevocationList
		err          error
	)

	if mask&MaskTrustedCerts != 0 {
		if trustedCerts, err = parseCerts(b.TrustedCerts); err != nil {
			return err
		}
	}
	if mask&MaskTrustedCRL != 0 {
		if trustedCRL, err = parseCRLs(b.TrustedCRL); err != nil {
			return err
		}
	}
	if mask&MaskIssuerCerts != 0 {
		if issuerCerts, err = parseCerts(b.IssuerCerts); err != nil {
			return err
		}
	}
	if mask&MaskIssuerCRL != 0 {
		if issuerCRL, err = parseCRLs(b.IssuerCRL); err != nil {
			return err
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if mask&MaskTrustedCerts != 0 {
		g.trustedCerts = trustedCerts
	}
	if mask&MaskTrustedCRL != 0 {
		g.trustedCRL = trustedCRL
	}
	if mask&MaskIssuerCerts != 0 {
		g.issuerCerts = issuerCerts
	}
	if mask&MaskIssuerCRL != 0 {
		g.issuerCRL = issuerCRL
	}
	return nil
}

// AddToTrustList merges b's entries into the lists selected by mask,
// deduplicating by thumbprint.
func (g *Group) AddToTrustList(mask Mask, b Bytes4) error {
	newCerts, err := parseCerts(b.TrustedCerts)
	if err != nil {
		return err
	}
	newIssuerCerts, err := parseCerts(b.IssuerCerts)
	if err != nil {
		return err
	}
	newTrustedCRL, err := parseCRLs(b.TrustedCRL)
	if err != nil {
		return err
	}
	newIssuerCRL, err := parseCRLs(b.IssuerCRL)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if mask&MaskTrustedCerts != 0 {
		g.trustedCerts = mergeCerts(g.trustedCerts, newCerts)
	}
	if mask&MaskIssuerCerts != 0 {
		g.issuerCerts = mergeCerts(g.issuerCerts, newIssuerCerts)
	}
	if mask&MaskTrustedCRL != 0 {
		g.trustedCRL = mergeCRLs(g.trustedCRL, newTrustedCRL)
	}
	if mask&MaskIssuerCRL != 0 {
		g.issuerCRL = mergeCRLs(g.issuerCRL, newIssuerCRL)
	}
	return nil
}

// RemoveFromTrustList removes, by thumbprint, any certificate in the
// lists selected by mask whose thumbprint appears in thumbprints; a
// removed certificate's own CRL (matched by issuer) is removed with it.
func (g *Group) RemoveFromTrustList(mask Mask, thumbprints [][20]byte) {
	remove := make(map[[20]byte]struct{}, len(thumbprints))
	for _, tp := range thumbprints {
		remove[tp] = struct{}{}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if mask&MaskTrustedCerts != 0 {
		removed := make([]*x509.Certificate, 0, len(g.trustedCerts))
		g.trustedCerts, removed = filterCerts(g.trustedCerts, remove)
		g.trustedCRL = dropCRLsFor(g.trustedCRL, removed)
	}
	if mask&MaskIssuerCerts != 0 {
		removed := make([]*x509.Certificate, 0, len(g.issuerCerts))
		g.issuerCerts, removed = filterCerts(g.issuerCerts, remove)
		g.issuerCRL = dropCRLsFor(g.issuerCRL, removed)
	}
}

// GetRejectedList returns the rejected ring's certificates, oldest
// first, DER-encoded.
func (g *Group) GetRejectedList() [][]byte {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return derOf(g.rejected)
}

// reject appends cert to the rejected ring, evicting the oldest entry
// once rejectedCap is reached (§7 propagation rule 5).
func (g *Group) reject(cert *x509.Certificate) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rejected = append(g.rejected, cert)
	if len(g.rejected) > g.rejectedCap {
		g.rejected = g.rejected[len(g.rejected)-g.rejectedCap:]
	}
}

// GetCertificateCrls returns the CRL(s) whose issuer matches cert's
// direct issuer, drawn from the trusted CRL list when isTrusted, else
// the issuer CRL list.
func (g *Group) GetCertificateCrls(cert *x509.Certificate, isTrusted bool) [][]byte {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var crls []*x509.RevocationList
	if isTrusted {
		crls = g.trustedCRL
	} else {
		crls = g.issuerCRL
	}

	var out []*x509.RevocationList
	for _, crl := range crls {
		if crl.Issuer.String() == cert.Issuer.String() {
			out = append(out, crl)
		}
	}
	return crlDerOf(out)
}

func derOf(certs []*x509.Certificate) [][]byte {
	if len(certs) == 0 {
		return nil
	}
	out := make([][]byte, len(certs))
	for i, c := range certs {
		out[i] = c.Raw
	}
	return out
}

func crlDerOf(crls []*x509.RevocationList) [][]byte {
	if len(crls) == 0 {
		return nil
	}
	out := make([][]byte, len(crls))
	for i, c := range crls {
		out[i] = c.Raw
	}
	return out
}

func parseCerts(blobs [][]byte) ([]*x509.Certificate, error) {
	out := make([]*x509.Certificate, 0, len(blobs))
	for _, b := range blobs {
		cert, err := ParseCertificate(b)
		if err != nil {
			return nil, errs.New(errs.BadCertificateInvalid, "parse certificate failed", err)
		}
		out = append(out, cert)
	}
	return out, nil
}

func parseCRLs(blobs [][]byte) ([]*x509.RevocationList, error) {
	out := make([]*x509.RevocationList, 0, len(blobs))
	for _, b := range blobs {
		crl, err := ParseCRL(b)
		if err != nil {
			return nil, errs.New(errs.BadCertificateInvalid, "parse crl failed", err)
		}
		out = append(out, crl)
	}
	return out, nil
}

func mergeCerts(existing, fresh []*x509.Certificate) []*x509.Certificate {
	seen := make(map[[20]byte]struct{}, len(existing))
	out := make([]*x509.Certificate, 0, len(existing)+len(fresh))
	for _, c := range existing {
		seen[thumbprintOf(c)] = struct{}{}
		out = append(out, c)
	}
	for _, c := range fresh {
		tp := thumbprintOf(c)
		if _, ok := seen[tp]; ok {
			continue
		}
		seen[tp] = struct{}{}
		out = append(out, c)
	}
	return out
}

func mergeCRLs(existing, fresh []*x509.RevocationList) []*x509.RevocationList {
	seen := make(map[string]struct{}, len(existing))
	out := make([]*x509.RevocationList, 0, len(existing)+len(fresh))
	for _, c := range existing {
		seen[string(c.Raw)] = struct{}{}
		out = append(out, c)
	}
	for _, c := range fresh {
		if _, ok := seen[string(c.Raw)]; ok {
			continue
		}
		seen[string(c.Raw)] = struct{}{}
		out = append(out, c)
	}
	return out
}

func filterCerts(certs []*x509.Certificate, remove map[[20]byte]struct{}) (kept, removed []*x509.Certificate) {
	kept = make([]*x509.Certificate, 0, len(certs))
	for _, c := range certs {
		if _, drop := remove[thumbprintOf(c)]; drop {
			removed = append(removed, c)
			continue
		}
		kept = append(kept, c)
	}
	return kept, removed
}

func dropCRLsFor(crls []*x509.RevocationList, removedCerts []*x509.Certificate) []*x509.RevocationList {
	if len(removedCerts) == 0 {
		return crls
	}
	removedIssuers := make(map[string]struct{}, len(removedCerts))
	for _, c := range removedCerts {
		removedIssuers[c.Subject.String()] = struct{}{}
	}
	out := crls[:0:0]
	for _, crl := range crls {
		if _, drop := removedIssuers[crl.Issuer.String()]; drop {
			continue
		}
		out = append(out, crl)
	}
	return out
}

// ThumbprintsOf is a small helper for callers building a
// RemoveFromTrustList argument from a set of certificates.
func ThumbprintsOf(certs []*x509.Certificate) [][20]byte {
	out := make([][20]byte, len(certs))
	for i, c := range certs {
		out[i] = thumbprintOf(c)
	}
	sort.Slice(out, func(i, j int) bool { return string(out[i][:]) < string(out[j][:]) })
	return out
}
