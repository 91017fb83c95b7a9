package trustfile_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sabouaram/uacore/security/trust"
	"github.com/sabouaram/uacore/security/trustfile"
)

func makeRootCA(t *testing.T, cn string) (*x509.Certificate, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse root: %v", err)
	}
	return cert, key
}

func emptyCRL(t *testing.T, ca *x509.Certificate, key *ecdsa.PrivateKey) *x509.RevocationList {
	t.Helper()
	tmpl := &x509.RevocationList{
		Number:     big.NewInt(1),
		ThisUpdate: time.Now().Add(-time.Hour),
		NextUpdate: time.Now().Add(24 * time.Hour),
	}
	der, err := x509.CreateRevocationList(rand.Reader, tmpl, ca, key)
	if err != nil {
		t.Fatalf("create crl: %v", err)
	}
	crl, err := x509.ParseRevocationList(der)
	if err != nil {
		t.Fatalf("parse crl: %v", err)
	}
	return crl
}

func TestSetTrustListPersistsAndReloads(t *testing.T) {
	dir := t.TempDir()
	store, err := trustfile.Open(dir, trustfile.ApplCerts, 0, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()

	root, key := makeRootCA(t, "root")
	rootCRL := emptyCRL(t, root, key)

	err = store.SetTrustList(trust.MaskTrustedCerts|trust.MaskTrustedCRL, trust.Bytes4{
		TrustedCerts: [][]byte{root.Raw},
		TrustedCRL:   [][]byte{rootCRL.Raw},
	})
	if err != nil {
		t.Fatalf("set trust list: %v", err)
	}

	list, err := store.GetTrustList(trust.MaskAll)
	if err != nil {
		t.Fatalf("get trust list: %v", err)
	}
	if len(list.TrustedCerts) != 1 || len(list.TrustedCRL) != 1 {
		t.Fatalf("expected 1 trusted cert and crl, got %d/%d", len(list.TrustedCerts), len(list.TrustedCRL))
	}

	// Drop memory, construct a fresh store over the same directory: the
	// round trip must reproduce an equivalent set (§8's file-backed
	// round-trip law).
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	reopened, err := trustfile.Open(dir, trustfile.ApplCerts, 0, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	list2, err := reopened.GetTrustList(trust.MaskAll)
	if err != nil {
		t.Fatalf("get trust list after reopen: %v", err)
	}
	if len(list2.TrustedCerts) != 1 || len(list2.TrustedCRL) != 1 {
		t.Fatalf("expected reloaded store to reproduce 1 cert and crl, got %d/%d", len(list2.TrustedCerts), len(list2.TrustedCRL))
	}
}

func TestVerifyCertificateThroughStore(t *testing.T) {
	dir := t.TempDir()
	store, err := trustfile.Open(dir, trustfile.ApplCerts, 0, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()

	root, key := makeRootCA(t, "root")
	rootCRL := emptyCRL(t, root, key)
	if err := store.SetTrustList(trust.MaskTrustedCerts|trust.MaskTrustedCRL, trust.Bytes4{
		TrustedCerts: [][]byte{root.Raw},
		TrustedCRL:   [][]byte{rootCRL.Raw},
	}); err != nil {
		t.Fatalf("set trust list: %v", err)
	}

	leafKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate leaf key: %v", err)
	}
	leafTmpl := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "leaf"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTmpl, root, &leafKey.PublicKey, key)
	if err != nil {
		t.Fatalf("issue leaf: %v", err)
	}
	leaf, err := x509.ParseCertificate(leafDER)
	if err != nil {
		t.Fatalf("parse leaf: %v", err)
	}

	if err := store.VerifyCertificate(leaf); err != nil {
		t.Fatalf("expected leaf to verify against the store, got %v", err)
	}
}

func TestVerifyCertificateWritesRejectedToDisk(t *testing.T) {
	dir := t.TempDir()
	store, err := trustfile.Open(dir, trustfile.ApplCerts, 16, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()

	untrusted, _ := makeRootCA(t, "untrusted")

	if err := store.VerifyCertificate(untrusted); err == nil {
		t.Fatal("expected verification of an untrusted certificate to fail")
	}

	entries, err := os.ReadDir(filepath.Join(dir, string(trustfile.ApplCerts), "rejected", "certs"))
	if err != nil {
		t.Fatalf("read rejected dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 rejected certificate on disk, got %d", len(entries))
	}
}

func TestPersistOwnCertificateWritesCertAndKey(t *testing.T) {
	dir := t.TempDir()
	store, err := trustfile.Open(dir, trustfile.ApplCerts, 0, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()

	cert, key := makeRootCA(t, "own")

	if err := store.PersistOwnCertificate(cert, key); err != nil {
		t.Fatalf("persist own certificate: %v", err)
	}

	certEntries, err := os.ReadDir(filepath.Join(dir, string(trustfile.ApplCerts), "own", "certs"))
	if err != nil {
		t.Fatalf("read own certs dir: %v", err)
	}
	if len(certEntries) != 1 {
		t.Fatalf("expected 1 own certificate file, got %d", len(certEntries))
	}

	keyEntries, err := os.ReadDir(filepath.Join(dir, string(trustfile.ApplCerts), "own", "private"))
	if err != nil {
		t.Fatalf("read own private dir: %v", err)
	}
	if len(keyEntries) != 1 {
		t.Fatalf("expected 1 own private key file, got %d", len(keyEntries))
	}

	// Persisting the identical certificate again must not duplicate it
	// (exact-byte dedup, matching the original filestore's behavior).
	if err := store.PersistOwnCertificate(cert, key); err != nil {
		t.Fatalf("persist own certificate again: %v", err)
	}
	certEntries, err = os.ReadDir(filepath.Join(dir, string(trustfile.ApplCerts), "own", "certs"))
	if err != nil {
		t.Fatalf("read own certs dir after re-persist: %v", err)
	}
	if len(certEntries) != 1 {
		t.Fatalf("expected re-persisting the same certificate to stay deduplicated, got %d files", len(certEntries))
	}
}
