package policy_test

import (
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/sabouaram/uacore/security/policy"
)

func selfSignedRSA(t *testing.T) (*x509.Certificate, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "rsa-node"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	return cert, key
}

func selfSignedECDSA(t *testing.T, curve elliptic.Curve) (*x509.Certificate, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		t.Fatalf("generate ecdsa key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "ecc-node"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	return cert, key
}

func TestRSAPolicySignVerifyRoundTrip(t *testing.T) {
	cert, key := selfSignedRSA(t)
	p, err := policy.New(policy.Basic256Sha256, cert, key)
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	msg := []byte("hello secure channel")
	sig, err := p.Sign(msg)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := p.Verify(cert, msg, sig); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := p.Verify(cert, []byte("tampered"), sig); err == nil {
		t.Fatal("expected verify of tampered message to fail")
	}
}

func TestRSAPolicyEncryptDecryptRoundTrip(t *testing.T) {
	cert, key := selfSignedRSA(t)
	p, err := policy.New(policy.Basic128Rsa15, cert, key)
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	plain := []byte("small payload")
	ct, err := p.Encrypt(cert, plain)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	pt, err := p.Decrypt(ct)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(pt) != string(plain) {
		t.Fatalf("round trip mismatch: got %q want %q", pt, plain)
	}
}

func TestECCPolicyIdentityEncryption(t *testing.T) {
	cert, key := selfSignedECDSA(t, elliptic.P256())
	p, err := policy.New(policy.ECCNistP256, cert, key)
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	if got := p.KeyLength(); got != 1 {
		t.Fatalf("expected identity-encryption key length 1, got %d", got)
	}
	plain := []byte("passthrough")
	ct, err := p.Encrypt(cert, plain)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if string(ct) != string(plain) {
		t.Fatalf("identity encryption must be a no-op, got %q", ct)
	}
}

func TestECCPolicySignVerifyRoundTrip(t *testing.T) {
	cert, key := selfSignedECDSA(t, elliptic.P384())
	p, err := policy.New(policy.ECCNistP384, cert, key)
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	msg := []byte("ecdsa signed payload")
	sig, err := p.Sign(msg)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := p.Verify(cert, msg, sig); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestSymmetricEncryptDecryptRoundTrip(t *testing.T) {
	cert, key := selfSignedRSA(t)
	p, err := policy.New(policy.Basic256, cert, key)
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	symKey := make([]byte, 32)
	iv := make([]byte, 16)
	if _, err := rand.Read(symKey); err != nil {
		t.Fatalf("rand key: %v", err)
	}
	if _, err := rand.Read(iv); err != nil {
		t.Fatalf("rand iv: %v", err)
	}
	plain := make([]byte, 32) // multiple of AES block size
	copy(plain, []byte("sixteen byte blocks sixteen byt"))

	ct, err := p.SymEncrypt(symKey, iv, plain)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	pt, err := p.SymDecrypt(symKey, iv, ct)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(pt) != string(plain) {
		t.Fatalf("symmetric round trip mismatch")
	}
}

func TestSymSignVerify(t *testing.T) {
	cert, key := selfSignedRSA(t)
	p, err := policy.New(policy.Basic128Rsa15, cert, key)
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	signingKey := []byte("a shared hmac session key......")
	msg := []byte("channel message")
	sig := p.SymSign(signingKey, msg)
	if err := p.SymVerify(signingKey, msg, sig); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := p.SymVerify(signingKey, []byte("different message"), sig); err == nil {
		t.Fatal("expected mismatch on different message")
	}
}

func TestGenerateNonceLength(t *testing.T) {
	cert, key := selfSignedRSA(t)
	p, err := policy.New(policy.Basic256Sha256, cert, key)
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	nonce := make([]byte, p.NonceLength())
	if err := p.GenerateNonce(nonce); err != nil {
		t.Fatalf("generate nonce: %v", err)
	}
	allZero := true
	for _, b := range nonce {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		t.Fatal("expected a non-zero random nonce")
	}
}

func TestGenerateKeyRSADeterministic(t *testing.T) {
	cert, key := selfSignedRSA(t)
	p, err := policy.New(policy.Basic256Sha256, cert, key)
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	secret := []byte("pre-master-secret")
	seed := []byte("client-nonce-server-nonce")

	out1 := make([]byte, 48)
	out2 := make([]byte, 48)
	if err := p.GenerateKey(secret, seed, out1); err != nil {
		t.Fatalf("generate key 1: %v", err)
	}
	if err := p.GenerateKey(secret, seed, out2); err != nil {
		t.Fatalf("generate key 2: %v", err)
	}
	if string(out1) != string(out2) {
		t.Fatal("P-hash expansion must be deterministic for identical inputs")
	}
}

func TestGenerateKeyECCMatchesBothSides(t *testing.T) {
	cert, key := selfSignedECDSA(t, elliptic.P256())
	p, err := policy.New(policy.ECCNistP256, cert, key)
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}

	clientEph, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("client ephemeral: %v", err)
	}
	serverEph, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("server ephemeral: %v", err)
	}

	clientNonce := clientEph.PublicKey().Bytes()
	serverNonce := serverEph.PublicKey().Bytes()

	clientOut := make([]byte, 64)
	serverOut := make([]byte, 64)

	// Both sides derive the "server key" material; they must agree even
	// though each supplies its own ephemeral private key and the peer's
	// ephemeral public key.
	if err := p.GenerateKeyECC(clientEph, serverEph.PublicKey(), clientNonce, serverNonce, true, clientOut); err != nil {
		t.Fatalf("client derive: %v", err)
	}
	if err := p.GenerateKeyECC(serverEph, clientEph.PublicKey(), clientNonce, serverNonce, true, serverOut); err != nil {
		t.Fatalf("server derive: %v", err)
	}
	if string(clientOut) != string(serverOut) {
		t.Fatal("ECDH+HKDF derivation must agree on both sides given the same nonce pair")
	}
}

func TestCreateSigningRequestAndUpdateCertificate(t *testing.T) {
	cert, key := selfSignedRSA(t)
	p, err := policy.New(policy.Basic256Sha256, cert, key)
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}

	der, err := p.CreateSigningRequest(nil, false)
	if err != nil {
		t.Fatalf("create csr: %v", err)
	}
	csr, err := x509.ParseCertificateRequest(der)
	if err != nil {
		t.Fatalf("parse csr: %v", err)
	}
	if err := csr.CheckSignature(); err != nil {
		t.Fatalf("csr signature invalid: %v", err)
	}
	if csr.Subject.CommonName != cert.Subject.CommonName {
		t.Fatalf("csr subject mismatch: got %q want %q", csr.Subject.CommonName, cert.Subject.CommonName)
	}

	newCert, _ := selfSignedRSAWithKey(t, key)
	if err := p.UpdateCertificate(newCert, nil); err != nil {
		t.Fatalf("update certificate: %v", err)
	}
	if !p.CompareCertThumbprint(policy.MakeCertThumbprint(newCert)) {
		t.Fatal("thumbprint was not recomputed on update")
	}
}

type recordingStore struct {
	cert *x509.Certificate
	key  crypto.Signer
}

func (r *recordingStore) PersistOwnCertificate(cert *x509.Certificate, key crypto.Signer) error {
	r.cert = cert
	r.key = key
	return nil
}

func TestUpdateCertificatePersistsThroughAttachedStore(t *testing.T) {
	cert, key := selfSignedRSA(t)
	p, err := policy.New(policy.Basic256Sha256, cert, key)
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}

	store := &recordingStore{}
	p.SetOwnCertificateStore(store)

	newCert, _ := selfSignedRSAWithKey(t, key)
	if err := p.UpdateCertificate(newCert, nil); err != nil {
		t.Fatalf("update certificate: %v", err)
	}
	if store.cert != newCert {
		t.Fatal("expected the attached store to receive the new certificate")
	}
	if store.key != key {
		t.Fatal("expected the attached store to receive the retained private key")
	}
}

func selfSignedRSAWithKey(t *testing.T, key *rsa.PrivateKey) (*x509.Certificate, *rsa.PrivateKey) {
	t.Helper()
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "rsa-node-renewed"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(2 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create renewed certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse renewed certificate: %v", err)
	}
	return cert, key
}

func TestChannelContextSignAndEncrypt(t *testing.T) {
	cert, key := selfSignedRSA(t)
	p, err := policy.New(policy.Basic256, cert, key)
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	ctx, err := p.NewChannelContext(cert)
	if err != nil {
		t.Fatalf("new channel context: %v", err)
	}
	defer ctx.Free()

	signingKey := []byte("local-signing-key-bytes-here...")
	encKey := make([]byte, 32)
	iv := make([]byte, 16)
	ctx.SetLocalKeys(signingKey, encKey, iv)
	ctx.SetRemoteKeys(signingKey, encKey, iv)

	msg := []byte("opc ua message chunk")
	sig, err := ctx.SignOutgoing(msg)
	if err != nil {
		t.Fatalf("sign outgoing: %v", err)
	}
	if err := ctx.VerifyIncoming(msg, sig); err != nil {
		t.Fatalf("verify incoming: %v", err)
	}

	plain := make([]byte, 32)
	copy(plain, []byte("sixteen byte blocks sixteen byt"))
	ct, err := ctx.EncryptOutgoing(plain)
	if err != nil {
		t.Fatalf("encrypt outgoing: %v", err)
	}
	pt, err := ctx.DecryptIncoming(ct)
	if err != nil {
		t.Fatalf("decrypt incoming: %v", err)
	}
	if string(pt) != string(plain) {
		t.Fatal("channel context round trip mismatch")
	}
}

func TestRegistryBuildsPerURIPolicies(t *testing.T) {
	cert, key := selfSignedRSA(t)
	reg := policy.NewRegistry(cert, key)

	p1, err := reg.Policy(policy.Basic256Sha256)
	if err != nil {
		t.Fatalf("registry policy: %v", err)
	}
	if p1.URI() != policy.Basic256Sha256 {
		t.Fatalf("unexpected uri: %v", p1.URI())
	}
	if _, err := reg.Policy(policy.URI("unknown")); err == nil {
		t.Fatal("expected unknown uri to fail")
	}
}

func TestSupportedURIsListsAllSix(t *testing.T) {
	uris := policy.SupportedURIs()
	if len(uris) != 6 {
		t.Fatalf("expected 6 supported policies, got %d", len(uris))
	}
	for _, u := range uris {
		if !policy.IsSupported(u) {
			t.Fatalf("%v reported in SupportedURIs but not IsSupported", u)
		}
	}
}
