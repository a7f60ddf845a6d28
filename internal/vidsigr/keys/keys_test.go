package keys

import (
	"crypto/sha256"
	"testing"
)

func TestSignVerify_RoundTrip(t *testing.T) {
	privPEM, pubDER, err := GenerateKeyPEM()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	pk, err := LoadPrivateKeyPEM(privPEM)
	if err != nil {
		t.Fatalf("load private key: %v", err)
	}

	digest := sha256.Sum256([]byte("gop document"))
	sig, err := Sign(pk, digest[:])
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	v := ECDSAVerifier{}
	ok, err := v.Verify(pubDER, digest[:], sig)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected signature to verify")
	}

	tampered := sha256.Sum256([]byte("other document"))
	ok, err = v.Verify(pubDER, tampered[:], sig)
	if err != nil {
		t.Fatalf("verify tampered: %v", err)
	}
	if ok {
		t.Fatalf("expected tampered digest to fail")
	}
}

func TestVerify_BadKeyBytes(t *testing.T) {
	digest := sha256.Sum256([]byte("x"))
	if _, err := (ECDSAVerifier{}).Verify([]byte{0x01, 0x02}, digest[:], []byte{0x03}); err == nil {
		t.Fatalf("expected error for malformed key")
	}
}

func TestPublicKeyPEM_RoundTrip(t *testing.T) {
	_, pubDER, err := GenerateKeyPEM()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	pemBytes := EncodePublicKeyPEM(pubDER)
	der, err := LoadPublicKeyPEM(pemBytes)
	if err != nil {
		t.Fatalf("load public key pem: %v", err)
	}
	if string(der) != string(pubDER) {
		t.Fatalf("public key der changed in round trip")
	}
}
