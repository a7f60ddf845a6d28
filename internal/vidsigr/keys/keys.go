// Package keys holds the signature primitives the validator core is
// abstracted from: ECDSA P-256 over PEM/PKIX encoded keys.
package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// Verifier is the abstract capability the validation engine calls into:
// given a public key, a signed digest and a signature, report a match. It
// must be deterministic and side-effect-free. The core never inspects key
// material beyond byte-equality for change detection.
type Verifier interface {
	Verify(publicKeyDER, digest, signature []byte) (bool, error)
}

// ECDSAVerifier verifies ASN.1 ECDSA signatures with PKIX-encoded P-256
// public keys.
type ECDSAVerifier struct{}

func (ECDSAVerifier) Verify(publicKeyDER, digest, signature []byte) (bool, error) {
	pub, err := ParsePublicKeyDER(publicKeyDER)
	if err != nil {
		return false, err
	}
	return ecdsa.VerifyASN1(pub, digest, signature), nil
}

// ParsePublicKeyDER decodes a PKIX public key and checks the curve.
func ParsePublicKeyDER(der []byte) (*ecdsa.PublicKey, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	pub, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an ECDSA public key")
	}
	if pub.Curve != elliptic.P256() {
		return nil, fmt.Errorf("unsupported curve: want P-256")
	}
	return pub, nil
}

// MarshalPublicKeyDER encodes a public key in PKIX form, the representation
// carried in the PUBLIC_KEY TLV record.
func MarshalPublicKeyDER(pub *ecdsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return der, nil
}

// LoadPrivateKeyPEM parses an EC or PKCS#8 PEM private key.
func LoadPrivateKeyPEM(pemBytes []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("invalid PEM for private key")
	}
	var pk *ecdsa.PrivateKey
	var err error
	if block.Type == "EC PRIVATE KEY" {
		pk, err = x509.ParseECPrivateKey(block.Bytes)
	} else {
		var key any
		key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
		if err == nil {
			var ok bool
			pk, ok = key.(*ecdsa.PrivateKey)
			if !ok {
				return nil, fmt.Errorf("not an ECDSA private key")
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	if pk.Curve != elliptic.P256() {
		return nil, fmt.Errorf("unsupported curve: want P-256")
	}
	return pk, nil
}

// LoadPublicKeyPEM parses a PEM public key and returns its DER bytes.
func LoadPublicKeyPEM(pemBytes []byte) ([]byte, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("invalid PEM for public key")
	}
	if _, err := ParsePublicKeyDER(block.Bytes); err != nil {
		return nil, err
	}
	return block.Bytes, nil
}

// EncodePublicKeyPEM wraps PKIX DER bytes in a PEM block.
func EncodePublicKeyPEM(der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
}

// Sign produces an ASN.1 ECDSA signature over an already-computed digest.
func Sign(pk *ecdsa.PrivateKey, digest []byte) ([]byte, error) {
	return ecdsa.SignASN1(rand.Reader, pk, digest)
}

// GenerateKeyPEM creates a fresh P-256 key pair for tests and stream
// synthesis: the private key as PKCS#8 PEM, the public key as PKIX DER.
func GenerateKeyPEM() (privPEM, pubDER []byte, err error) {
	sk, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate key: %w", err)
	}
	pkcs8, err := x509.MarshalPKCS8PrivateKey(sk)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal pkcs8: %w", err)
	}
	privPEM = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8})
	pubDER, err = MarshalPublicKeyDER(&sk.PublicKey)
	if err != nil {
		return nil, nil, err
	}
	return privPEM, pubDER, nil
}
