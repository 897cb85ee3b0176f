package cryptox

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// Supported JWS algorithms for signing keys.
const (
	AlgEdDSA = "EdDSA"
	AlgES256 = "ES256"
	AlgRS256 = "RS256"
)

// MinRSABits is the smallest modulus accepted for RS256 keys.
const MinRSABits = 2048

// GenerateSigningKeyPEM creates a fresh private key for alg and returns it
// PEM encoded. Ed25519 and ECDSA keys are PKCS#8, RSA keys are PKCS#1.
// rsaBits is ignored for non-RSA algorithms.
func GenerateSigningKeyPEM(alg string, rsaBits int) ([]byte, error) {
	switch alg {
	case AlgEdDSA:
		return GenerateEd25519Key()
	case AlgES256:
		return GenerateES256Key()
	case AlgRS256:
		return GenerateRSAKey(rsaBits)
	default:
		return nil, fmt.Errorf("cryptox: unsupported algorithm %q", alg)
	}
}

func GenerateEd25519Key() ([]byte, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cryptox: generate ed25519 key: %w", err)
	}
	return marshalPKCS8(priv)
}

func GenerateES256Key() ([]byte, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cryptox: generate ecdsa key: %w", err)
	}
	return marshalPKCS8(priv)
}

func GenerateRSAKey(bits int) ([]byte, error) {
	if bits < MinRSABits {
		return nil, fmt.Errorf("cryptox: rsa key size must be at least %d bits, got %d", MinRSABits, bits)
	}
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("cryptox: generate rsa key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(priv),
	}), nil
}

func marshalPKCS8(key any) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: marshal pkcs8: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}
