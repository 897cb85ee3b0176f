package jwtx

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

// Supported JWT signing algorithms.
const (
	AlgorithmEdDSA = cryptox.AlgEdDSA
	AlgorithmES256 = cryptox.AlgES256
	AlgorithmRS256 = cryptox.AlgRS256
)

// SupportedAlgorithms lists every algorithm a Signer can be built for.
var SupportedAlgorithms = []string{AlgorithmEdDSA, AlgorithmES256, AlgorithmRS256}

// Signer signs claims with one private key and stamps its kid.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
	PublicKey() crypto.PublicKey
	PublicJWK() JWK
}

type keySigner struct {
	kid    string
	method jwt.SigningMethod
	key    crypto.Signer
	jwk    JWK
}

// ParseSigner builds a Signer for alg from a PEM private key. EdDSA and
// ES256 keys must be PKCS#8; RS256 accepts PKCS#1 or PKCS#8.
func ParseSigner(alg, kid string, pemKey []byte) (Signer, error) {
	if kid == "" {
		return nil, errors.New("jwtx: kid is required")
	}

	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: invalid PEM private key")
	}

	var (
		priv any
		err  error
	)
	switch block.Type {
	case "PRIVATE KEY":
		priv, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	case "RSA PRIVATE KEY":
		priv, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	default:
		return nil, fmt.Errorf("jwtx: unexpected PEM block %q", block.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse private key: %w", err)
	}

	var (
		method jwt.SigningMethod
		key    crypto.Signer
	)
	switch alg {
	case AlgorithmEdDSA:
		k, ok := priv.(ed25519.PrivateKey)
		if !ok {
			return nil, errors.New("jwtx: not an Ed25519 private key")
		}
		method, key = jwt.SigningMethodEdDSA, k
	case AlgorithmES256:
		k, ok := priv.(*ecdsa.PrivateKey)
		if !ok || k.Curve != elliptic.P256() {
			return nil, errors.New("jwtx: not a P-256 ECDSA private key")
		}
		method, key = jwt.SigningMethodES256, k
	case AlgorithmRS256:
		k, ok := priv.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("jwtx: not an RSA private key")
		}
		if k.N.BitLen() < cryptox.MinRSABits {
			return nil, fmt.Errorf("jwtx: rsa key must be at least %d bits", cryptox.MinRSABits)
		}
		method, key = jwt.SigningMethodRS256, k
	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q", alg)
	}

	jwk, err := NewJWK(kid, alg, key.Public())
	if err != nil {
		return nil, err
	}

	return &keySigner{kid: kid, method: method, key: key, jwk: jwk}, nil
}

// GenerateSigner creates a fresh key for alg and returns the signer along
// with the PEM encoded private key for persistence.
func GenerateSigner(alg, kid string, rsaBits int) (Signer, []byte, error) {
	pemKey, err := cryptox.GenerateSigningKeyPEM(alg, rsaBits)
	if err != nil {
		return nil, nil, err
	}
	s, err := ParseSigner(alg, kid, pemKey)
	if err != nil {
		return nil, nil, err
	}
	return s, pemKey, nil
}

func (s *keySigner) Alg() string                 { return s.method.Alg() }
func (s *keySigner) KID() string                 { return s.kid }
func (s *keySigner) PublicKey() crypto.PublicKey { return s.key.Public() }
func (s *keySigner) PublicJWK() JWK              { return s.jwk }

func (s *keySigner) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(s.method, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}
