package jwtx

import (
	"errors"
	"fmt"
	"time"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet is a static set of verification keys decoded from a published
// JWKS. Resource servers and tests use it to verify tokens without access
// to the key manager.
type KeySet struct {
	keys map[string]VerificationKey
}

// NewKeySetFromJWKS decodes every key in jwks. Keys without a kid or alg are
// rejected since they cannot be matched against a token header.
func NewKeySetFromJWKS(jwks JWKS) (*KeySet, error) {
	keys := make(map[string]VerificationKey, len(jwks.Keys))
	for _, j := range jwks.Keys {
		if j.Kid == "" || j.Alg == "" {
			return nil, errors.New("jwtx: jwk requires kid and alg")
		}
		pub, err := j.PublicKey()
		if err != nil {
			return nil, fmt.Errorf("jwtx: decode jwk %s: %w", j.Kid, err)
		}
		keys[j.Kid] = VerificationKey{Kid: j.Kid, Alg: j.Alg, Public: pub}
	}
	return &KeySet{keys: keys}, nil
}

func (k *KeySet) VerificationKey(kid string, _ time.Time) (VerificationKey, error) {
	key, ok := k.keys[kid]
	if !ok {
		return VerificationKey{}, ErrNoKey
	}
	return key, nil
}

func (k *KeySet) Len() int { return len(k.keys) }
