package jwtx

import (
	"context"
	"time"
)

// SigningKeyRecord is a signing key as persisted. The private key is sealed
// by the manager before it reaches the store.
type SigningKeyRecord struct {
	ID                  string
	Kid                 string
	Algorithm           string
	PrivateKeyEncrypted []byte
	CreatedAt           time.Time
	RetiredAt           *time.Time
	PurgeAfter          *time.Time
}

// KeyRetirement moves a key from active to retired.
type KeyRetirement struct {
	Kid        string
	RetiredAt  time.Time
	PurgeAfter time.Time
}

// KeyStore is the persistence the KeyManager needs. It is declared here so
// jwtx does not depend on the store package.
type KeyStore interface {
	LoadSigningKeys(ctx context.Context) ([]SigningKeyRecord, error)

	// SaveRotation inserts created and, when retired is non-nil, retires the
	// previous key in the same transaction.
	SaveRotation(ctx context.Context, created SigningKeyRecord, retired *KeyRetirement) error

	RetireSigningKey(ctx context.Context, r KeyRetirement) error
	DeleteSigningKeys(ctx context.Context, kids []string) error
}

// Sealer encrypts private key material at rest.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}
