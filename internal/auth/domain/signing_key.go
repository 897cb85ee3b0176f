package domain

import "time"

// SigningKey is a persisted JWT signing key. The private key is sealed with
// the master key before it is stored.
type SigningKey struct {
	ID                  string // ULID
	Kid                 string
	Algorithm           string // EdDSA, ES256, RS256
	PrivateKeyEncrypted []byte
	CreatedAt           time.Time
	RetiredAt           *time.Time // nil while active
	PurgeAfter          *time.Time // set on retirement
}

func (k SigningKey) IsActive() bool { return k.RetiredAt == nil }

// Purgeable reports whether a retired key has outlived its retention.
func (k SigningKey) Purgeable(now time.Time) bool {
	return k.PurgeAfter != nil && !now.Before(*k.PurgeAfter)
}
