package store

import (
	"context"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

// KeyStoreAdapter exposes a Store as a jwtx.KeyStore so jwtx stays free of
// the domain and store packages.
type KeyStoreAdapter struct {
	store Store
}

func NewKeyStoreAdapter(s Store) *KeyStoreAdapter {
	return &KeyStoreAdapter{store: s}
}

func (a *KeyStoreAdapter) LoadSigningKeys(ctx context.Context) ([]jwtx.SigningKeyRecord, error) {
	keys, err := a.store.SigningKeys().ListSigningKeys(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]jwtx.SigningKeyRecord, len(keys))
	for i, k := range keys {
		records[i] = jwtx.SigningKeyRecord{
			ID:                  k.ID,
			Kid:                 k.Kid,
			Algorithm:           k.Algorithm,
			PrivateKeyEncrypted: k.PrivateKeyEncrypted,
			CreatedAt:           k.CreatedAt,
			RetiredAt:           k.RetiredAt,
			PurgeAfter:          k.PurgeAfter,
		}
	}
	return records, nil
}

// SaveRotation inserts the new key and retires the old one in a single
// transaction.
func (a *KeyStoreAdapter) SaveRotation(ctx context.Context, created jwtx.SigningKeyRecord, retired *jwtx.KeyRetirement) error {
	return a.store.WithTx(ctx, func(tx Tx) error {
		if retired != nil {
			if err := tx.SigningKeys().RetireSigningKey(ctx, retired.Kid, retired.RetiredAt, retired.PurgeAfter); err != nil {
				return err
			}
		}
		return tx.SigningKeys().CreateSigningKey(ctx, domain.SigningKey{
			ID:                  created.ID,
			Kid:                 created.Kid,
			Algorithm:           created.Algorithm,
			PrivateKeyEncrypted: created.PrivateKeyEncrypted,
			CreatedAt:           created.CreatedAt,
		})
	})
}

func (a *KeyStoreAdapter) RetireSigningKey(ctx context.Context, r jwtx.KeyRetirement) error {
	return a.store.SigningKeys().RetireSigningKey(ctx, r.Kid, r.RetiredAt, r.PurgeAfter)
}

func (a *KeyStoreAdapter) DeleteSigningKeys(ctx context.Context, kids []string) error {
	return a.store.SigningKeys().DeleteSigningKeys(ctx, kids)
}
