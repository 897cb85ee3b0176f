package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

// InitKeyManager builds the KeyManager for the configured storage mode.
//
// Storage modes:
//   - "ephemeral": keys live only in memory. Every token becomes invalid
//     when the process restarts.
//   - "persistent": keys are sealed with the master key and stored in the
//     database, so tokens survive restarts and retired keys keep their
//     purge deadline.
//
// Either way exactly one key is active once this returns.
func InitKeyManager(ctx context.Context, cfg Config, db store.Store, logger *slog.Logger) (*jwtx.KeyManager, error) {
	opts := jwtx.Options{
		Algorithm: cfg.Algorithm,
		RSABits:   cfg.RSABits,
		Retention: cfg.KeyRetention,
	}

	if cfg.KeyStorageMode == KeyStoragePersistent {
		keyCipher, err := cryptox.LoadKeyCipher(cfg.MasterKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load master key: %w", err)
		}
		if keyCipher.Ephemeral() {
			logger.Warn("no master key configured, persisted signing keys will be unreadable after restart",
				"hint", "set AUTH_MASTER_KEY_PATH or "+cryptox.MasterKeyEnv,
			)
		}
		opts.Store = store.NewKeyStoreAdapter(db)
		opts.Cipher = keyCipher
	}

	logger.Info("initializing key manager",
		"algorithm", cfg.Algorithm,
		"storage", cfg.KeyStorageMode,
		"retention", cfg.KeyRetention,
	)

	km, err := jwtx.NewKeyManager(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("initialize %s key manager: %w", cfg.KeyStorageMode, err)
	}

	active, err := km.Active()
	if err != nil {
		return nil, err
	}
	logger.Info("signing keys ready",
		"active_kid", active.Kid,
		"published", len(km.VerificationKeys()),
	)

	if !km.Persistent() {
		logger.Warn("ephemeral signing keys: tokens issued before a restart will not verify")
	}
	return km, nil
}
