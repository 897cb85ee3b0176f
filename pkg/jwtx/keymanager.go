package jwtx

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/idx"
)

var (
	ErrNoActiveKey = errors.New("jwtx: no active signing key")
	ErrKeyNotFound = errors.New("jwtx: signing key not found")
	ErrKeyRetired  = errors.New("jwtx: signing key already retired")
)

// DefaultRetention keeps retired keys published long enough for the
// longest default token lifetime.
const DefaultRetention = 24 * time.Hour

type KeyState string

const (
	KeyActive  KeyState = "active"
	KeyRetired KeyState = "retired"
)

// KeyInfo describes a key without its private material.
type KeyInfo struct {
	Kid        string     `json:"kid"`
	Algorithm  string     `json:"algorithm"`
	State      KeyState   `json:"state"`
	CreatedAt  time.Time  `json:"created_at"`
	RetiredAt  *time.Time `json:"retired_at,omitempty"`
	PurgeAfter *time.Time `json:"purge_after,omitempty"`
}

// Rotation is the outcome of Rotate. Retired is nil when there was no active
// key before the rotation.
type Rotation struct {
	New     KeyInfo  `json:"new"`
	Retired *KeyInfo `json:"retired,omitempty"`
}

type managedKey struct {
	signer Signer
	info   KeyInfo
}

// expired reports whether a retired key is past its retention at now.
func (k *managedKey) expired(now time.Time) bool {
	return k.info.PurgeAfter != nil && !now.Before(*k.info.PurgeAfter)
}

// keyring is an immutable snapshot. Mutations build a new one and swap it.
type keyring struct {
	active *managedKey
	keys   []*managedKey // newest first
	byKID  map[string]*managedKey
}

func newKeyring(keys []*managedKey) *keyring {
	slices.SortFunc(keys, func(a, b *managedKey) int {
		return b.info.CreatedAt.Compare(a.info.CreatedAt)
	})

	r := &keyring{keys: keys, byKID: make(map[string]*managedKey, len(keys))}
	for _, k := range keys {
		r.byKID[k.info.Kid] = k
		if k.info.State == KeyActive && r.active == nil {
			r.active = k
		}
	}
	return r
}

// Options configure a KeyManager.
type Options struct {
	// Algorithm for newly generated keys. Loaded keys keep their own.
	Algorithm string

	// RSABits for RS256 key generation. Defaults to 2048.
	RSABits int

	// Retention is how long a retired key stays published and usable for
	// verification. Callers should keep it at least the maximum token TTL.
	Retention time.Duration

	// Store enables persistent mode. Nil means ephemeral keys.
	Store KeyStore

	// Cipher seals private keys before they reach Store. Required with Store.
	Cipher Sealer

	// Clock overrides time.Now. Tests only.
	Clock func() time.Time
}

// KeyManager owns the signing keys. Readers load the current keyring
// without locking; Rotate, Retire and Purge serialize on mu and publish a
// new keyring atomically.
type KeyManager struct {
	algorithm string
	rsaBits   int
	retention time.Duration
	store     KeyStore
	cipher    Sealer
	now       func() time.Time

	ring atomic.Pointer[keyring]
	mu   sync.Mutex
}

// NewKeyManager loads persisted keys (if any) and makes sure exactly one
// key is active, generating it when needed.
func NewKeyManager(ctx context.Context, opts Options) (*KeyManager, error) {
	if !slices.Contains(SupportedAlgorithms, opts.Algorithm) {
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q (supported: %v)", opts.Algorithm, SupportedAlgorithms)
	}
	if opts.Store != nil && opts.Cipher == nil {
		return nil, errors.New("jwtx: cipher is required for persistent keys")
	}
	if opts.RSABits == 0 {
		opts.RSABits = cryptox.MinRSABits
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	km := &KeyManager{
		algorithm: opts.Algorithm,
		rsaBits:   opts.RSABits,
		retention: opts.Retention,
		store:     opts.Store,
		cipher:    opts.Cipher,
		now:       func() time.Time { return opts.Clock().UTC() },
	}

	keys, err := km.load(ctx)
	if err != nil {
		return nil, err
	}
	km.ring.Store(newKeyring(keys))

	if km.ring.Load().active == nil {
		if _, err := km.Rotate(ctx); err != nil {
			return nil, err
		}
	}
	return km, nil
}

func (km *KeyManager) load(ctx context.Context) ([]*managedKey, error) {
	if km.store == nil {
		return nil, nil
	}

	records, err := km.store.LoadSigningKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("jwtx: load signing keys: %w", err)
	}

	now := km.now()
	keys := make([]*managedKey, 0, len(records))
	for _, rec := range records {
		if rec.PurgeAfter != nil && !now.Before(*rec.PurgeAfter) {
			continue // left for Purge
		}

		pemKey, err := km.cipher.Open(rec.PrivateKeyEncrypted)
		if err != nil {
			return nil, fmt.Errorf("jwtx: decrypt key %s: %w", rec.Kid, err)
		}
		signer, err := ParseSigner(rec.Algorithm, rec.Kid, pemKey)
		if err != nil {
			return nil, fmt.Errorf("jwtx: load key %s: %w", rec.Kid, err)
		}

		state := KeyActive
		if rec.RetiredAt != nil {
			state = KeyRetired
		}
		keys = append(keys, &managedKey{
			signer: signer,
			info: KeyInfo{
				Kid:        rec.Kid,
				Algorithm:  rec.Algorithm,
				State:      state,
				CreatedAt:  rec.CreatedAt.UTC(),
				RetiredAt:  rec.RetiredAt,
				PurgeAfter: rec.PurgeAfter,
			},
		})
	}

	// More than one active key can only come from an interrupted external
	// edit; keep the newest and treat the rest as retired in memory.
	slices.SortFunc(keys, func(a, b *managedKey) int {
		return b.info.CreatedAt.Compare(a.info.CreatedAt)
	})
	seenActive := false
	for i, k := range keys {
		if k.info.State != KeyActive {
			continue
		}
		if seenActive {
			keys[i] = km.retired(k, now)
		}
		seenActive = true
	}

	return keys, nil
}

func (km *KeyManager) Algorithm() string        { return km.algorithm }
func (km *KeyManager) Retention() time.Duration { return km.retention }
func (km *KeyManager) Persistent() bool         { return km.store != nil }

// SigningKey returns the active signer.
func (km *KeyManager) SigningKey() (Signer, error) {
	active := km.ring.Load().active
	if active == nil {
		return nil, ErrNoActiveKey
	}
	return active.signer, nil
}

// Active describes the active key.
func (km *KeyManager) Active() (KeyInfo, error) {
	active := km.ring.Load().active
	if active == nil {
		return KeyInfo{}, ErrNoActiveKey
	}
	return active.info, nil
}

// VerificationKey implements KeyResolver over the active key and retired
// keys still inside their retention window.
func (km *KeyManager) VerificationKey(kid string, now time.Time) (VerificationKey, error) {
	k, ok := km.ring.Load().byKID[kid]
	if !ok || k.expired(now) {
		return VerificationKey{}, ErrKeyNotFound
	}
	return VerificationKey{Kid: kid, Alg: k.info.Algorithm, Public: k.signer.PublicKey()}, nil
}

// VerificationKeys lists the keys that currently verify tokens, newest first.
func (km *KeyManager) VerificationKeys() []KeyInfo {
	now := km.now()
	ring := km.ring.Load()

	out := make([]KeyInfo, 0, len(ring.keys))
	for _, k := range ring.keys {
		if !k.expired(now) {
			out = append(out, k.info)
		}
	}
	return out
}

// JWKS is the public key set for /.well-known/jwks.json.
func (km *KeyManager) JWKS() JWKS {
	now := km.now()
	ring := km.ring.Load()

	set := JWKS{Keys: make([]JWK, 0, len(ring.keys))}
	for _, k := range ring.keys {
		if !k.expired(now) {
			set.Keys = append(set.Keys, k.signer.PublicJWK())
		}
	}
	return set
}

// Rotate generates a new active key and retires the previous one. In
// persistent mode both changes are committed before the new keyring is
// published, so a failed write leaves the old key active.
func (km *KeyManager) Rotate(ctx context.Context) (Rotation, error) {
	km.mu.Lock()
	defer km.mu.Unlock()

	kid, err := newKID()
	if err != nil {
		return Rotation{}, err
	}
	signer, pemKey, err := GenerateSigner(km.algorithm, kid, km.rsaBits)
	if err != nil {
		return Rotation{}, fmt.Errorf("jwtx: generate key: %w", err)
	}

	now := km.now()
	created := &managedKey{
		signer: signer,
		info:   KeyInfo{Kid: kid, Algorithm: km.algorithm, State: KeyActive, CreatedAt: now},
	}

	current := km.ring.Load()
	var retiring *managedKey
	if current.active != nil {
		retiring = km.retired(current.active, now)
	}

	if km.store != nil {
		sealed, err := km.cipher.Seal(pemKey)
		if err != nil {
			return Rotation{}, fmt.Errorf("jwtx: seal key: %w", err)
		}

		var retirement *KeyRetirement
		if retiring != nil {
			retirement = &KeyRetirement{
				Kid:        retiring.info.Kid,
				RetiredAt:  *retiring.info.RetiredAt,
				PurgeAfter: *retiring.info.PurgeAfter,
			}
		}

		record := SigningKeyRecord{
			ID:                  idx.New().String(),
			Kid:                 kid,
			Algorithm:           km.algorithm,
			PrivateKeyEncrypted: sealed,
			CreatedAt:           now,
		}
		if err := km.store.SaveRotation(ctx, record, retirement); err != nil {
			return Rotation{}, fmt.Errorf("jwtx: persist rotation: %w", err)
		}
	}

	keys := make([]*managedKey, 0, len(current.keys)+1)
	keys = append(keys, created)
	for _, k := range current.keys {
		if retiring != nil && k == current.active {
			keys = append(keys, retiring)
			continue
		}
		keys = append(keys, k)
	}
	km.ring.Store(newKeyring(keys))

	out := Rotation{New: created.info}
	if retiring != nil {
		info := retiring.info
		out.Retired = &info
	}
	return out, nil
}

// Retire retires kid without a replacement. Retiring the active key leaves
// the manager without one until the next Rotate.
func (km *KeyManager) Retire(ctx context.Context, kid string) (KeyInfo, error) {
	km.mu.Lock()
	defer km.mu.Unlock()

	current := km.ring.Load()
	target, ok := current.byKID[kid]
	if !ok {
		return KeyInfo{}, ErrKeyNotFound
	}
	if target.info.State == KeyRetired {
		return KeyInfo{}, ErrKeyRetired
	}

	retiring := km.retired(target, km.now())
	if km.store != nil {
		err := km.store.RetireSigningKey(ctx, KeyRetirement{
			Kid:        kid,
			RetiredAt:  *retiring.info.RetiredAt,
			PurgeAfter: *retiring.info.PurgeAfter,
		})
		if err != nil {
			return KeyInfo{}, fmt.Errorf("jwtx: persist retirement: %w", err)
		}
	}

	keys := make([]*managedKey, 0, len(current.keys))
	for _, k := range current.keys {
		if k == target {
			k = retiring
		}
		keys = append(keys, k)
	}
	km.ring.Store(newKeyring(keys))

	return retiring.info, nil
}

// Purge drops retired keys whose retention has elapsed and returns their kids.
func (km *KeyManager) Purge(ctx context.Context) ([]string, error) {
	km.mu.Lock()
	defer km.mu.Unlock()

	now := km.now()
	current := km.ring.Load()

	var (
		purged []string
		keep   = make([]*managedKey, 0, len(current.keys))
	)
	for _, k := range current.keys {
		if k.expired(now) {
			purged = append(purged, k.info.Kid)
			continue
		}
		keep = append(keep, k)
	}

	if km.store != nil {
		// Also clears rows that expired while the process was down.
		records, err := km.store.LoadSigningKeys(ctx)
		if err != nil {
			return nil, fmt.Errorf("jwtx: load signing keys: %w", err)
		}
		var stale []string
		for _, rec := range records {
			if rec.PurgeAfter != nil && !now.Before(*rec.PurgeAfter) {
				stale = append(stale, rec.Kid)
			}
		}
		if len(stale) > 0 {
			if err := km.store.DeleteSigningKeys(ctx, stale); err != nil {
				return nil, fmt.Errorf("jwtx: delete signing keys: %w", err)
			}
		}
		for _, kid := range stale {
			if !slices.Contains(purged, kid) {
				purged = append(purged, kid)
			}
		}
	}

	if len(keep) != len(current.keys) {
		km.ring.Store(newKeyring(keep))
	}
	return purged, nil
}

func (km *KeyManager) retired(k *managedKey, now time.Time) *managedKey {
	purgeAfter := now.Add(km.retention)
	info := k.info
	info.State = KeyRetired
	info.RetiredAt = &now
	info.PurgeAfter = &purgeAfter
	return &managedKey{signer: k.signer, info: info}
}

func newKID() (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", fmt.Errorf("jwtx: generate kid: %w", err)
	}
	return "tollgate-" + token, nil
}
