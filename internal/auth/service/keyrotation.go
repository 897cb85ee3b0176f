package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/tollgate/internal/auth/metrics"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// Rotation triggers.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

// KeyRotationService is the operator surface over the KeyManager. Works the
// same in ephemeral and persistent modes; the KeyManager decides whether
// changes reach the database.
type KeyRotationService struct {
	Keys    *jwtx.KeyManager
	Metrics metrics.Recorder
}

// KeyListing is the current key set and storage mode.
type KeyListing struct {
	Algorithm  string         `json:"algorithm"`
	Persistent bool           `json:"persistent"`
	Retention  string         `json:"retention"`
	Keys       []jwtx.KeyInfo `json:"keys"`
}

func (s *KeyRotationService) recorder() metrics.Recorder {
	if s.Metrics == nil {
		return metrics.NewNoop()
	}
	return s.Metrics
}

func (s *KeyRotationService) ListKeys() KeyListing {
	return KeyListing{
		Algorithm:  s.Keys.Algorithm(),
		Persistent: s.Keys.Persistent(),
		Retention:  s.Keys.Retention().String(),
		Keys:       s.Keys.VerificationKeys(),
	}
}

// Rotate generates a new active key. The previous key stays published for
// the retention window.
func (s *KeyRotationService) Rotate(ctx context.Context, trigger string) (jwtx.Rotation, error) {
	l := slogx.FromContext(ctx)

	rot, err := s.Keys.Rotate(ctx)
	s.recorder().RecordKeyRotation(trigger, err == nil)
	if err != nil {
		l.Error("signing key rotation failed", "trigger", trigger, "error", err)
		return jwtx.Rotation{}, fmt.Errorf("rotate signing key: %w", err)
	}
	s.RefreshGauges()

	attrs := []any{"trigger", trigger, "new_kid", rot.New.Kid}
	if rot.Retired != nil {
		attrs = append(attrs, "retired_kid", rot.Retired.Kid, "purge_after", rot.Retired.PurgeAfter)
	}
	l.Info("signing key rotated", attrs...)
	return rot, nil
}

// Retire retires kid without generating a replacement.
func (s *KeyRotationService) Retire(ctx context.Context, kid string) (jwtx.KeyInfo, error) {
	l := slogx.FromContext(ctx)

	info, err := s.Keys.Retire(ctx, kid)
	switch {
	case errors.Is(err, jwtx.ErrKeyNotFound):
		return jwtx.KeyInfo{}, ErrKeyNotFound
	case errors.Is(err, jwtx.ErrKeyRetired):
		return jwtx.KeyInfo{}, ErrKeyAlreadyRetired
	case err != nil:
		return jwtx.KeyInfo{}, fmt.Errorf("retire signing key: %w", err)
	}
	s.RefreshGauges()

	if _, err := s.Keys.Active(); errors.Is(err, jwtx.ErrNoActiveKey) {
		l.Warn("active signing key retired; token issuance disabled until next rotation", "kid", kid)
	} else {
		l.Info("signing key retired", "kid", kid)
	}
	return info, nil
}

// Purge drops retired keys past their retention.
func (s *KeyRotationService) Purge(ctx context.Context) ([]string, error) {
	purged, err := s.Keys.Purge(ctx)
	if err != nil {
		return nil, fmt.Errorf("purge signing keys: %w", err)
	}
	if len(purged) > 0 {
		s.recorder().RecordKeysPurged(len(purged))
		slogx.FromContext(ctx).Info("purged retired signing keys", "kids", purged)
	}
	s.RefreshGauges()
	return purged, nil
}

func (s *KeyRotationService) RefreshGauges() {
	var active, retired int
	for _, k := range s.Keys.VerificationKeys() {
		if k.State == jwtx.KeyActive {
			active++
		} else {
			retired++
		}
	}
	s.recorder().SetSigningKeys(active, retired)
}
