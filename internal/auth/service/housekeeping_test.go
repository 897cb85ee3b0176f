package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingPurgesAndRotates(t *testing.T) {
	e := newEnv(t)
	hk := NewHousekeepingService(e.rotation, slogx.Discard(), time.Minute, 6*time.Hour)
	hk.Clock = e.clock.Now

	first, err := e.keys.Active()
	require.NoError(t, err)

	hk.RunOnce(context.Background())
	still, err := e.keys.Active()
	require.NoError(t, err)
	require.Equal(t, first.Kid, still.Kid)

	e.clock.Advance(6 * time.Hour)
	hk.RunOnce(context.Background())
	rotated, err := e.keys.Active()
	require.NoError(t, err)
	require.NotEqual(t, first.Kid, rotated.Kid)
	require.Len(t, e.keys.VerificationKeys(), 2)

	e.clock.Advance(e.keys.Retention())
	hk.RunOnce(context.Background())
	keys := e.keys.VerificationKeys()
	require.Len(t, keys, 1)
	require.Equal(t, rotated.Kid, keys[0].Kid)
}

func TestHousekeepingLeavesRetiredManagerAlone(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	hk := NewHousekeepingService(e.rotation, slogx.Discard(), time.Minute, time.Hour)
	hk.Clock = e.clock.Now

	active, err := e.keys.Active()
	require.NoError(t, err)
	_, err = e.rotation.Retire(ctx, active.Kid)
	require.NoError(t, err)

	e.clock.Advance(2 * time.Hour)
	hk.RunOnce(ctx)

	_, err = e.keys.Active()
	require.ErrorIs(t, err, ErrNoActiveKey)
}

func TestHousekeepingStartStop(t *testing.T) {
	e := newEnv(t)
	hk := NewHousekeepingService(e.rotation, slogx.Discard(), 10*time.Millisecond, 0)
	hk.Start()
	time.Sleep(30 * time.Millisecond)
	hk.Stop()
}
