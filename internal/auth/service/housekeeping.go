package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// HousekeepingService periodically purges retired signing keys and, when
// RotationInterval is set, rotates the active key once it gets too old.
type HousekeepingService struct {
	Keys     *KeyRotationService
	Logger   *slog.Logger
	Interval time.Duration

	// RotationInterval is the maximum age of the active key. Zero disables
	// scheduled rotation.
	RotationInterval time.Duration

	Clock func() time.Time

	stopCh  chan struct{}
	doneCh  chan struct{}
	started atomic.Bool
	stopped atomic.Bool
}

// NewHousekeepingService creates a worker. A non-positive interval defaults
// to one hour.
func NewHousekeepingService(keys *KeyRotationService, logger *slog.Logger, interval, rotationInterval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &HousekeepingService{
		Keys:             keys,
		Logger:           logger,
		Interval:         interval,
		RotationInterval: rotationInterval,
		stopCh:           make(chan struct{}),
		doneCh:           make(chan struct{}),
	}
}

// Start runs the worker in the background. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.run()
	s.Logger.Info("housekeeping service started",
		"interval", s.Interval,
		"rotation_interval", s.RotationInterval,
	)
}

// Stop blocks until an in-progress pass has finished. Stopping a service
// that never started is a no-op.
func (s *HousekeepingService) Stop() {
	if !s.started.Load() || !s.stopped.CompareAndSwap(false, true) {
		return
	}
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.RunOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// RunOnce performs a single pass. Each step is independent; a failure in
// one is logged and does not stop the other.
func (s *HousekeepingService) RunOnce(ctx context.Context) {
	ctx = slogx.WithContext(ctx, s.Logger)

	if _, err := s.Keys.Purge(ctx); err != nil {
		s.Logger.Error("failed to purge signing keys", "error", err)
	}

	if s.RotationInterval <= 0 {
		return
	}

	active, err := s.Keys.Keys.Active()
	if err != nil {
		// An operator retired the key on purpose; leave it to them.
		s.Logger.Debug("no active signing key, skipping scheduled rotation")
		return
	}

	now := time.Now()
	if s.Clock != nil {
		now = s.Clock()
	}
	if now.Sub(active.CreatedAt) < s.RotationInterval {
		return
	}
	if _, err := s.Keys.Rotate(ctx, TriggerScheduled); err != nil {
		s.Logger.Error("scheduled key rotation failed", "error", err)
	}
}
