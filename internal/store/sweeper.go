package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Purger physically removes records that expired before a cutoff.
type Purger interface {
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// Sweeper periodically purges records whose expiry is older than the retention
// window. Reads never depend on it: expiry is always evaluated on access.
type Sweeper struct {
	purger    Purger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweeper creates a sweeper. Call Start to begin the loop.
func NewSweeper(purger Purger, interval, retention time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		purger:    purger,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		logger:    logger.With(zap.String("component", "sweeper")),
	}
}

// Start runs the purge loop in the background until Shutdown is called.
func (s *Sweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("expiry sweeper started",
			zap.Duration("interval", s.interval),
			zap.Duration("retention", s.retention),
		)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SweepOnce(ctx)
			}
		}
	}()
}

// SweepOnce purges everything that expired more than the retention window ago.
func (s *Sweeper) SweepOnce(ctx context.Context) int64 {
	cutoff := s.now().Add(-s.retention)

	purged, err := s.purger.PurgeExpired(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to purge expired urls", zap.Error(err))

		return 0
	}

	if purged > 0 {
		s.logger.Info("purged expired urls", zap.Int64("count", purged), zap.Time("cutoff", cutoff))
	}

	return purged
}

// Shutdown stops the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Shutdown() error {
	if s.cancel != nil {
		s.cancel()
	}

	s.wg.Wait()

	return nil
}
