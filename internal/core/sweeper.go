package core

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically promotes past-due upcoming sessions to completed, so
// bookings finish on schedule even when nobody is looking at their session
// lists.
type Sweeper struct {
	bookingSvc BookingService
	interval   time.Duration
	logger     *zap.Logger
}

// NewSweeper creates a Sweeper running at the given interval.
func NewSweeper(bs BookingService, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{
		bookingSvc: bs,
		interval:   interval,
		logger:     logger,
	}
}

// Run sweeps immediately and then on every tick until the context is
// cancelled. It blocks; run it on its own goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Session sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	completed, err := s.bookingSvc.CompleteDueSessions(ctx, time.Now())
	if err != nil {
		s.logger.Warn("Completion sweep failed", zap.Error(err))
		return
	}
	if completed > 0 {
		s.logger.Info("Completion sweep finished", zap.Int("completed", completed))
	}
}
