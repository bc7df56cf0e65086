package app

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper runs the expiry sweep on a fixed interval until its context ends.
type Sweeper struct {
	engine   *LifecycleEngine
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a sweeper. interval must be positive.
func NewSweeper(engine *LifecycleEngine, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}

	return &Sweeper{engine: engine, interval: interval, logger: logger}
}

// Run sweeps once immediately and then on every tick. It returns nil when
// ctx is cancelled; a failing sweep is logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "expiry sweeper started", slog.Duration("interval", s.interval))

	for {
		s.sweep(ctx)

		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "expiry sweeper stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	result, err := s.engine.ExpireOverdue(ctx, s.engine.Now())
	if err != nil && ctx.Err() == nil {
		s.logger.ErrorContext(ctx, "expiry sweep failed",
			slog.Int("expired", result.Expired),
			slog.Int("failed", result.Failed),
			slog.Any("error", err),
		)
	}
}
