// Package worker contains background maintenance loops. It is decoupled from
// the HTTP layer: cmd/api starts the loops and the api package never imports
// this one.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Evicter is the narrow interface the Sweeper needs. *intake.Registry
// satisfies it; tests use any struct with an EvictIdle method.
type Evicter interface {
	// EvictIdle drops sessions not seen since cutoff and returns how many
	// were dropped. Sessions with a cycle in flight must be kept.
	EvictIdle(cutoff time.Time) int
}

// SweeperConfig holds tuning parameters for the Sweeper. Zero fields take
// the defaults from DefaultSweeperConfig.
type SweeperConfig struct {
	// Interval is how often idle sessions are evicted. Default: 1m.
	Interval time.Duration

	// IdleTTL is how long a form session may go unseen before eviction.
	// Default: 30m.
	IdleTTL time.Duration

	// Now is the clock. Default: time.Now.
	Now func() time.Time
}

// DefaultSweeperConfig returns safe production defaults.
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		Interval: time.Minute,
		IdleTTL:  30 * time.Minute,
		Now:      time.Now,
	}
}

// Sweeper periodically evicts idle form sessions so abandoned browsers do not
// hold memory forever.
type Sweeper struct {
	sessions Evicter
	cfg      SweeperConfig
	logger   *slog.Logger

	wg sync.WaitGroup
}

// NewSweeper constructs a Sweeper. Call Start to begin sweeping.
func NewSweeper(sessions Evicter, cfg SweeperConfig, logger *slog.Logger) *Sweeper {
	def := DefaultSweeperConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = def.IdleTTL
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}
	return &Sweeper{
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start runs the sweep loop. It blocks until ctx is cancelled. Call it in a
// goroutine from main:
//
//	go sweeper.Start(ctx)
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("worker: sweeper starting", "interval", s.cfg.Interval, "idle_ttl", s.cfg.IdleTTL)

	s.wg.Add(1)
	go s.poll(ctx)

	s.wg.Wait()
	s.logger.Info("worker: sweeper stopped")
}

func (s *Sweeper) poll(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce()
		}
	}
}

// SweepOnce evicts every session idle for longer than IdleTTL and returns
// the number evicted.
func (s *Sweeper) SweepOnce() int {
	n := s.sessions.EvictIdle(s.cfg.Now().Add(-s.cfg.IdleTTL))
	if n > 0 {
		s.logger.Info("worker: evicted idle sessions", "count", n)
	}
	return n
}
