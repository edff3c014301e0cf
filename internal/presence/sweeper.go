package presence

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper runs the registry's timeout sweep on a fixed interval.
type Sweeper struct {
	registry *Registry
	interval time.Duration
}

// NewSweeper creates a sweeper for the registry.
func NewSweeper(registry *Registry, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Second
	}
	return &Sweeper{registry: registry, interval: interval}
}

// Run sweeps until the context is cancelled. It returns only after the
// final sweep has finished, so no callback fires after Run returns.
func (s *Sweeper) Run(ctx context.Context) error {
	log.Info().Dur("interval", s.interval).Msg("Presence sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Presence sweeper stopping")
			return nil
		case now := <-ticker.C:
			s.registry.Sweep(now)
		}
	}
}
