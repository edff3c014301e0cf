package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/oakmere/lampd/internal/ledger"
	"github.com/oakmere/lampd/internal/rules"
)

const presenceDispatchTimeout = 30 * time.Second

// welcomeHome runs when a registered beacon transitions to present. During
// darkness every light comes on; in daylight only the configured welcome
// lights do. Holds the actuation lock so it never interleaves with a rule
// tick.
func (s *Services) welcomeHome(owner string) {
	s.actMu.Lock()
	defer s.actMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), presenceDispatchTimeout)
	defer cancel()

	now := time.Now().UTC()
	targets := []string(nil) // all lights
	if s.Daylight.Query(now) {
		targets = s.cfg.Presence.WelcomeLights
	}

	log.Info().Str("owner", owner).Bool("daylight", s.Daylight.Query(now)).Msg("Welcome home")

	res, err := s.Dispatcher.Apply(ctx, rules.ActionOn, targets, "", 0)
	if err != nil {
		log.Error().Err(err).Str("owner", owner).Msg("Welcome dispatch failed")
		return
	}

	if err := s.Ledger.Append(ledger.EventPresenceArrived, "", map[string]any{
		"owner":     owner,
		"succeeded": res.Succeeded,
		"failed":    res.Failed,
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to record arrival")
	}
}

// houseVacated runs when the last present beacon times out. Everything
// switches off.
func (s *Services) houseVacated() {
	s.actMu.Lock()
	defer s.actMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), presenceDispatchTimeout)
	defer cancel()

	log.Info().Msg("House vacated, turning all lights off")

	res, err := s.Dispatcher.Apply(ctx, rules.ActionOff, nil, "", 0)
	if err != nil {
		log.Error().Err(err).Msg("Vacancy dispatch failed")
		return
	}

	if err := s.Ledger.Append(ledger.EventPresenceVacated, "", map[string]any{
		"succeeded": res.Succeeded,
		"failed":    res.Failed,
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to record vacancy")
	}
}
