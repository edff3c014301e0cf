// Package dispatch translates fired rules into actuator backend calls.
// It is the single trust boundary between the deterministic engine and
// fallible I/O: individual target failures are tallied and logged, never
// raised, and only total inability to reach the backend escalates.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/oakmere/lampd/internal/rules"
)

// Backend is the actuator surface the dispatcher drives.
type Backend interface {
	TurnOn(ctx context.Context, target string, transition time.Duration) error
	TurnOff(ctx context.Context, target string, transition time.Duration) error
	RecallScene(ctx context.Context, name string) error
	ListTargets(ctx context.Context) ([]string, error)
}

// Result tallies per-target outcomes of one dispatch. ID is the unique
// dispatch id, correlating ledger records with log lines.
type Result struct {
	ID        string
	Succeeded int
	Failed    int
}

// Dispatcher applies actions against the backend with rate limiting.
type Dispatcher struct {
	backend Backend
	limiter *rate.Limiter
}

// New creates a dispatcher. rateLimitRPS bounds backend calls per second;
// zero or negative disables the limit.
func New(backend Backend, rateLimitRPS float64) *Dispatcher {
	limit := rate.Inf
	burst := 1
	if rateLimitRPS > 0 {
		limit = rate.Limit(rateLimitRPS)
		burst = int(rateLimitRPS)
		if burst < 1 {
			burst = 1
		}
	}
	return &Dispatcher{
		backend: backend,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Apply performs the action on the targets (all known targets when the list
// is empty). Scene recall ignores the target list. The returned error is
// non-nil only when the backend as a whole was unusable.
func (d *Dispatcher) Apply(ctx context.Context, action rules.Action, targets []string, scene string, transition time.Duration) (Result, error) {
	res := Result{ID: uuid.NewString()}

	logger := log.With().
		Str("dispatch_id", res.ID).
		Str("action", string(action)).
		Logger()

	if action == rules.ActionScene {
		if err := d.wait(ctx); err != nil {
			return res, err
		}
		if err := d.backend.RecallScene(ctx, scene); err != nil {
			logger.Warn().Err(err).Str("scene", scene).Msg("Scene recall failed")
			res.Failed = 1
			return res, nil
		}
		logger.Info().Str("scene", scene).Msg("Scene recalled")
		res.Succeeded = 1
		return res, nil
	}

	if len(targets) == 0 {
		all, err := d.backend.ListTargets(ctx)
		if err != nil {
			return res, fmt.Errorf("failed to enumerate targets: %w", err)
		}
		targets = all
	}
	for _, target := range targets {
		if err := d.wait(ctx); err != nil {
			return res, err
		}

		var err error
		switch action {
		case rules.ActionOn:
			err = d.backend.TurnOn(ctx, target, transition)
		case rules.ActionOff:
			err = d.backend.TurnOff(ctx, target, transition)
		default:
			return res, fmt.Errorf("unknown action %q", action)
		}

		if err != nil {
			res.Failed++
			logger.Warn().Err(err).Str("target", target).Msg("Target dispatch failed")
			continue
		}
		res.Succeeded++
	}

	logger.Info().
		Int("succeeded", res.Succeeded).
		Int("failed", res.Failed).
		Msg("Dispatch finished")
	return res, nil
}

func (d *Dispatcher) wait(ctx context.Context) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("dispatch cancelled: %w", err)
	}
	return nil
}
