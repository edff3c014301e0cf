// Package engine evaluates the rule set against a watermark clock.
//
// A rule fires iff its day-anchored trigger instant lies in the half-open
// window (lastTick, now]. The watermark is the single source of truth for
// exactly-once firing: ticks never rewind it, and a process suspension
// collapses to at most one firing per rule because only the current day's
// occurrence is ever materialized.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/oakmere/lampd/internal/dispatch"
	"github.com/oakmere/lampd/internal/ledger"
	"github.com/oakmere/lampd/internal/localtime"
	"github.com/oakmere/lampd/internal/rules"
)

// DaylightSource supplies the daylight oracle and the anchors for
// daylight-triggered rules.
type DaylightSource interface {
	Query(at time.Time) bool
	Sunrise() time.Time
	Sunset() time.Time
}

// PresenceSource is the read-only occupancy oracle.
type PresenceSource interface {
	Occupied() bool
}

// Engine holds the compiled rule set and the evaluation watermark. It is
// single-threaded by design: a tick runs to completion, dispatches
// included, under the shared actuation lock.
type Engine struct {
	rules      []rules.Rule
	daylight   DaylightSource
	presence   PresenceSource // nil disables presence gating
	dispatcher *dispatch.Dispatcher
	history    *ledger.Ledger // nil disables occurrence records
	zone       localtime.Zone

	actMu    *sync.Mutex
	lastTick time.Time
}

// New creates an engine over an immutable rule set. actMu is the
// dispatch-ordering lock shared with any presence-driven actuation path;
// passing nil creates a private one. The watermark starts at now: past
// occurrences are not replayed on boot.
func New(rs []rules.Rule, daylight DaylightSource, presence PresenceSource, dispatcher *dispatch.Dispatcher, history *ledger.Ledger, actMu *sync.Mutex) *Engine {
	if actMu == nil {
		actMu = &sync.Mutex{}
	}
	return &Engine{
		rules:      rs,
		daylight:   daylight,
		presence:   presence,
		dispatcher: dispatcher,
		history:    history,
		actMu:      actMu,
		lastTick:   time.Now().UTC(),
	}
}

// Run ticks the engine at a fixed cadence until the context is cancelled.
func (e *Engine) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	log.Info().Dur("interval", interval).Int("rules", len(e.rules)).Msg("Rule engine started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Rule engine stopping")
			return nil
		case now := <-ticker.C:
			e.Tick(ctx, now)
		}
	}
}

// Tick evaluates every rule against the window (lastTick, now] and advances
// the watermark unconditionally, dispatch failures included.
func (e *Engine) Tick(ctx context.Context, now time.Time) {
	e.actMu.Lock()
	defer e.actMu.Unlock()

	now = now.UTC()
	weekday := e.zone.Local(now).Weekday()

	for i := range e.rules {
		rule := &e.rules[i]

		if !rule.EnabledOn(weekday) {
			continue
		}

		trigger, ok := e.triggerInstant(rule, now)
		if !ok {
			continue
		}

		if !e.lastTick.Before(trigger) || trigger.After(now) {
			continue
		}

		e.fire(ctx, i, rule, trigger)
	}

	e.lastTick = now
}

// triggerInstant materializes the rule's occurrence on now's calendar day.
// Timer rules re-anchor the nominal local time and convert to UTC; daylight
// rules resolve their edge from the sensor plus the declared offset.
func (e *Engine) triggerInstant(rule *rules.Rule, now time.Time) (time.Time, bool) {
	switch rule.Trigger {
	case rules.TriggerTimer:
		nominal := time.Date(now.Year(), now.Month(), now.Day(),
			rule.Hour, rule.Minute, 0, 0, time.UTC)
		return e.zone.ToUTC(nominal), true

	case rules.TriggerDaylight:
		if e.daylight == nil {
			return time.Time{}, false
		}
		var base time.Time
		switch rule.Edge {
		case rules.EdgeSunrise:
			base = e.daylight.Sunrise()
		case rules.EdgeSunset:
			base = e.daylight.Sunset()
		}
		if base.IsZero() {
			return time.Time{}, false
		}
		return base.Add(rule.Offset), true
	}

	log.Error().Str("trigger", string(rule.Trigger)).Msg("Rule with unknown trigger, skipping")
	return time.Time{}, false
}

func (e *Engine) fire(ctx context.Context, idx int, rule *rules.Rule, trigger time.Time) {
	occurrence := fmt.Sprintf("rule/%d/%d", idx, trigger.Unix())

	if e.history != nil && e.history.HasCompleted(occurrence) {
		log.Debug().Str("occurrence", occurrence).Msg("Occurrence already completed, skipping")
		return
	}

	// On/Off actions are presence-gated; scene recall always dispatches.
	if rule.Action != rules.ActionScene && e.presence != nil && !e.presence.Occupied() {
		log.Info().
			Str("occurrence", occurrence).
			Str("action", string(rule.Action)).
			Msg("Nobody home, suppressing dispatch")
		return
	}

	log.Info().
		Str("occurrence", occurrence).
		Str("action", string(rule.Action)).
		Time("trigger", trigger).
		Strs("lights", rule.Lights).
		Msg("Rule fired")

	res, err := e.dispatcher.Apply(ctx, rule.Action, rule.Lights, rule.Scene, rule.Transition)
	if err != nil {
		// One rule's dispatch failure never blocks the rest of the tick.
		log.Error().Err(err).Str("occurrence", occurrence).Msg("Dispatch failed")
		if e.history != nil {
			e.history.Append(ledger.EventDispatchFailed, occurrence, map[string]any{
				"dispatch_id": res.ID,
				"action":      string(rule.Action),
				"error":       err.Error(),
			})
		}
		return
	}

	if e.history != nil {
		if err := e.history.Append(ledger.EventDispatchCompleted, occurrence, map[string]any{
			"dispatch_id": res.ID,
			"action":      string(rule.Action),
			"scene":       rule.Scene,
			"succeeded":   res.Succeeded,
			"failed":      res.Failed,
		}); err != nil {
			log.Warn().Err(err).Msg("Failed to record dispatch")
		}
	}
}
