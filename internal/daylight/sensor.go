// Package daylight answers "is it daylight right now" and supplies the
// sunrise/sunset anchors for daylight-triggered rules.
//
// Times come from an external lookup service and are cached for 24 hours.
// A failed refresh keeps serving the stale values: scheduling must never
// halt because a sensor-adjacent network call failed.
package daylight

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// refreshInterval is how long cached times are considered fresh.
const refreshInterval = 24 * time.Hour

// retryInterval throttles refresh attempts after a lookup failure.
const retryInterval = 15 * time.Minute

// Sensor serves day-anchored sunrise/sunset times for a fixed location.
type Sensor struct {
	lookup Lookup
	lat    float64
	lon    float64
	cache  *Cache // optional persistent fallback

	mu          sync.Mutex
	times       Times
	nextRefresh time.Time
}

// NewSensor creates a sensor for the given coordinates. The cache may be nil.
func NewSensor(lookup Lookup, lat, lon float64, cache *Cache) *Sensor {
	return &Sensor{lookup: lookup, lat: lat, lon: lon, cache: cache}
}

// Init performs the first lookup. When it fails and the persistent cache
// holds earlier times, those are used; with no cache at all the error is
// returned and startup should abort, since no daylight judgement is possible.
func (s *Sensor) Init(ctx context.Context) error {
	now := time.Now().UTC()

	t, err := s.lookup.Daylight(ctx, s.lat, s.lon, now)
	if err == nil {
		s.store(now, t)
		return nil
	}

	log.Warn().Err(err).Msg("Initial daylight lookup failed, trying cached times")
	if s.cache != nil {
		if cached, ok := s.cache.Latest(); ok {
			s.mu.Lock()
			s.times = cached
			s.nextRefresh = now.Add(retryInterval)
			s.mu.Unlock()
			log.Info().
				Time("sunrise", cached.Sunrise).
				Time("sunset", cached.Sunset).
				Msg("Using cached daylight times")
			return nil
		}
	}

	return fmt.Errorf("no daylight times available: %w", err)
}

// Query reports whether at falls strictly between that day's sunrise and
// sunset, both re-anchored to at's calendar day.
func (s *Sensor) Query(at time.Time) bool {
	t := s.current(at)
	sunrise := anchor(t.Sunrise, at)
	sunset := anchor(t.Sunset, at)
	return at.After(sunrise) && at.Before(sunset)
}

// Sunrise returns today's sunrise instant in UTC.
func (s *Sensor) Sunrise() time.Time {
	now := time.Now().UTC()
	return anchor(s.current(now).Sunrise, now)
}

// Sunset returns today's sunset instant in UTC.
func (s *Sensor) Sunset() time.Time {
	now := time.Now().UTC()
	return anchor(s.current(now).Sunset, now)
}

// current returns the cached times, refreshing them first when they are
// older than refreshInterval. Refresh failures are logged and the stale
// values returned.
func (s *Sensor) current(now time.Time) Times {
	s.mu.Lock()
	if now.Before(s.nextRefresh) {
		t := s.times
		s.mu.Unlock()
		return t
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	t, err := s.lookup.Daylight(ctx, s.lat, s.lon, now)
	if err != nil {
		log.Warn().Err(err).Msg("Daylight refresh failed, keeping stale times")
		s.mu.Lock()
		s.nextRefresh = now.Add(retryInterval)
		stale := s.times
		s.mu.Unlock()
		return stale
	}

	s.store(now, t)
	return t
}

func (s *Sensor) store(now time.Time, t Times) {
	s.mu.Lock()
	s.times = t
	s.nextRefresh = now.Add(refreshInterval)
	s.mu.Unlock()

	log.Info().
		Time("sunrise", t.Sunrise).
		Time("sunset", t.Sunset).
		Time("next_update", now.Add(refreshInterval)).
		Msg("Daylight times updated")

	if s.cache != nil {
		s.cache.Put(now, t)
	}
}

// anchor replaces the year/month/day of t with at's, keeping the
// time-of-day unchanged.
func anchor(t, at time.Time) time.Time {
	at = at.UTC()
	t = t.UTC()
	return time.Date(at.Year(), at.Month(), at.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
