// Package presence tracks which registered beacons have been sighted
// recently and turns the noisy sighting stream into clean occupancy edges.
//
// Two actors mutate the registry concurrently: sighting ingestion (which may
// only flip a beacon to present) and the timeout sweep (the sole writer that
// may flip it back to away). Every mutation and every invariant-bearing read
// runs under one mutex; edge callbacks are decided inside the critical
// section and invoked immediately after it, so each transition fires its
// callback exactly once no matter how sightings and sweeps interleave.
package presence

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/oakmere/lampd/internal/beacon"
)

// ErrDuplicateBeacon is returned when registering an identity twice.
var ErrDuplicateBeacon = errors.New("beacon already registered")

// WelcomeFunc runs on a beacon's Away→Present transition.
type WelcomeFunc func(owner string)

// AllLeftFunc runs when aggregate occupancy drops to zero.
type AllLeftFunc func()

type record struct {
	owner    string
	lastSeen time.Time
	present  bool
}

// Registry is the presence state machine over registered beacons.
type Registry struct {
	mu          sync.Mutex
	records     map[beacon.ID]*record
	scanTimeout time.Duration

	welcome WelcomeFunc
	allLeft AllLeftFunc
}

// NewRegistry creates a registry. A beacon unseen for longer than
// scanTimeout is flipped to away by the next sweep.
func NewRegistry(scanTimeout time.Duration) *Registry {
	return &Registry{
		records:     make(map[beacon.ID]*record),
		scanTimeout: scanTimeout,
	}
}

// SetCallbacks installs the edge callbacks. Call before sightings or sweeps
// begin; either callback may be nil.
func (r *Registry) SetCallbacks(welcome WelcomeFunc, allLeft AllLeftFunc) {
	r.mu.Lock()
	r.welcome = welcome
	r.allLeft = allLeft
	r.mu.Unlock()
}

// Register adds a beacon owned by owner, initially away. Registration is a
// configuration-time act: the registry is closed-world after startup.
func (r *Registry) Register(id beacon.ID, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[id]; exists {
		return ErrDuplicateBeacon
	}
	r.records[id] = &record{owner: owner}

	log.Info().Stringer("beacon", id).Str("owner", owner).Msg("Beacon registered")
	return nil
}

// RecordSighting refreshes a beacon's last-seen instant. Sightings of
// unregistered beacons are dropped as noise. An Away→Present transition
// invokes the welcome callback exactly once, outside the lock.
func (r *Registry) RecordSighting(id beacon.ID, at time.Time) {
	r.mu.Lock()
	rec, ok := r.records[id]
	if !ok {
		r.mu.Unlock()
		log.Debug().Stringer("beacon", id).Msg("Sighting for unregistered beacon, ignoring")
		return
	}

	rec.lastSeen = at
	arrived := !rec.present
	rec.present = true
	owner := rec.owner
	welcome := r.welcome
	r.mu.Unlock()

	if arrived {
		log.Info().Stringer("beacon", id).Str("owner", owner).Time("at", at).Msg("Beacon arrived")
		if welcome != nil {
			welcome(owner)
		}
	}
}

// Sweep flips every beacon unseen for longer than scanTimeout to away. When
// the pass takes aggregate occupancy from above zero to zero, the all-left
// callback is invoked exactly once, outside the lock.
func (r *Registry) Sweep(now time.Time) {
	r.mu.Lock()

	occupiedBefore := false
	for _, rec := range r.records {
		if rec.present {
			occupiedBefore = true
			break
		}
	}

	occupiedAfter := false
	for id, rec := range r.records {
		if rec.present && now.Sub(rec.lastSeen) > r.scanTimeout {
			rec.present = false
			log.Info().Stringer("beacon", id).Str("owner", rec.owner).Msg("Beacon timed out")
		}
		if rec.present {
			occupiedAfter = true
		}
	}

	vacated := occupiedBefore && !occupiedAfter
	allLeft := r.allLeft
	r.mu.Unlock()

	if vacated {
		log.Info().Msg("All beacons away")
		if allLeft != nil {
			allLeft()
		}
	}
}

// Occupied reports whether any registered beacon is present.
func (r *Registry) Occupied() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		if rec.present {
			return true
		}
	}
	return false
}

// OccupiedBy reports whether any beacon owned by owner is present.
func (r *Registry) OccupiedBy(owner string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		if rec.owner == owner && rec.present {
			return true
		}
	}
	return false
}
