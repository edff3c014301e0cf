package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/oakmere/lampd/internal/beacon"
	"github.com/oakmere/lampd/internal/config"
	"github.com/oakmere/lampd/internal/daylight"
	"github.com/oakmere/lampd/internal/db"
	"github.com/oakmere/lampd/internal/dispatch"
	"github.com/oakmere/lampd/internal/engine"
	"github.com/oakmere/lampd/internal/hue"
	"github.com/oakmere/lampd/internal/ledger"
	"github.com/oakmere/lampd/internal/presence"
	"github.com/oakmere/lampd/internal/rules"
	"github.com/oakmere/lampd/internal/scene"
)

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Core infrastructure
	DB     *db.DB
	Ledger *ledger.Ledger
	Scenes *scene.Store

	// Sensors
	Daylight *daylight.Sensor
	Registry *presence.Registry // nil when no beacons are configured

	// Actuation
	Bridge     *hue.Bridge
	Dispatcher *dispatch.Dispatcher
	Engine     *engine.Engine

	// actMu orders every dispatch: rule ticks and presence-driven
	// actuation never interleave.
	actMu sync.Mutex

	sweeper *presence.Sweeper
	feed    *beacon.Feed
	wg      sync.WaitGroup
}

// NewServices creates all services with proper dependency injection.
// Components that need a live connection (Hue bridge, MQTT feed) are
// constructed in Start.
func NewServices(cfg *config.Config) (*Services, error) {
	s := &Services{cfg: cfg}

	// Initialize database
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	s.DB = database

	// Initialize ledger and scene store
	s.Ledger = ledger.New(database.DB)
	s.Scenes = scene.NewStore(database.DB)

	// Initialize daylight sensor with the SQLite fallback cache
	s.Daylight = daylight.NewSensor(
		daylight.NewHTTPLookup(cfg.Geo.HTTPTimeout.Duration()),
		cfg.Geo.Lat,
		cfg.Geo.Lon,
		daylight.NewCache(database.DB),
	)

	// Initialize presence tracking when beacons are configured
	if cfg.Presence.Enabled() {
		s.Registry = presence.NewRegistry(cfg.Presence.ScanTimeout.Duration())
		for _, b := range cfg.Presence.Beacons {
			id := beacon.ID{UUID: b.UUID, Major: b.Major, Minor: b.Minor}
			if err := s.Registry.Register(id, b.Owner); err != nil {
				database.Close()
				return nil, fmt.Errorf("presence config: %w", err)
			}
		}
		s.Registry.SetCallbacks(s.welcomeHome, s.houseVacated)
		s.sweeper = presence.NewSweeper(s.Registry, cfg.Presence.SweepInterval.Duration())
	} else {
		log.Info().Msg("No beacons configured, presence tracking disabled")
	}

	return s, nil
}

// Start connects to the bridge and broker, loads the rule set, and launches
// all background loops.
func (s *Services) Start(ctx context.Context, onFatalError func(error)) error {
	if err := s.Daylight.Init(ctx); err != nil {
		return fmt.Errorf("daylight sensor: %w", err)
	}

	bridge, err := hue.Connect(ctx, s.cfg.Hue.Bridge, s.cfg.Hue.Token, s.Scenes)
	if err != nil {
		return err
	}
	s.Bridge = bridge
	s.Dispatcher = dispatch.New(bridge, s.cfg.Engine.RateLimitRPS)

	ruleSet, err := rules.Load(s.cfg.Engine.Rules)
	if err != nil {
		return fmt.Errorf("failed to load rules from %s: %w", s.cfg.Engine.Rules, err)
	}
	log.Info().Int("count", len(ruleSet)).Str("path", s.cfg.Engine.Rules).Msg("Rules loaded")

	var occupancy engine.PresenceSource
	if s.Registry != nil {
		occupancy = s.Registry
	}
	s.Engine = engine.New(ruleSet, s.Daylight, occupancy, s.Dispatcher, s.Ledger, &s.actMu)

	// Beacon sighting feed plus the timeout sweeper
	if s.Registry != nil {
		conn, err := beacon.Dial(s.cfg.MQTT.Broker, s.cfg.MQTT.ClientID)
		if err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
		s.feed = beacon.NewFeed(conn, s.cfg.MQTT.Topic, s.Registry)
		if err := s.feed.Start(); err != nil {
			return fmt.Errorf("mqtt subscribe: %w", err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.sweeper.Run(ctx); err != nil {
				log.Error().Err(err).Msg("Presence sweeper error")
			}
		}()
	}

	// Rule engine loop
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Engine.Run(ctx, s.cfg.Engine.TickInterval.Duration()); err != nil {
			log.Error().Err(err).Msg("Rule engine error")
			if onFatalError != nil {
				onFatalError(err)
			}
		}
	}()

	// Ledger retention loop
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runLedgerCleanup(ctx)
	}()

	return nil
}

func (s *Services) runLedgerCleanup(ctx context.Context) {
	retention := time.Duration(s.cfg.Ledger.RetentionDays) * 24 * time.Hour
	ticker := time.NewTicker(s.cfg.Ledger.CleanupInterval.Duration())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.Ledger.DeleteOlderThan(retention)
			if err != nil {
				log.Warn().Err(err).Msg("Ledger cleanup failed")
			} else if removed > 0 {
				log.Debug().Int64("removed", removed).Msg("Ledger cleanup done")
			}
		}
	}
}

// Stop gracefully stops all services.
func (s *Services) Stop() error {
	if s.feed != nil {
		if err := s.feed.Stop(); err != nil {
			log.Warn().Err(err).Msg("Failed to stop beacon feed")
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(s.cfg.ShutdownTimeout.Duration()):
		log.Warn().Msg("Shutdown timeout exceeded, abandoning background loops")
	}

	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}
