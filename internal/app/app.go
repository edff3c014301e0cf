package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/oakmere/lampd/internal/config"
)

// App ties the service container to a single run of the daemon: build the
// services, start them, block until the context falls, tear everything down.
type App struct {
	cfg      *config.Config
	services *Services
}

// New builds the service container. Nothing is connected yet; connecting
// happens in Run so a bad config fails before any network traffic.
func New(cfg *config.Config) (*App, error) {
	services, err := NewServices(cfg)
	if err != nil {
		return nil, err
	}
	return &App{cfg: cfg, services: services}, nil
}

// Run starts every service and blocks until ctx is cancelled or a service
// reports a fatal error, then stops the services. The teardown always runs,
// including when startup itself fails partway through.
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// A fatal service error ends the run the same way a signal does.
	onFatalError := func(err error) {
		log.Error().Err(err).Msg("Fatal error, initiating shutdown")
		cancel()
	}

	if err := a.services.Start(runCtx, onFatalError); err != nil {
		a.services.Stop()
		return err
	}
	log.Info().Msg("lampd started")

	<-runCtx.Done()
	log.Info().Msg("Shutting down...")
	return a.services.Stop()
}

// SignalContext creates a context that is cancelled on SIGINT or SIGTERM.
func SignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Warn().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	return ctx
}
