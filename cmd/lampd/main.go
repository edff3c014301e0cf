package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/oakmere/lampd/internal/app"
	"github.com/oakmere/lampd/internal/config"
)

func main() {
	// Support both -c and --config for config path
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.StringVar(&configPath, "c", "config.yaml", "Path to configuration file (shorthand)")
	saveScene := flag.String("save-scene", "", "Snapshot current light states under this scene name and exit")
	deleteScene := flag.String("delete-scene", "", "Delete a locally stored scene and exit")
	listScenes := flag.Bool("scenes", false, "List locally stored scenes and exit")
	history := flag.Int("history", 0, "Print the N most recent dispatch records and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logging
	setupLogging(cfg.Log.Level, cfg.Log.UseJSON, cfg.Log.Colors)

	// One-shot command modes
	switch {
	case *saveScene != "":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := app.SaveScene(ctx, cfg, *saveScene); err != nil {
			log.Fatal().Err(err).Str("scene", *saveScene).Msg("Failed to save scene")
		}
		log.Info().Str("scene", *saveScene).Msg("Scene saved")
		return
	case *deleteScene != "":
		if err := app.DeleteScene(cfg, *deleteScene); err != nil {
			log.Fatal().Err(err).Str("scene", *deleteScene).Msg("Failed to delete scene")
		}
		log.Info().Str("scene", *deleteScene).Msg("Scene deleted")
		return
	case *listScenes:
		if err := app.ListScenes(cfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to list scenes")
		}
		return
	case *history > 0:
		if err := app.ShowHistory(cfg, *history); err != nil {
			log.Fatal().Err(err).Msg("Failed to read history")
		}
		return
	}

	log.Info().Str("config", configPath).Msg("Starting lampd")

	// Create application
	application, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}

	// Run until a shutdown signal or fatal error
	if err := application.Run(app.SignalContext()); err != nil {
		log.Fatal().Err(err).Msg("lampd exited with error")
	}
}

func setupLogging(level string, useJSON bool, colors bool) {
	// ISO 8601 format with timezone
	zerolog.TimeFieldFormat = time.RFC3339

	if useJSON {
		// JSON output for production
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		// Text output (with optional colors)
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			NoColor:    !colors,
		})
	}

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
