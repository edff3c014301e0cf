package app

import (
	"context"
	"fmt"

	"github.com/oakmere/lampd/internal/config"
	"github.com/oakmere/lampd/internal/db"
	"github.com/oakmere/lampd/internal/hue"
	"github.com/oakmere/lampd/internal/ledger"
	"github.com/oakmere/lampd/internal/scene"
)

// One-shot command modes. Each opens the database, does one job, and
// returns without touching the daemon lifecycle.

// SaveScene connects to the bridge and snapshots the current state of every
// light under the given name, for later recall by scene rules.
func SaveScene(ctx context.Context, cfg *config.Config, name string) error {
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer database.Close()

	scenes := scene.NewStore(database.DB)
	bridge, err := hue.Connect(ctx, cfg.Hue.Bridge, cfg.Hue.Token, scenes)
	if err != nil {
		return err
	}

	return bridge.CaptureScene(ctx, name, nil)
}

// ListScenes prints every locally stored scene name.
func ListScenes(cfg *config.Config) error {
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer database.Close()

	names, err := scene.NewStore(database.DB).Names()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("no scenes stored")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

// DeleteScene removes a locally stored scene.
func DeleteScene(cfg *config.Config, name string) error {
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer database.Close()

	existed, err := scene.NewStore(database.DB).Delete(name)
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("no scene named %q", name)
	}
	return nil
}

// ShowHistory prints the most recent dispatch outcomes from the ledger,
// newest first.
func ShowHistory(cfg *config.Config, limit int) error {
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer database.Close()

	history := ledger.New(database.DB)
	for _, eventType := range []ledger.EventType{ledger.EventDispatchCompleted, ledger.EventDispatchFailed} {
		entries, err := history.GetByType(eventType, limit)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%s  %-19s  %-24s  %v\n",
				e.Timestamp.Format("2006-01-02 15:04:05"), e.EventType, e.IdempotencyKey, e.Payload)
		}
	}
	return nil
}
