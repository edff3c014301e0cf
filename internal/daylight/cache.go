package daylight

import (
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"
)

// Cache persists the most recent successful lookup so a restart can fall
// back to yesterday's times when the lookup service is unreachable.
type Cache struct {
	db *sql.DB
}

// NewCache creates a daylight cache backed by SQLite.
func NewCache(db *sql.DB) *Cache {
	return &Cache{db: db}
}

// Latest returns the newest cached times, if any.
func (c *Cache) Latest() (Times, bool) {
	var sunrise, sunset int64
	err := c.db.QueryRow(`
		SELECT sunrise, sunset
		FROM daylight_cache
		ORDER BY day DESC
		LIMIT 1
	`).Scan(&sunrise, &sunset)

	if err == sql.ErrNoRows {
		return Times{}, false
	}
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read daylight cache")
		return Times{}, false
	}

	return Times{
		Sunrise: time.Unix(sunrise, 0).UTC(),
		Sunset:  time.Unix(sunset, 0).UTC(),
	}, true
}

// Put stores the times for a calendar day.
func (c *Cache) Put(day time.Time, t Times) error {
	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO daylight_cache (day, sunrise, sunset, updated_at)
		VALUES (?, ?, ?, ?)
	`, day.UTC().Format("2006-01-02"), t.Sunrise.Unix(), t.Sunset.Unix(), time.Now().Unix())

	if err != nil {
		log.Warn().Err(err).Msg("Failed to write daylight cache")
	}
	return err
}
