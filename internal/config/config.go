package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Hue             HueConfig      `yaml:"hue"`
	Geo             GeoConfig      `yaml:"geo"`
	MQTT            MQTTConfig     `yaml:"mqtt"`
	Presence        PresenceConfig `yaml:"presence"`
	Engine          EngineConfig   `yaml:"engine"`
	Database        DatabaseConfig `yaml:"database"`
	Ledger          LedgerConfig   `yaml:"ledger"`
	Log             LogConfig      `yaml:"log"`
	ShutdownTimeout Duration       `yaml:"shutdown_timeout"` // General shutdown timeout for graceful stops
}

// HueConfig contains Hue bridge connection settings
type HueConfig struct {
	Bridge string `yaml:"bridge"`
	Token  string `yaml:"token"`
}

// GeoConfig contains the location used for sunrise/sunset lookups
type GeoConfig struct {
	Lat         float64  `yaml:"lat"`
	Lon         float64  `yaml:"lon"`
	HTTPTimeout Duration `yaml:"http_timeout"` // Timeout for daylight HTTP requests
}

// MQTTConfig contains the beacon advert feed settings
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
}

// BeaconConfig identifies one registered iBeacon and its owner
type BeaconConfig struct {
	Owner string `yaml:"owner"`
	UUID  string `yaml:"uuid"`
	Major string `yaml:"major"`
	Minor string `yaml:"minor"`
}

// PresenceConfig contains presence tracking settings. Presence is disabled
// when no beacons are registered.
type PresenceConfig struct {
	ScanTimeout   Duration       `yaml:"scan_timeout"`   // Silence before a beacon is considered away
	SweepInterval Duration       `yaml:"sweep_interval"` // Timeout sweep cadence
	Beacons       []BeaconConfig `yaml:"beacons"`
	WelcomeLights []string       `yaml:"welcome_lights"` // Lights for daylight arrivals; empty = all
}

// Enabled reports whether presence tracking is configured.
func (c *PresenceConfig) Enabled() bool {
	return len(c.Beacons) > 0
}

// EngineConfig contains rule evaluation settings
type EngineConfig struct {
	TickInterval Duration `yaml:"tick_interval"`
	Rules        string   `yaml:"rules"` // Path to the rules file
	RateLimitRPS float64  `yaml:"rate_limit_rps"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LedgerConfig contains event ledger settings
type LedgerConfig struct {
	CleanupInterval Duration `yaml:"cleanup_interval"`
	RetentionDays   int      `yaml:"retention_days"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	UseJSON bool   `yaml:"json"`
	Colors  bool   `yaml:"colors"`
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./lampd.sqlite"
	}

	// Geo defaults
	if cfg.Geo.HTTPTimeout == 0 {
		cfg.Geo.HTTPTimeout = Duration(10 * time.Second)
	}

	// MQTT defaults
	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = "ibeacon/adverts"
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "lampd"
	}

	// Presence defaults
	if cfg.Presence.ScanTimeout == 0 {
		cfg.Presence.ScanTimeout = Duration(5 * time.Minute)
	}
	if cfg.Presence.SweepInterval == 0 {
		cfg.Presence.SweepInterval = Duration(1 * time.Second)
	}

	// Engine defaults
	if cfg.Engine.TickInterval == 0 {
		cfg.Engine.TickInterval = Duration(2 * time.Second)
	}
	if cfg.Engine.Rules == "" {
		cfg.Engine.Rules = "rules.yaml"
	}
	if cfg.Engine.RateLimitRPS == 0 {
		cfg.Engine.RateLimitRPS = 10.0
	}

	// Ledger defaults
	if cfg.Ledger.CleanupInterval == 0 {
		cfg.Ledger.CleanupInterval = Duration(24 * time.Hour)
	}
	if cfg.Ledger.RetentionDays == 0 {
		cfg.Ledger.RetentionDays = 30
	}

	// General shutdown timeout
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.Hue.Bridge == "" {
		return fmt.Errorf("hue.bridge must be set")
	}
	if cfg.Hue.Token == "" {
		return fmt.Errorf("hue.token must be set")
	}
	if cfg.Presence.Enabled() && cfg.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker must be set when presence beacons are configured")
	}
	for i, b := range cfg.Presence.Beacons {
		if b.Owner == "" || b.UUID == "" || b.Major == "" || b.Minor == "" {
			return fmt.Errorf("presence.beacons[%d]: owner, uuid, major and minor are all required", i)
		}
	}
	return nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
