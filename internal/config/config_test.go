package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalConfig = `
hue:
  bridge: 192.168.1.10
  token: secret
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Log.Level)
	}
	if cfg.Presence.ScanTimeout.Duration() != 5*time.Minute {
		t.Errorf("scan_timeout = %v, want 5m", cfg.Presence.ScanTimeout.Duration())
	}
	if cfg.Presence.SweepInterval.Duration() != time.Second {
		t.Errorf("sweep_interval = %v, want 1s", cfg.Presence.SweepInterval.Duration())
	}
	if cfg.Engine.TickInterval.Duration() != 2*time.Second {
		t.Errorf("tick_interval = %v, want 2s", cfg.Engine.TickInterval.Duration())
	}
	if cfg.Engine.RateLimitRPS != 10.0 {
		t.Errorf("rate_limit_rps = %v, want 10", cfg.Engine.RateLimitRPS)
	}
	if cfg.Presence.Enabled() {
		t.Error("presence should be disabled without beacons")
	}
}

func TestLoadParsesFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
hue:
  bridge: hue.local
  token: tok
geo:
  lat: 51.5
  lon: -0.1
mqtt:
  broker: tcp://mqtt.local:1883
  topic: home/beacons
presence:
  scan_timeout: 3m
  beacons:
    - owner: alex
      uuid: 11111111-2222-3333-4444-555555555555
      major: "1"
      minor: "7"
  welcome_lights: [hall]
engine:
  tick_interval: 5s
  rules: /etc/lampd/rules.yaml
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !cfg.Presence.Enabled() {
		t.Fatal("presence should be enabled")
	}
	if cfg.Presence.ScanTimeout.Duration() != 3*time.Minute {
		t.Errorf("scan_timeout = %v, want 3m", cfg.Presence.ScanTimeout.Duration())
	}
	if cfg.Presence.Beacons[0].Owner != "alex" || cfg.Presence.Beacons[0].Minor != "7" {
		t.Errorf("unexpected beacon %+v", cfg.Presence.Beacons[0])
	}
	if cfg.Engine.Rules != "/etc/lampd/rules.yaml" {
		t.Errorf("rules path = %q", cfg.Engine.Rules)
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("LAMPD_TOKEN", "from-env")
	cfg, err := Load(writeConfig(t, `
hue:
  bridge: ${LAMPD_BRIDGE:fallback.local}
  token: ${LAMPD_TOKEN}
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Hue.Token != "from-env" {
		t.Errorf("token = %q, want from-env", cfg.Hue.Token)
	}
	if cfg.Hue.Bridge != "fallback.local" {
		t.Errorf("bridge = %q, want fallback.local", cfg.Hue.Bridge)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing bridge", "hue:\n  token: t\n"},
		{"missing token", "hue:\n  bridge: b\n"},
		{
			"beacons without broker",
			minimalConfig + `
presence:
  beacons:
    - owner: a
      uuid: u
      major: "1"
      minor: "1"
`,
		},
		{
			"incomplete beacon",
			minimalConfig + `
mqtt:
  broker: tcp://x:1883
presence:
  beacons:
    - owner: a
      uuid: u
`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.body)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
