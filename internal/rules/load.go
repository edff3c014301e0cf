package rules

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// record is the on-disk shape of one rule.
type record struct {
	Trigger    string   `yaml:"trigger"`
	Time       string   `yaml:"time"`
	Offset     int      `yaml:"offset"` // minutes, daylight rules only
	Days       string   `yaml:"days"`   // 7 chars of '0'/'1', Monday-first
	Action     string   `yaml:"action"`
	Lights     []string `yaml:"lights"`
	Scene      string   `yaml:"scene"`
	Transition string   `yaml:"transition"`
}

// Load reads and compiles a rule file. Any malformed record is a fatal
// configuration error.
func Load(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	rules, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// Parse compiles YAML rule records, preserving declaration order.
func Parse(data []byte) ([]Rule, error) {
	var records []record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("invalid rules yaml: %w", err)
	}

	rules := make([]Rule, 0, len(records))
	for i, rec := range records {
		rule, err := compile(rec)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func compile(rec record) (Rule, error) {
	var r Rule

	switch rec.Time {
	case string(EdgeSunrise), string(EdgeSunset):
		if rec.Trigger != "" && rec.Trigger != string(TriggerDaylight) {
			return r, fmt.Errorf("time %q requires a daylight trigger, got %q", rec.Time, rec.Trigger)
		}
		r.Trigger = TriggerDaylight
		r.Edge = Edge(rec.Time)
		r.Offset = time.Duration(rec.Offset) * time.Minute
	default:
		if rec.Trigger != "" && rec.Trigger != string(TriggerTimer) {
			return r, fmt.Errorf("trigger %q requires time %q or %q", rec.Trigger, EdgeSunrise, EdgeSunset)
		}
		tod, err := time.Parse("15:04", rec.Time)
		if err != nil {
			return r, fmt.Errorf("invalid time %q (want HH:MM, sunrise or sunset)", rec.Time)
		}
		if rec.Offset != 0 {
			return r, fmt.Errorf("offset is only valid on daylight rules")
		}
		r.Trigger = TriggerTimer
		r.Hour = tod.Hour()
		r.Minute = tod.Minute()
	}

	days, err := parseDays(rec.Days)
	if err != nil {
		return r, err
	}
	r.Days = days

	switch Action(rec.Action) {
	case ActionOn, ActionOff:
		r.Action = Action(rec.Action)
	case ActionScene:
		if rec.Scene == "" {
			return r, fmt.Errorf("scene action requires a scene name")
		}
		r.Action = ActionScene
	default:
		return r, fmt.Errorf("unknown action %q", rec.Action)
	}

	r.Lights = rec.Lights
	r.Scene = rec.Scene

	if rec.Transition != "" {
		d, err := time.ParseDuration(rec.Transition)
		if err != nil {
			return r, fmt.Errorf("invalid transition %q: %w", rec.Transition, err)
		}
		if d < 0 {
			return r, fmt.Errorf("transition must not be negative")
		}
		r.Transition = d
	}

	return r, nil
}

// parseDays compiles the Monday-first weekday mask. An empty mask enables
// every day.
func parseDays(mask string) ([7]bool, error) {
	var days [7]bool
	if mask == "" {
		for i := range days {
			days[i] = true
		}
		return days, nil
	}
	if len(mask) != 7 {
		return days, fmt.Errorf("days mask %q must be 7 characters", mask)
	}
	for i, c := range mask {
		switch c {
		case '1':
			days[i] = true
		case '0':
			days[i] = false
		default:
			return days, fmt.Errorf("days mask %q may only contain '0' and '1'", mask)
		}
	}
	return days, nil
}
