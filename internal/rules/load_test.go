package rules

import (
	"strings"
	"testing"
	"time"
)

func TestParseRuleFile(t *testing.T) {
	data := `
- trigger: timer
  time: "18:00"
  action: "on"
  lights: [Hall 1, Hall 2]
  transition: 4s
- trigger: daylight
  time: sunset
  offset: -30
  action: "off"
  days: "1111100"
- time: "07:15"
  action: scene
  scene: morning
`
	rules, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("got %d rules, want 3", len(rules))
	}

	r := rules[0]
	if r.Trigger != TriggerTimer || r.Hour != 18 || r.Minute != 0 {
		t.Errorf("rule 0 = %+v, want 18:00 timer", r)
	}
	if r.Action != ActionOn || len(r.Lights) != 2 {
		t.Errorf("rule 0 action/lights = %v/%v", r.Action, r.Lights)
	}
	if r.Transition != 4*time.Second {
		t.Errorf("rule 0 transition = %v", r.Transition)
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if !r.EnabledOn(d) {
			t.Errorf("rule 0 should default to all days, disabled on %v", d)
		}
	}

	r = rules[1]
	if r.Trigger != TriggerDaylight || r.Edge != EdgeSunset {
		t.Errorf("rule 1 = %+v, want sunset daylight", r)
	}
	if r.Offset != -30*time.Minute {
		t.Errorf("rule 1 offset = %v, want -30m", r.Offset)
	}

	r = rules[2]
	if r.Trigger != TriggerTimer {
		t.Errorf("rule 2 trigger = %v, want inferred timer", r.Trigger)
	}
	if r.Action != ActionScene || r.Scene != "morning" {
		t.Errorf("rule 2 = %+v, want morning scene", r)
	}
}

func TestWeekdayMaskMondayFirst(t *testing.T) {
	// Mask enables Monday only.
	rules, err := Parse([]byte("- {time: \"10:00\", action: \"on\", days: \"1000000\"}\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r := rules[0]
	if !r.EnabledOn(time.Monday) {
		t.Error("mask 1000000 should enable Monday")
	}
	for _, d := range []time.Weekday{time.Sunday, time.Tuesday, time.Saturday} {
		if r.EnabledOn(d) {
			t.Errorf("mask 1000000 should not enable %v", d)
		}
	}

	// Mask enables Sunday only (last position).
	rules, err = Parse([]byte("- {time: \"10:00\", action: \"on\", days: \"0000001\"}\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !rules[0].EnabledOn(time.Sunday) {
		t.Error("mask 0000001 should enable Sunday")
	}
	if rules[0].EnabledOn(time.Monday) {
		t.Error("mask 0000001 should not enable Monday")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"malformed_time", `- {time: "25:99", action: "on"}`, "invalid time"},
		{"garbage_time", `- {time: noon-ish, action: "on"}`, "invalid time"},
		{"offset_on_timer", `- {time: "18:00", offset: 10, action: "on"}`, "only valid on daylight"},
		{"daylight_with_clock_time", `- {trigger: daylight, time: "18:00", action: "on"}`, "sunrise"},
		{"bad_days_length", `- {time: "18:00", action: "on", days: "101"}`, "7 characters"},
		{"bad_days_chars", `- {time: "18:00", action: "on", days: "12visit"}`, "'0' and '1'"},
		{"unknown_action", `- {time: "18:00", action: dim}`, "unknown action"},
		{"scene_without_name", `- {time: "18:00", action: scene}`, "scene name"},
		{"bad_transition", `- {time: "18:00", action: "on", transition: soon}`, "invalid transition"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
