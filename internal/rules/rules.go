// Package rules defines the declarative rule records that drive the engine.
// Rules are loaded once at startup and are immutable afterwards; the engine
// only ever recomputes each rule's day-anchored occurrence, never its
// declared intent.
package rules

import (
	"time"
)

// Trigger selects how a rule's occurrence is anchored.
type Trigger string

const (
	// TriggerTimer fires at a fixed local time of day.
	TriggerTimer Trigger = "timer"
	// TriggerDaylight fires at sunrise or sunset plus an offset.
	TriggerDaylight Trigger = "daylight"
)

// Edge is the daylight transition a daylight rule anchors to.
type Edge string

const (
	EdgeSunrise Edge = "sunrise"
	EdgeSunset  Edge = "sunset"
)

// Action is what a firing rule does to its targets.
type Action string

const (
	ActionOn    Action = "on"
	ActionOff   Action = "off"
	ActionScene Action = "scene"
)

// Rule is a compiled, immutable rule record.
type Rule struct {
	Trigger Trigger

	// Timer rules: nominal local time of day.
	Hour   int
	Minute int

	// Daylight rules: edge plus signed offset.
	Edge   Edge
	Offset time.Duration

	// Days is the weekday enable mask, Monday-first (index 0 = Monday).
	Days [7]bool

	Action     Action
	Lights     []string // empty means "all lights"
	Scene      string
	Transition time.Duration
}

// EnabledOn reports whether the rule applies on the given weekday. The
// mask is stored Monday-first; time.Weekday counts from Sunday.
func (r *Rule) EnabledOn(wd time.Weekday) bool {
	return r.Days[(int(wd)+6)%7]
}
