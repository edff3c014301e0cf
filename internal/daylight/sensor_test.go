package daylight

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeLookup returns canned times or an error, and counts calls.
type fakeLookup struct {
	times Times
	err   error
	calls int
}

func (f *fakeLookup) Daylight(_ context.Context, _, _ float64, _ time.Time) (Times, error) {
	f.calls++
	if f.err != nil {
		return Times{}, f.err
	}
	return f.times, nil
}

func dayTimes(sunriseHour, sunsetHour int) Times {
	day := time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC)
	return Times{
		Sunrise: day.Add(time.Duration(sunriseHour) * time.Hour),
		Sunset:  day.Add(time.Duration(sunsetHour) * time.Hour),
	}
}

func TestQueryMonotonicAroundDay(t *testing.T) {
	lookup := &fakeLookup{times: dayTimes(6, 19)}
	s := NewSensor(lookup, 51.5, -0.1, nil)
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	day := time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"midnight", day, false},
		{"before_sunrise", day.Add(5*time.Hour + 59*time.Minute), false},
		{"at_sunrise", day.Add(6 * time.Hour), false}, // strictly between
		{"morning", day.Add(7 * time.Hour), true},
		{"afternoon", day.Add(15 * time.Hour), true},
		{"at_sunset", day.Add(19 * time.Hour), false},
		{"evening", day.Add(20 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Query(tt.at); got != tt.want {
				t.Errorf("Query(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestQueryReanchorsToQueryDay(t *testing.T) {
	lookup := &fakeLookup{times: dayTimes(6, 19)}
	s := NewSensor(lookup, 51.5, -0.1, nil)
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	// Query a different calendar day: the stored times must be re-anchored.
	nextDayNoon := time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)
	if !s.Query(nextDayNoon) {
		t.Error("noon on a later day should still be daylight")
	}
	nextDayNight := time.Date(2026, time.August, 31, 22, 0, 0, 0, time.UTC)
	if s.Query(nextDayNight) {
		t.Error("late evening on a later day should not be daylight")
	}
}

func TestRefreshFailureKeepsStaleTimes(t *testing.T) {
	lookup := &fakeLookup{times: dayTimes(6, 19)}
	s := NewSensor(lookup, 51.5, -0.1, nil)
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	// Force the next refresh to be due, then make the lookup fail.
	s.mu.Lock()
	s.nextRefresh = time.Time{}
	s.mu.Unlock()
	lookup.err = errors.New("network down")

	noon := time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC)
	if !s.Query(noon) {
		t.Error("stale times should keep serving daylight judgements")
	}

	// The failure must schedule a retry, not leave refresh permanently due.
	s.mu.Lock()
	retryScheduled := !s.nextRefresh.IsZero()
	s.mu.Unlock()
	if !retryScheduled {
		t.Error("failed refresh should schedule a retry")
	}
}

func TestRefreshAtMostOncePerWindow(t *testing.T) {
	lookup := &fakeLookup{times: dayTimes(6, 19)}
	s := NewSensor(lookup, 51.5, -0.1, nil)
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	noon := time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		s.Query(noon)
		s.Sunrise()
		s.Sunset()
	}
	if lookup.calls != 1 {
		t.Errorf("lookup called %d times within the refresh window, want 1", lookup.calls)
	}
}

func TestInitFailsWithoutAnySource(t *testing.T) {
	lookup := &fakeLookup{err: errors.New("unreachable")}
	s := NewSensor(lookup, 51.5, -0.1, nil)
	if err := s.Init(context.Background()); err == nil {
		t.Fatal("Init should fail when the lookup fails and no cache exists")
	}
}
