// Package localtime converts nominal wall-clock rule times to UTC for a
// location with a single fixed daylight-saving rule.
//
// The window follows the UK convention: summer time begins at 01:00 UTC on
// the last Sunday of March and ends at 01:00 UTC on the last Sunday of
// October. Both boundaries are derived from their own month.
package localtime

import "time"

// Zone models the fixed DST rule. The zero value is ready to use.
type Zone struct{}

// summerOffset is the offset added to UTC during the DST window.
const summerOffset = time.Hour

// Offset returns the local-time offset east of UTC at the given instant.
// It is summerOffset inside the DST window and zero outside. Pure, no I/O.
func (Zone) Offset(at time.Time) time.Duration {
	at = at.UTC()
	start := dstStart(at.Year())
	end := dstEnd(at.Year())

	if !at.Before(start) && at.Before(end) {
		return summerOffset
	}
	return 0
}

// ToUTC converts a nominal local time (a wall-clock reading carrying no real
// zone, expressed as a UTC-flagged time.Time) to the actual UTC instant.
func (z Zone) ToUTC(nominal time.Time) time.Time {
	return nominal.Add(-z.Offset(nominal))
}

// Local shifts a UTC instant to the nominal local reading, for calendar
// decisions such as weekday masks.
func (z Zone) Local(at time.Time) time.Time {
	return at.Add(z.Offset(at))
}

// DSTStart returns the instant summer time begins in the given year.
func (Zone) DSTStart(year int) time.Time { return dstStart(year) }

// DSTEnd returns the instant summer time ends in the given year.
func (Zone) DSTEnd(year int) time.Time { return dstEnd(year) }

func dstStart(year int) time.Time {
	return time.Date(year, time.March, lastSunday(year, time.March), 1, 0, 0, 0, time.UTC)
}

func dstEnd(year int) time.Time {
	return time.Date(year, time.October, lastSunday(year, time.October), 1, 0, 0, 0, time.UTC)
}

// lastSunday returns the day-of-month of the last Sunday in the month.
func lastSunday(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	return last.Day() - int(last.Weekday())
}
