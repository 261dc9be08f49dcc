// Package quiethours evaluates recipient-local quiet-hours windows.
// The calculation is pure: given an instant, a window and a timezone it
// reports whether the instant falls inside the window and, if so, the UTC
// instant at which the window ends. Callers that want to hold delivery use
// the boundary instant; nothing in this package delays anything itself.
package quiethours

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Window is a recipient-local quiet-hours window. Start and End are local
// wall-clock times in "HH:MM" form; Timezone is an IANA zone name.
// Overnight windows (Start > End, e.g. 22:00 -> 07:00) wrap at midnight.
type Window struct {
	Start    string
	End      string
	Timezone string
}

// Verdict is the outcome of evaluating a window at an instant.
type Verdict struct {
	InQuietHours bool
	// EndsAt is the UTC instant at which the current window ends.
	// Only meaningful when InQuietHours is true.
	EndsAt time.Time
}

// Evaluate reports whether the given UTC instant falls inside the window.
func Evaluate(w Window, at time.Time) (Verdict, error) {
	startMin, err := parseClock(w.Start)
	if err != nil {
		return Verdict{}, fmt.Errorf("parsing window start: %w", err)
	}
	endMin, err := parseClock(w.End)
	if err != nil {
		return Verdict{}, fmt.Errorf("parsing window end: %w", err)
	}
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return Verdict{}, fmt.Errorf("loading timezone %q: %w", w.Timezone, err)
	}

	local := at.In(loc)
	nowMin := local.Hour()*60 + local.Minute()

	var in bool
	if startMin <= endMin {
		// Same-day window, e.g. 08:00 -> 17:00.
		in = nowMin >= startMin && nowMin < endMin
	} else {
		// Overnight window, e.g. 22:00 -> 07:00.
		in = nowMin >= startMin || nowMin < endMin
	}
	if !in {
		return Verdict{}, nil
	}

	return Verdict{InQuietHours: true, EndsAt: windowEnd(local, nowMin, endMin)}, nil
}

// windowEnd computes the local wall-clock instant at which the active
// window ends and converts it to UTC. When the end clock has already passed
// today (the overnight case, entered before midnight) the end falls on the
// next day.
func windowEnd(local time.Time, nowMin, endMin int) time.Time {
	day := local
	if endMin <= nowMin {
		day = day.AddDate(0, 0, 1)
	}
	end := time.Date(day.Year(), day.Month(), day.Day(), endMin/60, endMin%60, 0, 0, local.Location())
	return end.UTC()
}

// parseClock converts "HH:MM" into minutes since local midnight.
func parseClock(s string) (int, error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%q is not a HH:MM clock value", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%q has an invalid hour", s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%q has an invalid minute", s)
	}
	return hour*60 + minute, nil
}
