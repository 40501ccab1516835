package timeutils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrNoEligibleWindow means no day inside the search horizon satisfies the
// weekday/day-of-month constraints. This is a configuration defect the
// evaluator surfaces but does not try to fix.
var ErrNoEligibleWindow = errors.New("no eligible window within horizon")

// HorizonDays bounds the NextEligible roll-forward search.
const HorizonDays = 35

// Window is a program's time-of-day and day constraints, evaluated in a
// fixed local timezone.
type Window struct {
	StartTime       string // HH:MM, inclusive
	EndTime         string // HH:MM, exclusive, strictly after StartTime
	Weekdays        []int  // 0=Sunday .. 6=Saturday
	MonthDays       []int  // 1..31, optional
	IntervalMinutes int
	LastSendAt      *time.Time
	Location        *time.Location
}

// ParseClock parses "HH:MM" into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time format %q, expected HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

func (w Window) location() *time.Location {
	if w.Location != nil {
		return w.Location
	}
	return time.Local
}

// dayAllowed applies the day constraints. When both a weekday set and a
// day-of-month set are configured they combine with OR: a day passes if
// either set matches.
func (w Window) dayAllowed(t time.Time) bool {
	if len(w.MonthDays) > 0 {
		for _, d := range w.MonthDays {
			if d == t.Day() {
				return true
			}
		}
	}
	if len(w.Weekdays) > 0 {
		wd := int(t.Weekday())
		for _, d := range w.Weekdays {
			if d == wd {
				return true
			}
		}
	}
	return false
}

// withinClock reports whether t's local time-of-day falls in [start, end).
func (w Window) withinClock(t time.Time) (bool, error) {
	sh, sm, err := ParseClock(w.StartTime)
	if err != nil {
		return false, err
	}
	eh, em, err := ParseClock(w.EndTime)
	if err != nil {
		return false, err
	}
	cur := t.Hour()*60 + t.Minute()
	return cur >= sh*60+sm && cur < eh*60+em, nil
}

// IsEligible reports whether now falls inside the window and on an allowed day.
func (w Window) IsEligible(now time.Time) bool {
	now = now.In(w.location())
	if !w.dayAllowed(now) {
		return false
	}
	ok, err := w.withinClock(now)
	if err != nil {
		return false
	}
	return ok
}

// NextEligible returns the first instant strictly after `after` that falls
// inside the window, on an allowed day, and at least IntervalMinutes past
// LastSendAt. It rolls forward minute-by-minute inside a day and day-by-day
// outside it, up to HorizonDays; past that it fails with ErrNoEligibleWindow.
func (w Window) NextEligible(after time.Time) (time.Time, error) {
	loc := w.location()
	after = after.In(loc)

	sh, sm, err := ParseClock(w.StartTime)
	if err != nil {
		return time.Time{}, err
	}

	candidate := after.Truncate(time.Minute).Add(time.Minute)
	if w.LastSendAt != nil {
		earliest := w.LastSendAt.Add(time.Duration(w.IntervalMinutes) * time.Minute).In(loc)
		if candidate.Before(earliest) {
			candidate = earliest.Truncate(time.Minute)
			if candidate.Before(earliest) {
				candidate = candidate.Add(time.Minute)
			}
		}
	}

	horizon := after.AddDate(0, 0, HorizonDays)
	for candidate.Before(horizon) {
		if !w.dayAllowed(candidate) {
			candidate = startOfDay(candidate.AddDate(0, 0, 1), sh, sm)
			continue
		}
		ok, err := w.withinClock(candidate)
		if err != nil {
			return time.Time{}, err
		}
		if ok {
			return candidate, nil
		}
		dayStart := startOfDay(candidate, sh, sm)
		if candidate.Before(dayStart) {
			candidate = dayStart
			continue
		}
		// past today's window, try the next day
		candidate = startOfDay(candidate.AddDate(0, 0, 1), sh, sm)
	}

	return time.Time{}, ErrNoEligibleWindow
}

func startOfDay(t time.Time, hour, minute int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, t.Location())
}
