package timeutil

import (
	"fmt"
	"time"
)

// Mode selects the calendar granularity.
type Mode string

const (
	// ModeWeek shows a single Sunday-to-Saturday week.
	ModeWeek Mode = "week"
	// ModeMonth shows a full month padded to whole weeks.
	ModeMonth Mode = "month"
)

// ParseMode converts a user-supplied string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeWeek, ModeMonth:
		return Mode(s), nil
	case "":
		return ModeWeek, nil
	}
	return "", fmt.Errorf("unknown calendar mode %q (want week or month)", s)
}

// DayKeyLayout is the canonical local-calendar-date key format used to
// group items by day.
const DayKeyLayout = "2006-01-02"

// DefaultHour is the local hour assigned when an item is dropped on a day
// without an existing time-of-day.
const DefaultHour = 9

// Window is a half-open-by-day calendar range: Start and End are both
// local midnights and the window covers every day from Start through End
// inclusive. Anchor is the reference the window was computed from, the
// week's Sunday in week mode, the first of the month in month mode.
type Window struct {
	Start  time.Time
	End    time.Time
	Anchor time.Time
	Mode   Mode
}

// ComputeWindow maps a reference date and mode to a calendar window. All
// derivation uses the reference's location: the calendar is a local-time
// tool, and keying off UTC would misplace items near midnight.
func ComputeWindow(ref time.Time, mode Mode) Window {
	day := Midnight(ref)
	switch mode {
	case ModeMonth:
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		last := first.AddDate(0, 1, -1)
		start := first.AddDate(0, 0, -int(first.Weekday()))
		end := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))
		return Window{Start: start, End: end, Anchor: first, Mode: ModeMonth}
	default:
		start := day.AddDate(0, 0, -int(day.Weekday()))
		return Window{Start: start, End: start.AddDate(0, 0, 6), Anchor: start, Mode: ModeWeek}
	}
}

// Next returns the following window: one week forward in week mode, one
// calendar month forward (landing on the 1st) in month mode.
func (w Window) Next() Window {
	return w.shift(1)
}

// Prev returns the preceding window.
func (w Window) Prev() Window {
	return w.shift(-1)
}

func (w Window) shift(dir int) Window {
	switch w.Mode {
	case ModeMonth:
		return ComputeWindow(w.Anchor.AddDate(0, dir, 0), ModeMonth)
	default:
		return ComputeWindow(w.Anchor.AddDate(0, 0, 7*dir), ModeWeek)
	}
}

// Today recomputes the window around the present moment, keeping the mode.
func (w Window) Today(now time.Time) Window {
	return ComputeWindow(now, w.Mode)
}

// Days enumerates every day in the window as local midnights.
func (w Window) Days() []time.Time {
	var days []time.Time
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Rows returns the number of week rows the window spans.
func (w Window) Rows() int {
	return len(w.Days()) / 7
}

// Contains reports whether t's local calendar day falls inside the window.
func (w Window) Contains(t time.Time) bool {
	day := Midnight(t.In(w.Start.Location()))
	return !day.Before(w.Start) && !day.After(w.End)
}

// Key identifies the window for caching, e.g. "2024-06-02_2024-06-08".
func (w Window) Key() string {
	return w.Start.Format(DayKeyLayout) + "_" + w.End.Format(DayKeyLayout)
}

// Title renders a human label for the window header.
func (w Window) Title() string {
	if w.Mode == ModeMonth {
		return w.Anchor.Format("January 2006")
	}
	return fmt.Sprintf("%s – %s", w.Start.Format("Jan 2"), w.End.Format("Jan 2, 2006"))
}

// Midnight truncates t to the start of its local calendar day. time.Date
// renormalizes, so this stays correct across DST transitions.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DateKey derives the canonical day key for a timestamp, in loc.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayKeyLayout)
}

// ParseDateKey converts a day key back into that day's local midnight.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DayKeyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad day key %q: %w", key, err)
	}
	return t, nil
}

// CombineDayTime derives the timestamp for an item landing on day: the
// existing time-of-day is preserved when prev is non-nil, otherwise the
// default hour applies. The result is expressed in day's location.
func CombineDayTime(day time.Time, prev *time.Time) time.Time {
	loc := day.Location()
	if prev == nil {
		return time.Date(day.Year(), day.Month(), day.Day(), DefaultHour, 0, 0, 0, loc)
	}
	at := prev.In(loc)
	return time.Date(day.Year(), day.Month(), day.Day(),
		at.Hour(), at.Minute(), at.Second(), 0, loc)
}
