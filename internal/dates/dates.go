package dates

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-module/carbon"
)

// ErrInvalidDate is returned when a user-supplied date expression cannot be
// parsed. Callers match it with errors.Is to abort before any network call.
var ErrInvalidDate = errors.New("invalid date expression")

// Window is the calendar date range events are queried over. Both bounds are
// date-granularity values at local midnight; End is inclusive in the
// "through end date" sense, so queries must extend it to the end of that day.
type Window struct {
	Start time.Time
	End   time.Time
}

// Resolve turns optional start/end expressions into a concrete Window.
//
// With no expressions the window is today through two weeks out. A lone start
// in the future opens a two-week window from that day; a lone start in the
// past (or today) runs through today. A lone end runs from today. When both
// are given they are used as-is: an inverted range is the caller's mistake
// and is passed through rather than swapped or rejected.
func Resolve(startExpr, endExpr string, today time.Time) (Window, error) {
	today = midnight(today)

	switch {
	case startExpr == "" && endExpr == "":
		return Window{Start: today, End: today.AddDate(0, 0, 14)}, nil

	case endExpr == "":
		start, err := ParseHuman(startExpr, today)
		if err != nil {
			return Window{}, err
		}
		if start.After(today) {
			return Window{Start: start, End: start.AddDate(0, 0, 14)}, nil
		}
		return Window{Start: start, End: today}, nil

	case startExpr == "":
		end, err := ParseHuman(endExpr, today)
		if err != nil {
			return Window{}, err
		}
		return Window{Start: today, End: end}, nil

	default:
		start, err := ParseHuman(startExpr, today)
		if err != nil {
			return Window{}, err
		}
		end, err := ParseHuman(endExpr, today)
		if err != nil {
			return Window{}, err
		}
		return Window{Start: start, End: end}, nil
	}
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseHuman parses a free-text date expression relative to today.
// It understands relative phrases like "2 weeks ago", "in 3 days",
// "yesterday", "next monday", and falls back to absolute formats such as
// "2024-01-15". The result is normalized to local midnight.
func ParseHuman(text string, today time.Time) (time.Time, error) {
	today = midnight(today)
	expr := strings.ToLower(strings.TrimSpace(text))

	switch expr {
	case "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}

	if rest, ok := strings.CutSuffix(expr, " ago"); ok {
		if d, ok := parseOffset(rest, today, -1); ok {
			return d, nil
		}
	}
	if rest, ok := strings.CutPrefix(expr, "in "); ok {
		if d, ok := parseOffset(rest, today, 1); ok {
			return d, nil
		}
	}
	if rest, ok := strings.CutPrefix(expr, "next "); ok {
		if wd, ok := weekdays[rest]; ok {
			return nextWeekday(today, wd), nil
		}
	}
	if rest, ok := strings.CutPrefix(expr, "last "); ok {
		if wd, ok := weekdays[rest]; ok {
			return lastWeekday(today, wd), nil
		}
	}

	// Month-name layouts; Go's name matching is case-folded, so the
	// lowercased expression parses fine.
	for _, layout := range []string{"Jan 2 2006", "Jan 2, 2006", "January 2 2006", "January 2, 2006", "2 Jan 2006"} {
		if d, err := time.ParseInLocation(layout, expr, today.Location()); err == nil {
			return midnight(d), nil
		}
	}

	if c := carbon.Parse(text); c.Error == nil && !c.IsZero() {
		return midnight(c.Carbon2Time()), nil
	}

	return time.Time{}, fmt.Errorf("could not parse date %q: %w", text, ErrInvalidDate)
}

// parseOffset handles the "<amount> <unit>" part of "N units ago" / "in N
// units" phrases. sign is -1 for the past and +1 for the future.
func parseOffset(expr string, today time.Time, sign int) (time.Time, bool) {
	fields := strings.Fields(expr)
	if len(fields) != 2 {
		return time.Time{}, false
	}
	amount, err := strconv.Atoi(fields[0])
	if err != nil {
		return time.Time{}, false
	}
	amount *= sign

	switch strings.TrimSuffix(fields[1], "s") {
	case "day":
		return today.AddDate(0, 0, amount), true
	case "week":
		return today.AddDate(0, 0, 7*amount), true
	case "month":
		return today.AddDate(0, amount, 0), true
	case "year":
		return today.AddDate(amount, 0, 0), true
	}
	return time.Time{}, false
}

// nextWeekday returns the first occurrence of wd strictly after today.
func nextWeekday(today time.Time, wd time.Weekday) time.Time {
	days := (int(wd) - int(today.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return today.AddDate(0, 0, days)
}

// lastWeekday returns the most recent occurrence of wd strictly before today.
func lastWeekday(today time.Time, wd time.Weekday) time.Time {
	days := (int(today.Weekday()) - int(wd) + 7) % 7
	if days == 0 {
		days = 7
	}
	return today.AddDate(0, 0, -days)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
