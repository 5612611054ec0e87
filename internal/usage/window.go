package usage

import (
	"time"
)

const dateLayout = "2006-01-02"

// Window is an inclusive calendar date range. Start and End are midnights in
// the local timezone.
type Window struct {
	Start time.Time
	End   time.Time
}

// ResolveWindow applies the default window rules and validates the result.
// An empty start defaults to the first day of the current month; an empty end
// defaults to today. Malformed dates, start after end, and future end dates
// all fail with ErrInvalidWindow before any query is issued.
func ResolveWindow(startArg, endArg string, now time.Time) (Window, error) {
	today := midnight(now)

	start := today.AddDate(0, 0, 1-today.Day())
	if startArg != "" {
		parsed, err := time.ParseInLocation(dateLayout, startArg, now.Location())
		if err != nil {
			return Window{}, invalidWindowf("start date %q is not a valid YYYY-MM-DD date", startArg)
		}
		start = parsed
	}

	end := today
	if endArg != "" {
		parsed, err := time.ParseInLocation(dateLayout, endArg, now.Location())
		if err != nil {
			return Window{}, invalidWindowf("end date %q is not a valid YYYY-MM-DD date", endArg)
		}
		end = parsed
	}

	if start.After(end) {
		return Window{}, invalidWindowf("start date %s is after end date %s",
			start.Format(dateLayout), end.Format(dateLayout))
	}
	if end.After(today) {
		return Window{}, invalidWindowf("end date %s is in the future", end.Format(dateLayout))
	}

	return Window{Start: start, End: end}, nil
}

// EndInstant is the last second of the window's final day, the upper clamp
// bound for overlap computation.
func (w Window) EndInstant() time.Time {
	return w.End.AddDate(0, 0, 1).Add(-time.Second)
}

// QueryEnd extends the window end by the accounting buffer so records the
// scheduler commits late are still fetched. The report window itself is not
// widened; overlap clamping still uses EndInstant.
func (w Window) QueryEnd(buffer time.Duration) time.Time {
	if buffer < 0 {
		buffer = 0
	}
	return w.End.AddDate(0, 0, 1).Add(buffer)
}

// IsCurrent reports whether the window ends today, which means accounting
// data near the end of the window may still be arriving.
func (w Window) IsCurrent(now time.Time) bool {
	return w.End.Equal(midnight(now))
}

func (w Window) String() string {
	return w.Start.Format(dateLayout) + " to " + w.End.Format(dateLayout)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
