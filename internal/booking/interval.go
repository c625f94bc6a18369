package booking

import (
	"strings"
	"time"
)

// Overlaps reports whether the half-open intervals [s1, e1) and [s2, e2)
// share any instant. Intervals that only touch at a boundary do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// Layouts accepted without an explicit offset are read in the reference location.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

const dateLayout = "2006-01-02"

// Clock holds the reference location for calendar-day rules and the time source.
type Clock struct {
	Location *time.Location
	Now      func() time.Time
}

func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Location: loc, Now: time.Now}
}

// ParseInstant parses an RFC 3339 timestamp, or a local date-time which is
// interpreted in the reference location.
func (c Clock) ParseInstant(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, ErrInvalidTime
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, v, c.Location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidTime
}

// ParseBound parses a filter bound. A bare date is widened to the start of
// that day for a lower bound, or to its last instant for an upper bound.
func (c Clock) ParseBound(v string, upper bool) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.ParseInLocation(dateLayout, v, c.Location); err == nil {
		if upper {
			return t.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
		}
		return t, nil
	}
	return c.ParseInstant(v)
}

// SameDay reports whether a and b fall on the same calendar day in the
// reference location.
func (c Clock) SameDay(a, b time.Time) bool {
	ay, am, ad := a.In(c.Location).Date()
	by, bm, bd := b.In(c.Location).Date()
	return ay == by && am == bm && ad == bd
}

// ParseWindow runs the full validity chain for a bookable window:
// parseable, end after start, same calendar day, not starting in the past.
func (c Clock) ParseWindow(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := c.ParseInstant(startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := c.ParseInstant(endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, ErrInvalidTimeRange
	}
	if !c.SameDay(start, end) {
		return time.Time{}, time.Time{}, ErrMultiDay
	}
	if start.Before(c.Now()) {
		return time.Time{}, time.Time{}, ErrStartTimePast
	}
	return start.UTC(), end.UTC(), nil
}
