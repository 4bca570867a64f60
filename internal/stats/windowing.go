package stats

import (
	"fmt"
	"math"
	"time"
)

// TimestampLayout is the format of Created keys and registration bucket labels.
const TimestampLayout = "2006-01-02T15:04:05.000-0700"

var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02T15:04:05-0700",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// RegistrationWindow bounds the registrations chart and sets its aggregation interval.
type RegistrationWindow struct {
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Interval time.Duration `json:"interval"`
}

// Contains reports whether t lies within [Start, End].
func (w RegistrationWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Validate checks the window bounds and the interval.
func (w RegistrationWindow) Validate() error {
	if w.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", w.Interval)
	}
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("start and end are required")
	}
	if w.End.Before(w.Start) {
		return fmt.Errorf("end %s is before start %s", w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339))
	}
	return nil
}

// AlignToInterval floors t to the largest multiple of interval, counted from the
// Unix epoch, that does not exceed t. The result keeps t's location.
func AlignToInterval(t time.Time, interval time.Duration) time.Time {
	if interval <= 0 {
		return t
	}
	n := t.UnixNano()
	step := int64(interval)
	rem := n % step
	if rem < 0 {
		rem += step
	}
	return time.Unix(0, n-rem).In(t.Location())
}

// ShouldRefresh decides whether the registrations chart is recomputed: always while
// registration is open, and otherwise only when no earlier artifact exists.
func ShouldRefresh(now time.Time, w RegistrationWindow, priorOutputExists bool) bool {
	return w.Contains(now) || !priorOutputExists
}

// IntervalLabel renders an interval as whole minutes, e.g. "60 Minutes".
func IntervalLabel(interval time.Duration) string {
	return fmt.Sprintf("%d Minutes", int64(math.Round(interval.Minutes())))
}

// ParseTimestamp parses a Created key in any of the accepted layouts.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
