// Package eventtime converts between canonical stored instants and the naive
// wall-clock values the calendar widget works with.
//
// Every conversion is done against one explicitly configured location; the
// host's local zone is never consulted.
package eventtime

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"taskcal/internal/apperr"
)

// naive layouts accepted from the widget, tried in order.
var widgetLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Normalizer is stateless apart from its location and safe for concurrent use.
type Normalizer struct {
	loc *time.Location
}

func New(loc *time.Location) *Normalizer {
	if loc == nil {
		panic("eventtime: nil location")
	}
	return &Normalizer{loc: loc}
}

func (n *Normalizer) Location() *time.Location { return n.loc }

// ToCanonical combines a civil date and two civil times into start/end instants
// in the configured zone. End must be strictly after start on the same date.
func (n *Normalizer) ToCanonical(date civil.Date, startTime, endTime civil.Time) (time.Time, time.Time, error) {
	if !date.IsValid() {
		return time.Time{}, time.Time{}, apperr.Validation("invalid date %q", date.String())
	}
	if !startTime.IsValid() || !endTime.IsValid() {
		return time.Time{}, time.Time{}, apperr.Validation("invalid start or end time")
	}
	start := civil.DateTime{Date: date, Time: startTime}.In(n.loc)
	end := civil.DateTime{Date: date, Time: endTime}.In(n.loc)
	if !end.After(start) {
		return time.Time{}, time.Time{}, apperr.Validation("end time must be after start time")
	}
	return start, end, nil
}

// ToDisplay converts an instant to the configured zone and drops the offset.
func (n *Normalizer) ToDisplay(t time.Time) civil.DateTime {
	return civil.DateTimeOf(t.In(n.loc))
}

// Canonical re-attaches t to the configured zone without changing the instant.
func (n *Normalizer) Canonical(t time.Time) time.Time {
	return t.In(n.loc)
}

// DateOf is the civil date of t in the configured zone.
func (n *Normalizer) DateOf(t time.Time) civil.Date {
	return civil.DateOf(t.In(n.loc))
}

// Today is the civil date of now in the configured zone.
func (n *Normalizer) Today(now time.Time) civil.Date {
	return n.DateOf(now)
}

// FromWidgetEdit parses a timestamp coming back from a drag/resize.
//
// The widget is fed naive local values but may serialize them with a zero
// offset ("Z", "+00:00", "+0000"). Those markers, and a missing offset, are
// read as wall-clock time in the configured zone. Any other explicit offset is a real instant and
// is kept as is.
func (n *Normalizer) FromWidgetEdit(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, apperr.Format("empty timestamp")
	}

	naive, hasOffset := stripUTCMarker(s)
	if hasOffset {
		iso := strings.Replace(naive, " ", "T", 1)
		for _, layout := range offsetLayouts {
			if t, err := time.Parse(layout, iso); err == nil {
				return t.In(n.loc), nil
			}
		}
		return time.Time{}, apperr.Format("unparseable timestamp %q", raw)
	}

	for _, layout := range widgetLayouts {
		if t, err := time.ParseInLocation(layout, naive, n.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Format("unparseable timestamp %q", raw)
}

// offsetLayouts parse timestamps carrying a non-UTC offset as ±hh:mm, ±hhmm or ±hh.
var offsetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02T15:04Z07",
}

// utcMarkers are the zero-offset suffixes read as wall-clock time, longest first.
var utcMarkers = []string{"+00:00", "-00:00", "+0000", "-0000", "+00", "-00", "Z", "z"}

// stripUTCMarker removes a trailing zero-offset marker and reports whether a
// different explicit offset remains.
func stripUTCMarker(s string) (string, bool) {
	// offsets only follow a time component
	if len(s) <= 13 {
		return s, false
	}
	for _, m := range utcMarkers {
		if strings.HasSuffix(s, m) {
			return s[:len(s)-len(m)], false
		}
	}
	clock := s[11:]
	if i := strings.LastIndexAny(clock, "+-"); i >= 0 {
		off := clock[i+1:]
		switch {
		case len(off) == 5 && off[2] == ':', len(off) == 4, len(off) == 2:
			return s, true
		}
	}
	return s, false
}
