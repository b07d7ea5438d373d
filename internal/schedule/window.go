// Package schedule holds the pure time arithmetic behind availability
// resolution: effective occupied windows, working-hours checks and slot
// generation. Everything is computed in the location's time zone, resolved
// once at Calculator construction.
package schedule

import (
	"time"
)

// Buffers applied around a booking's planned times. Guests arrive early and
// tables need turnover cleaning, so a reservation occupies more wall-clock
// time than its nominal duration.
const (
	EarlyArrivalBuffer = 15 * time.Minute
	PostCheckoutBuffer = 15 * time.Minute
	CleanupBuffer      = 60 * time.Minute
)

// Window is the effective occupied span of one booking on a concrete date.
// Zero fields mean "could not be determined"; the resolver treats an
// unusable window as conflicting rather than free.
type Window struct {
	Checkin        time.Time
	Checkout       time.Time
	ActualCheckin  time.Time
	ActualCheckout time.Time
}

// Usable reports whether the window can drive an overlap decision.
func (w Window) Usable() bool {
	return !w.ActualCheckin.IsZero() && !w.ActualCheckout.IsZero()
}

// Overlaps applies the half-open interval test: touching endpoints do not
// conflict. Both windows must be usable.
func (w Window) Overlaps(o Window) bool {
	return w.ActualCheckin.Before(o.ActualCheckout) && w.ActualCheckout.After(o.ActualCheckin)
}

type Calculator struct {
	loc *time.Location
}

func NewCalculator(loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return &Calculator{loc: loc}
}

func (c *Calculator) Location() *time.Location { return c.loc }

// NormalizeTime parses a time-of-day string in HH:MM:SS or HH:MM form and
// returns it normalized to HH:MM:SS. Invalid input yields ok=false, never
// an error: callers decide whether missing means "default" or "conflict".
func (c *Calculator) NormalizeTime(s string) (string, bool) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05"), true
		}
	}
	return "", false
}

// TimeOn anchors a time-of-day string to the given calendar date in the
// calculator's zone.
func (c *Calculator) TimeOn(date time.Time, timeOfDay string) (time.Time, bool) {
	normalized, ok := c.NormalizeTime(timeOfDay)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse("15:04:05", normalized)
	if err != nil {
		return time.Time{}, false
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, c.loc), true
}

// Window derives the effective occupied window for a booking on date.
//
// The actual check-in defaults to the planned check-in minus the early
// arrival buffer. The actual checkout is the recorded cleanup completion
// when present; otherwise the recorded actual checkout (or planned
// checkout) is extended by the post-checkout plus cleanup buffers, unless
// the recorded value already accounts for the full buffer.
func (c *Calculator) Window(date time.Time, checkinTime, checkoutTime string, actualCheckin, actualCheckout, cleanupCompletedAt *time.Time) Window {
	var w Window

	if t, ok := c.TimeOn(date, checkinTime); ok {
		w.Checkin = t
	}
	if t, ok := c.TimeOn(date, checkoutTime); ok {
		w.Checkout = t
	}

	switch {
	case actualCheckin != nil:
		w.ActualCheckin = *actualCheckin
	case !w.Checkin.IsZero():
		w.ActualCheckin = w.Checkin.Add(-EarlyArrivalBuffer)
	}

	if cleanupCompletedAt != nil {
		// Cleanup completion is the authoritative end of occupancy.
		w.ActualCheckout = *cleanupCompletedAt
		return w
	}

	var base time.Time
	if actualCheckout != nil {
		base = *actualCheckout
	} else if !w.Checkout.IsZero() {
		base = w.Checkout
	}
	if base.IsZero() {
		return w
	}

	expected := PostCheckoutBuffer + CleanupBuffer
	if !w.Checkout.IsZero() && base.Sub(w.Checkout) >= expected {
		w.ActualCheckout = base
	} else {
		w.ActualCheckout = base.Add(expected)
	}
	return w
}
