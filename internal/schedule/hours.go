package schedule

import (
	"time"

	"github.com/newit5s/tablebook/internal/domain"
)

// WithinWorkingHours reports whether [start, end] fits entirely inside one
// configured open sub-range on date. A window may not span the lunch gap or
// bridge two shifts.
//
// Missing settings pass permissively: "unconfigured" is not "unavailable".
func (c *Calculator) WithinWorkingHours(date time.Time, start, end time.Time, settings *domain.LocationSettings) bool {
	if settings == nil {
		return true
	}

	type span struct{ open, close string }
	var ranges []span

	if settings.WorkingHoursMode == domain.WorkingHoursAdvanced {
		ranges = []span{
			{settings.MorningShiftStart, settings.MorningShiftEnd},
			{settings.EveningShiftStart, settings.EveningShiftEnd},
		}
	} else if settings.LunchBreakEnabled {
		ranges = []span{
			{settings.OpeningTime, settings.LunchBreakStart},
			{settings.LunchBreakEnd, settings.ClosingTime},
		}
	} else {
		ranges = []span{{settings.OpeningTime, settings.ClosingTime}}
	}

	for _, r := range ranges {
		open, ok := c.TimeOn(date, r.open)
		if !ok {
			continue
		}
		close, ok := c.TimeOn(date, r.close)
		if !ok {
			continue
		}
		if !start.Before(open) && !end.After(close) {
			return true
		}
	}
	return false
}
