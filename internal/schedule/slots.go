package schedule

import "time"

// Slots generates HH:MM labels from opening to closing inclusive at the
// given interval. Unparseable bounds yield no slots.
func (c *Calculator) Slots(opening, closing string, intervalMinutes int) []string {
	if intervalMinutes <= 0 {
		intervalMinutes = 30
	}

	ref := time.Date(2000, time.January, 1, 0, 0, 0, 0, c.loc)
	start, ok := c.TimeOn(ref, opening)
	if !ok {
		return nil
	}
	end, ok := c.TimeOn(ref, closing)
	if !ok {
		return nil
	}

	var slots []string
	for t := start; !t.After(end); t = t.Add(time.Duration(intervalMinutes) * time.Minute) {
		slots = append(slots, t.Format("15:04"))
	}
	return slots
}
