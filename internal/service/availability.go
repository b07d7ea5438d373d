package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/newit5s/tablebook/internal/domain"
	"github.com/newit5s/tablebook/internal/repository"
	"github.com/newit5s/tablebook/internal/schedule"
	"github.com/newit5s/tablebook/pkg/metrics"
)

// SlotRequest is the single explicit parameter structure for availability
// checks: date, location, proposed times and party size, plus an optional
// booking to exclude so edit/re-confirmation flows do not conflict with
// themselves.
type SlotRequest struct {
	LocationID       int64
	Date             time.Time
	CheckinTime      string
	CheckoutTime     string
	GuestCount       int
	ExcludeBookingID int64
}

// Availability resolves which tables are free for a proposed window by
// comparing effective occupied windows of all conflicting bookings.
type Availability struct {
	bookings  repository.BookingRepository
	tables    repository.TableRepository
	locations repository.LocationRepository
	calc      *schedule.Calculator
}

func NewAvailability(
	bookings repository.BookingRepository,
	tables repository.TableRepository,
	locations repository.LocationRepository,
	calc *schedule.Calculator,
) *Availability {
	return &Availability{
		bookings:  bookings,
		tables:    tables,
		locations: locations,
		calc:      calc,
	}
}

// resolveWindow normalizes the proposed times (applying the default
// two-hour checkout) and derives the proposed effective window. ok=false
// means the window is indeterminate and must be treated as conflicting.
func (a *Availability) resolveWindow(req SlotRequest) (checkin, checkout string, w schedule.Window, ok bool) {
	checkin, okIn := a.calc.NormalizeTime(req.CheckinTime)
	if !okIn {
		return "", "", schedule.Window{}, false
	}
	start, okStart := a.calc.TimeOn(req.Date, checkin)
	if !okStart {
		return "", "", schedule.Window{}, false
	}

	checkout, okOut := a.calc.NormalizeTime(req.CheckoutTime)
	if !okOut {
		checkout = start.Add(domain.DefaultDurationMinutes * time.Minute).Format("15:04:05")
	}

	w = a.calc.Window(req.Date, checkin, checkout, nil, nil, nil)
	return checkin, checkout, w, w.Usable()
}

func (a *Availability) bookingWindow(date time.Time, b *domain.Booking) schedule.Window {
	return a.calc.Window(date, b.CheckinTime, b.CheckoutTime, b.ActualCheckin, b.ActualCheckout, b.CleanupCompletedAt)
}

// TablesAvailable returns every conflict-free table for the request,
// smallest capacity first. An indeterminate proposed window yields no
// tables: the engine assumes conflict rather than double-booking.
func (a *Availability) TablesAvailable(ctx context.Context, req SlotRequest) ([]domain.Table, error) {
	_, _, proposed, ok := a.resolveWindow(req)
	if !ok {
		return nil, nil
	}

	candidates, err := a.tables.ListBookable(ctx, req.LocationID, req.GuestCount)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	var available []domain.Table
	for _, table := range candidates {
		existing, err := a.bookings.ListActiveForTable(ctx, req.LocationID, req.Date, table.TableNumber, req.ExcludeBookingID)
		if err != nil {
			return nil, fmt.Errorf("failed to list bookings for table %d: %w", table.TableNumber, err)
		}

		conflict := false
		for i := range existing {
			w := a.bookingWindow(req.Date, &existing[i])
			if !w.Usable() || proposed.Overlaps(w) {
				conflict = true
				break
			}
		}
		if !conflict {
			available = append(available, table)
		}
	}
	return available, nil
}

// SmallestAvailableTable returns the allocator's pick: the first entry of
// the ordered conflict-free list, or nil when every table conflicts.
func (a *Availability) SmallestAvailableTable(ctx context.Context, req SlotRequest) (*domain.Table, error) {
	tables, err := a.TablesAvailable(ctx, req)
	if err != nil || len(tables) == 0 {
		return nil, err
	}
	return &tables[0], nil
}

func (a *Availability) AvailableTableCount(ctx context.Context, req SlotRequest) (int, error) {
	tables, err := a.TablesAvailable(ctx, req)
	if err != nil {
		return 0, err
	}
	return len(tables), nil
}

// HasOverlap is the coarse location-wide saturation check: it reports
// overlap only when the number of conflicting bookings reaches the total
// count of bookable tables. It can under-count true saturation when table
// capacities differ, so it is a pre-filter, never the authoritative
// answer; the per-table resolver must agree before a slot is offered.
// Indeterminate windows report overlap (fail safe).
func (a *Availability) HasOverlap(ctx context.Context, req SlotRequest) (bool, error) {
	_, _, proposed, ok := a.resolveWindow(req)
	if !ok {
		return true, nil
	}

	existing, err := a.bookings.ListActiveForDate(ctx, req.LocationID, req.Date, req.ExcludeBookingID)
	if err != nil {
		return true, fmt.Errorf("failed to list bookings: %w", err)
	}
	if len(existing) == 0 {
		return false, nil
	}

	overlapCount := 0
	for i := range existing {
		w := a.bookingWindow(req.Date, &existing[i])
		if !w.Usable() {
			return true, nil
		}
		if proposed.Overlaps(w) {
			overlapCount++
		}
	}
	if overlapCount == 0 {
		return false, nil
	}

	totalTables, err := a.tables.CountBookable(ctx, req.LocationID)
	if err != nil {
		return true, fmt.Errorf("failed to count tables: %w", err)
	}
	if totalTables <= 0 {
		return true, nil
	}
	return overlapCount >= totalTables, nil
}

// IsTimeSlotAvailable runs the full availability gate: location capacity,
// time parsing, duration bounds, working hours, the coarse overlap
// pre-filter and the per-table resolver.
func (a *Availability) IsTimeSlotAvailable(ctx context.Context, req SlotRequest) (bool, error) {
	available, err := a.slotAvailable(ctx, req)
	if err == nil {
		metrics.IncAvailabilityCheck(available)
	}
	return available, err
}

func (a *Availability) slotAvailable(ctx context.Context, req SlotRequest) (bool, error) {
	capacity, err := a.tables.TotalCapacity(ctx, req.LocationID)
	if err != nil {
		return false, fmt.Errorf("failed to read location capacity: %w", err)
	}
	if capacity <= 0 {
		return false, nil
	}

	_, _, proposed, ok := a.resolveWindow(req)
	if !ok {
		return false, nil
	}
	if !proposed.Checkout.After(proposed.Checkin) {
		return false, nil
	}

	duration := proposed.Checkout.Sub(proposed.Checkin)
	if duration < domain.MinDurationMinutes*time.Minute || duration > domain.MaxDurationMinutes*time.Minute {
		return false, nil
	}

	settings, err := a.locations.GetSettings(ctx, req.LocationID)
	if err != nil {
		return false, fmt.Errorf("failed to load location settings: %w", err)
	}
	if !a.calc.WithinWorkingHours(req.Date, proposed.Checkin, proposed.Checkout, settings) {
		return false, nil
	}

	overlap, err := a.HasOverlap(ctx, req)
	if err != nil {
		return false, err
	}
	if overlap {
		return false, nil
	}

	tables, err := a.TablesAvailable(ctx, req)
	if err != nil {
		return false, err
	}
	return len(tables) > 0, nil
}

// SuggestTimeSlots returns up to two alternative slot times within
// rangeMinutes of the requested time, nearest first; equal offsets prefer
// the later slot.
func (a *Availability) SuggestTimeSlots(ctx context.Context, locationID int64, date time.Time, timeOfDay string, guestCount, rangeMinutes int) ([]string, error) {
	settings, err := a.locations.GetSettings(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load location settings: %w", err)
	}
	if settings == nil {
		return nil, nil
	}

	target, ok := a.calc.TimeOn(date, timeOfDay)
	if !ok {
		return nil, nil
	}
	if rangeMinutes < 0 {
		rangeMinutes = -rangeMinutes
	}
	window := time.Duration(rangeMinutes) * time.Minute

	type candidate struct {
		slot  string
		diff  time.Duration
		after bool
	}
	var candidates []candidate

	for _, slot := range a.calc.Slots(settings.OpeningTime, settings.ClosingTime, settings.SlotInterval()) {
		ts, ok := a.calc.TimeOn(date, slot)
		if !ok {
			continue
		}
		diff := ts.Sub(target)
		after := diff > 0
		if diff < 0 {
			diff = -diff
		}
		if diff > window {
			continue
		}

		available, err := a.slotAvailable(ctx, SlotRequest{
			LocationID:  locationID,
			Date:        date,
			CheckinTime: slot,
			GuestCount:  guestCount,
		})
		if err != nil {
			return nil, err
		}
		if available {
			candidates = append(candidates, candidate{slot: slot, diff: diff, after: after})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].diff != candidates[j].diff {
			return candidates[i].diff < candidates[j].diff
		}
		return candidates[i].after && !candidates[j].after
	})

	if len(candidates) > 2 {
		candidates = candidates[:2]
	}
	suggestions := make([]string, 0, len(candidates))
	for _, c := range candidates {
		suggestions = append(suggestions, c.slot)
	}
	return suggestions, nil
}
