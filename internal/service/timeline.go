package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/newit5s/tablebook/internal/domain"
)

// TimelineBooking is one occupied stretch on a table's row, with both the
// planned times and the buffered effective window rendered as HH:MM labels.
type TimelineBooking struct {
	BookingID      int64                `json:"booking_id"`
	CustomerName   string               `json:"customer_name"`
	CustomerPhone  string               `json:"customer_phone"`
	GuestCount     int                  `json:"guest_count"`
	Status         domain.BookingStatus `json:"status"`
	Source         string               `json:"source"`
	CheckinTime    string               `json:"checkin_time"`
	CheckoutTime   string               `json:"checkout_time"`
	EffectiveStart string               `json:"effective_start"`
	EffectiveEnd   string               `json:"effective_end"`
}

type TableTimeline struct {
	TableID       int64              `json:"table_id"`
	TableNumber   int                `json:"table_number"`
	Capacity      int                `json:"capacity"`
	CurrentStatus domain.TableStatus `json:"current_status"`
	Bookings      []TimelineBooking  `json:"bookings"`
}

type TimelineData struct {
	Date       string          `json:"date"`
	LocationID int64           `json:"location_id"`
	TimeSlots  []string        `json:"time_slots"`
	Tables     []TableTimeline `json:"tables"`
}

// GetTimelineData assembles the per-table occupancy view for one date:
// the location's slot grid plus, for every table, its active bookings with
// their effective windows. Unassigned bookings (no table yet) are omitted.
func (a *Availability) GetTimelineData(ctx context.Context, locationID int64, date time.Time) (*TimelineData, error) {
	data := &TimelineData{
		Date:       date.Format("2006-01-02"),
		LocationID: locationID,
	}

	settings, err := a.locations.GetSettings(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load location settings: %w", err)
	}
	if settings == nil {
		return data, nil
	}
	data.TimeSlots = a.calc.Slots(settings.OpeningTime, settings.ClosingTime, settings.SlotInterval())

	tables, err := a.tables.ListByLocation(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	bookings, err := a.bookings.ListActiveForDate(ctx, locationID, date, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	byTable := make(map[int][]TimelineBooking)
	for i := range bookings {
		b := &bookings[i]
		if b.TableNumber == nil {
			continue
		}
		w := a.bookingWindow(date, b)
		entry := TimelineBooking{
			BookingID:     b.ID,
			CustomerName:  b.CustomerName,
			CustomerPhone: b.CustomerPhone,
			GuestCount:    b.GuestCount,
			Status:        b.Status,
			Source:        b.Source,
			CheckinTime:   hourMinute(w.Checkin),
			CheckoutTime:  hourMinute(w.Checkout),
		}
		if w.Usable() {
			entry.EffectiveStart = hourMinute(w.ActualCheckin)
			entry.EffectiveEnd = hourMinute(w.ActualCheckout)
		}
		byTable[*b.TableNumber] = append(byTable[*b.TableNumber], entry)
	}

	data.Tables = make([]TableTimeline, 0, len(tables))
	for _, t := range tables {
		row := TableTimeline{
			TableID:       t.ID,
			TableNumber:   t.TableNumber,
			Capacity:      t.Capacity,
			CurrentStatus: t.CurrentStatus,
			Bookings:      byTable[t.TableNumber],
		}
		sort.SliceStable(row.Bookings, func(i, j int) bool {
			return row.Bookings[i].CheckinTime < row.Bookings[j].CheckinTime
		})
		data.Tables = append(data.Tables, row)
	}
	return data, nil
}

func hourMinute(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("15:04")
}
