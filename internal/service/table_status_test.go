package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newit5s/tablebook/internal/domain"
	"github.com/newit5s/tablebook/internal/schedule"
)

type tableStatusFixture struct {
	svc      *TableStatus
	bookings *mockBookingRepo
	tables   *mockTableRepo
	sched    *mockScheduler
	bus      *mockBus
	now      time.Time
}

func newTableStatusFixture(tables ...domain.Table) *tableStatusFixture {
	f := &tableStatusFixture{
		bookings: newMockBookingRepo(),
		tables:   &mockTableRepo{tables: tables},
		sched:    newMockScheduler(),
		bus:      &mockBus{},
		now:      time.Date(2025, time.June, 14, 20, 0, 0, 0, time.UTC),
	}
	f.svc = NewTableStatus(f.tables, f.bookings, f.sched, f.bus)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func TestSetRejectsUnknownStatus(t *testing.T) {
	f := newTableStatusFixture(bookableTable(1, 1, 4))

	err := f.svc.Set(context.Background(), 1, domain.TableStatus("broken"), nil)
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetUnknownTable(t *testing.T) {
	f := newTableStatusFixture()

	err := f.svc.Set(context.Background(), 42, domain.TableOccupied, nil)
	var nfErr *domain.NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetCleaningSchedulesDefaultBuffer(t *testing.T) {
	f := newTableStatusFixture(bookableTable(1, 1, 4))

	if err := f.svc.Set(context.Background(), 1, domain.TableCleaning, nil); err != nil {
		t.Fatalf("set: %v", err)
	}
	fireAt, ok := f.sched.scheduled[CleanupTaskID(1)]
	if !ok {
		t.Fatal("expected a cleanup task")
	}
	if want := f.now.Add(schedule.CleanupBuffer); !fireAt.Equal(want) {
		t.Fatalf("expected fire at %v, got %v", want, fireAt)
	}
}

func TestSetCleaningAnchorsToBookingCleanupTime(t *testing.T) {
	f := newTableStatusFixture(bookableTable(1, 1, 4))
	anchor := f.now.Add(25 * time.Minute)
	booking := activeBooking(10, 1, "18:00", "19:30")
	booking.CleanupCompletedAt = &anchor
	f.bookings.add(booking)

	bookingID := int64(10)
	if err := f.svc.Set(context.Background(), 1, domain.TableCleaning, &bookingID); err != nil {
		t.Fatalf("set: %v", err)
	}
	if fireAt := f.sched.scheduled[CleanupTaskID(1)]; !fireAt.Equal(anchor) {
		t.Fatalf("expected fire at %v, got %v", anchor, fireAt)
	}
}

func TestSetCleaningBumpsPastDueAnchor(t *testing.T) {
	f := newTableStatusFixture(bookableTable(1, 1, 4))
	anchor := f.now.Add(-10 * time.Minute)
	booking := activeBooking(10, 1, "17:00", "18:30")
	booking.CleanupCompletedAt = &anchor
	f.bookings.add(booking)

	bookingID := int64(10)
	if err := f.svc.Set(context.Background(), 1, domain.TableCleaning, &bookingID); err != nil {
		t.Fatalf("set: %v", err)
	}
	fireAt := f.sched.scheduled[CleanupTaskID(1)]
	if !fireAt.After(f.now) {
		t.Fatalf("past-due anchor must be bumped into the future, got %v", fireAt)
	}
}

func TestSetNonCleaningCancelsPendingTask(t *testing.T) {
	f := newTableStatusFixture(bookableTable(1, 1, 4))

	if err := f.svc.Set(context.Background(), 1, domain.TableCleaning, nil); err != nil {
		t.Fatalf("set cleaning: %v", err)
	}
	if err := f.svc.Set(context.Background(), 1, domain.TableOccupied, nil); err != nil {
		t.Fatalf("set occupied: %v", err)
	}
	if _, ok := f.sched.scheduled[CleanupTaskID(1)]; ok {
		t.Fatal("manual status change should cancel the cleanup task")
	}
}

func TestHandleCleanupFlipsCleaningTable(t *testing.T) {
	f := newTableStatusFixture(bookableTable(1, 1, 4))
	f.tables.find(1).CurrentStatus = domain.TableCleaning

	f.svc.HandleCleanup(context.Background(), CleanupTaskID(1))
	if got := f.tables.find(1).CurrentStatus; got != domain.TableAvailable {
		t.Fatalf("expected available, got %s", got)
	}
}

func TestHandleCleanupLeavesOtherStatusesAlone(t *testing.T) {
	f := newTableStatusFixture(bookableTable(1, 1, 4))
	f.tables.find(1).CurrentStatus = domain.TableOccupied

	// Staff seated a new party before the timer fired.
	f.svc.HandleCleanup(context.Background(), CleanupTaskID(1))
	if got := f.tables.find(1).CurrentStatus; got != domain.TableOccupied {
		t.Fatalf("occupied table must not flip, got %s", got)
	}
}

func TestHandleCleanupIgnoresMalformedTask(t *testing.T) {
	f := newTableStatusFixture(bookableTable(1, 1, 4))
	f.svc.HandleCleanup(context.Background(), "table-cleanup:not-a-number")
	f.svc.HandleCleanup(context.Background(), "other:1")
}

func TestParseCleanupTaskID(t *testing.T) {
	if id, ok := ParseCleanupTaskID("table-cleanup:7"); !ok || id != 7 {
		t.Fatalf("expected (7, true), got (%d, %v)", id, ok)
	}
	for _, bad := range []string{"", "table-cleanup:", "table-cleanup:0", "table-cleanup:-3", "cleanup:7"} {
		if _, ok := ParseCleanupTaskID(bad); ok {
			t.Fatalf("%q should not parse", bad)
		}
	}
}
