package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/newit5s/tablebook/internal/domain"
	"github.com/newit5s/tablebook/internal/repository"
	"github.com/newit5s/tablebook/internal/schedule"
	"github.com/newit5s/tablebook/internal/tasks"
	"github.com/newit5s/tablebook/pkg/events"
	"github.com/newit5s/tablebook/pkg/logger"
	"github.com/newit5s/tablebook/pkg/metrics"
)

const cleanupTaskPrefix = "table-cleanup:"

// CleanupTaskID builds the scheduler task identifier for a table's deferred
// cleaning-to-available transition. One task per table: scheduling again
// replaces the previous timer.
func CleanupTaskID(tableID int64) string {
	return fmt.Sprintf("%s%d", cleanupTaskPrefix, tableID)
}

func ParseCleanupTaskID(taskID string) (int64, bool) {
	raw, ok := strings.CutPrefix(taskID, cleanupTaskPrefix)
	if !ok {
		return 0, false
	}
	tableID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || tableID <= 0 {
		return 0, false
	}
	return tableID, true
}

// TableStatus manages the operational state of tables and the deferred
// transition back to available after cleaning.
type TableStatus struct {
	tables   repository.TableRepository
	bookings repository.BookingRepository
	sched    tasks.Scheduler
	bus      events.Publisher
	now      func() time.Time
}

func NewTableStatus(tables repository.TableRepository, bookings repository.BookingRepository, sched tasks.Scheduler, bus events.Publisher) *TableStatus {
	return &TableStatus{
		tables:   tables,
		bookings: bookings,
		sched:    sched,
		bus:      bus,
		now:      time.Now,
	}
}

// Set updates a table's status. Entering cleaning schedules the deferred
// available transition; entering any other status cancels a pending one, so
// a manual override always wins over the timer.
func (s *TableStatus) Set(ctx context.Context, tableID int64, status domain.TableStatus, bookingID *int64) error {
	if _, ok := domain.ParseTableStatus(string(status)); !ok {
		return &domain.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown table status %q", status)}
	}
	if tableID <= 0 {
		return &domain.ValidationError{Field: "table_id", Reason: "must be a positive identifier"}
	}

	table, err := s.tables.GetByID(ctx, tableID)
	if err != nil {
		return &domain.StorageError{Op: "load table", Err: err}
	}
	if table == nil {
		return &domain.NotFoundError{Entity: "table", ID: tableID}
	}

	updated, err := s.tables.UpdateStatus(ctx, tableID, status, bookingID)
	if err != nil {
		return &domain.StorageError{Op: "update table status", Err: err}
	}
	if !updated {
		return &domain.NotFoundError{Entity: "table", ID: tableID}
	}

	if status == domain.TableCleaning {
		s.scheduleCleanup(ctx, tableID, bookingID)
	} else {
		if err := s.sched.Cancel(ctx, CleanupTaskID(tableID)); err != nil {
			logger.WarnContext(ctx, "failed to cancel cleanup task",
				"table_id", tableID, "error", err)
		}
	}

	metrics.IncTableStatusChange(string(status))
	if err := s.bus.Publish(ctx, events.TableStatusChanged, events.TableStatusChangedEvent{
		TableID:     tableID,
		LocationID:  table.LocationID,
		TableNumber: table.TableNumber,
		OldStatus:   string(table.CurrentStatus),
		NewStatus:   string(status),
		BookingID:   bookingID,
		ChangedAt:   s.now(),
	}); err != nil {
		logger.WarnContext(ctx, "failed to publish table status event",
			"table_id", tableID, "status", status, "error", err)
	}
	return nil
}

// scheduleCleanup anchors the timer to the driving booking's cleanup
// completion time when one exists; otherwise a full cleanup buffer from
// now. A fire time already in the past is bumped slightly forward so the
// status change stays observable.
func (s *TableStatus) scheduleCleanup(ctx context.Context, tableID int64, bookingID *int64) {
	at := s.now().Add(schedule.CleanupBuffer)
	if bookingID != nil {
		booking, err := s.bookings.GetByID(ctx, *bookingID)
		if err != nil {
			logger.WarnContext(ctx, "failed to load booking for cleanup anchor",
				"booking_id", *bookingID, "error", err)
		} else if booking != nil && booking.CleanupCompletedAt != nil {
			at = *booking.CleanupCompletedAt
		}
	}
	if now := s.now(); !at.After(now) {
		at = now.Add(time.Minute)
	}
	if err := s.sched.Schedule(ctx, CleanupTaskID(tableID), at); err != nil {
		logger.ErrorContext(ctx, "failed to schedule cleanup task",
			"table_id", tableID, "fire_at", at, "error", err)
	}
}

// HandleCleanup is the scheduler callback. It re-reads the table and only
// flips it to available when it is still cleaning: staff may have moved it
// elsewhere while the timer was pending.
func (s *TableStatus) HandleCleanup(ctx context.Context, taskID string) {
	tableID, ok := ParseCleanupTaskID(taskID)
	if !ok {
		logger.WarnContext(ctx, "ignoring malformed cleanup task", "task_id", taskID)
		return
	}

	table, err := s.tables.GetByID(ctx, tableID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load table for cleanup completion",
			"table_id", tableID, "error", err)
		return
	}
	if table == nil || table.CurrentStatus != domain.TableCleaning {
		return
	}

	if err := s.Set(ctx, tableID, domain.TableAvailable, nil); err != nil {
		logger.ErrorContext(ctx, "failed to complete cleanup transition",
			"table_id", tableID, "error", err)
	}
}
