package service

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/newit5s/tablebook/internal/domain"
	"github.com/newit5s/tablebook/internal/repository"
	"github.com/newit5s/tablebook/internal/schedule"
	"github.com/newit5s/tablebook/pkg/events"
	"github.com/newit5s/tablebook/pkg/logger"
	"github.com/newit5s/tablebook/pkg/metrics"
)

const suggestionRangeMinutes = 180

// BookingService drives the reservation lifecycle from creation through
// confirmation, attendance and terminal states.
type BookingService interface {
	Create(ctx context.Context, req *domain.CreateBookingRequest) (*domain.Booking, error)
	Get(ctx context.Context, id int64) (*domain.Booking, error)
	List(ctx context.Context, filter repository.BookingFilter) ([]domain.Booking, error)
	Confirm(ctx context.Context, id int64) (*domain.Booking, error)
	ConfirmByToken(ctx context.Context, token string) (*domain.Booking, error)
	Cancel(ctx context.Context, id int64) error
	Complete(ctx context.Context, id int64) error
	MarkNoShow(ctx context.Context, id int64) error
	MarkCheckin(ctx context.Context, id int64, at *time.Time) error
	MarkCheckout(ctx context.Context, id int64, at *time.Time) error
	Stats(ctx context.Context, locationID int64) (*domain.LocationStats, error)
}

type bookingService struct {
	bookings      repository.BookingRepository
	tables        repository.TableRepository
	availability  *Availability
	tableStatus   *TableStatus
	bus           events.Publisher
	calc          *schedule.Calculator
	defaultSource string
	now           func() time.Time
}

func NewBookingService(
	bookings repository.BookingRepository,
	tables repository.TableRepository,
	availability *Availability,
	tableStatus *TableStatus,
	bus events.Publisher,
	calc *schedule.Calculator,
	defaultSource string,
) BookingService {
	if defaultSource == "" {
		defaultSource = "website"
	}
	return &bookingService{
		bookings:      bookings,
		tables:        tables,
		availability:  availability,
		tableStatus:   tableStatus,
		bus:           bus,
		calc:          calc,
		defaultSource: defaultSource,
		now:           time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, req *domain.CreateBookingRequest) (*domain.Booking, error) {
	if req.LocationID <= 0 {
		return nil, &domain.ValidationError{Field: "location_id", Reason: "is required"}
	}
	if req.CustomerName == "" {
		return nil, &domain.ValidationError{Field: "customer_name", Reason: "is required"}
	}
	if req.CustomerPhone == "" {
		return nil, &domain.ValidationError{Field: "customer_phone", Reason: "is required"}
	}
	if req.GuestCount <= 0 {
		return nil, &domain.ValidationError{Field: "guest_count", Reason: "must be at least 1"}
	}
	if req.CustomerEmail != "" {
		if _, err := mail.ParseAddress(req.CustomerEmail); err != nil {
			return nil, &domain.ValidationError{Field: "customer_email", Reason: "is not a valid email address"}
		}
	}

	date, err := time.ParseInLocation("2006-01-02", req.BookingDate, s.calc.Location())
	if err != nil {
		return nil, &domain.ValidationError{Field: "booking_date", Reason: "must be a YYYY-MM-DD date"}
	}

	checkin, ok := s.calc.NormalizeTime(req.CheckinTime)
	if !ok {
		return nil, &domain.ValidationError{Field: "checkin_time", Reason: "must be an HH:MM time"}
	}
	start, _ := s.calc.TimeOn(date, checkin)

	checkout := req.CheckoutTime
	if checkout == "" {
		checkout = start.Add(domain.DefaultDurationMinutes * time.Minute).Format("15:04:05")
	} else if checkout, ok = s.calc.NormalizeTime(checkout); !ok {
		return nil, &domain.ValidationError{Field: "checkout_time", Reason: "must be an HH:MM time"}
	}
	end, _ := s.calc.TimeOn(date, checkout)

	if !end.After(start) {
		return nil, &domain.ValidationError{Field: "checkout_time", Reason: "must be later than the check-in time"}
	}
	duration := end.Sub(start)
	if duration < domain.MinDurationMinutes*time.Minute {
		return nil, &domain.ValidationError{Field: "checkout_time",
			Reason: fmt.Sprintf("booking must last at least %d minutes", domain.MinDurationMinutes)}
	}
	if duration > domain.MaxDurationMinutes*time.Minute {
		return nil, &domain.ValidationError{Field: "checkout_time",
			Reason: fmt.Sprintf("booking must not exceed %d minutes", domain.MaxDurationMinutes)}
	}

	if req.Source == "" {
		req.Source = s.defaultSource
	}
	if req.Language == "" {
		req.Language = "en"
	}

	slot := SlotRequest{
		LocationID:   req.LocationID,
		Date:         date,
		CheckinTime:  checkin,
		CheckoutTime: checkout,
		GuestCount:   req.GuestCount,
	}
	available, err := s.availability.IsTimeSlotAvailable(ctx, slot)
	if err != nil {
		return nil, &domain.StorageError{Op: "check availability", Err: err}
	}
	if !available {
		suggestions, sErr := s.availability.SuggestTimeSlots(ctx, req.LocationID, date, checkin, req.GuestCount, suggestionRangeMinutes)
		if sErr != nil {
			logger.WarnContext(ctx, "failed to compute alternative slots",
				"location_id", req.LocationID, "error", sErr)
		}
		return nil, &domain.AvailabilityError{
			Reason:      "the selected time slot is not available",
			Suggestions: suggestions,
		}
	}

	token := uuid.NewString()
	booking, err := s.bookings.Create(ctx, req, date, checkin, checkout, token, s.now().Add(domain.ConfirmationTokenTTL))
	if err != nil {
		return nil, &domain.StorageError{Op: "create booking", Err: err}
	}

	metrics.IncBookingCreated(req.Source)
	s.publish(ctx, events.BookingCreated, events.BookingCreatedEvent{
		BookingID:         booking.ID,
		LocationID:        booking.LocationID,
		CustomerName:      booking.CustomerName,
		CustomerEmail:     booking.CustomerEmail,
		CustomerPhone:     booking.CustomerPhone,
		GuestCount:        booking.GuestCount,
		BookingDate:       booking.BookingDate.Format("2006-01-02"),
		CheckinTime:       booking.CheckinTime,
		CheckoutTime:      booking.CheckoutTime,
		ConfirmationToken: token,
		Source:            booking.Source,
		CreatedAt:         booking.CreatedAt,
	})

	logger.InfoContext(ctx, "booking created",
		"booking_id", booking.ID,
		"location_id", booking.LocationID,
		"date", booking.BookingDate.Format("2006-01-02"),
		"checkin", booking.CheckinTime,
		"guests", booking.GuestCount,
		"source", booking.Source)
	return booking, nil
}

func (s *bookingService) Get(ctx context.Context, id int64) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, &domain.StorageError{Op: "load booking", Err: err}
	}
	if booking == nil {
		return nil, &domain.NotFoundError{Entity: "booking", ID: id}
	}
	return booking, nil
}

func (s *bookingService) List(ctx context.Context, filter repository.BookingFilter) ([]domain.Booking, error) {
	bookings, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, &domain.StorageError{Op: "list bookings", Err: err}
	}
	return bookings, nil
}

// Confirm moves a pending booking to confirmed and allocates the smallest
// free table that fits the party. The repository guard re-checks the
// pending status inside the UPDATE, so two concurrent confirmations cannot
// both succeed.
func (s *bookingService) Confirm(ctx context.Context, id int64) (*domain.Booking, error) {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status == domain.BookingConfirmed {
		return nil, domain.ErrAlreadyConfirmed
	}
	if !booking.CanTransition(domain.BookingConfirmed) {
		return nil, &domain.ValidationError{Field: "status",
			Reason: fmt.Sprintf("cannot confirm a %s booking", booking.Status)}
	}

	table, err := s.availability.SmallestAvailableTable(ctx, SlotRequest{
		LocationID:       booking.LocationID,
		Date:             booking.BookingDate,
		CheckinTime:      booking.CheckinTime,
		CheckoutTime:     booking.CheckoutTime,
		GuestCount:       booking.GuestCount,
		ExcludeBookingID: booking.ID,
	})
	if err != nil {
		return nil, &domain.StorageError{Op: "find table", Err: err}
	}
	if table == nil {
		return nil, &domain.AvailabilityError{Reason: "no suitable table is free for this booking"}
	}

	confirmedAt := s.now()
	confirmed, err := s.bookings.Confirm(ctx, id, table.TableNumber, confirmedAt)
	if err != nil {
		return nil, &domain.StorageError{Op: "confirm booking", Err: err}
	}
	if !confirmed {
		return nil, domain.ErrAlreadyConfirmed
	}

	if err := s.tableStatus.Set(ctx, table.ID, domain.TableReserved, &id); err != nil {
		logger.WarnContext(ctx, "failed to reserve table after confirmation",
			"booking_id", id, "table_id", table.ID, "error", err)
	}

	metrics.IncBookingTransition(string(domain.BookingConfirmed))
	s.publish(ctx, events.BookingConfirmed, events.BookingConfirmedEvent{
		BookingID:     booking.ID,
		LocationID:    booking.LocationID,
		TableNumber:   table.TableNumber,
		CustomerName:  booking.CustomerName,
		CustomerEmail: booking.CustomerEmail,
		BookingDate:   booking.BookingDate.Format("2006-01-02"),
		CheckinTime:   booking.CheckinTime,
		ConfirmedAt:   confirmedAt,
	})

	logger.InfoContext(ctx, "booking confirmed",
		"booking_id", id, "table_number", table.TableNumber)
	return s.Get(ctx, id)
}

// ConfirmByToken resolves an emailed confirmation link. An already
// confirmed booking is a successful no-op so customers can safely click
// the link twice.
func (s *bookingService) ConfirmByToken(ctx context.Context, token string) (*domain.Booking, error) {
	if token == "" {
		return nil, &domain.TokenError{}
	}
	booking, err := s.bookings.GetByToken(ctx, token)
	if err != nil {
		return nil, &domain.StorageError{Op: "load booking by token", Err: err}
	}
	if booking == nil {
		return nil, &domain.TokenError{}
	}
	if booking.TokenExpired(s.now()) {
		return nil, &domain.TokenError{Expired: true}
	}
	if booking.Status == domain.BookingConfirmed {
		return booking, nil
	}

	confirmed, err := s.Confirm(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	if err := s.bookings.ClearConfirmationToken(ctx, booking.ID, "email"); err != nil {
		logger.WarnContext(ctx, "failed to clear confirmation token",
			"booking_id", booking.ID, "error", err)
	}
	return confirmed, nil
}

func (s *bookingService) Cancel(ctx context.Context, id int64) error {
	return s.transition(ctx, id, domain.BookingCancelled, events.BookingCancelled)
}

func (s *bookingService) Complete(ctx context.Context, id int64) error {
	return s.transition(ctx, id, domain.BookingCompleted, events.BookingCompleted)
}

func (s *bookingService) MarkNoShow(ctx context.Context, id int64) error {
	return s.transition(ctx, id, domain.BookingNoShow, events.BookingNoShow)
}

func (s *bookingService) transition(ctx context.Context, id int64, to domain.BookingStatus, subject string) error {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !booking.CanTransition(to) {
		return &domain.ValidationError{Field: "status",
			Reason: fmt.Sprintf("cannot move a %s booking to %s", booking.Status, to)}
	}

	updated, err := s.bookings.UpdateStatus(ctx, id, to)
	if err != nil {
		return &domain.StorageError{Op: "update booking status", Err: err}
	}
	if !updated {
		return &domain.NotFoundError{Entity: "booking", ID: id}
	}

	metrics.IncBookingTransition(string(to))
	s.publish(ctx, subject, events.BookingStatusEvent{
		BookingID:     booking.ID,
		LocationID:    booking.LocationID,
		CustomerEmail: booking.CustomerEmail,
		Status:        string(to),
		ChangedAt:     s.now(),
	})

	logger.InfoContext(ctx, "booking status changed", "booking_id", id, "status", to)
	return nil
}

// MarkCheckin records the guest's arrival and flips the assigned table to
// occupied.
func (s *bookingService) MarkCheckin(ctx context.Context, id int64, at *time.Time) error {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	checkin := s.now()
	if at != nil {
		checkin = *at
	}
	updated, err := s.bookings.SetActualCheckin(ctx, id, checkin)
	if err != nil {
		return &domain.StorageError{Op: "record check-in", Err: err}
	}
	if !updated {
		return &domain.NotFoundError{Entity: "booking", ID: id}
	}

	s.setTableForBooking(ctx, booking, domain.TableOccupied)
	s.publish(ctx, events.BookingCheckedIn, attendanceEvent(booking, checkin))
	logger.InfoContext(ctx, "booking checked in", "booking_id", id)
	return nil
}

// MarkCheckout records departure, stamps the cleanup completion time one
// cleanup buffer later, and sends the table into cleaning. The deferred
// available transition is anchored to that stamp.
func (s *bookingService) MarkCheckout(ctx context.Context, id int64, at *time.Time) error {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	checkout := s.now()
	if at != nil {
		checkout = *at
	}
	updated, err := s.bookings.SetActualCheckout(ctx, id, checkout, checkout.Add(schedule.CleanupBuffer))
	if err != nil {
		return &domain.StorageError{Op: "record checkout", Err: err}
	}
	if !updated {
		return &domain.NotFoundError{Entity: "booking", ID: id}
	}

	s.setTableForBooking(ctx, booking, domain.TableCleaning)
	s.publish(ctx, events.BookingCheckedOut, attendanceEvent(booking, checkout))
	logger.InfoContext(ctx, "booking checked out", "booking_id", id)
	return nil
}

func (s *bookingService) Stats(ctx context.Context, locationID int64) (*domain.LocationStats, error) {
	stats, err := s.bookings.Stats(ctx, locationID)
	if err != nil {
		return nil, &domain.StorageError{Op: "load booking stats", Err: err}
	}
	return stats, nil
}

func (s *bookingService) setTableForBooking(ctx context.Context, booking *domain.Booking, status domain.TableStatus) {
	if booking.TableNumber == nil {
		return
	}
	table, err := s.tables.GetByNumber(ctx, booking.LocationID, *booking.TableNumber)
	if err != nil || table == nil {
		logger.WarnContext(ctx, "failed to resolve table for booking",
			"booking_id", booking.ID, "table_number", *booking.TableNumber, "error", err)
		return
	}
	if err := s.tableStatus.Set(ctx, table.ID, status, &booking.ID); err != nil {
		logger.WarnContext(ctx, "failed to update table status for booking",
			"booking_id", booking.ID, "table_id", table.ID, "status", status, "error", err)
	}
}

func (s *bookingService) publish(ctx context.Context, subject string, payload interface{}) {
	if err := s.bus.Publish(ctx, subject, payload); err != nil {
		logger.WarnContext(ctx, "failed to publish event", "subject", subject, "error", err)
	}
}

func attendanceEvent(b *domain.Booking, at time.Time) events.BookingAttendanceEvent {
	e := events.BookingAttendanceEvent{
		BookingID:  b.ID,
		LocationID: b.LocationID,
		At:         at,
	}
	if b.TableNumber != nil {
		e.TableNumber = *b.TableNumber
	}
	return e
}
