package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/newit5s/tablebook/internal/domain"
)

// BookingFilter narrows List queries. Zero values mean "no constraint".
type BookingFilter struct {
	Status     domain.BookingStatus
	Date       time.Time
	DateFrom   time.Time
	DateTo     time.Time
	LocationID int64
	Source     string
	Search     string
	Limit      int
	Offset     int
}

type BookingRepository interface {
	Create(ctx context.Context, req *domain.CreateBookingRequest, date time.Time, checkinTime, checkoutTime, token string, tokenExpires time.Time) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByToken(ctx context.Context, token string) (*domain.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error)
	ListActiveForDate(ctx context.Context, locationID int64, date time.Time, excludeID int64) ([]domain.Booking, error)
	ListActiveForTable(ctx context.Context, locationID int64, date time.Time, tableNumber int, excludeID int64) ([]domain.Booking, error)
	Confirm(ctx context.Context, id int64, tableNumber int, at time.Time) (bool, error)
	ClearConfirmationToken(ctx context.Context, id int64, via string) error
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (bool, error)
	SetActualCheckin(ctx context.Context, id int64, at time.Time) (bool, error)
	SetActualCheckout(ctx context.Context, id int64, at, cleanupCompletedAt time.Time) (bool, error)
	Stats(ctx context.Context, locationID int64) (*domain.LocationStats, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingCols = `id, location_id, table_number, status,
customer_name, customer_phone, customer_email, guest_count,
booking_date, checkin_time, checkout_time,
actual_checkin, actual_checkout, cleanup_completed_at,
confirmation_token, confirmation_token_expires, confirmed_at, confirmed_via,
booking_source, language, notes, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.LocationID, &b.TableNumber, &b.Status,
		&b.CustomerName, &b.CustomerPhone, &b.CustomerEmail, &b.GuestCount,
		&b.BookingDate, &b.CheckinTime, &b.CheckoutTime,
		&b.ActualCheckin, &b.ActualCheckout, &b.CleanupCompletedAt,
		&b.ConfirmationToken, &b.ConfirmationExpires, &b.ConfirmedAt, &b.ConfirmedVia,
		&b.Source, &b.Language, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) Create(ctx context.Context, req *domain.CreateBookingRequest, date time.Time, checkinTime, checkoutTime, token string, tokenExpires time.Time) (*domain.Booking, error) {
	const q = `INSERT INTO bookings (
		location_id, status,
		customer_name, customer_phone, customer_email, guest_count,
		booking_date, checkin_time, checkout_time,
		confirmation_token, confirmation_token_expires,
		booking_source, language, notes
	) VALUES ($1,'pending',$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q,
		req.LocationID,
		req.CustomerName, req.CustomerPhone, req.CustomerEmail, req.GuestCount,
		date, checkinTime, checkoutTime,
		token, tokenExpires,
		req.Source, req.Language, req.Notes,
	))
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

func (r *bookingRepository) GetByToken(ctx context.Context, token string) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE confirmation_token=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, token))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

func (r *bookingRepository) List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	q := `SELECT ` + bookingCols + ` FROM bookings WHERE 1=1`
	var args []any

	add := func(clause string, v any) {
		args = append(args, v)
		q += clause + placeholder(len(args))
	}

	if filter.Status != "" {
		add(` AND status=`, filter.Status)
	}
	if !filter.Date.IsZero() {
		add(` AND booking_date=`, filter.Date)
	}
	if !filter.DateFrom.IsZero() {
		add(` AND booking_date>=`, filter.DateFrom)
	}
	if !filter.DateTo.IsZero() {
		add(` AND booking_date<=`, filter.DateTo)
	}
	if filter.LocationID > 0 {
		add(` AND location_id=`, filter.LocationID)
	}
	if filter.Source != "" {
		add(` AND booking_source=`, filter.Source)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern)
		p := placeholder(len(args))
		q += ` AND (customer_name ILIKE ` + p + ` OR customer_phone ILIKE ` + p +
			` OR customer_email ILIKE ` + p + ` OR CAST(id AS TEXT) LIKE ` + p + `)`
	}

	args = append(args, filter.Limit, filter.Offset)
	q += ` ORDER BY booking_date DESC, checkin_time DESC LIMIT ` + placeholder(len(args)-1) + ` OFFSET ` + placeholder(len(args))

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (r *bookingRepository) ListActiveForDate(ctx context.Context, locationID int64, date time.Time, excludeID int64) ([]domain.Booking, error) {
	q := `SELECT ` + bookingCols + ` FROM bookings
		WHERE booking_date=$1 AND location_id=$2 AND status IN ('pending','confirmed')`
	args := []any{date, locationID}
	if excludeID > 0 {
		q += ` AND id != $3`
		args = append(args, excludeID)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (r *bookingRepository) ListActiveForTable(ctx context.Context, locationID int64, date time.Time, tableNumber int, excludeID int64) ([]domain.Booking, error) {
	q := `SELECT ` + bookingCols + ` FROM bookings
		WHERE booking_date=$1 AND location_id=$2 AND table_number=$3 AND status IN ('pending','confirmed')`
	args := []any{date, locationID, tableNumber}
	if excludeID > 0 {
		q += ` AND id != $4`
		args = append(args, excludeID)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

// Confirm assigns the table and flips the status in one guarded write so a
// lost confirmation race surfaces as "no rows affected".
func (r *bookingRepository) Confirm(ctx context.Context, id int64, tableNumber int, at time.Time) (bool, error) {
	const q = `UPDATE bookings
		SET status='confirmed', table_number=$2, confirmed_at=$3, updated_at=now()
		WHERE id=$1 AND status='pending'`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, tableNumber, at)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *bookingRepository) ClearConfirmationToken(ctx context.Context, id int64, via string) error {
	const q = `UPDATE bookings
		SET confirmation_token=NULL, confirmation_token_expires=NULL, confirmed_via=$2, updated_at=now()
		WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id, via)
	return err
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (bool, error) {
	const q = `UPDATE bookings SET status=$2, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, status)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *bookingRepository) SetActualCheckin(ctx context.Context, id int64, at time.Time) (bool, error) {
	const q = `UPDATE bookings SET actual_checkin=$2, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, at)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *bookingRepository) SetActualCheckout(ctx context.Context, id int64, at, cleanupCompletedAt time.Time) (bool, error) {
	const q = `UPDATE bookings SET actual_checkout=$2, cleanup_completed_at=$3, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, at, cleanupCompletedAt)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *bookingRepository) Stats(ctx context.Context, locationID int64) (*domain.LocationStats, error) {
	const q = `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status='pending'),
		COUNT(*) FILTER (WHERE status='confirmed'),
		COUNT(*) FILTER (WHERE status='completed'),
		COUNT(*) FILTER (WHERE status='cancelled'),
		COUNT(*) FILTER (WHERE booking_date=CURRENT_DATE),
		COUNT(*) FILTER (WHERE booking_date=CURRENT_DATE AND status='pending'),
		COUNT(*) FILTER (WHERE booking_date=CURRENT_DATE AND status='confirmed'),
		COUNT(*) FILTER (WHERE booking_date=CURRENT_DATE AND status='completed'),
		COUNT(*) FILTER (WHERE booking_date=CURRENT_DATE AND status='cancelled')
	FROM bookings WHERE ($1 = 0 OR location_id=$1)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var s domain.LocationStats
	err := r.pool.QueryRow(ctx, q, locationID).Scan(
		&s.Total, &s.Pending, &s.Confirmed, &s.Completed, &s.Cancelled,
		&s.Today, &s.TodayPending, &s.TodayConfirmed, &s.TodayCompleted, &s.TodayCancelled,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}
