package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
	BookingNoShow    BookingStatus = "no-show"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled, BookingNoShow:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

type Booking struct {
	ID                  int64         `json:"id"`
	LocationID          int64         `json:"location_id"`
	TableNumber         *int          `json:"table_number,omitempty"`
	Status              BookingStatus `json:"status"`
	CustomerName        string        `json:"customer_name"`
	CustomerPhone       string        `json:"customer_phone"`
	CustomerEmail       string        `json:"customer_email"`
	GuestCount          int           `json:"guest_count"`
	BookingDate         time.Time     `json:"booking_date"`
	CheckinTime         string        `json:"checkin_time"`
	CheckoutTime        string        `json:"checkout_time"`
	ActualCheckin       *time.Time    `json:"actual_checkin,omitempty"`
	ActualCheckout      *time.Time    `json:"actual_checkout,omitempty"`
	CleanupCompletedAt  *time.Time    `json:"cleanup_completed_at,omitempty"`
	ConfirmationToken   *string       `json:"-"`
	ConfirmationExpires *time.Time    `json:"-"`
	ConfirmedAt         *time.Time    `json:"confirmed_at,omitempty"`
	ConfirmedVia        string        `json:"confirmed_via,omitempty"`
	Source              string        `json:"booking_source"`
	Language            string        `json:"language,omitempty"`
	Notes               string        `json:"notes,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

type CreateBookingRequest struct {
	LocationID    int64  `json:"location_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email"`
	GuestCount    int    `json:"guest_count"`
	BookingDate   string `json:"booking_date"`
	CheckinTime   string `json:"checkin_time"`
	CheckoutTime  string `json:"checkout_time"`
	Notes         string `json:"notes"`
	Source        string `json:"booking_source"`
	Language      string `json:"language"`
}

// Business Rules
const (
	MinDurationMinutes     = 60
	MaxDurationMinutes     = 360
	DefaultDurationMinutes = 120
	ConfirmationTokenTTL   = 24 * time.Hour
)

// CanTransition reports whether a status change is permitted by the
// booking state machine. Completed, cancelled and no-show are terminal.
func (b *Booking) CanTransition(to BookingStatus) bool {
	switch b.Status {
	case BookingPending:
		return to == BookingConfirmed || to == BookingCancelled || to == BookingNoShow
	case BookingConfirmed:
		return to == BookingCompleted || to == BookingCancelled || to == BookingNoShow
	default:
		return false
	}
}

// TokenExpired reports whether the confirmation token has passed its expiry.
// A booking without an expiry never expires.
func (b *Booking) TokenExpired(now time.Time) bool {
	return b.ConfirmationExpires != nil && b.ConfirmationExpires.Before(now)
}
