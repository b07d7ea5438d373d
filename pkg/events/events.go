package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/newit5s/tablebook/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Event subjects
const (
	BookingCreated    = "booking.created"
	BookingConfirmed  = "booking.confirmed"
	BookingCancelled  = "booking.cancelled"
	BookingCompleted  = "booking.completed"
	BookingNoShow     = "booking.no_show"
	BookingCheckedIn  = "booking.checked_in"
	BookingCheckedOut = "booking.checked_out"

	TableStatusChanged = "table.status_changed"
)

// Event payloads
type BookingCreatedEvent struct {
	BookingID         int64     `json:"booking_id"`
	LocationID        int64     `json:"location_id"`
	CustomerName      string    `json:"customer_name"`
	CustomerEmail     string    `json:"customer_email"`
	CustomerPhone     string    `json:"customer_phone"`
	GuestCount        int       `json:"guest_count"`
	BookingDate       string    `json:"booking_date"`
	CheckinTime       string    `json:"checkin_time"`
	CheckoutTime      string    `json:"checkout_time"`
	ConfirmationToken string    `json:"confirmation_token"`
	Source            string    `json:"booking_source"`
	CreatedAt         time.Time `json:"created_at"`
}

type BookingConfirmedEvent struct {
	BookingID     int64     `json:"booking_id"`
	LocationID    int64     `json:"location_id"`
	TableNumber   int       `json:"table_number"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	BookingDate   string    `json:"booking_date"`
	CheckinTime   string    `json:"checkin_time"`
	ConfirmedVia  string    `json:"confirmed_via,omitempty"`
	ConfirmedAt   time.Time `json:"confirmed_at"`
}

type BookingStatusEvent struct {
	BookingID     int64     `json:"booking_id"`
	LocationID    int64     `json:"location_id"`
	CustomerEmail string    `json:"customer_email"`
	Status        string    `json:"status"`
	ChangedAt     time.Time `json:"changed_at"`
}

type BookingAttendanceEvent struct {
	BookingID   int64     `json:"booking_id"`
	LocationID  int64     `json:"location_id"`
	TableNumber int       `json:"table_number,omitempty"`
	At          time.Time `json:"at"`
}

type TableStatusChangedEvent struct {
	TableID     int64     `json:"table_id"`
	LocationID  int64     `json:"location_id"`
	TableNumber int       `json:"table_number"`
	OldStatus   string    `json:"old_status"`
	NewStatus   string    `json:"new_status"`
	BookingID   *int64    `json:"booking_id,omitempty"`
	ChangedAt   time.Time `json:"changed_at"`
}
