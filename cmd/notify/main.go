package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/newit5s/tablebook/internal/platform/mailer"
	"github.com/newit5s/tablebook/pkg/config"
	"github.com/newit5s/tablebook/pkg/events"
	"github.com/newit5s/tablebook/pkg/logger"
)

// The notify service consumes booking events off NATS and emails
// customers: a confirmation link on creation and notices on confirmation
// and cancellation. It runs in a queue group so multiple instances split
// the stream.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	mail := newMailer(cfg)
	n := &notifier{mail: mail, publicURL: cfg.Server.PublicURL}

	subs := map[string]func(*events.Message){
		events.BookingCreated:   n.onCreated,
		events.BookingConfirmed: n.onConfirmed,
		events.BookingCancelled: n.onCancelled,
	}
	for subject, handler := range subs {
		if err := eventBus.QueueSubscribe(subject, "notify", handler); err != nil {
			logger.Error("Failed to subscribe", "subject", subject, "error", err)
			os.Exit(1)
		}
	}

	logger.Info("Starting notify service", "nats", cfg.NATS.URL)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutting down notify service...")
}

func newMailer(cfg *config.Config) mailer.Service {
	switch {
	case cfg.Email.DevMode:
		return mailer.DevMailer{}
	case cfg.Email.MailerSendKey != "":
		return mailer.NewMailer(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.SMTPFrom)
	default:
		return mailer.NewSMTPMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPFrom,
			cfg.Email.SMTPUser, cfg.Email.SMTPPass, cfg.Email.SMTPUseTLS)
	}
}

type notifier struct {
	mail      mailer.Service
	publicURL string
}

func (n *notifier) onCreated(msg *events.Message) {
	var e events.BookingCreatedEvent
	if err := json.Unmarshal(msg.Data, &e); err != nil {
		logger.Error("Bad booking.created payload", "error", err)
		return
	}
	if e.CustomerEmail == "" || e.ConfirmationToken == "" {
		return
	}

	link := fmt.Sprintf("%s/bookings/confirm?token=%s", n.publicURL, e.ConfirmationToken)
	text := fmt.Sprintf(
		"Hi %s,\n\nWe received your reservation for %d guests on %s at %s.\nPlease confirm it within 24 hours: %s\n",
		e.CustomerName, e.GuestCount, e.BookingDate, e.CheckinTime, link)
	html := fmt.Sprintf(
		`<p>Hi %s,</p><p>We received your reservation for <b>%d guests</b> on <b>%s</b> at <b>%s</b>.</p>
<p>Please <a href="%s">confirm your reservation</a> within 24 hours.</p>`,
		e.CustomerName, e.GuestCount, e.BookingDate, e.CheckinTime, link)

	if _, err := n.mail.Send(e.CustomerEmail, e.CustomerName, "Please confirm your reservation", text, html); err != nil {
		logger.Error("Failed to send confirmation email", "booking_id", e.BookingID, "error", err)
		return
	}
	logger.Info("Confirmation email sent", "booking_id", e.BookingID)
}

func (n *notifier) onConfirmed(msg *events.Message) {
	var e events.BookingConfirmedEvent
	if err := json.Unmarshal(msg.Data, &e); err != nil {
		logger.Error("Bad booking.confirmed payload", "error", err)
		return
	}
	if e.CustomerEmail == "" {
		return
	}

	text := fmt.Sprintf(
		"Hi %s,\n\nYour reservation on %s at %s is confirmed. You are seated at table %d.\nSee you soon!\n",
		e.CustomerName, e.BookingDate, e.CheckinTime, e.TableNumber)
	html := fmt.Sprintf(
		`<p>Hi %s,</p><p>Your reservation on <b>%s</b> at <b>%s</b> is confirmed. You are seated at table <b>%d</b>.</p><p>See you soon!</p>`,
		e.CustomerName, e.BookingDate, e.CheckinTime, e.TableNumber)

	if _, err := n.mail.Send(e.CustomerEmail, e.CustomerName, "Your reservation is confirmed", text, html); err != nil {
		logger.Error("Failed to send confirmed notice", "booking_id", e.BookingID, "error", err)
		return
	}
	logger.Info("Confirmed notice sent", "booking_id", e.BookingID)
}

func (n *notifier) onCancelled(msg *events.Message) {
	var e events.BookingStatusEvent
	if err := json.Unmarshal(msg.Data, &e); err != nil {
		logger.Error("Bad booking.cancelled payload", "error", err)
		return
	}
	if e.CustomerEmail == "" {
		return
	}

	text := "Your reservation has been cancelled. We hope to see you another time.\n"
	html := `<p>Your reservation has been cancelled. We hope to see you another time.</p>`

	if _, err := n.mail.Send(e.CustomerEmail, "", "Your reservation was cancelled", text, html); err != nil {
		logger.Error("Failed to send cancellation notice", "booking_id", e.BookingID, "error", err)
		return
	}
	logger.Info("Cancellation notice sent", "booking_id", e.BookingID)
}
