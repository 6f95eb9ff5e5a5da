// Package consumer turns booking events into customer emails.
package consumer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/diagnosis/luxsuv-rentals/pkg/events"
	"github.com/diagnosis/luxsuv-rentals/pkg/logger"
	"github.com/diagnosis/luxsuv-rentals/pkg/mailer"
	"github.com/diagnosis/luxsuv-rentals/pkg/metrics"
)

const sendTimeout = 15 * time.Second

type Consumer struct {
	sender mailer.Sender
}

func New(sender mailer.Sender) *Consumer {
	return &Consumer{sender: sender}
}

// Subscribe registers the consumer for every booking subject. Using a queue
// group means each event is mailed once across notify replicas.
func (c *Consumer) Subscribe(sub events.Subscriber, queue string) error {
	if err := sub.QueueSubscribe(events.BookingCreated, queue, c.handle); err != nil {
		return fmt.Errorf("subscribe %s: %w", events.BookingCreated, err)
	}
	for _, subject := range []string{events.BookingConfirmed, events.BookingCanceled, events.BookingCompleted} {
		if err := sub.QueueSubscribe(subject, queue, c.handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
	}
	return nil
}

func (c *Consumer) handle(msg *events.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := c.Handle(ctx, msg); err != nil {
		metrics.NotificationFailures.WithLabelValues(msg.Subject).Inc()
		logger.Error("Failed to handle booking event", logger.Err(err), "subject", msg.Subject)
	}
}

// Handle mails the customer named in msg. Events without an address are
// skipped.
func (c *Consumer) Handle(ctx context.Context, msg *events.Message) error {
	switch msg.Subject {
	case events.BookingCreated:
		var ev events.BookingCreatedEvent
		if err := msg.Decode(&ev); err != nil {
			return fmt.Errorf("decode %s: %w", msg.Subject, err)
		}
		if ev.UserEmail == "" {
			return nil
		}
		return c.sender.Send(ctx, mailer.BookingConfirmationEmail(
			ev.UserEmail, ev.ItemTitle, ev.StartDate, ev.EndDate, ev.DayCount, ev.TotalPrice, ev.BookingID))

	case events.BookingConfirmed, events.BookingCanceled, events.BookingCompleted:
		var ev events.BookingStatusEvent
		if err := msg.Decode(&ev); err != nil {
			return fmt.Errorf("decode %s: %w", msg.Subject, err)
		}
		if ev.UserEmail == "" {
			logger.Debug("Skipping status email without recipient", "booking_id", ev.BookingID)
			return nil
		}
		status := ev.Status
		if status == "" {
			status = strings.TrimPrefix(msg.Subject, "booking.")
		}
		return c.sender.Send(ctx, mailer.BookingStatusEmail(ev.UserEmail, ev.BookingID, status, ev.Reason))

	default:
		return fmt.Errorf("unexpected subject %q", msg.Subject)
	}
}
