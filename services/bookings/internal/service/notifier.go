package service

import (
	"context"
	"time"

	"github.com/diagnosis/luxsuv-rentals/internal/daterange"
	"github.com/diagnosis/luxsuv-rentals/pkg/events"
	"github.com/diagnosis/luxsuv-rentals/services/bookings/internal/domain"
)

// Notifier tells the outside world about booking changes. Delivery is best
// effort: callers log failures and carry on.
type Notifier interface {
	BookingCreated(ctx context.Context, b *domain.Booking, item *domain.Item, email string) error
	BookingStatusChanged(ctx context.Context, b *domain.Booking, email, reason string) error
}

type eventNotifier struct {
	publisher events.Publisher
}

var _ Notifier = (*eventNotifier)(nil)

// NewEventNotifier publishes booking events for the notify service, which
// turns them into emails.
func NewEventNotifier(publisher events.Publisher) Notifier {
	return &eventNotifier{publisher: publisher}
}

func (n *eventNotifier) BookingCreated(ctx context.Context, b *domain.Booking, item *domain.Item, email string) error {
	return n.publisher.Publish(ctx, events.BookingCreated, events.BookingCreatedEvent{
		BookingID:  b.ID,
		ItemID:     b.ItemID,
		ItemTitle:  item.Title,
		UserID:     b.UserID,
		UserEmail:  email,
		StartDate:  daterange.Format(b.StartDate),
		EndDate:    daterange.Format(b.EndDate),
		DayCount:   b.DayCount(),
		TotalPrice: b.TotalPrice,
		CreatedAt:  b.CreatedAt,
	})
}

func (n *eventNotifier) BookingStatusChanged(ctx context.Context, b *domain.Booking, email, reason string) error {
	var subject string
	switch b.Status {
	case domain.BookingConfirmed:
		subject = events.BookingConfirmed
	case domain.BookingCancelled:
		subject = events.BookingCanceled
	case domain.BookingCompleted:
		subject = events.BookingCompleted
	default:
		return nil
	}
	return n.publisher.Publish(ctx, subject, events.BookingStatusEvent{
		BookingID: b.ID,
		ItemID:    b.ItemID,
		UserID:    b.UserID,
		UserEmail: email,
		Status:    string(b.Status),
		Reason:    reason,
		ChangedAt: time.Now().UTC(),
	})
}
