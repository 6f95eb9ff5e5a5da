package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/luxsuv-rentals/pkg/events"
	"github.com/diagnosis/luxsuv-rentals/pkg/mailer"
)

type sink struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (s *sink) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type fakeSubscriber struct {
	subjects map[string]string
}

func (f *fakeSubscriber) Subscribe(subject string, _ func(*events.Message)) error {
	return errors.New("plain subscriptions are not used")
}

func (f *fakeSubscriber) QueueSubscribe(subject, queue string, _ func(*events.Message)) error {
	f.subjects[subject] = queue
	return nil
}

func (f *fakeSubscriber) Close() error { return nil }

func message(t *testing.T, subject string, payload any) *events.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return &events.Message{Subject: subject, Data: data}
}

func TestSubscribeUsesQueueGroup(t *testing.T) {
	sub := &fakeSubscriber{subjects: map[string]string{}}
	require.NoError(t, New(&sink{}).Subscribe(sub, "notify"))

	assert.Equal(t, map[string]string{
		events.BookingCreated:   "notify",
		events.BookingConfirmed: "notify",
		events.BookingCanceled:  "notify",
		events.BookingCompleted: "notify",
	}, sub.subjects)
}

func TestHandleBookingCreated(t *testing.T) {
	s := &sink{}
	msg := message(t, events.BookingCreated, events.BookingCreatedEvent{
		BookingID: 7, ItemTitle: "Kayak", UserEmail: "a@b.com",
		StartDate: "2024-03-01", EndDate: "2024-03-03", DayCount: 3, TotalPrice: 148.5,
	})

	require.NoError(t, New(s).Handle(context.Background(), msg))
	require.Len(t, s.sent, 1)
	assert.Equal(t, "a@b.com", s.sent[0].To)
	assert.Equal(t, "Booking #7 received", s.sent[0].Subject)
	assert.Contains(t, s.sent[0].Text, "148.50")
}

func TestHandleStatusChange(t *testing.T) {
	s := &sink{}
	msg := message(t, events.BookingCanceled, events.BookingStatusEvent{
		BookingID: 7, UserEmail: "a@b.com", Reason: "plans changed",
	})

	require.NoError(t, New(s).Handle(context.Background(), msg))
	require.Len(t, s.sent, 1)
	assert.Equal(t, "Booking #7 canceled", s.sent[0].Subject)
	assert.Contains(t, s.sent[0].Text, "plans changed")
}

func TestHandleSkipsMissingRecipient(t *testing.T) {
	s := &sink{}
	msg := message(t, events.BookingConfirmed, events.BookingStatusEvent{BookingID: 7, Status: "confirmed"})

	require.NoError(t, New(s).Handle(context.Background(), msg))
	assert.Empty(t, s.sent)
}

func TestHandleErrors(t *testing.T) {
	c := New(&sink{err: errors.New("smtp down")})

	err := c.Handle(context.Background(), &events.Message{Subject: events.BookingCreated, Data: []byte("{")})
	assert.ErrorContains(t, err, "decode booking.created")

	err = c.Handle(context.Background(), message(t, events.BookingCreated, events.BookingCreatedEvent{UserEmail: "a@b.com"}))
	assert.ErrorContains(t, err, "smtp down")

	err = c.Handle(context.Background(), &events.Message{Subject: "booking.unknown", Data: []byte("{}")})
	assert.Error(t, err)
}
