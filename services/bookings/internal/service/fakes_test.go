package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/diagnosis/luxsuv-rentals/internal/daterange"
	"github.com/diagnosis/luxsuv-rentals/services/bookings/internal/domain"
	"github.com/diagnosis/luxsuv-rentals/services/bookings/internal/repository"
)

// memStore backs both fake repositories so CreateChecked can see items and
// bookings under one lock, like the row lock in postgres.
type memStore struct {
	mu       sync.Mutex
	items    map[int64]domain.Item
	bookings map[int64]domain.Booking
	nextID   int64
}

func newMemStore() *memStore {
	return &memStore{items: map[int64]domain.Item{}, bookings: map[int64]domain.Booking{}}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

type fakeItemRepo struct{ *memStore }

var _ repository.ItemRepository = fakeItemRepo{}

func (r fakeItemRepo) Create(_ context.Context, item *domain.Item) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it := *item
	it.ID = r.id()
	it.CreatedAt = time.Now()
	it.UpdatedAt = it.CreatedAt
	r.items[it.ID] = it
	return &it, nil
}

func (r fakeItemRepo) GetByID(_ context.Context, id int64) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (r fakeItemRepo) List(_ context.Context, f domain.ItemFilter) ([]domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Item
	for _, it := range r.items {
		if f.Kind != "" && it.Kind != f.Kind {
			continue
		}
		if !f.IncludeHidden && !it.Bookable() {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeItemRepo) Update(_ context.Context, item *domain.Item) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[item.ID]
	if !ok || cur.IsDeleted {
		return nil, nil
	}
	it := *item
	r.items[it.ID] = it
	return &it, nil
}

func (r fakeItemRepo) SetStatus(_ context.Context, id int64, status domain.ItemStatus) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok || it.IsDeleted {
		return nil, nil
	}
	it.Status = status
	r.items[id] = it
	return &it, nil
}

func (r fakeItemRepo) SoftDelete(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok || it.IsDeleted {
		return false, nil
	}
	it.IsDeleted = true
	r.items[id] = it
	return true, nil
}

type fakeBookingRepo struct{ *memStore }

var _ repository.BookingRepository = fakeBookingRepo{}

func (r fakeBookingRepo) overlapping(itemID int64, rng daterange.Range) []domain.Booking {
	var out []domain.Booking
	for _, b := range r.bookings {
		if b.ItemID == itemID && b.Status.Occupies() && b.Range().Overlaps(rng) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r fakeBookingRepo) CreateChecked(_ context.Context, b *domain.Booking, guard repository.CapacityGuard) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[b.ItemID]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	if err := guard(&item, r.overlapping(b.ItemID, b.Range())); err != nil {
		return nil, err
	}

	created := *b
	created.ID = r.id()
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	r.bookings[created.ID] = created
	return &created, nil
}

func (r fakeBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r fakeBookingRepo) ListOverlapping(_ context.Context, itemID int64, rng daterange.Range) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlapping(itemID, rng), nil
}

func (r fakeBookingRepo) List(_ context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Booking
	for _, b := range r.bookings {
		if f.UserID != 0 && b.UserID != f.UserID {
			continue
		}
		if f.ItemID != 0 && b.ItemID != f.ItemID {
			continue
		}
		if f.Status != nil && b.Status != *f.Status {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r fakeBookingRepo) UpdateStatus(_ context.Context, id int64, from, to domain.BookingStatus) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Status != from {
		return nil, nil
	}
	b.Status = to
	b.UpdatedAt = time.Now()
	r.bookings[id] = b
	return &b, nil
}

type sentNotification struct {
	kind      string
	bookingID int64
	email     string
	status    domain.BookingStatus
}

type chanNotifier struct {
	sent chan sentNotification
	err  error
}

func newChanNotifier(err error) *chanNotifier {
	return &chanNotifier{sent: make(chan sentNotification, 64), err: err}
}

func (n *chanNotifier) BookingCreated(_ context.Context, b *domain.Booking, _ *domain.Item, email string) error {
	n.sent <- sentNotification{kind: "created", bookingID: b.ID, email: email, status: b.Status}
	return n.err
}

func (n *chanNotifier) BookingStatusChanged(_ context.Context, b *domain.Booking, email, _ string) error {
	n.sent <- sentNotification{kind: "status", bookingID: b.ID, email: email, status: b.Status}
	return n.err
}

var errNotifyDown = errors.New("smtp unreachable")
