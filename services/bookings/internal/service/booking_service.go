package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/diagnosis/luxsuv-rentals/internal/daterange"
	"github.com/diagnosis/luxsuv-rentals/pkg/apperror"
	"github.com/diagnosis/luxsuv-rentals/pkg/keylock"
	"github.com/diagnosis/luxsuv-rentals/pkg/logger"
	"github.com/diagnosis/luxsuv-rentals/pkg/metrics"
	"github.com/diagnosis/luxsuv-rentals/services/bookings/internal/availability"
	"github.com/diagnosis/luxsuv-rentals/services/bookings/internal/domain"
	"github.com/diagnosis/luxsuv-rentals/services/bookings/internal/repository"
)

var (
	ErrItemNotFound      = apperror.NotFound("ITEM_NOT_FOUND", "service not found")
	ErrItemNotBookable   = apperror.Validation("ITEM_NOT_BOOKABLE", "service is not accepting bookings")
	ErrBookingNotFound   = apperror.NotFound("BOOKING_NOT_FOUND", "booking not found")
	ErrInvalidRange      = apperror.Validation("INVALID_DATE_RANGE", "startDate must be before endDate")
	ErrInvalidDate       = apperror.Validation("INVALID_DATE", "dates must be formatted as YYYY-MM-DD")
	ErrRangeTooLong      = apperror.Validation("DATE_RANGE_TOO_LONG", fmt.Sprintf("a booking may cover at most %d days", daterange.MaxDays))
	ErrAmbiguousDates    = apperror.Validation("AMBIGUOUS_DATES", "send either startDate/endDate or selectedDates, not both")
	ErrInvalidTransition = apperror.Conflict("INVALID_STATUS_TRANSITION", "booking cannot move to the requested status")
)

// Actor is the authenticated caller of a booking operation.
type Actor struct {
	UserID int64
	Email  string
	Admin  bool
}

type BookingService interface {
	CreateBooking(ctx context.Context, actor Actor, req *domain.CreateBookingRequest) (*domain.Booking, error)
	MonthAvailability(ctx context.Context, itemID int64, year, month int) ([]domain.DayAvailability, error)
	GetBooking(ctx context.Context, actor Actor, id int64) (*domain.Booking, error)
	ListBookings(ctx context.Context, actor Actor, f domain.BookingFilter) ([]domain.Booking, error)
	ListItemBookings(ctx context.Context, itemID int64, f domain.BookingFilter) ([]domain.Booking, error)
	CancelBooking(ctx context.Context, actor Actor, id int64, reason string) (*domain.Booking, error)
	ConfirmBooking(ctx context.Context, id int64) (*domain.Booking, error)
	CompleteBooking(ctx context.Context, id int64) (*domain.Booking, error)
}

type bookingService struct {
	itemRepo    repository.ItemRepository
	bookingRepo repository.BookingRepository
	notifier    Notifier
	locks       *keylock.Map
	notifyTTL   time.Duration
}

func NewBookingService(
	itemRepo repository.ItemRepository,
	bookingRepo repository.BookingRepository,
	notifier Notifier,
) BookingService {
	return &bookingService{
		itemRepo:    itemRepo,
		bookingRepo: bookingRepo,
		notifier:    notifier,
		locks:       keylock.New(),
		notifyTTL:   10 * time.Second,
	}
}

// requestedDays resolves the request into the days it occupies and the
// half-open span stored on the booking.
func requestedDays(req *domain.CreateBookingRequest) ([]time.Time, daterange.Range, error) {
	if len(req.SelectedDates) > 0 {
		if req.StartDate != "" || req.EndDate != "" {
			return nil, daterange.Range{}, ErrAmbiguousDates
		}
		parsed := make([]time.Time, 0, len(req.SelectedDates))
		for _, s := range req.SelectedDates {
			day, err := daterange.ParseDate(s)
			if err != nil {
				return nil, daterange.Range{}, ErrInvalidDate
			}
			parsed = append(parsed, day)
		}
		days := daterange.Unique(parsed)
		return days, daterange.Span(days), nil
	}

	start, err := daterange.ParseDate(req.StartDate)
	if err != nil {
		return nil, daterange.Range{}, ErrInvalidDate
	}
	end, err := daterange.ParseDate(req.EndDate)
	if err != nil {
		return nil, daterange.Range{}, ErrInvalidDate
	}
	rng := daterange.New(start, end)
	if !rng.Valid() || rng.DayCount() <= 0 {
		return nil, daterange.Range{}, ErrInvalidRange
	}
	if rng.DayCount() > daterange.MaxDays {
		return nil, daterange.Range{}, ErrRangeTooLong
	}
	return rng.Days(), rng, nil
}

func price(perUnit float64, days int) float64 {
	return math.Round(perUnit*float64(days)*100) / 100
}

func (s *bookingService) CreateBooking(ctx context.Context, actor Actor, req *domain.CreateBookingRequest) (*domain.Booking, error) {
	days, rng, err := requestedDays(req)
	if err != nil {
		return nil, err
	}

	item, err := s.itemRepo.GetByID(ctx, req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load service: %w", err)
	}
	if item == nil || item.IsDeleted {
		return nil, ErrItemNotFound
	}
	if !item.Bookable() {
		return nil, ErrItemNotBookable
	}

	b := &domain.Booking{
		UserID:    actor.UserID,
		ItemID:    item.ID,
		StartDate: rng.Start,
		EndDate:   rng.End,
		Status:    domain.BookingPending,
	}
	if len(req.SelectedDates) > 0 {
		b.SelectedDates = days
	}

	unlock := s.locks.Lock("item:" + strconv.FormatInt(item.ID, 10))
	defer unlock()

	var locked *domain.Item
	created, err := s.bookingRepo.CreateChecked(ctx, b, func(current *domain.Item, existing []domain.Booking) error {
		if current.IsDeleted {
			return ErrItemNotFound
		}
		if !current.Bookable() {
			return ErrItemNotBookable
		}
		if err := availability.CheckCapacity(current, existing, days); err != nil {
			return err
		}
		locked = current
		b.TotalPrice = price(current.PricePerUnit, len(days))
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		if apperror.KindOf(err) == apperror.KindConflict {
			metrics.BookingConflicts.Inc()
			logger.InfoContext(ctx, "Booking rejected", "item_id", item.ID, "range", rng.String(), logger.Err(err))
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	metrics.BookingsCreated.Inc()
	logger.InfoContext(ctx, "Booking created", "booking_id", created.ID, "item_id", created.ItemID, "days", len(days))

	s.notifyAsync(ctx, func(nctx context.Context) error {
		return s.notifier.BookingCreated(nctx, created, locked, actor.Email)
	}, "booking_created", created.ID)

	return created, nil
}

// notifyAsync runs send on a context detached from the request so the caller
// never waits on, or fails because of, the notification.
func (s *bookingService) notifyAsync(ctx context.Context, send func(context.Context) error, kind string, bookingID int64) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTTL)
	go func() {
		defer cancel()
		if err := send(nctx); err != nil {
			metrics.NotificationFailures.WithLabelValues(kind).Inc()
			logger.ErrorContext(nctx, "Failed to send booking notification", logger.Err(err), "kind", kind, "booking_id", bookingID)
		}
	}()
}

func (s *bookingService) MonthAvailability(ctx context.Context, itemID int64, year, month int) ([]domain.DayAvailability, error) {
	if err := availability.ValidateMonth(year, month); err != nil {
		return nil, err
	}

	var (
		item     *domain.Item
		bookings []domain.Booking
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		item, err = s.itemRepo.GetByID(gctx, itemID)
		return err
	})
	g.Go(func() error {
		var err error
		bookings, err = s.bookingRepo.ListOverlapping(gctx, itemID, daterange.Month(year, time.Month(month)))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load availability: %w", err)
	}
	if item == nil || item.IsDeleted {
		return nil, ErrItemNotFound
	}

	return availability.Month(item, bookings, year, month)
}

func (s *bookingService) GetBooking(ctx context.Context, actor Actor, id int64) (*domain.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if b == nil || (!actor.Admin && b.UserID != actor.UserID) {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

func (s *bookingService) ListBookings(ctx context.Context, actor Actor, f domain.BookingFilter) ([]domain.Booking, error) {
	if !actor.Admin || f.UserID == 0 {
		f.UserID = actor.UserID
	}
	return s.bookingRepo.List(ctx, f)
}

func (s *bookingService) ListItemBookings(ctx context.Context, itemID int64, f domain.BookingFilter) ([]domain.Booking, error) {
	f.ItemID = itemID
	f.UserID = 0
	return s.bookingRepo.List(ctx, f)
}

func (s *bookingService) CancelBooking(ctx context.Context, actor Actor, id int64, reason string) (*domain.Booking, error) {
	if _, err := s.GetBooking(ctx, actor, id); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "user_requested"
		if actor.Admin {
			reason = "admin_cancelled"
		}
	}
	return s.transition(ctx, id, domain.BookingCancelled, actor.Email, reason)
}

func (s *bookingService) ConfirmBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.transition(ctx, id, domain.BookingConfirmed, "", "")
}

func (s *bookingService) CompleteBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.transition(ctx, id, domain.BookingCompleted, "", "")
}

func (s *bookingService) transition(ctx context.Context, id int64, to domain.BookingStatus, email, reason string) (*domain.Booking, error) {
	current, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if current == nil {
		return nil, ErrBookingNotFound
	}
	if !domain.CanTransition(current.Status, to) {
		return nil, ErrInvalidTransition.WithMessage(
			fmt.Sprintf("booking cannot move from %s to %s", current.Status, to))
	}

	updated, err := s.bookingRepo.UpdateStatus(ctx, id, current.Status, to)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}
	if updated == nil {
		// status changed between read and write
		return nil, ErrInvalidTransition
	}

	logger.InfoContext(ctx, "Booking status changed", "booking_id", id, "from", current.Status, "to", to)
	s.notifyAsync(ctx, func(nctx context.Context) error {
		return s.notifier.BookingStatusChanged(nctx, updated, email, reason)
	}, "booking_"+string(to), id)

	return updated, nil
}
