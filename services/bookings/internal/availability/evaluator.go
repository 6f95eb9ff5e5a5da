// Package availability computes per-day occupancy for catalog items. It does
// no I/O: callers load the item and its bookings and pass them in.
package availability

import (
	"fmt"
	"slices"
	"time"

	"github.com/diagnosis/luxsuv-rentals/internal/daterange"
	"github.com/diagnosis/luxsuv-rentals/pkg/apperror"
	"github.com/diagnosis/luxsuv-rentals/services/bookings/internal/domain"
)

var (
	ErrInvalidMonth = apperror.Validation("INVALID_MONTH", "month must be between 1 and 12")
	ErrInvalidYear  = apperror.Validation("INVALID_YEAR", "year must be between 1 and 9999")
	ErrDayFull      = apperror.Conflict("BOOKING_CONFLICT", "the requested dates are not available")
	ErrDayClosed    = apperror.Conflict("ITEM_CLOSED", "the item is closed on a requested date")
)

// Closed reports whether day falls outside the item's availability
// descriptor.
func Closed(a domain.Availability, day time.Time) bool {
	day = daterange.Truncate(day)
	switch a.Kind {
	case domain.AvailabilityRecurring:
		if a.Recurring == nil || !a.Recurring.Open {
			return true
		}
		if len(a.Recurring.DaysOfWeek) == 0 {
			return false
		}
		return !slices.Contains(a.Recurring.DaysOfWeek, day.Weekday())
	case domain.AvailabilitySpecificRanges:
		for _, w := range a.Ranges {
			r, err := w.Range()
			if err != nil {
				continue
			}
			if r.Contains(day) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Occupancy counts, per calendar day, the bookings that hold capacity.
// Cancelled bookings are ignored.
func Occupancy(bookings []domain.Booking) map[time.Time]int {
	counts := make(map[time.Time]int)
	for i := range bookings {
		if !bookings[i].Status.Occupies() {
			continue
		}
		for _, d := range bookings[i].Days() {
			counts[d]++
		}
	}
	return counts
}

func capacity(item *domain.Item) int {
	if item.Capacity < 1 {
		return 1
	}
	return item.Capacity
}

// ValidateMonth checks the calendar coordinates of a month query.
func ValidateMonth(year, month int) error {
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	if year < 1 || year > 9999 {
		return ErrInvalidYear
	}
	return nil
}

// Month reports occupied and total units for every day of the month in
// ascending date order.
func Month(item *domain.Item, bookings []domain.Booking, year, month int) ([]domain.DayAvailability, error) {
	if err := ValidateMonth(year, month); err != nil {
		return nil, err
	}

	counts := Occupancy(bookings)
	total := capacity(item)
	days := daterange.MonthDays(year, time.Month(month))

	out := make([]domain.DayAvailability, 0, len(days))
	for _, d := range days {
		out = append(out, domain.DayAvailability{
			Date:     daterange.Format(d),
			Occupied: counts[d],
			Total:    total,
			Closed:   Closed(item.Availability, d),
		})
	}
	return out, nil
}

// CheckCapacity fails with a conflict when any requested day is closed or
// already holds capacity bookings.
func CheckCapacity(item *domain.Item, existing []domain.Booking, requested []time.Time) error {
	counts := Occupancy(existing)
	limit := capacity(item)

	for _, d := range daterange.Unique(requested) {
		if Closed(item.Availability, d) {
			return ErrDayClosed.WithMessage(fmt.Sprintf("the item is closed on %s", daterange.Format(d))).
				WithDetails(map[string]any{"date": daterange.Format(d)})
		}
		if counts[d]+1 > limit {
			return ErrDayFull.WithMessage(fmt.Sprintf("the item is fully booked on %s", daterange.Format(d))).
				WithDetails(map[string]any{"date": daterange.Format(d), "occupied": counts[d], "total": limit})
		}
	}
	return nil
}
