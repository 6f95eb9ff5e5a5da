package availability

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/luxsuv-rentals/internal/daterange"
	"github.com/diagnosis/luxsuv-rentals/pkg/apperror"
	"github.com/diagnosis/luxsuv-rentals/services/bookings/internal/domain"
)

func d(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := daterange.ParseDate(s)
	require.NoError(t, err)
	return v
}

func booking(t *testing.T, start, end string, status domain.BookingStatus) domain.Booking {
	return domain.Booking{StartDate: d(t, start), EndDate: d(t, end), Status: status}
}

func TestMonthCountsActiveBookings(t *testing.T) {
	item := &domain.Item{Capacity: 2, Availability: domain.AlwaysOpen()}
	bookings := []domain.Booking{
		booking(t, "2024-03-10", "2024-03-12", domain.BookingPending),
		booking(t, "2024-03-11", "2024-03-13", domain.BookingConfirmed),
		booking(t, "2024-03-11", "2024-03-12", domain.BookingCancelled),
		booking(t, "2024-02-28", "2024-03-02", domain.BookingCompleted),
	}

	days, err := Month(item, bookings, 2024, 3)
	require.NoError(t, err)
	require.Len(t, days, 31)

	byDate := map[string]domain.DayAvailability{}
	for _, day := range days {
		byDate[day.Date] = day
		assert.Equal(t, 2, day.Total)
		assert.False(t, day.Closed)
	}
	assert.Equal(t, 1, byDate["2024-03-01"].Occupied)
	assert.Equal(t, 0, byDate["2024-03-02"].Occupied)
	assert.Equal(t, 1, byDate["2024-03-10"].Occupied)
	assert.Equal(t, 2, byDate["2024-03-11"].Occupied)
	assert.Equal(t, 1, byDate["2024-03-12"].Occupied)
	assert.Equal(t, 0, byDate["2024-03-13"].Occupied)
}

func TestMonthIsAscendingAndRepeatable(t *testing.T) {
	item := &domain.Item{Capacity: 1, Availability: domain.AlwaysOpen()}
	bookings := []domain.Booking{booking(t, "2024-03-10", "2024-03-12", domain.BookingPending)}

	first, err := Month(item, bookings, 2024, 3)
	require.NoError(t, err)
	second, err := Month(item, bookings, 2024, 3)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	for i := 1; i < len(first); i++ {
		assert.Less(t, first[i-1].Date, first[i].Date)
	}
}

func TestMonthRejectsInvalidMonth(t *testing.T) {
	item := &domain.Item{Capacity: 1, Availability: domain.AlwaysOpen()}

	for _, m := range []int{0, 13, -1} {
		_, err := Month(item, nil, 2024, m)
		assert.ErrorIs(t, err, ErrInvalidMonth)
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	}
	_, err := Month(item, nil, 0, 5)
	assert.ErrorIs(t, err, ErrInvalidYear)
}

func TestMonthSelectedDates(t *testing.T) {
	item := &domain.Item{Capacity: 1, Availability: domain.AlwaysOpen()}
	b := domain.Booking{
		StartDate:     d(t, "2024-04-02"),
		EndDate:       d(t, "2024-04-06"),
		SelectedDates: []time.Time{d(t, "2024-04-02"), d(t, "2024-04-05")},
		Status:        domain.BookingPending,
	}

	days, err := Month(item, []domain.Booking{b}, 2024, 4)
	require.NoError(t, err)

	assert.Equal(t, 1, days[1].Occupied)
	assert.Equal(t, 0, days[2].Occupied)
	assert.Equal(t, 0, days[3].Occupied)
	assert.Equal(t, 1, days[4].Occupied)
}

func TestClosedRecurring(t *testing.T) {
	weekends := domain.Availability{Kind: domain.AvailabilityRecurring, Recurring: &domain.Recurring{
		DaysOfWeek: []time.Weekday{time.Saturday, time.Sunday}, Open: true,
	}}
	// 2024-03-09 is a Saturday
	assert.False(t, Closed(weekends, d(t, "2024-03-09")))
	assert.False(t, Closed(weekends, d(t, "2024-03-10")))
	assert.True(t, Closed(weekends, d(t, "2024-03-11")))

	shut := domain.Availability{Kind: domain.AvailabilityRecurring, Recurring: &domain.Recurring{Open: false}}
	assert.True(t, Closed(shut, d(t, "2024-03-09")))

	assert.False(t, Closed(domain.AlwaysOpen(), d(t, "2024-03-11")))
}

func TestClosedSpecificRanges(t *testing.T) {
	a := domain.Availability{Kind: domain.AvailabilitySpecificRanges, Ranges: []domain.DateWindow{
		{StartDate: "2024-07-01", EndDate: "2024-07-03"},
		{StartDate: "2024-07-10", EndDate: "2024-07-10"},
	}}

	assert.True(t, Closed(a, d(t, "2024-06-30")))
	assert.False(t, Closed(a, d(t, "2024-07-01")))
	assert.False(t, Closed(a, d(t, "2024-07-03")))
	assert.True(t, Closed(a, d(t, "2024-07-04")))
	assert.False(t, Closed(a, d(t, "2024-07-10")))
}

func TestMonthMarksClosedDays(t *testing.T) {
	item := &domain.Item{Capacity: 1, Availability: domain.Availability{
		Kind:   domain.AvailabilitySpecificRanges,
		Ranges: []domain.DateWindow{{StartDate: "2024-07-01", EndDate: "2024-07-02"}},
	}}

	days, err := Month(item, nil, 2024, 7)
	require.NoError(t, err)
	assert.False(t, days[0].Closed)
	assert.False(t, days[1].Closed)
	assert.True(t, days[2].Closed)
}

func TestCheckCapacitySingleUnit(t *testing.T) {
	item := &domain.Item{Capacity: 1, Availability: domain.AlwaysOpen()}
	existing := []domain.Booking{booking(t, "2024-03-10", "2024-03-12", domain.BookingPending)}

	overlapping := daterange.New(d(t, "2024-03-11"), d(t, "2024-03-13")).Days()
	err := CheckCapacity(item, existing, overlapping)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDayFull))
	appErr, _ := apperror.As(err)
	assert.Equal(t, "2024-03-11", appErr.Details["date"])

	adjacent := daterange.New(d(t, "2024-03-12"), d(t, "2024-03-14")).Days()
	assert.NoError(t, CheckCapacity(item, existing, adjacent))
}

func TestCheckCapacityMultiUnit(t *testing.T) {
	item := &domain.Item{Capacity: 2, Availability: domain.AlwaysOpen()}
	existing := []domain.Booking{booking(t, "2024-03-10", "2024-03-12", domain.BookingPending)}
	req := daterange.New(d(t, "2024-03-11"), d(t, "2024-03-13")).Days()

	require.NoError(t, CheckCapacity(item, existing, req))

	existing = append(existing, booking(t, "2024-03-11", "2024-03-12", domain.BookingConfirmed))
	assert.ErrorIs(t, CheckCapacity(item, existing, req), ErrDayFull)
}

func TestCheckCapacityIgnoresCancelled(t *testing.T) {
	item := &domain.Item{Capacity: 1, Availability: domain.AlwaysOpen()}
	existing := []domain.Booking{booking(t, "2024-03-10", "2024-03-12", domain.BookingCancelled)}

	assert.NoError(t, CheckCapacity(item, existing, daterange.New(d(t, "2024-03-10"), d(t, "2024-03-12")).Days()))
}

func TestCheckCapacityRejectsClosedDay(t *testing.T) {
	item := &domain.Item{Capacity: 5, Availability: domain.Availability{Kind: domain.AvailabilityRecurring, Recurring: &domain.Recurring{
		DaysOfWeek: []time.Weekday{time.Saturday}, Open: true,
	}}}

	err := CheckCapacity(item, nil, []time.Time{d(t, "2024-03-09"), d(t, "2024-03-10")})
	assert.ErrorIs(t, err, ErrDayClosed)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}
