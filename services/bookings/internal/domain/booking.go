package domain

import (
	"time"

	"github.com/diagnosis/luxsuv-rentals/internal/daterange"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

// Occupies reports whether a booking in this status holds capacity.
func (s BookingStatus) Occupies() bool {
	return s != BookingCancelled
}

var transitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
}

func CanTransition(from, to BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Booking covers [StartDate, EndDate). When SelectedDates is set the booking
// only occupies those days and the range is their covering span.
type Booking struct {
	ID            int64
	UserID        int64
	ItemID        int64
	StartDate     time.Time
	EndDate       time.Time
	SelectedDates []time.Time
	TotalPrice    float64
	Status        BookingStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (b *Booking) Range() daterange.Range {
	return daterange.New(b.StartDate, b.EndDate)
}

// Days lists the calendar days the booking occupies.
func (b *Booking) Days() []time.Time {
	if len(b.SelectedDates) > 0 {
		return daterange.Unique(b.SelectedDates)
	}
	return b.Range().Days()
}

func (b *Booking) DayCount() int {
	return len(b.Days())
}

type CreateBookingRequest struct {
	ServiceID     int64    `json:"serviceId" validate:"required,gt=0"`
	StartDate     string   `json:"startDate" validate:"required_without=SelectedDates,omitempty,datetime=2006-01-02"`
	EndDate       string   `json:"endDate" validate:"required_with=StartDate,omitempty,datetime=2006-01-02"`
	SelectedDates []string `json:"selectedDates,omitempty" validate:"omitempty,max=366,dive,datetime=2006-01-02"`
}

type BookingDTO struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"userId"`
	ServiceID     int64     `json:"serviceId"`
	StartDate     string    `json:"startDate"`
	EndDate       string    `json:"endDate"`
	SelectedDates []string  `json:"selectedDates,omitempty"`
	DayCount      int       `json:"dayCount"`
	TotalPrice    float64   `json:"totalPrice"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (b *Booking) ToDTO() BookingDTO {
	dto := BookingDTO{
		ID:         b.ID,
		UserID:     b.UserID,
		ServiceID:  b.ItemID,
		StartDate:  daterange.Format(b.StartDate),
		EndDate:    daterange.Format(b.EndDate),
		DayCount:   b.DayCount(),
		TotalPrice: b.TotalPrice,
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
	for _, d := range b.SelectedDates {
		dto.SelectedDates = append(dto.SelectedDates, daterange.Format(d))
	}
	return dto
}

type BookingFilter struct {
	UserID int64
	ItemID int64
	Status *BookingStatus
	Limit  int
	Offset int
}

// DayAvailability is one row of a month calendar.
type DayAvailability struct {
	Date     string `json:"date"`
	Occupied int    `json:"occupied"`
	Total    int    `json:"total"`
	Closed   bool   `json:"closed"`
}
