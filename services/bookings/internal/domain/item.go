package domain

import (
	"fmt"
	"time"

	"github.com/diagnosis/luxsuv-rentals/internal/daterange"
)

type ItemStatus string

const (
	ItemActive   ItemStatus = "active"
	ItemUnlisted ItemStatus = "unlisted"
	ItemEnded    ItemStatus = "ended"
)

type ItemKind string

const (
	KindService ItemKind = "service"
	KindEvent   ItemKind = "event"
)

type AvailabilityKind string

const (
	AvailabilityRecurring      AvailabilityKind = "recurring"
	AvailabilitySpecificRanges AvailabilityKind = "specific_ranges"
)

// Availability describes on which calendar days an item can be booked at
// all, independent of how many units are taken.
type Availability struct {
	Kind      AvailabilityKind `json:"kind"`
	Recurring *Recurring       `json:"recurring,omitempty"`
	Ranges    []DateWindow     `json:"ranges,omitempty"`
}

// Recurring is a weekly schedule. An empty DaysOfWeek means every day.
type Recurring struct {
	DaysOfWeek []time.Weekday `json:"daysOfWeek"`
	Open       bool           `json:"open"`
	StartTime  string         `json:"startTime,omitempty"`
	EndTime    string         `json:"endTime,omitempty"`
}

// DateWindow is inclusive of both dates.
type DateWindow struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func AlwaysOpen() Availability {
	return Availability{Kind: AvailabilityRecurring, Recurring: &Recurring{Open: true}}
}

func (a Availability) Validate() error {
	switch a.Kind {
	case AvailabilityRecurring:
		if a.Recurring == nil {
			return fmt.Errorf("recurring availability requires a schedule")
		}
		for _, d := range a.Recurring.DaysOfWeek {
			if d < time.Sunday || d > time.Saturday {
				return fmt.Errorf("invalid weekday %d", d)
			}
		}
		var start, end time.Time
		var err error
		if a.Recurring.StartTime != "" {
			if start, err = parseHHMM(a.Recurring.StartTime); err != nil {
				return err
			}
		}
		if a.Recurring.EndTime != "" {
			if end, err = parseHHMM(a.Recurring.EndTime); err != nil {
				return err
			}
		}
		if a.Recurring.StartTime != "" && a.Recurring.EndTime != "" && !start.Before(end) {
			return fmt.Errorf("startTime must be before endTime")
		}
	case AvailabilitySpecificRanges:
		if len(a.Ranges) == 0 {
			return fmt.Errorf("specific_ranges availability requires at least one range")
		}
		for _, w := range a.Ranges {
			if _, err := w.Range(); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown availability kind %q", a.Kind)
	}
	return nil
}

// Range converts the inclusive window into a half-open daterange.
func (w DateWindow) Range() (daterange.Range, error) {
	start, err := daterange.ParseDate(w.StartDate)
	if err != nil {
		return daterange.Range{}, err
	}
	end, err := daterange.ParseDate(w.EndDate)
	if err != nil {
		return daterange.Range{}, err
	}
	if end.Before(start) {
		return daterange.Range{}, fmt.Errorf("range %s..%s ends before it starts", w.StartDate, w.EndDate)
	}
	return daterange.New(start, end.Add(daterange.Day)), nil
}

func parseHHMM(s string) (time.Time, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return t, nil
}

type Item struct {
	ID           int64        `json:"id"`
	Kind         ItemKind     `json:"kind"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	PricePerUnit float64      `json:"pricePerUnit"`
	Capacity     int          `json:"capacity"`
	Availability Availability `json:"availability"`
	Status       ItemStatus   `json:"status"`
	IsDeleted    bool         `json:"isDeleted"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Bookable reports whether new bookings may be taken.
func (i *Item) Bookable() bool {
	return i.Status == ItemActive && !i.IsDeleted
}

type CreateItemRequest struct {
	Kind         ItemKind      `json:"kind" validate:"omitempty,oneof=service event"`
	Title        string        `json:"title" validate:"required,max=200"`
	Description  string        `json:"description" validate:"max=5000"`
	PricePerUnit *float64      `json:"pricePerUnit" validate:"required,gte=0"`
	Capacity     int           `json:"capacity" validate:"omitempty,gte=1"`
	Availability *Availability `json:"availability"`
}

type UpdateItemRequest struct {
	Title        *string       `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description  *string       `json:"description,omitempty" validate:"omitempty,max=5000"`
	PricePerUnit *float64      `json:"pricePerUnit,omitempty" validate:"omitempty,gte=0"`
	Capacity     *int          `json:"capacity,omitempty" validate:"omitempty,gte=1"`
	Availability *Availability `json:"availability,omitempty"`
}

type ItemFilter struct {
	Kind          ItemKind
	IncludeHidden bool
	Limit         int
	Offset        int
}
