package handlers

import (
	"net/http"
	"strconv"

	"github.com/diagnosis/luxsuv-rentals/pkg/response"
	"github.com/diagnosis/luxsuv-rentals/services/bookings/internal/domain"
)

type cancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

func writeBookings(w http.ResponseWriter, bookings []domain.Booking) {
	dtos := make([]domain.BookingDTO, 0, len(bookings))
	for i := range bookings {
		dtos = append(dtos, bookings[i].ToDTO())
	}
	response.JSON(w, http.StatusOK, dtos)
}

func bookingFilter(w http.ResponseWriter, r *http.Request) (domain.BookingFilter, bool) {
	limit, offset := parsePagination(r)
	f := domain.BookingFilter{Limit: limit, Offset: offset}

	if raw := r.URL.Query().Get("status"); raw != "" {
		st, ok := domain.ParseBookingStatus(raw)
		if !ok {
			response.BadRequest(w, "invalid status parameter")
			return f, false
		}
		f.Status = &st
	}
	if raw := r.URL.Query().Get("userId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.BadRequest(w, "invalid userId parameter")
			return f, false
		}
		f.UserID = id
	}
	return f, true
}

// CreateBooking handles POST /bookings.
func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	var req domain.CreateBookingRequest
	if !h.decode(w, r, &req) {
		return
	}

	booking, err := h.bookingService.CreateBooking(r.Context(), actor, &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, booking.ToDTO())
}

// ListBookings returns the caller's bookings. Admins may pass userId.
func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}
	f, ok := bookingFilter(w, r)
	if !ok {
		return
	}

	bookings, err := h.bookingService.ListBookings(r.Context(), actor, f)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeBookings(w, bookings)
}

func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(r.Context(), actor, id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, booking.ToDTO())
}

func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req cancelRequest
	if r.ContentLength > 0 && !h.decode(w, r, &req) {
		return
	}

	booking, err := h.bookingService.CancelBooking(r.Context(), actor, id, req.Reason)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, booking.ToDTO())
}

func (h *Handlers) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	booking, err := h.bookingService.ConfirmBooking(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, booking.ToDTO())
}

func (h *Handlers) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	booking, err := h.bookingService.CompleteBooking(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, booking.ToDTO())
}
