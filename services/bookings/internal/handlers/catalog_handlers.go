package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/diagnosis/luxsuv-rentals/pkg/response"
	"github.com/diagnosis/luxsuv-rentals/services/bookings/internal/domain"
)

func (h *Handlers) ListItems(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	f := domain.ItemFilter{Kind: domain.ItemKind(r.URL.Query().Get("kind")), Limit: limit, Offset: offset}

	items, err := h.catalogService.ListItems(r.Context(), f)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.Item{}
	}
	response.JSON(w, http.StatusOK, items)
}

func (h *Handlers) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := h.catalogService.GetItem(r.Context(), id, false)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

// MonthAvailability handles GET /services/{id}/availability?month=&year=.
func (h *Handlers) MonthAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		response.BadRequest(w, "month must be an integer between 1 and 12")
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		response.BadRequest(w, "year must be an integer")
		return
	}

	days, err := h.bookingService.MonthAvailability(r.Context(), id, year, month)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, days)
}

func (h *Handlers) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	item, err := h.catalogService.CreateItem(r.Context(), &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, item)
}

func (h *Handlers) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req domain.UpdateItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	item, err := h.catalogService.UpdateItem(r.Context(), id, &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

func (h *Handlers) UnlistItem(w http.ResponseWriter, r *http.Request) {
	h.changeItem(w, r, h.catalogService.UnlistItem)
}

func (h *Handlers) ActivateItem(w http.ResponseWriter, r *http.Request) {
	h.changeItem(w, r, h.catalogService.ActivateItem)
}

func (h *Handlers) EndItem(w http.ResponseWriter, r *http.Request) {
	h.changeItem(w, r, h.catalogService.EndItem)
}

func (h *Handlers) changeItem(w http.ResponseWriter, r *http.Request, change func(context.Context, int64) (*domain.Item, error)) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := change(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

func (h *Handlers) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.catalogService.DeleteItem(r.Context(), id); err != nil {
		response.FromError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListItemBookings lets admins see every booking held against an item.
func (h *Handlers) ListItemBookings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	f, ok := bookingFilter(w, r)
	if !ok {
		return
	}
	if _, err := h.catalogService.GetItem(r.Context(), id, true); err != nil {
		response.FromError(w, r, err)
		return
	}

	bookings, err := h.bookingService.ListItemBookings(r.Context(), id, f)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeBookings(w, bookings)
}
