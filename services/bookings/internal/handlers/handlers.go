package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/diagnosis/luxsuv-rentals/pkg/auth"
	mw "github.com/diagnosis/luxsuv-rentals/pkg/middleware"
	"github.com/diagnosis/luxsuv-rentals/pkg/response"
	"github.com/diagnosis/luxsuv-rentals/services/bookings/internal/service"
)

type Handlers struct {
	bookingService service.BookingService
	catalogService service.CatalogService
	validate       *validator.Validate
	jwtSecret      string
	idempotency    mw.IdempotencyStore
	idempotencyTTL time.Duration
}

// New builds the HTTP layer. A nil idempotency store disables
// Idempotency-Key replay on POST /bookings.
func New(
	bookingService service.BookingService,
	catalogService service.CatalogService,
	jwtSecret string,
	idempotency mw.IdempotencyStore,
) *Handlers {
	return &Handlers{
		bookingService: bookingService,
		catalogService: catalogService,
		validate:       validator.New(),
		jwtSecret:      jwtSecret,
		idempotency:    idempotency,
		idempotencyTTL: 24 * time.Hour,
	}
}

// Routes mounts the booking and catalog endpoints on r.
func (h *Handlers) Routes(r chi.Router) {
	requireUser := mw.RequireJWT(h.jwtSecret, "")
	requireAdmin := mw.RequireJWT(h.jwtSecret, auth.RoleAdmin)

	r.Route("/bookings", func(r chi.Router) {
		r.Use(requireUser)
		if h.idempotency != nil {
			r.With(mw.Idempotency(h.idempotency, h.idempotencyTTL)).Post("/", h.CreateBooking)
		} else {
			r.Post("/", h.CreateBooking)
		}
		r.Get("/", h.ListBookings)
		r.Get("/{id}", h.GetBooking)
		r.Post("/{id}/cancel", h.CancelBooking)
		r.With(requireAdmin).Post("/{id}/confirm", h.ConfirmBooking)
		r.With(requireAdmin).Post("/{id}/complete", h.CompleteBooking)
	})

	r.Route("/services", func(r chi.Router) {
		r.Get("/", h.ListItems)
		r.Get("/{id}", h.GetItem)
		r.Get("/{id}/availability", h.MonthAvailability)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/", h.CreateItem)
			r.Patch("/{id}", h.UpdateItem)
			r.Post("/{id}/unlist", h.UnlistItem)
			r.Post("/{id}/activate", h.ActivateItem)
			r.Post("/{id}/end", h.EndItem)
			r.Delete("/{id}", h.DeleteItem)
			r.Get("/{id}/bookings", h.ListItemBookings)
		})
	})
}

func actorFrom(r *http.Request) (service.Actor, bool) {
	claims := auth.FromContext(r.Context())
	if claims == nil {
		return service.Actor{}, false
	}
	return service.Actor{UserID: claims.Sub, Email: claims.Email, Admin: claims.IsAdmin()}, true
}

// decode reads a JSON body into dst and runs struct validation. It writes the
// error response itself and reports whether the handler should continue.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		response.ValidationError(w, err)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "invalid id")
		return 0, false
	}
	return id, true
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
