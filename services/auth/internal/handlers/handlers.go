package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	mw "github.com/diagnosis/luxsuv-rentals/pkg/middleware"
	"github.com/diagnosis/luxsuv-rentals/pkg/response"
	"github.com/diagnosis/luxsuv-rentals/services/auth/internal/service"
)

type Handlers struct {
	authService service.AuthService
	validate    *validator.Validate
	otpLimiter  *mw.RateLimiter
}

// New wires the auth endpoints. otpLimiter throttles code requests per
// client IP and per email address.
func New(authService service.AuthService, otpLimiter *mw.RateLimiter) *Handlers {
	return &Handlers{
		authService: authService,
		validate:    validator.New(),
		otpLimiter:  otpLimiter,
	}
}

func (h *Handlers) Routes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.otpLimiter.Middleware)
			r.Post("/request-otp", h.RequestOTP)
			r.Post("/register/request-otp", h.RequestRegistrationOTP)
			r.Post("/password/forgot", h.ForgotPassword)
		})
		r.Post("/verify-otp", h.VerifyOTP)
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Post("/password/reset", h.ResetPassword)
	})
}

// decode reads a JSON body, trims it and runs the validate tags.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return false
	}
	if n, ok := dst.(interface{ Normalize() }); ok {
		n.Normalize()
	}
	if err := h.validate.Struct(dst); err != nil {
		response.ValidationError(w, err)
		return false
	}
	return true
}

// allowEmail applies the per-address budget on top of the per-IP one.
func (h *Handlers) allowEmail(w http.ResponseWriter, email string) bool {
	if !h.otpLimiter.Allow("email:" + email) {
		response.RateLimit(w, "too many code requests for this email, try again later")
		return false
	}
	return true
}
