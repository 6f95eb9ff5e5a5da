package handlers

import (
	"net/http"

	"github.com/diagnosis/luxsuv-rentals/pkg/response"
	"github.com/diagnosis/luxsuv-rentals/services/auth/internal/domain"
)

type messageResponse struct {
	Message string `json:"message"`
}

// RequestOTP answers 202 without revealing the code.
func (h *Handlers) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.OTPRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.allowEmail(w, req.Email) {
		return
	}

	if err := h.authService.RequestOTP(r.Context(), req.Email); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusAccepted, messageResponse{Message: "verification code sent"})
}

func (h *Handlers) RequestRegistrationOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.OTPRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.allowEmail(w, req.Email) {
		return
	}

	if err := h.authService.RequestRegistrationOTP(r.Context(), req.Email); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusAccepted, messageResponse{Message: "verification code sent"})
}

func (h *Handlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.authService.VerifyOTP(r.Context(), req.Email, req.Code); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, messageResponse{Message: "email verified"})
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	tokens, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, tokens)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	tokens, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, tokens)
}

func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshTokenRequest
	if !h.decode(w, r, &req) {
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, tokens)
}

// ForgotPassword always answers 202 for well-formed input.
func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.OTPRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.allowEmail(w, req.Email) {
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusAccepted, messageResponse{Message: "if the account exists a reset code was sent"})
}

func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.authService.ResetPassword(r.Context(), &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, messageResponse{Message: "password updated"})
}
